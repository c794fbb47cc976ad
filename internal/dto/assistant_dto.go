package dto

// TurnRequest is one recognized utterance from the voice transport.
type TurnRequest struct {
	RequestType string            `json:"request_type" validate:"required,oneof=LaunchRequest IntentRequest SessionEndedRequest"`
	IntentName  string            `json:"intent_name"`
	SessionID   string            `json:"session_id" validate:"required"`
	UserID      string            `json:"user_id" validate:"required"`
	Slots       map[string]string `json:"slots"`
}

// TurnResponse is the spoken reply the transport should render.
type TurnResponse struct {
	Speech          string `json:"speech"`
	Reprompt        string `json:"reprompt,omitempty"`
	EndSession      bool   `json:"end_session"`
	NeedPermissions bool   `json:"need_permissions,omitempty"`
}
