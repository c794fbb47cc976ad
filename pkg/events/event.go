package events

import "time"

// Event defines the contract for messages carried on the notification bus.
type Event interface {
	// EventType returns the unique code for this event (e.g., "DOC_DELIVERY").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Event type codes.
const (
	TypeDocDelivery         = "DOC_DELIVERY"
	TypeConfirmationRequest = "CONFIRMATION_REQUEST"
)

// BaseEvent is a plain implementation for events reconstructed off the wire.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewDocDelivery describes a document summary addressed to one endpoint.
func NewDocDelivery(endpoint, subject, body, userID string) BaseEvent {
	return BaseEvent{
		Type: TypeDocDelivery,
		Data: map[string]interface{}{
			"endpoint": endpoint,
			"subject":  subject,
			"body":     body,
			"user_id":  userID,
		},
		OccurredAt: time.Now(),
	}
}

// NewConfirmationRequest asks a freshly subscribed endpoint to confirm.
func NewConfirmationRequest(endpoint, subscriptionID string) BaseEvent {
	return BaseEvent{
		Type: TypeConfirmationRequest,
		Data: map[string]interface{}{
			"endpoint":        endpoint,
			"subscription_id": subscriptionID,
		},
		OccurredAt: time.Now(),
	}
}
