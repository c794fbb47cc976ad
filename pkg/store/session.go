package store

// Session represents the active conversation state in memory.
// It is exclusively owned by one conversation and discarded when
// the conversation ends.
type Session struct {
	ID     string `json:"id"` // conversation id from the voice transport
	UserID string `json:"user_id"`

	// Query tracking
	LastQuery   string `json:"last_query"`
	QueryStatus string `json:"query_status"`
	QueryCount  int    `json:"query_count"` // results shown/skipped for the current query

	// Last presented content
	QueryResult   string `json:"query_result"`
	LastDocText   string `json:"last_doc_text"`
	LastSourceURI string `json:"last_source_uri"`

	// Disambiguation for bare yes/no replies
	LastHandler string `json:"last_handler"`

	// Verbatim text of the last spoken response, for repeat requests
	LastOutput string `json:"last_output"`
}

const (
	StatusNoneAsked        = "none asked"
	StatusNewAsk           = "new ask"
	StatusAskedNotAnswered = "asked not answered"
	StatusAskedAndAnswered = "asked and answered"
	StatusNewQuery         = "new query"
	StatusNewPass          = "new pass"

	HandlerNone         = ""
	HandlerCaptureQuery = "capture query"
	HandlerReadDoc      = "read doc"
	HandlerEmail        = "email"
)

// NewSession returns a fresh session with all fields at their launch defaults.
func NewSession(id, userID string) *Session {
	return &Session{
		ID:          id,
		UserID:      userID,
		LastQuery:   "no previous query",
		QueryStatus: StatusNoneAsked,
		QueryCount:  0,
		LastHandler: HandlerNone,
	}
}

// Reset restores launch defaults while keeping the conversation identity.
func (s *Session) Reset() {
	*s = *NewSession(s.ID, s.UserID)
}

// Clone returns an independent copy. Turn handling mutates the copy and
// persists it only on success, so a failed turn never half-writes state.
func (s *Session) Clone() *Session {
	c := *s
	return &c
}

// HasResult reports whether a previous turn produced content that can be
// emailed or read back.
func (s *Session) HasResult() bool {
	return s.QueryResult != ""
}
