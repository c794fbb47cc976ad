package contract

import "doc-support-be/pkg/store"

// SessionRepository holds conversation-scoped sessions. Entries expire on
// their own; a conversation that ends cleanly deletes its entry explicitly.
type SessionRepository interface {
	Get(sessionID string) (*store.Session, bool)
	Save(session *store.Session)
	Delete(sessionID string)
}
