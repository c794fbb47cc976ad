package dialogue

import (
	"log"

	"doc-support-be/pkg/store"
)

// Resolution is the outcome of query resolution: either a query to hand to
// the search backend, or a final speech output with the session already
// updated (no search to execute).
type Resolution struct {
	Query  string
	Speech string
}

// Final reports whether resolution short-circuited the turn.
func (r Resolution) Final() bool {
	return r.Speech != ""
}

// Resolver decides what search query, if any, a capture-query turn should
// issue, and maintains the escalation counter.
type Resolver struct {
	logger *log.Logger
}

func NewResolver(logger *log.Logger) *Resolver {
	return &Resolver{logger: logger}
}

// Resolve picks the query text for this turn. A rejected previous candidate
// retries the same query; an explicit restart after the email flow forces a
// reprompt; otherwise the freshly spoken slot value is used.
func (r *Resolver) Resolve(session *store.Session, rawSlot string) Resolution {
	var query string
	switch session.QueryStatus {
	case store.StatusAskedNotAnswered:
		query = session.LastQuery
	case store.StatusNewQuery:
		query = ""
	default:
		query = rawSlot
	}

	if query != session.LastQuery {
		session.QueryCount = 0
		session.QueryStatus = store.StatusNewAsk
	}

	if session.QueryStatus == store.StatusAskedAndAnswered || query == "" {
		speech := speechAskedBefore(session.LastQuery)
		session.QueryStatus = store.StatusNewAsk
		session.LastOutput = speech
		return Resolution{Speech: speech}
	}

	if session.QueryCount > 2 {
		r.logger.Printf("[RESOLVER] Escalation threshold reached for query %q", query)
		session.QueryCount = 0
		session.QueryStatus = store.StatusNewAsk
		session.LastOutput = speechTrouble
		return Resolution{Speech: speechTrouble}
	}

	return Resolution{Query: query}
}
