package dialogue

import (
	"log"

	"doc-support-be/pkg/store"
)

// Selection is the spoken presentation of at most one search result.
type Selection struct {
	Speech string
	Found  bool
}

// Selector picks exactly one candidate from a ranked result list, honoring
// the skip rules for rejected and already-shown candidates.
type Selector struct {
	logger *log.Logger
}

func NewSelector(logger *log.Logger) *Selector {
	return &Selector{logger: logger}
}

// Select walks the ranked results in order. A candidate the user already
// rejected is skipped once; after two shown candidates the next two ranks
// are passed over; the first remaining answer or document wins.
func (s *Selector) Select(results []store.Result, query string, session *store.Session) Selection {
	var (
		speech    string
		sourceURI string
		found     bool
		skipped   bool
	)

	for _, res := range results {
		sourceURI = res.SourceURI

		if session.QueryStatus == store.StatusAskedNotAnswered {
			session.QueryStatus = store.StatusNewPass
			session.QueryCount++
			skipped = true
			continue
		}

		if session.QueryCount == 2 {
			session.QueryCount++
			skipped = true
			continue
		}

		if res.Kind == store.KindAnswer || res.Kind == store.KindQuestionAnswer {
			session.QueryResult = res.ExcerptText
			speech = speechFoundAnswer(res.ExcerptText)
			found = true
			break
		}

		if res.Kind == store.KindDocument {
			session.LastDocText = res.ExcerptText
			if res.Title != "" {
				session.QueryResult = res.Title
				speech = speechFoundDocument(res.Title)
			} else {
				session.QueryResult = res.ExcerptText
				speech = speechFoundAnswer(res.ExcerptText)
			}
			found = true
			break
		}
	}

	if !found {
		// Ranked list exhausted without a usable candidate. A skip already
		// counted this pass; otherwise count the miss so repeats escalate.
		s.logger.Printf("[SELECTOR] No usable result among %d candidates for %q", len(results), query)
		speech = speechNoMatch
		if !skipped {
			session.QueryCount++
		}
	}

	session.LastQuery = query
	session.LastSourceURI = sourceURI
	session.LastHandler = store.HandlerCaptureQuery
	session.LastOutput = speech

	return Selection{Speech: speech, Found: found}
}
