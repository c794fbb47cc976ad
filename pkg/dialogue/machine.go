package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log"

	"doc-support-be/pkg/notify"
	"doc-support-be/pkg/search"
	"doc-support-be/pkg/store"
)

// Request types delivered by the voice transport.
const (
	RequestLaunch       = "LaunchRequest"
	RequestIntent       = "IntentRequest"
	RequestSessionEnded = "SessionEndedRequest"
)

// Intent names recognized by the machine.
const (
	IntentCaptureQuery = "CaptureQueryIntent"
	IntentReadDoc      = "ReadDocIntent"
	IntentSendEmail    = "SendEmailIntent"
	IntentYes          = "YesIntent"
	IntentNo           = "NoIntent"
	IntentRepeat       = "RepeatIntent"
	IntentHelp         = "HelpIntent"
	IntentCancel       = "CancelIntent"
	IntentStop         = "StopIntent"
	IntentFallback     = "FallbackIntent"
)

// SlotQuery is the free-text query slot filled by the speech layer.
const SlotQuery = "query"

// ErrStateInconsistency marks a turn whose session state does not support
// the requested transition. The caller answers with the generic apology and
// keeps the previous session intact.
var ErrStateInconsistency = errors.New("session state inconsistent with intent")

// Turn is a single recognized utterance.
type Turn struct {
	RequestType string
	Intent      string
	Slots       map[string]string
}

// Outcome is the spoken response for one turn.
type Outcome struct {
	Speech          string
	Reprompt        string
	EndSession      bool
	NeedPermissions bool
}

// Notifier delivers a presented result out-of-band. Implemented by
// notify.Manager.
type Notifier interface {
	Deliver(ctx context.Context, userID string, msg notify.DocMessage) (notify.Outcome, error)
}

type transitionFunc func(ctx context.Context, session *store.Session, turn Turn) (Outcome, error)

// Machine governs dialogue transitions across turns. It holds only
// immutable collaborators and is a pure function of (turn, session), so one
// instance serves every conversation.
type Machine struct {
	resolver *Resolver
	selector *Selector
	searcher search.Provider
	notifier Notifier
	logger   *log.Logger

	handlers map[string]transitionFunc
}

func NewMachine(searcher search.Provider, notifier Notifier, logger *log.Logger) *Machine {
	m := &Machine{
		resolver: NewResolver(logger),
		selector: NewSelector(logger),
		searcher: searcher,
		notifier: notifier,
		logger:   logger,
	}
	m.handlers = map[string]transitionFunc{
		IntentCaptureQuery: m.handleCaptureQuery,
		IntentReadDoc:      m.handleReadDoc,
		IntentSendEmail:    m.handleSendEmail,
		IntentYes:          m.handleYes,
		IntentNo:           m.handleNo,
		IntentRepeat:       m.handleRepeat,
		IntentHelp:         m.handleHelp,
		IntentCancel:       m.handleStop,
		IntentStop:         m.handleStop,
		IntentFallback:     m.handleFallback,
	}
	return m
}

// HandleTurn dispatches one recognized utterance. The session is mutated in
// place; callers pass a clone and persist it only when no error is returned.
func (m *Machine) HandleTurn(ctx context.Context, session *store.Session, turn Turn) (Outcome, error) {
	switch turn.RequestType {
	case RequestLaunch:
		return m.handleLaunch(ctx, session, turn)
	case RequestSessionEnded:
		return Outcome{EndSession: true}, nil
	case RequestIntent:
		handler, ok := m.handlers[turn.Intent]
		if !ok {
			m.logger.Printf("[DIALOGUE] Unknown intent %q, using fallback", turn.Intent)
			return m.handleFallback(ctx, session, turn)
		}
		return handler(ctx, session, turn)
	default:
		return Outcome{}, fmt.Errorf("unknown request type %q", turn.RequestType)
	}
}

func (m *Machine) handleLaunch(_ context.Context, session *store.Session, _ Turn) (Outcome, error) {
	session.Reset()
	session.LastOutput = speechWelcome
	return Outcome{Speech: speechWelcome, Reprompt: speechWelcomeAsk}, nil
}

func (m *Machine) handleCaptureQuery(ctx context.Context, session *store.Session, turn Turn) (Outcome, error) {
	resolution := m.resolver.Resolve(session, turn.Slots[SlotQuery])
	if resolution.Final() {
		return Outcome{Speech: resolution.Speech}, nil
	}

	results, err := m.searcher.Search(ctx, resolution.Query)
	if err != nil {
		return Outcome{}, fmt.Errorf("search %q: %w", resolution.Query, err)
	}

	selection := m.selector.Select(results, resolution.Query, session)
	return Outcome{Speech: selection.Speech}, nil
}

func (m *Machine) handleReadDoc(_ context.Context, session *store.Session, _ Turn) (Outcome, error) {
	if session.LastDocText == "" {
		// Nothing to read back; degrade to a reprompt instead of failing.
		session.LastOutput = speechNothingToRead
		return Outcome{Speech: speechNothingToRead}, nil
	}

	speech := speechReadDoc(session.LastDocText)
	session.LastHandler = store.HandlerReadDoc
	session.LastOutput = speech
	return Outcome{Speech: speech}, nil
}

func (m *Machine) handleSendEmail(ctx context.Context, session *store.Session, _ Turn) (Outcome, error) {
	if !session.HasResult() {
		session.LastOutput = speechNothingToEmail
		return Outcome{Speech: speechNothingToEmail}, nil
	}

	outcome, err := m.notifier.Deliver(ctx, session.UserID, notify.DocMessage{
		Query:     session.LastQuery,
		Result:    session.QueryResult,
		SourceURI: session.LastSourceURI,
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("deliver notification: %w", err)
	}

	switch outcome {
	case notify.OutcomePermissionDenied:
		session.LastOutput = speechNeedPermissions
		return Outcome{Speech: speechNeedPermissions, NeedPermissions: true}, nil
	case notify.OutcomePendingConfirmation:
		session.LastOutput = speechPendingConfirm
		return Outcome{Speech: speechPendingConfirm}, nil
	default:
		speech := speechEmailSent(session.LastQuery)
		session.LastHandler = store.HandlerEmail
		session.LastOutput = speech
		return Outcome{Speech: speech}, nil
	}
}

func (m *Machine) handleYes(ctx context.Context, session *store.Session, turn Turn) (Outcome, error) {
	switch session.LastHandler {
	case store.HandlerCaptureQuery, store.HandlerReadDoc:
		session.QueryStatus = store.StatusAskedAndAnswered
		session.QueryCount = 0
		session.LastOutput = speechAnswerConfirmed
		return Outcome{Speech: speechAnswerConfirmed}, nil
	case store.HandlerEmail:
		session.QueryStatus = store.StatusNewQuery
		return m.handleCaptureQuery(ctx, session, turn)
	default:
		return Outcome{}, fmt.Errorf("yes with handler %q: %w", session.LastHandler, ErrStateInconsistency)
	}
}

func (m *Machine) handleNo(ctx context.Context, session *store.Session, turn Turn) (Outcome, error) {
	switch session.LastHandler {
	case store.HandlerCaptureQuery, store.HandlerReadDoc:
		session.QueryStatus = store.StatusAskedNotAnswered
		return m.handleCaptureQuery(ctx, session, turn)
	case store.HandlerEmail:
		return Outcome{Speech: speechGoodbyePolite, EndSession: true}, nil
	default:
		return Outcome{}, fmt.Errorf("no with handler %q: %w", session.LastHandler, ErrStateInconsistency)
	}
}

func (m *Machine) handleRepeat(_ context.Context, session *store.Session, _ Turn) (Outcome, error) {
	if session.LastOutput == "" {
		// Repeat before anything was said; fall back to the help prompt.
		return Outcome{Speech: speechHelp, Reprompt: speechHelp}, nil
	}
	return Outcome{Speech: session.LastOutput}, nil
}

func (m *Machine) handleHelp(_ context.Context, session *store.Session, _ Turn) (Outcome, error) {
	session.LastOutput = speechHelp
	return Outcome{Speech: speechHelp, Reprompt: speechHelp}, nil
}

func (m *Machine) handleStop(_ context.Context, _ *store.Session, _ Turn) (Outcome, error) {
	return Outcome{Speech: speechGoodbye, EndSession: true}, nil
}

func (m *Machine) handleFallback(_ context.Context, _ *store.Session, _ Turn) (Outcome, error) {
	m.logger.Printf("[DIALOGUE] Fallback intent")
	return Outcome{Speech: speechFallback, Reprompt: speechFallbackAsk}, nil
}
