package service

import (
	"context"
	"errors"
	"log"
	"testing"
	"time"

	"doc-support-be/internal/dto"
	"doc-support-be/internal/repository/memory"
	"doc-support-be/pkg/dialogue"
	"doc-support-be/pkg/notify"
	"doc-support-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopLogger struct{}

func (noopLogger) Debug(string, string, map[string]interface{}) {}
func (noopLogger) Info(string, string, map[string]interface{})  {}
func (noopLogger) Warn(string, string, map[string]interface{})  {}
func (noopLogger) Error(string, string, map[string]interface{}) {}
func (noopLogger) Sync() error                                  { return nil }

type fixedSearcher struct {
	results []store.Result
	err     error
}

func (s *fixedSearcher) Search(_ context.Context, _ string) ([]store.Result, error) {
	return s.results, s.err
}

type fixedNotifier struct {
	outcome notify.Outcome
}

func (n *fixedNotifier) Deliver(_ context.Context, _ string, _ notify.DocMessage) (notify.Outcome, error) {
	return n.outcome, nil
}

func newService(searcher *fixedSearcher) (IAssistantService, *memory.SessionRepository, notify.Broker) {
	repo := memory.NewSessionRepository(time.Minute)
	broker := notify.NewMemoryBroker(0)
	machine := dialogue.NewMachine(searcher, &fixedNotifier{outcome: notify.OutcomeSent}, log.Default())
	return NewAssistantService(machine, repo, broker, noopLogger{}), repo, broker
}

func captureTurn(sessionID, query string) *dto.TurnRequest {
	return &dto.TurnRequest{
		RequestType: dialogue.RequestIntent,
		IntentName:  dialogue.IntentCaptureQuery,
		SessionID:   sessionID,
		UserID:      "user-1",
		Slots:       map[string]string{dialogue.SlotQuery: query},
	}
}

func TestHandleTurnPersistsSession(t *testing.T) {
	svc, repo, _ := newService(&fixedSearcher{results: []store.Result{
		{Kind: store.KindDocument, ExcerptText: "excerpt", Title: "S3 Policies", SourceURI: "https://docs/s3"},
	}})

	resp, err := svc.HandleTurn(context.Background(), captureTurn("session-1", "s3 bucket policy"))
	require.NoError(t, err)
	assert.Contains(t, resp.Speech, "S3 Policies")

	session, found := repo.Get("session-1")
	require.True(t, found)
	assert.Equal(t, "s3 bucket policy", session.LastQuery)
	assert.Equal(t, store.HandlerCaptureQuery, session.LastHandler)
}

func TestFailedTurnLeavesSessionUnchanged(t *testing.T) {
	svc, repo, _ := newService(&fixedSearcher{err: errors.New("backend down")})

	before := store.NewSession("session-1", "user-1")
	before.LastQuery = "previous query"
	before.QueryStatus = store.StatusAskedAndAnswered
	repo.Save(before)

	resp, err := svc.HandleTurn(context.Background(), captureTurn("session-1", "new query"))
	require.NoError(t, err)
	assert.Equal(t, apologySpeech, resp.Speech, "turn-boundary failures answer with the fixed apology")

	after, found := repo.Get("session-1")
	require.True(t, found)
	assert.Equal(t, "previous query", after.LastQuery, "failed turn must not half-write session state")
	assert.Equal(t, store.StatusAskedAndAnswered, after.QueryStatus)
}

func TestSessionEndedReleasesSession(t *testing.T) {
	svc, repo, _ := newService(&fixedSearcher{})

	repo.Save(store.NewSession("session-1", "user-1"))

	resp, err := svc.HandleTurn(context.Background(), &dto.TurnRequest{
		RequestType: dialogue.RequestSessionEnded,
		SessionID:   "session-1",
		UserID:      "user-1",
	})
	require.NoError(t, err)
	assert.True(t, resp.EndSession)

	_, found := repo.Get("session-1")
	assert.False(t, found, "ended conversations are discarded")
}

func TestConfirmSubscription(t *testing.T) {
	svc, _, broker := newService(&fixedSearcher{})
	ctx := context.Background()

	topicID, err := broker.EnsureTopic(ctx, "DocSupportNotifications")
	require.NoError(t, err)
	sub, err := broker.Subscribe(ctx, topicID, "ada@example.com", notify.FilterPolicy{UserID: "user-1"})
	require.NoError(t, err)

	require.NoError(t, svc.ConfirmSubscription(ctx, sub.ID))

	page, err := broker.ListSubscriptions(ctx, topicID, "")
	require.NoError(t, err)
	require.Len(t, page.Subscriptions, 1)
	assert.Equal(t, notify.StateConfirmed, page.Subscriptions[0].State)

	assert.Error(t, svc.ConfirmSubscription(ctx, "missing-id"))
}
