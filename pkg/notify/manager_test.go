package notify

import (
	"context"
	"fmt"
	"log"
	"testing"
	"time"

	"doc-support-be/pkg/events"
	"doc-support-be/pkg/profile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProfiles struct {
	result profile.Result
	err    error
}

func (s *stubProfiles) Lookup(_ context.Context, _ string) (profile.Result, error) {
	return s.result, s.err
}

func okProfile(name, email string) *stubProfiles {
	return &stubProfiles{result: profile.Result{Profile: &profile.Profile{Name: name, Email: email}}}
}

func deniedProfile() *stubProfiles {
	return &stubProfiles{result: profile.Result{PermissionDenied: true}}
}

func testMessage() DocMessage {
	return DocMessage{
		Query:     "s3 bucket policy",
		Result:    "S3 Policies",
		SourceURI: "https://docs/s3",
	}
}

func countSubscriptions(t *testing.T, broker Broker, topicID string) int {
	t.Helper()
	total := 0
	token := ""
	for {
		page, err := broker.ListSubscriptions(context.Background(), topicID, token)
		require.NoError(t, err)
		total += len(page.Subscriptions)
		if !page.HasMore {
			return total
		}
		token = page.NextToken
	}
}

func TestDeliverPermissionDenied(t *testing.T) {
	broker := NewMemoryBroker(0)
	m := NewManager(broker, deniedProfile(), "DocSupportNotifications", log.Default())

	outcome, err := m.Deliver(context.Background(), "user-1", testMessage())
	require.NoError(t, err)
	assert.Equal(t, OutcomePermissionDenied, outcome)

	topicID, err := broker.EnsureTopic(context.Background(), "DocSupportNotifications")
	require.NoError(t, err)
	assert.Zero(t, countSubscriptions(t, broker, topicID), "a denied turn must not create a subscription")
}

func TestDeliverCreatesPendingSubscriptionOnce(t *testing.T) {
	broker := NewMemoryBroker(0)
	m := NewManager(broker, okProfile("Ada", "ada@example.com"), "DocSupportNotifications", log.Default())

	outcome, err := m.Deliver(context.Background(), "user-1", testMessage())
	require.NoError(t, err)
	assert.Equal(t, OutcomePendingConfirmation, outcome)

	// Second attempt without an intervening confirmation: still pending,
	// still exactly one subscription.
	outcome, err = m.Deliver(context.Background(), "user-1", testMessage())
	require.NoError(t, err)
	assert.Equal(t, OutcomePendingConfirmation, outcome)

	topicID, err := broker.EnsureTopic(context.Background(), "DocSupportNotifications")
	require.NoError(t, err)
	assert.Equal(t, 1, countSubscriptions(t, broker, topicID))
}

func TestDeliverPublishesToConfirmedSubscription(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	broker := NewMemoryBroker(0)
	m := NewManager(broker, okProfile("Ada", "ada@example.com"), "DocSupportNotifications", log.Default())

	topicID, err := broker.EnsureTopic(ctx, "DocSupportNotifications")
	require.NoError(t, err)

	deliveries, err := broker.Deliveries(ctx, topicID)
	require.NoError(t, err)

	outcome, err := m.Deliver(ctx, "user-1", testMessage())
	require.NoError(t, err)
	require.Equal(t, OutcomePendingConfirmation, outcome)

	// Out-of-band confirmation.
	confirmation := receiveDelivery(t, deliveries)
	require.Equal(t, events.TypeConfirmationRequest, confirmation.Type)
	require.NoError(t, broker.Confirm(ctx, confirmation.SubscriptionID))

	outcome, err = m.Deliver(ctx, "user-1", testMessage())
	require.NoError(t, err)
	assert.Equal(t, OutcomeSent, outcome)

	doc := receiveDelivery(t, deliveries)
	assert.Equal(t, events.TypeDocDelivery, doc.Type)
	assert.Equal(t, "ada@example.com", doc.Endpoint)
	assert.Equal(t, "You asked about s3 bucket policy", doc.Subject)
	assert.Contains(t, doc.Body, "Hi Ada")
	assert.Contains(t, doc.Body, "S3 Policies")
	assert.Contains(t, doc.Body, "https://docs/s3")
}

func TestDeliverFindsSubscriptionAcrossPages(t *testing.T) {
	ctx := context.Background()

	// Page size 1 forces the manager to walk every page.
	broker := NewMemoryBroker(1)
	topicID, err := broker.EnsureTopic(ctx, "DocSupportNotifications")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := broker.Subscribe(ctx, topicID, fmt.Sprintf("other%d@example.com", i), FilterPolicy{UserID: fmt.Sprintf("other-%d", i)})
		require.NoError(t, err)
	}
	_, err = broker.Subscribe(ctx, topicID, "ada@example.com", FilterPolicy{UserID: "user-1"})
	require.NoError(t, err)

	m := NewManager(broker, okProfile("Ada", "ada@example.com"), "DocSupportNotifications", log.Default())

	outcome, err := m.Deliver(ctx, "user-1", testMessage())
	require.NoError(t, err)
	assert.Equal(t, OutcomePendingConfirmation, outcome)
	assert.Equal(t, 4, countSubscriptions(t, broker, topicID), "the existing last-page subscription must be reused")
}

func TestFilterPolicyIsolatesUsers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	broker := NewMemoryBroker(0)
	topicID, err := broker.EnsureTopic(ctx, "DocSupportNotifications")
	require.NoError(t, err)

	deliveries, err := broker.Deliveries(ctx, topicID)
	require.NoError(t, err)

	subA, err := broker.Subscribe(ctx, topicID, "a@example.com", FilterPolicy{UserID: "user-a"})
	require.NoError(t, err)
	subB, err := broker.Subscribe(ctx, topicID, "b@example.com", FilterPolicy{UserID: "user-b"})
	require.NoError(t, err)
	require.NoError(t, broker.Confirm(ctx, subA.ID))
	require.NoError(t, broker.Confirm(ctx, subB.ID))

	// Drain the two confirmation requests.
	receiveDelivery(t, deliveries)
	receiveDelivery(t, deliveries)

	err = broker.Publish(ctx, topicID, Message{
		Subject:    "subject",
		Body:       "body",
		Attributes: map[string]string{"user_id": "user-b"},
	})
	require.NoError(t, err)

	doc := receiveDelivery(t, deliveries)
	assert.Equal(t, "b@example.com", doc.Endpoint, "a filtered publish goes only to the addressed user")

	select {
	case extra := <-deliveries:
		t.Fatalf("unexpected extra delivery to %s", extra.Endpoint)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDeliveriesChannelClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	broker := NewMemoryBroker(0)
	topicID, err := broker.EnsureTopic(ctx, "DocSupportNotifications")
	require.NoError(t, err)

	deliveries, err := broker.Deliveries(ctx, topicID)
	require.NoError(t, err)

	// Leave a confirmation request pending so cancellation races an
	// in-flight send on the delivery channel.
	_, err = broker.Subscribe(ctx, topicID, "ada@example.com", FilterPolicy{UserID: "user-1"})
	require.NoError(t, err)

	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-deliveries:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("delivery channel not closed after cancellation")
		}
	}
}

func receiveDelivery(t *testing.T, ch <-chan Delivery) Delivery {
	t.Helper()
	select {
	case d := <-ch:
		return d
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery")
		return Delivery{}
	}
}
