package notify

import (
	"context"
	"fmt"
	"log"

	"doc-support-be/pkg/profile"
)

// Outcome of a delivery attempt.
type Outcome string

const (
	OutcomeSent                Outcome = "sent"
	OutcomePendingConfirmation Outcome = "pending confirmation"
	OutcomePermissionDenied    Outcome = "permission denied"
)

// DocMessage is the content a user asked to have emailed.
type DocMessage struct {
	Query     string
	Result    string
	SourceURI string
}

// Manager implements the at-most-once subscription/publish protocol: one
// durable filtered subscription per user identity on a shared topic, and a
// one-shot publish addressed to that user.
type Manager struct {
	broker    Broker
	profiles  profile.Provider
	topicName string
	logger    *log.Logger
}

func NewManager(broker Broker, profiles profile.Provider, topicName string, logger *log.Logger) *Manager {
	return &Manager{
		broker:    broker,
		profiles:  profiles,
		topicName: topicName,
		logger:    logger,
	}
}

// Deliver emails the message to the user out-of-band. A user who has not
// granted profile access gets OutcomePermissionDenied; a user whose
// subscription is not yet confirmed gets OutcomePendingConfirmation, and a
// second Deliver before confirmation never creates a duplicate subscription.
func (m *Manager) Deliver(ctx context.Context, userID string, msg DocMessage) (Outcome, error) {
	res, err := m.profiles.Lookup(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("profile lookup: %w", err)
	}
	if res.PermissionDenied {
		m.logger.Printf("[NOTIFY] Profile access denied for user %s", userID)
		return OutcomePermissionDenied, nil
	}

	topicID, err := m.broker.EnsureTopic(ctx, m.topicName)
	if err != nil {
		return "", fmt.Errorf("ensure topic %q: %w", m.topicName, err)
	}

	sub, err := m.findSubscription(ctx, topicID, userID)
	if err != nil {
		return "", err
	}

	if sub == nil {
		created, err := m.broker.Subscribe(ctx, topicID, res.Profile.Email, FilterPolicy{UserID: userID})
		if err != nil {
			return "", fmt.Errorf("subscribe user %s: %w", userID, err)
		}
		m.logger.Printf("[NOTIFY] Created subscription %s for user %s (state %s)", created.ID, userID, created.State)
		sub = &created
	}

	if sub.State != StateConfirmed {
		return OutcomePendingConfirmation, nil
	}

	err = m.broker.Publish(ctx, topicID, Message{
		Subject: fmt.Sprintf("You asked about %s", msg.Query),
		Body:    composeBody(res.Profile.Name, msg),
		Attributes: map[string]string{
			"user_id": userID,
		},
	})
	if err != nil {
		return "", fmt.Errorf("publish to topic %s: %w", topicID, err)
	}

	return OutcomeSent, nil
}

// findSubscription pages through the topic's subscriptions until the user's
// filtered subscription is found or the listing reports no more pages.
func (m *Manager) findSubscription(ctx context.Context, topicID, userID string) (*Subscription, error) {
	token := ""
	for {
		page, err := m.broker.ListSubscriptions(ctx, topicID, token)
		if err != nil {
			return nil, fmt.Errorf("list subscriptions for topic %s: %w", topicID, err)
		}
		for i := range page.Subscriptions {
			if page.Subscriptions[i].Filter.UserID == userID {
				return &page.Subscriptions[i], nil
			}
		}
		if !page.HasMore {
			return nil, nil
		}
		token = page.NextToken
	}
}

func composeBody(name string, msg DocMessage) string {
	return fmt.Sprintf("Hi %s,\nYou asked Doc Support about %s. We found this: \n%s\n"+
		"More information can be found in the following documentation: %s",
		name, msg.Query, msg.Result, msg.SourceURI)
}
