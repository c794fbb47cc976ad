package notify

import "context"

// Subscription states.
const (
	StatePending   = "pending"
	StateConfirmed = "confirmed"
)

// FilterPolicy restricts which publishes a subscription receives. A publish
// carrying a user_id attribute is delivered only to the subscription whose
// policy names that user.
type FilterPolicy struct {
	UserID string `json:"user_id"`
}

// Subscription is one durable filtered attachment of an endpoint to a topic.
type Subscription struct {
	ID       string       `json:"id"`
	TopicID  string       `json:"topic_id"`
	Endpoint string       `json:"endpoint"`
	Filter   FilterPolicy `json:"filter"`
	State    string       `json:"state"`
}

// Page is one page of a subscription listing. HasMore is the only signal
// that another page exists; an empty NextToken never implies the end.
type Page struct {
	Subscriptions []Subscription
	NextToken     string
	HasMore       bool
}

// Message is a publish addressed through filter attributes.
type Message struct {
	Subject    string            `json:"subject"`
	Body       string            `json:"body"`
	Attributes map[string]string `json:"attributes"`
}

// Delivery is one outbound item the delivery consumer must act on: either a
// filtered document publish or a confirmation request for a new pending
// subscription.
type Delivery struct {
	Type           string            `json:"type"`
	Endpoint       string            `json:"endpoint"`
	Subject        string            `json:"subject"`
	Body           string            `json:"body"`
	SubscriptionID string            `json:"subscription_id,omitempty"`
	Attributes     map[string]string `json:"attributes,omitempty"`
}

// Broker is the notification transport: named topics, durable filtered
// subscriptions, and filtered publishes. Subscribe is compare-and-create
// keyed by (topic, filter user): a second subscribe for the same user
// returns the existing record instead of creating a duplicate.
type Broker interface {
	EnsureTopic(ctx context.Context, name string) (string, error)
	ListSubscriptions(ctx context.Context, topicID, pageToken string) (Page, error)
	Subscribe(ctx context.Context, topicID, endpoint string, filter FilterPolicy) (Subscription, error)
	Publish(ctx context.Context, topicID string, msg Message) error
	Confirm(ctx context.Context, subscriptionID string) error

	// Deliveries streams outbound items for the topic until ctx is done.
	Deliveries(ctx context.Context, topicID string) (<-chan Delivery, error)
}
