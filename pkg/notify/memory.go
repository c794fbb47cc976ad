package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"doc-support-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

const metadataEventType = "event_type"

// MemoryBroker is an in-process Broker over a watermill gochannel bus.
// Subscription records live in process memory; good for tests and single
// node local runs.
type MemoryBroker struct {
	mu       sync.RWMutex
	topics   map[string]string
	subs     map[string][]Subscription
	pageSize int
	bus      *gochannel.GoChannel
}

func NewMemoryBroker(pageSize int) *MemoryBroker {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &MemoryBroker{
		topics:   make(map[string]string),
		subs:     make(map[string][]Subscription),
		pageSize: pageSize,
		bus:      gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false)),
	}
}

func (b *MemoryBroker) EnsureTopic(_ context.Context, name string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if id, ok := b.topics[name]; ok {
		return id, nil
	}
	id := "topic:" + name
	b.topics[name] = id
	return id, nil
}

func (b *MemoryBroker) ListSubscriptions(_ context.Context, topicID, pageToken string) (Page, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	all := b.subs[topicID]
	offset := 0
	if pageToken != "" {
		n, err := strconv.Atoi(pageToken)
		if err != nil {
			return Page{}, fmt.Errorf("invalid page token %q", pageToken)
		}
		offset = n
	}
	if offset >= len(all) {
		return Page{}, nil
	}

	end := offset + b.pageSize
	if end > len(all) {
		end = len(all)
	}

	page := Page{Subscriptions: append([]Subscription(nil), all[offset:end]...)}
	if end < len(all) {
		page.HasMore = true
		page.NextToken = strconv.Itoa(end)
	}
	return page, nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context, topicID, endpoint string, filter FilterPolicy) (Subscription, error) {
	b.mu.Lock()
	for _, s := range b.subs[topicID] {
		if s.Filter.UserID == filter.UserID {
			b.mu.Unlock()
			return s, nil
		}
	}
	sub := Subscription{
		ID:       uuid.NewString(),
		TopicID:  topicID,
		Endpoint: endpoint,
		Filter:   filter,
		State:    StatePending,
	}
	b.subs[topicID] = append(b.subs[topicID], sub)
	b.mu.Unlock()

	if err := b.publishEvent(topicID, events.NewConfirmationRequest(endpoint, sub.ID)); err != nil {
		return Subscription{}, err
	}
	return sub, nil
}

func (b *MemoryBroker) Publish(_ context.Context, topicID string, msg Message) error {
	userID := msg.Attributes["user_id"]

	b.mu.RLock()
	var targets []Subscription
	for _, s := range b.subs[topicID] {
		if s.State == StateConfirmed && s.Filter.UserID == userID {
			targets = append(targets, s)
		}
	}
	b.mu.RUnlock()

	for _, s := range targets {
		if err := b.publishEvent(topicID, events.NewDocDelivery(s.Endpoint, msg.Subject, msg.Body, userID)); err != nil {
			return err
		}
	}
	return nil
}

func (b *MemoryBroker) Confirm(_ context.Context, subscriptionID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for topicID, list := range b.subs {
		for i := range list {
			if list[i].ID == subscriptionID {
				b.subs[topicID][i].State = StateConfirmed
				return nil
			}
		}
	}
	return fmt.Errorf("subscription %s not found", subscriptionID)
}

func (b *MemoryBroker) Deliveries(ctx context.Context, topicID string) (<-chan Delivery, error) {
	msgs, err := b.bus.Subscribe(ctx, deliverySubject(topicID))
	if err != nil {
		return nil, fmt.Errorf("subscribe to deliveries: %w", err)
	}

	out := make(chan Delivery)
	go func() {
		defer close(out)
		for msg := range msgs {
			d, err := deliveryFromWire(msg.Metadata.Get(metadataEventType), msg.Payload)
			if err != nil {
				msg.Nack()
				continue
			}
			select {
			case out <- d:
				msg.Ack()
			case <-ctx.Done():
				msg.Nack()
				return
			}
		}
	}()
	return out, nil
}

func (b *MemoryBroker) publishEvent(topicID string, ev events.Event) error {
	data, err := json.Marshal(ev.Payload())
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", ev.EventType(), err)
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set(metadataEventType, ev.EventType())
	return b.bus.Publish(deliverySubject(topicID), msg)
}

func deliverySubject(topicID string) string {
	return "deliveries." + topicID
}

// deliveryFromWire reconstructs a Delivery from an event payload.
func deliveryFromWire(eventType string, payload []byte) (Delivery, error) {
	var data map[string]interface{}
	if err := json.Unmarshal(payload, &data); err != nil {
		return Delivery{}, fmt.Errorf("unmarshal delivery payload: %w", err)
	}

	str := func(key string) string {
		v, _ := data[key].(string)
		return v
	}

	d := Delivery{
		Type:           eventType,
		Endpoint:       str("endpoint"),
		Subject:        str("subject"),
		Body:           str("body"),
		SubscriptionID: str("subscription_id"),
	}
	if userID := str("user_id"); userID != "" {
		d.Attributes = map[string]string{"user_id": userID}
	}
	if d.Endpoint == "" {
		return Delivery{}, fmt.Errorf("%s event missing endpoint", eventType)
	}
	return d, nil
}
