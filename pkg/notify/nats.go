package notify

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"doc-support-be/pkg/events"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	natsStream      = "NOTIFY"
	natsSubjectRoot = "notify"
	natsSubsBucket  = "notify_subscriptions"
	natsDurableName = "doc-support-delivery"
	headerEventType = "Event-Type"
	natsCallTimeout = 5 * time.Second
)

// NatsBroker is a Broker over NATS JetStream. Published deliveries ride the
// NOTIFY stream; subscription records live in a JetStream key-value bucket,
// whose create-only put gives the compare-and-create guarantee.
type NatsBroker struct {
	nc       *nats.Conn
	js       jetstream.JetStream
	kv       jetstream.KeyValue
	pageSize int
}

func NewNatsBroker(url string, pageSize int) (*NatsBroker, error) {
	if pageSize <= 0 {
		pageSize = 100
	}

	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), natsCallTimeout)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      natsStream,
		Subjects:  []string{natsSubjectRoot + ".>"},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.WorkQueuePolicy,
	})
	if err != nil {
		log.Printf("Warn: Failed to ensure stream %q: %v", natsStream, err)
	}

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket: natsSubsBucket,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to ensure subscription bucket: %w", err)
	}

	return &NatsBroker{nc: nc, js: js, kv: kv, pageSize: pageSize}, nil
}

func (b *NatsBroker) EnsureTopic(_ context.Context, name string) (string, error) {
	// Topics share the NOTIFY stream; the topic id is the sanitized name
	// used as a subject token, so get-or-create is a pure computation.
	id := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if id == "" {
		return "", fmt.Errorf("invalid topic name %q", name)
	}
	return id, nil
}

func (b *NatsBroker) ListSubscriptions(ctx context.Context, topicID, pageToken string) (Page, error) {
	keys, err := b.topicKeys(ctx, topicID)
	if err != nil {
		return Page{}, err
	}

	offset := 0
	if pageToken != "" {
		n, err := strconv.Atoi(pageToken)
		if err != nil {
			return Page{}, fmt.Errorf("invalid page token %q", pageToken)
		}
		offset = n
	}
	if offset >= len(keys) {
		return Page{}, nil
	}

	end := offset + b.pageSize
	if end > len(keys) {
		end = len(keys)
	}

	page := Page{}
	for _, key := range keys[offset:end] {
		sub, err := b.getSubscription(ctx, key)
		if err != nil {
			return Page{}, err
		}
		page.Subscriptions = append(page.Subscriptions, sub)
	}
	if end < len(keys) {
		page.HasMore = true
		page.NextToken = strconv.Itoa(end)
	}
	return page, nil
}

func (b *NatsBroker) Subscribe(ctx context.Context, topicID, endpoint string, filter FilterPolicy) (Subscription, error) {
	sub := Subscription{
		ID:       uuid.NewString(),
		TopicID:  topicID,
		Endpoint: endpoint,
		Filter:   filter,
		State:    StatePending,
	}
	data, err := json.Marshal(sub)
	if err != nil {
		return Subscription{}, fmt.Errorf("marshal subscription: %w", err)
	}

	key := subscriptionKey(topicID, filter.UserID)
	_, err = b.kv.Create(ctx, key, data)
	if errors.Is(err, jetstream.ErrKeyExists) {
		// Lost the race or already subscribed; the existing record wins.
		return b.getSubscription(ctx, key)
	}
	if err != nil {
		return Subscription{}, fmt.Errorf("create subscription record: %w", err)
	}

	if err := b.publishEvent(ctx, topicID, events.NewConfirmationRequest(endpoint, sub.ID)); err != nil {
		return Subscription{}, err
	}
	return sub, nil
}

func (b *NatsBroker) Publish(ctx context.Context, topicID string, msg Message) error {
	userID := msg.Attributes["user_id"]

	keys, err := b.topicKeys(ctx, topicID)
	if err != nil {
		return err
	}
	for _, key := range keys {
		sub, err := b.getSubscription(ctx, key)
		if err != nil {
			return err
		}
		if sub.State != StateConfirmed || sub.Filter.UserID != userID {
			continue
		}
		if err := b.publishEvent(ctx, topicID, events.NewDocDelivery(sub.Endpoint, msg.Subject, msg.Body, userID)); err != nil {
			return err
		}
	}
	return nil
}

func (b *NatsBroker) Confirm(ctx context.Context, subscriptionID string) error {
	lister, err := b.kv.ListKeys(ctx)
	if err != nil {
		return fmt.Errorf("list subscription keys: %w", err)
	}
	for key := range lister.Keys() {
		sub, err := b.getSubscription(ctx, key)
		if err != nil {
			return err
		}
		if sub.ID != subscriptionID {
			continue
		}
		sub.State = StateConfirmed
		data, err := json.Marshal(sub)
		if err != nil {
			return fmt.Errorf("marshal subscription: %w", err)
		}
		if _, err := b.kv.Put(ctx, key, data); err != nil {
			return fmt.Errorf("update subscription record: %w", err)
		}
		return nil
	}
	return fmt.Errorf("subscription %s not found", subscriptionID)
}

func (b *NatsBroker) Deliveries(ctx context.Context, topicID string) (<-chan Delivery, error) {
	consumer, err := b.js.CreateOrUpdateConsumer(ctx, natsStream, jetstream.ConsumerConfig{
		Durable:       natsDurableName,
		FilterSubject: deliveryNatsSubject(topicID),
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	out := make(chan Delivery)
	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		d, err := deliveryFromWire(msg.Headers().Get(headerEventType), msg.Data())
		if err != nil {
			log.Printf("Error decoding delivery: %v", err)
			msg.Nak()
			return
		}
		select {
		case out <- d:
			msg.Ack()
		case <-ctx.Done():
			msg.Nak()
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	go func() {
		<-ctx.Done()
		cc.Stop()
		// A callback may still be blocked on the send above; it exits via
		// ctx.Done. Close only after the consumer reports fully stopped.
		<-cc.Closed()
		close(out)
	}()
	return out, nil
}

// Close closes the NATS connection.
func (b *NatsBroker) Close() {
	if b.nc != nil {
		b.nc.Close()
	}
}

func (b *NatsBroker) publishEvent(ctx context.Context, topicID string, ev events.Event) error {
	data, err := json.Marshal(ev.Payload())
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", ev.EventType(), err)
	}
	msg := &nats.Msg{
		Subject: deliveryNatsSubject(topicID),
		Data:    data,
		Header:  nats.Header{headerEventType: []string{ev.EventType()}},
	}
	if _, err := b.js.PublishMsg(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", ev.EventType(), err)
	}
	return nil
}

func (b *NatsBroker) topicKeys(ctx context.Context, topicID string) ([]string, error) {
	lister, err := b.kv.ListKeys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("list subscription keys: %w", err)
	}

	prefix := topicID + "."
	var keys []string
	for key := range lister.Keys() {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (b *NatsBroker) getSubscription(ctx context.Context, key string) (Subscription, error) {
	entry, err := b.kv.Get(ctx, key)
	if err != nil {
		return Subscription{}, fmt.Errorf("get subscription %s: %w", key, err)
	}
	var sub Subscription
	if err := json.Unmarshal(entry.Value(), &sub); err != nil {
		return Subscription{}, fmt.Errorf("unmarshal subscription %s: %w", key, err)
	}
	return sub, nil
}

func deliveryNatsSubject(topicID string) string {
	return natsSubjectRoot + "." + topicID
}

// subscriptionKey encodes the user id so opaque transport identifiers stay
// within the KV key charset.
func subscriptionKey(topicID, userID string) string {
	return topicID + "." + hex.EncodeToString([]byte(userID))
}
