package redisrepo

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"doc-support-be/pkg/store"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "docsupport:session:"

// SessionRepository keeps sessions in Redis so a conversation survives a
// process restart or lands on a different replica mid-conversation.
type SessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionRepository(redisURL string, ttl time.Duration) (*SessionRepository, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = 1 * time.Hour
	}
	return &SessionRepository{
		client: redis.NewClient(opts),
		ttl:    ttl,
	}, nil
}

func (r *SessionRepository) Save(session *store.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	data, err := json.Marshal(session)
	if err != nil {
		log.Printf("[ERROR] Failed to marshal session %s: %v", session.ID, err)
		return
	}
	if err := r.client.Set(ctx, keyPrefix+session.ID, data, r.ttl).Err(); err != nil {
		log.Printf("[ERROR] Failed to save session %s: %v", session.ID, err)
	}
}

func (r *SessionRepository) Get(sessionID string) (*store.Session, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	data, err := r.client.Get(ctx, keyPrefix+sessionID).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[ERROR] Failed to load session %s: %v", sessionID, err)
		}
		return nil, false
	}

	var session store.Session
	if err := json.Unmarshal(data, &session); err != nil {
		log.Printf("[ERROR] Failed to unmarshal session %s: %v", sessionID, err)
		return nil, false
	}
	return &session, true
}

func (r *SessionRepository) Delete(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := r.client.Del(ctx, keyPrefix+sessionID).Err(); err != nil {
		log.Printf("[ERROR] Failed to delete session %s: %v", sessionID, err)
	}
}
