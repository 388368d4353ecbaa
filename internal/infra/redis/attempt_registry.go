package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// AttemptRegistry mirrors the in-memory registry and additionally marks
// attempt liveness in Redis with a TTL, so a fleet can see attempts in
// flight across instances. The Redis writes are best-effort; the local map
// stays authoritative for this process.
type AttemptRegistry struct {
	client *redis.Client
	ttl    time.Duration

	mu     sync.RWMutex
	active map[string]string
}

func NewAttemptRegistry(client *redis.Client, ttl time.Duration) *AttemptRegistry {
	return &AttemptRegistry{
		client: client,
		ttl:    ttl,
		active: make(map[string]string),
	}
}

func (r *AttemptRegistry) Register(sessionID, attemptRef string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active[sessionID] = attemptRef
	_ = r.client.Set(context.Background(), r.key(sessionID), attemptRef, r.ttl).Err()
}

func (r *AttemptRegistry) Unregister(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.active[sessionID]; !ok {
		return
	}
	delete(r.active, sessionID)
	_ = r.client.Del(context.Background(), r.key(sessionID)).Err()
}

func (r *AttemptRegistry) Active() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.active)
}

func (r *AttemptRegistry) key(sessionID string) string {
	return "attempt:session:" + sessionID
}
