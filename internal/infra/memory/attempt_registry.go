package memory

import "sync"

// AttemptRegistry tracks attempts currently being taken through this
// process, keyed by host session id. One session drives at most one
// attempt; re-registering a session replaces its entry.
type AttemptRegistry struct {
	mu     sync.RWMutex
	active map[string]string // session id -> attempt ref
}

func NewAttemptRegistry() *AttemptRegistry {
	return &AttemptRegistry{active: make(map[string]string)}
}

// Register records that a session is running an attempt.
func (r *AttemptRegistry) Register(sessionID, attemptRef string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active[sessionID] = attemptRef
}

// Unregister drops a session's attempt; called on completion or exit.
func (r *AttemptRegistry) Unregister(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, sessionID)
}

// Active returns how many attempts are in flight in this process.
func (r *AttemptRegistry) Active() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.active)
}
