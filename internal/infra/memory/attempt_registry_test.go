package memory

import "testing"

func TestAttemptRegistryLifecycle(t *testing.T) {
	registry := NewAttemptRegistry()

	registry.Register("session-1", "42")
	registry.Register("session-2", "tok-abc")
	if registry.Active() != 2 {
		t.Fatalf("expected 2 active attempts, got %d", registry.Active())
	}

	// Re-registering a session replaces its entry instead of leaking one.
	registry.Register("session-1", "43")
	if registry.Active() != 2 {
		t.Fatalf("expected replacement, got %d active", registry.Active())
	}

	registry.Unregister("session-1")
	registry.Unregister("session-1") // idempotent
	if registry.Active() != 1 {
		t.Fatalf("expected 1 active attempt, got %d", registry.Active())
	}
}
