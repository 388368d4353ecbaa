package redis

import (
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestAttemptRegistrySetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	registry := NewAttemptRegistry(newClient(mr), time.Minute)

	registry.Register("session-1", "tok-abc")
	if !mr.Exists("attempt:session:session-1") {
		t.Fatalf("expected redis liveness key to be set")
	}
	if registry.Active() != 1 {
		t.Fatalf("expected 1 active attempt, got %d", registry.Active())
	}

	registry.Unregister("session-1")
	if mr.Exists("attempt:session:session-1") {
		t.Fatalf("expected redis liveness key to be removed")
	}
	if registry.Active() != 0 {
		t.Fatalf("expected no active attempts, got %d", registry.Active())
	}
}
