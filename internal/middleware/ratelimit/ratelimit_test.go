package ratelimit

import (
	"testing"
	"time"
)

func TestAllowWithinLimit(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 3, CleanupInterval: time.Minute})
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Fatalf("request over the limit should be rejected")
	}
}

func TestAllowPerClient(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 1, CleanupInterval: time.Minute})
	defer rl.Stop()

	if !rl.Allow("1.1.1.1") {
		t.Fatalf("first client should be allowed")
	}
	if !rl.Allow("2.2.2.2") {
		t.Fatalf("limits must be tracked per client")
	}
	if rl.Allow("1.1.1.1") {
		t.Fatalf("first client should now be limited")
	}
	if rl.ActiveClients() != 2 {
		t.Fatalf("expected 2 tracked clients, got %d", rl.ActiveClients())
	}
}

func TestStopIsIdempotent(t *testing.T) {
	rl := NewLimiter(DefaultConfig())
	rl.Stop()
	rl.Stop()
}
