package http

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestRateLimiterEnforcesConfiguredLimit(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)
	defer rl.stop()

	metrics := &securityMetrics{}
	if !rl.allow("1.2.3.4", metrics) || !rl.allow("1.2.3.4", metrics) {
		t.Fatalf("requests within the limit must be allowed")
	}
	if rl.allow("1.2.3.4", metrics) {
		t.Fatalf("request over the configured limit must be rejected")
	}
	if got := atomic.LoadInt64(&metrics.rateLimitHits); got != 1 {
		t.Fatalf("rateLimitHits got %d, want 1", got)
	}

	// Other clients are tracked independently.
	if !rl.allow("5.6.7.8", metrics) {
		t.Fatalf("unrelated client must not share the counter")
	}
}

func TestRateLimiterDefaults(t *testing.T) {
	rl := newRateLimiter(0, 0)
	defer rl.stop()

	if rl.perMinute != 60 {
		t.Fatalf("perMinute got %d, want 60", rl.perMinute)
	}
	if rl.cleanupEvery != 5*time.Minute {
		t.Fatalf("cleanupEvery got %v, want 5m", rl.cleanupEvery)
	}
}

func TestRateLimiterCleanupRemovesStaleClients(t *testing.T) {
	rl := newRateLimiter(10, time.Minute)
	defer rl.stop()

	rl.allow("1.2.3.4", nil)
	rl.mu.Lock()
	rl.clients["1.2.3.4"].lastRequest = time.Now().Add(-3 * time.Minute)
	rl.mu.Unlock()

	rl.cleanupStaleEntries()

	rl.mu.Lock()
	_, exists := rl.clients["1.2.3.4"]
	rl.mu.Unlock()
	if exists {
		t.Fatalf("stale client entry survived cleanup")
	}
}
