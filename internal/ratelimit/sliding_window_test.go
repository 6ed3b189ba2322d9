package ratelimit

import (
	"testing"
	"time"

	"agora/internal/clock"
)

func TestAllowSlidesWithClock(t *testing.T) {
	c := clock.NewManual(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	l := NewLimiter(c)

	for i := 0; i < 2; i++ {
		if res := l.Allow("alice", 2, time.Minute); !res.Allowed {
			t.Fatalf("hit %d should be allowed", i)
		}
	}
	res := l.Allow("alice", 2, time.Minute)
	if res.Allowed || res.Remaining != 0 {
		t.Fatalf("third hit should be limited: %+v", res)
	}
	if other := l.Allow("bob", 2, time.Minute); !other.Allowed {
		t.Fatalf("keys must be independent")
	}

	c.Advance(61 * time.Second)
	if res := l.Allow("alice", 2, time.Minute); !res.Allowed || res.Remaining != 1 {
		t.Fatalf("expected window to slide: %+v", res)
	}
}

func TestZeroLimitDisablesLimiting(t *testing.T) {
	l := NewLimiter(nil)
	for i := 0; i < 10; i++ {
		if !l.Allow("k", 0, time.Minute).Allowed {
			t.Fatalf("limit 0 must allow everything")
		}
	}
}

func TestPruneDropsIdleKeys(t *testing.T) {
	c := clock.NewManual(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	l := NewLimiter(c)
	l.Allow("alice", 5, time.Minute)
	c.Advance(30 * time.Second)
	l.Allow("bob", 5, time.Minute)
	c.Advance(45 * time.Second)

	if removed := l.Prune(time.Minute); removed != 1 {
		t.Fatalf("expected 1 key pruned, got %d", removed)
	}
	if _, ok := l.buckets["bob"]; !ok {
		t.Fatalf("bob should survive pruning")
	}
}
