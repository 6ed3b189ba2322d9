package clock

import (
	"testing"
	"time"
)

func TestManualAdvance(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewManual(start)
	if !c.Now().Equal(start) {
		t.Fatalf("unexpected start: %v", c.Now())
	}
	c.Advance(11 * time.Minute)
	if got := c.Now().Sub(start); got != 11*time.Minute {
		t.Fatalf("unexpected elapsed time: %v", got)
	}
	c.Set(start)
	if !c.Now().Equal(start) {
		t.Fatalf("set did not rewind clock: %v", c.Now())
	}
}

func TestSystemIsUTC(t *testing.T) {
	if loc := System().Now().Location(); loc != time.UTC {
		t.Fatalf("expected UTC, got %v", loc)
	}
}
