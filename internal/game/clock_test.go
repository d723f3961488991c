package game

import (
	"testing"
	"time"
)

func TestFixedClockToday(t *testing.T) {
	c := FixedClock(time.Date(2026, 9, 1, 23, 30, 0, 0, time.UTC), time.UTC)
	if got := c.Today(); got != "2026-09-01" {
		t.Fatalf("Today() = %q, want 2026-09-01", got)
	}
	if got := c.UntilReset(); got != 30*time.Minute {
		t.Fatalf("UntilReset() = %v, want 30m", got)
	}
}

func TestClockDayRollsAtLocalMidnight(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	// 15:00 UTC is 01:00 the next day in UTC+10.
	c := FixedClock(time.Date(2026, 9, 1, 15, 0, 0, 0, time.UTC), loc)
	if got := c.Today(); got != "2026-09-02" {
		t.Fatalf("Today() = %q, want 2026-09-02", got)
	}
	if got := c.UntilReset(); got != 23*time.Hour {
		t.Fatalf("UntilReset() = %v, want 23h", got)
	}
}

func TestNewClockRejectsBadTimezone(t *testing.T) {
	if _, err := NewClock("Not/AZone"); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}
