package game

import (
	"testing"
	"time"
)

func TestForageDurationCurve(t *testing.T) {
	// One action is about an hour out; a huge investment collapses the
	// trip to around a second.
	one := ForageDuration(1)
	if one < 55*time.Minute || one > 65*time.Minute {
		t.Errorf("ForageDuration(1) = %v, want ~1h", one)
	}
	big := ForageDuration(470)
	if big < 500*time.Millisecond || big > 2*time.Second {
		t.Errorf("ForageDuration(470) = %v, want ~1s", big)
	}
	if ForageDuration(10) >= ForageDuration(5) {
		t.Error("duration must shrink as investment grows")
	}
}
