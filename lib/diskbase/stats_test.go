package diskbase

import (
	"testing"
	"time"
)

// TestFetchStats tests slot bucketing and the rolling window
func TestFetchStats(t *testing.T) {
	start := time.Unix(3600, 0)
	s := NewFetchStats(30*time.Second, 3*time.Minute, start)

	if s.Window() != 3*time.Minute {
		t.Errorf("Expected a window of 3m, got %s", s.Window())
	}

	// 3 fetches in the first slot, 1 in the second, none in the third
	s.Record(start)
	s.Record(start.Add(5 * time.Second))
	s.Record(start.Add(29 * time.Second))
	s.Record(start.Add(31 * time.Second))

	now := start.Add(65 * time.Second)
	r := s.Report(3*time.Minute, now)
	if r.Max != 3 || r.Min != 0 {
		t.Errorf("Expected min 0 and max 3, got %v and %v", r.Min, r.Max)
	}
	if r.Mean != 4.0/3.0 {
		t.Errorf("Expected an average over the 3 slots that passed, got %v", r.Mean)
	}

	// the first slot falls out of the window after 6 slots
	later := start.Add(3*time.Minute + 10*time.Second)
	r = s.Report(3*time.Minute, later)
	if r.Max != 1 {
		t.Errorf("Expected the oldest slot to be cleared, got max %v", r.Max)
	}

	if r := s.Report(0, later); r.Max != 0 {
		t.Errorf("Expected the current slot to be empty, got %v", r.Max)
	}
}
