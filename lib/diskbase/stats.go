package diskbase

import (
	"github.com/ValentinKolb/propdb/lib/db/util"
	"time"
)

// FetchStats counts full fetches in fixed time slots over a rolling window.
// The slots form a circular array; a slot is cleared when the clock moves
// past it.
type FetchStats struct {
	slot      time.Duration
	counts    []float64
	cur       int       // index of the current slot
	curStart  time.Time // start of the current slot
	startedAt time.Time
}

// NewFetchStats creates statistics for window, bucketed by slot
func NewFetchStats(slot, window time.Duration, now time.Time) *FetchStats {
	n := int(window / slot)
	if n < 1 {
		n = 1
	}
	return &FetchStats{
		slot:      slot,
		counts:    make([]float64, n),
		curStart:  now.Truncate(slot),
		startedAt: now,
	}
}

// advance moves the current slot forward to now, clearing skipped slots
func (s *FetchStats) advance(now time.Time) {
	elapsed := int(now.Sub(s.curStart) / s.slot)
	if elapsed <= 0 {
		return
	}
	if elapsed > len(s.counts) {
		elapsed = len(s.counts)
	}
	for i := 0; i < elapsed; i++ {
		s.cur = (s.cur + 1) % len(s.counts)
		s.counts[s.cur] = 0
	}
	s.curStart = now.Truncate(s.slot)
}

// Record counts one fetch at now
func (s *FetchStats) Record(now time.Time) {
	s.advance(now)
	s.counts[s.cur]++
}

// Report returns min/avg/max fetches per slot over the most recent span.
// Slots before the statistics started are not included.
func (s *FetchStats) Report(span time.Duration, now time.Time) util.Stats {
	s.advance(now)
	n := int(span / s.slot)
	if n < 1 {
		n = 1
	}
	if n > len(s.counts) {
		n = len(s.counts)
	}
	if lived := int(now.Sub(s.startedAt)/s.slot) + 1; lived < n {
		n = lived
	}

	values := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		idx := (s.cur - i + len(s.counts)) % len(s.counts)
		values = append(values, s.counts[idx])
	}
	return util.NewStats(values)
}

// Window returns the duration covered by the statistics
func (s *FetchStats) Window() time.Duration {
	return s.slot * time.Duration(len(s.counts))
}

// Slot returns the duration of one slot
func (s *FetchStats) Slot() time.Duration {
	return s.slot
}
