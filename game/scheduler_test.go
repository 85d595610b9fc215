package game

import (
	"testing"
	"time"
)

var t0 = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func TestSchedulerFiresInDueOrder(t *testing.T) {
	s := NewScheduler(t0)
	var order []string
	s.After(30*time.Millisecond, func() { order = append(order, "c") })
	s.After(10*time.Millisecond, func() { order = append(order, "a") })
	s.After(10*time.Millisecond, func() { order = append(order, "b") })

	if n := s.Advance(t0.Add(5 * time.Millisecond)); n != 0 {
		t.Fatalf("nothing should be due yet, ran %d", n)
	}
	if n := s.Advance(t0.Add(50 * time.Millisecond)); n != 3 {
		t.Fatalf("expected 3 callbacks, ran %d", n)
	}
	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Errorf("unexpected order %v", order)
	}
	if s.Pending() != 0 {
		t.Errorf("expected no pending timers, got %d", s.Pending())
	}
}

func TestSchedulerCallbackSeesDueTime(t *testing.T) {
	s := NewScheduler(t0)
	var seen time.Time
	s.After(100*time.Millisecond, func() { seen = s.Now() })

	s.Advance(t0.Add(time.Second))
	if !seen.Equal(t0.Add(100 * time.Millisecond)) {
		t.Errorf("callback saw %v, want due time", seen.Sub(t0))
	}
	if !s.Now().Equal(t0.Add(time.Second)) {
		t.Errorf("clock should end at advance target, got %v", s.Now().Sub(t0))
	}
}

func TestSchedulerChainedTimers(t *testing.T) {
	s := NewScheduler(t0)
	fired := 0
	s.After(100*time.Millisecond, func() {
		fired++
		s.After(100*time.Millisecond, func() { fired++ })
	})

	s.Advance(t0.Add(250 * time.Millisecond))
	if fired != 2 {
		t.Errorf("expected chained timer to fire in the same advance, fired=%d", fired)
	}
}

func TestSchedulerStop(t *testing.T) {
	s := NewScheduler(t0)
	fired := false
	tm := s.After(10*time.Millisecond, func() { fired = true })

	if !tm.Stop() {
		t.Error("first Stop should report true")
	}
	if tm.Stop() {
		t.Error("second Stop should report false")
	}
	s.Advance(t0.Add(time.Second))
	if fired {
		t.Error("stopped timer fired")
	}
}

func TestSchedulerStopAll(t *testing.T) {
	s := NewScheduler(t0)
	fired := 0
	for i := 0; i < 5; i++ {
		s.After(time.Duration(i)*time.Millisecond, func() { fired++ })
	}
	s.StopAll()
	s.Advance(t0.Add(time.Second))
	if fired != 0 || s.Pending() != 0 {
		t.Errorf("fired=%d pending=%d after StopAll", fired, s.Pending())
	}
}
