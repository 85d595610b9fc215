package game

import "time"

// Scheduler runs delayed callbacks on the frame clock. It is not safe for
// concurrent use: the owner of a Run advances it from a single goroutine,
// so callbacks never race with clicks.
type Scheduler struct {
	now     time.Time
	seq     uint64
	pending []*Timer
}

// Timer is a scheduled callback.
type Timer struct {
	at      time.Time
	seq     uint64
	fn      func()
	stopped bool
	fired   bool
}

// Stop cancels the timer. It reports whether the call prevented the callback.
func (t *Timer) Stop() bool {
	if t == nil || t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// NewScheduler returns a scheduler whose clock starts at now.
func NewScheduler(now time.Time) *Scheduler {
	return &Scheduler{now: now}
}

// Now is the scheduler's current time. While a callback runs it is the
// callback's due time.
func (s *Scheduler) Now() time.Time {
	return s.now
}

// After schedules fn to run d after the current time.
func (s *Scheduler) After(d time.Duration, fn func()) *Timer {
	s.seq++
	t := &Timer{at: s.now.Add(d), seq: s.seq, fn: fn}
	s.pending = append(s.pending, t)
	return t
}

// Advance moves the clock to now and runs every callback due by then, in
// due-time order. Callbacks scheduled by callbacks run in the same call when
// they fall due. It returns the number of callbacks run.
func (s *Scheduler) Advance(now time.Time) int {
	ran := 0
	for {
		next := s.nextDue(now)
		if next < 0 {
			break
		}
		t := s.pending[next]
		s.pending = append(s.pending[:next], s.pending[next+1:]...)
		if t.stopped {
			continue
		}
		if t.at.After(s.now) {
			s.now = t.at
		}
		t.fired = true
		t.fn()
		ran++
	}
	if now.After(s.now) {
		s.now = now
	}
	return ran
}

// nextDue returns the index of the earliest timer due by now, or -1.
func (s *Scheduler) nextDue(now time.Time) int {
	best := -1
	for i, t := range s.pending {
		if t.at.After(now) {
			continue
		}
		if best < 0 || t.at.Before(s.pending[best].at) ||
			(t.at.Equal(s.pending[best].at) && t.seq < s.pending[best].seq) {
			best = i
		}
	}
	return best
}

// Pending returns the number of live timers.
func (s *Scheduler) Pending() int {
	n := 0
	for _, t := range s.pending {
		if !t.stopped {
			n++
		}
	}
	return n
}

// StopAll cancels every pending timer.
func (s *Scheduler) StopAll() {
	for _, t := range s.pending {
		t.stopped = true
	}
	s.pending = nil
}
