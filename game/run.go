package game

import (
	"time"

	"card-flip/config"
)

// Phase is where a run is in the flip / resolve cycle.
type Phase int

const (
	Idle      Phase = iota // no card face-up
	OneFaceUp              // first card of a pair turned
	Resolving              // two cards up, waiting for the match or mismatch delay
	Complete               // every pair matched
)

// String returns the protocol string for a Phase.
func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case OneFaceUp:
		return "one_face_up"
	case Resolving:
		return "resolving"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

const (
	dealDelay        = 200 * time.Millisecond
	dealStagger      = 30 * time.Millisecond
	celebrateStagger = 50 * time.Millisecond
	gameOverDelay    = time.Second
)

// Timings are the fixed resolution delays.
type Timings struct {
	Match    time.Duration
	Mismatch time.Duration
	Complete time.Duration
}

// Stats is what the counters and timer display show.
type Stats struct {
	Attempts   int
	Matches    int
	TotalPairs int
	Elapsed    int
}

// Result is a finished run, frozen when the run completes.
type Result struct {
	Attempts     int
	TimeSeconds  int
	MatchedPairs int
	TotalPairs   int
	FinishedAt   time.Time
}

// Run is one game: a board, its counters and clock, and the timers that
// resolve flips. A new game is a new Run. A Run is owned by a single
// goroutine; none of its methods are safe for concurrent use.
type Run struct {
	Board        *Board
	Attempts     int
	MatchedPairs int
	Phase        Phase
	Flipped      []int

	timings   Timings
	sched     *Scheduler
	started   bool
	startTime time.Time
	elapsed   int
	result    *Result
	dirty     bool

	// OnStats is called whenever attempts, matches or the elapsed second change.
	OnStats func(Stats)
	// OnFlip is called when a card starts turning face-up.
	OnFlip func(index int)
	// OnMatch is called when a pair becomes matched.
	OnMatch func(first, second int)
	// OnGameOver is called once, a short while after the run completes.
	OnGameOver func(Result)
}

// NewRun deals a fresh board. now is the run's clock origin.
func NewRun(layout Layout, timings Timings, now time.Time) *Run {
	r := &Run{
		Board:   NewBoard(layout),
		Phase:   Idle,
		Flipped: make([]int, 0, 2),
		timings: timings,
		sched:   NewScheduler(now),
		dirty:   true,
	}
	r.sched.After(dealDelay, r.deal)
	return r
}

// NewRunFromConfig builds a Run with the configured board and delays.
func NewRunFromConfig(cfg *config.Config, now time.Time) *Run {
	layout := Layout{
		Rows:     cfg.BoardRows,
		Cols:     cfg.BoardCols,
		CardSize: cfg.CardSize,
		Spacing:  cfg.CardSpacing,
	}
	timings := Timings{
		Match:    cfg.MatchDelay(),
		Mismatch: cfg.MismatchDelay(),
		Complete: cfg.CompleteDelay(),
	}
	return NewRun(layout, timings, now)
}

// deal hides every card and pops them back in one after another.
func (r *Run) deal() {
	for i := range r.Board.Cards {
		r.Board.Cards[i].Scale = 0
	}
	for i := range r.Board.Cards {
		idx := i
		r.sched.After(time.Duration(i)*dealStagger, func() {
			r.Board.Cards[idx].Dealing = true
		})
	}
	r.dirty = true
}

// Tick advances the run to now: due timers fire, the clock updates, and
// every animating card moves one frame.
func (r *Run) Tick(now time.Time) {
	r.sched.Advance(now)
	r.updateClock(now)
	for i := range r.Board.Cards {
		c := &r.Board.Cards[i]
		if c.Animating() {
			c.Update()
			r.dirty = true
		}
	}
}

func (r *Run) updateClock(now time.Time) {
	if !r.started || r.result != nil {
		return
	}
	e := int(now.Sub(r.startTime) / time.Second)
	if e != r.elapsed {
		r.elapsed = e
		r.publishStats()
	}
}

// Now is the run's clock, as of the last Tick.
func (r *Run) Now() time.Time {
	return r.sched.Now()
}

// Started reports whether the clock is running (or ran).
func (r *Run) Started() bool {
	return r.started
}

// Elapsed returns whole seconds since the first flip, frozen once complete.
func (r *Run) Elapsed() int {
	return r.elapsed
}

// Stats returns the current counters.
func (r *Run) Stats() Stats {
	return Stats{
		Attempts:   r.Attempts,
		Matches:    r.MatchedPairs,
		TotalPairs: r.Board.TotalPairs(),
		Elapsed:    r.elapsed,
	}
}

// Result returns the frozen result once the run has finished.
func (r *Run) Result() (Result, bool) {
	if r.result == nil {
		return Result{}, false
	}
	return *r.result, true
}

// Finished reports whether the end-of-run delay has passed and the result is frozen.
func (r *Run) Finished() bool {
	return r.result != nil
}

// Animating reports whether any card still moves.
func (r *Run) Animating() bool {
	for i := range r.Board.Cards {
		if r.Board.Cards[i].Animating() {
			return true
		}
	}
	return false
}

// TakeDirty reports whether anything visible changed since the last call.
func (r *Run) TakeDirty() bool {
	d := r.dirty
	r.dirty = false
	return d
}

// PendingTimers returns the number of scheduled callbacks.
func (r *Run) PendingTimers() int {
	return r.sched.Pending()
}

// Stop cancels every pending timer. A stopped run never resolves again.
func (r *Run) Stop() {
	r.sched.StopAll()
}

// Hover recomputes hover scales for the pointer at (x, y) and reports
// whether any card changed.
func (r *Run) Hover(x, y float64) bool {
	changed := false
	for i := range r.Board.Cards {
		c := &r.Board.Cards[i]
		was := c.HoverScale > 1
		if c.Clickable() && c.Contains(x, y) {
			c.HoverScale = HoverScale
		} else {
			c.HoverScale = 1
		}
		if was != (c.HoverScale > 1) {
			changed = true
		}
	}
	if changed {
		r.dirty = true
	}
	return changed
}

func (r *Run) publishStats() {
	if r.OnStats != nil {
		r.OnStats(r.Stats())
	}
}
