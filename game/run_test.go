package game

import (
	"testing"
	"time"
)

const frame = 16 * time.Millisecond

var testTimings = Timings{
	Match:    800 * time.Millisecond,
	Mismatch: 1500 * time.Millisecond,
	Complete: 500 * time.Millisecond,
}

// newTestRun returns a run whose pairs sit at (0,1), (2,3), ... and whose
// deal-in animation has already finished.
func newTestRun(t *testing.T) (*Run, *time.Time) {
	t.Helper()
	now := t0
	r := NewRun(DefaultLayout(), testTimings, now)
	for i := range r.Board.Cards {
		r.Board.Cards[i].Symbol = Symbols[i/2]
	}
	step(r, &now, time.Second)
	return r, &now
}

// step ticks r frame by frame for d.
func step(r *Run, now *time.Time, d time.Duration) {
	end := now.Add(d)
	for now.Before(end) {
		*now = now.Add(frame)
		r.Tick(*now)
	}
}

func TestRunDealIn(t *testing.T) {
	now := t0
	r := NewRun(DefaultLayout(), testTimings, now)

	step(r, &now, 210*time.Millisecond)
	if r.Board.Cards[15].Scale != 0 {
		t.Errorf("last card should still be hidden right after the deal starts, scale=%v", r.Board.Cards[15].Scale)
	}
	step(r, &now, time.Second)
	for i, c := range r.Board.Cards {
		if c.Scale != 1 || c.Dealing {
			t.Errorf("card %d not dealt: scale=%v dealing=%v", i, c.Scale, c.Dealing)
		}
	}
	if r.Animating() {
		t.Error("board should be at rest after the deal")
	}
}

func TestRunFirstFlipStartsClock(t *testing.T) {
	r, now := newTestRun(t)
	if r.Started() {
		t.Fatal("clock should not run before the first flip")
	}

	if !r.Flip(0) {
		t.Fatal("expected flip")
	}
	if !r.Started() || r.Phase != OneFaceUp || r.Attempts != 0 {
		t.Errorf("unexpected state: started=%v phase=%v attempts=%d", r.Started(), r.Phase, r.Attempts)
	}
	if len(r.Flipped) != 1 || !r.Board.Cards[0].FaceUp {
		t.Error("card 0 should be face-up")
	}

	step(r, now, 2100*time.Millisecond)
	if r.Elapsed() != 2 {
		t.Errorf("expected 2s elapsed, got %d", r.Elapsed())
	}
}

func TestRunIgnoresInvalidFlips(t *testing.T) {
	r, _ := newTestRun(t)

	if r.Flip(-1) || r.Flip(16) {
		t.Error("out-of-range flips should be ignored")
	}
	if r.Click(5, 5) {
		t.Error("click outside every card should be ignored")
	}
	if r.Started() {
		t.Error("ignored clicks must not start the clock")
	}

	r.Flip(0)
	if r.Flip(0) {
		t.Error("flipping the same card twice should be ignored")
	}
	if r.Attempts != 0 {
		t.Errorf("attempts = %d", r.Attempts)
	}
}

func TestRunMatch(t *testing.T) {
	r, now := newTestRun(t)
	var matched [2]int
	r.OnMatch = func(a, b int) { matched = [2]int{a, b} }

	r.Flip(0)
	r.Flip(1)
	if r.Attempts != 1 || r.Phase != Resolving {
		t.Fatalf("attempts=%d phase=%v", r.Attempts, r.Phase)
	}
	if r.Flip(2) {
		t.Error("clicks while resolving should be ignored")
	}

	step(r, now, 700*time.Millisecond)
	if r.Board.Cards[0].Matched {
		t.Fatal("match resolved before the delay")
	}
	step(r, now, 150*time.Millisecond)

	for _, i := range []int{0, 1} {
		c := r.Board.Cards[i]
		if !c.Matched || c.FaceUp {
			t.Errorf("card %d: matched=%v faceUp=%v", i, c.Matched, c.FaceUp)
		}
		if !c.ShowsFace() {
			t.Errorf("matched card %d should show its face", i)
		}
	}
	if r.MatchedPairs != 1 || r.Phase != Idle || len(r.Flipped) != 0 {
		t.Errorf("pairs=%d phase=%v flipped=%v", r.MatchedPairs, r.Phase, r.Flipped)
	}
	if matched != [2]int{0, 1} {
		t.Errorf("OnMatch got %v", matched)
	}
	if r.Flip(0) {
		t.Error("matched cards should not flip")
	}
}

func TestRunMismatch(t *testing.T) {
	r, now := newTestRun(t)

	r.Flip(0)
	r.Flip(2)
	if r.Attempts != 1 {
		t.Fatalf("attempts = %d", r.Attempts)
	}

	step(r, now, 1400*time.Millisecond)
	if !r.Board.Cards[0].FaceUp || r.Phase != Resolving {
		t.Fatal("mismatch resolved before the delay")
	}
	step(r, now, 150*time.Millisecond)
	if r.Board.Cards[0].FaceUp || r.Board.Cards[2].FaceUp {
		t.Error("mismatched cards should be face-down")
	}
	if r.Phase != Idle || len(r.Flipped) != 0 || r.MatchedPairs != 0 {
		t.Errorf("phase=%v flipped=%v pairs=%d", r.Phase, r.Flipped, r.MatchedPairs)
	}

	step(r, now, time.Second)
	for _, i := range []int{0, 2} {
		c := r.Board.Cards[i]
		if c.Rotation != FaceDown || !c.Clickable() {
			t.Errorf("card %d should be back at 0 and clickable: %+v", i, c)
		}
	}
}

func TestRunFullGame(t *testing.T) {
	r, now := newTestRun(t)
	gameOvers := 0
	var got Result
	r.OnGameOver = func(res Result) {
		gameOvers++
		got = res
	}

	for p := 0; p < 8; p++ {
		r.Flip(2 * p)
		r.Flip(2*p + 1)
		step(r, now, 850*time.Millisecond)
	}
	if r.MatchedPairs != 8 || r.Phase != Complete {
		t.Fatalf("pairs=%d phase=%v", r.MatchedPairs, r.Phase)
	}
	if r.Flip(0) {
		t.Error("no flips after completion")
	}
	if r.Finished() {
		t.Fatal("result should freeze only after the completion delay")
	}

	step(r, now, 550*time.Millisecond)
	res, ok := r.Result()
	if !ok {
		t.Fatal("expected frozen result")
	}
	if res.Attempts != 8 || res.MatchedPairs != 8 || res.TotalPairs != 8 {
		t.Errorf("unexpected result %+v", res)
	}
	if gameOvers != 0 {
		t.Error("game over should wait for the celebration")
	}

	step(r, now, 1100*time.Millisecond)
	if gameOvers != 1 || got != res {
		t.Errorf("gameOvers=%d got=%+v want=%+v", gameOvers, got, res)
	}

	step(r, now, 5*time.Second)
	if r.Elapsed() != res.TimeSeconds {
		t.Errorf("clock kept running after completion: %d vs %d", r.Elapsed(), res.TimeSeconds)
	}
	if gameOvers != 1 {
		t.Errorf("game over fired %d times", gameOvers)
	}
}

func TestRunStatsPublished(t *testing.T) {
	r, now := newTestRun(t)
	var last Stats
	calls := 0
	r.OnStats = func(s Stats) {
		last = s
		calls++
	}

	r.Flip(0)
	step(r, now, 1050*time.Millisecond)
	if calls != 1 || last.Elapsed != 1 {
		t.Errorf("expected one timer update, calls=%d last=%+v", calls, last)
	}

	r.Flip(1)
	if last.Attempts != 1 {
		t.Errorf("expected attempts published, got %+v", last)
	}
	step(r, now, 850*time.Millisecond)
	if last.Matches != 1 || last.TotalPairs != 8 {
		t.Errorf("expected match published, got %+v", last)
	}
}

func TestRunStopCancelsResolution(t *testing.T) {
	r, now := newTestRun(t)

	r.Flip(0)
	r.Flip(1)
	r.Stop()
	step(r, now, 2*time.Second)
	if r.Board.Cards[0].Matched || r.MatchedPairs != 0 {
		t.Error("stopped run resolved a pair")
	}
	if r.PendingTimers() != 0 {
		t.Errorf("expected no pending timers, got %d", r.PendingTimers())
	}
}

func TestRunHover(t *testing.T) {
	r, _ := newTestRun(t)
	r.TakeDirty()

	if !r.Hover(50, 50) {
		t.Fatal("hovering a card should change state")
	}
	if r.Board.Cards[0].HoverScale != HoverScale {
		t.Errorf("hover scale = %v", r.Board.Cards[0].HoverScale)
	}
	if !r.TakeDirty() {
		t.Error("hover change should mark the board dirty")
	}
	if r.Hover(51, 51) {
		t.Error("moving within the same card is not a change")
	}

	r.Flip(0)
	if r.Board.Cards[0].HoverScale != 1 {
		t.Error("flipping clears hover")
	}
	r.Hover(50, 50)
	if r.Board.Cards[0].HoverScale != 1 {
		t.Error("face-up cards do not hover")
	}

	if !r.Hover(140, 50) || r.Board.Cards[1].HoverScale != HoverScale {
		t.Error("expected hover on card 1")
	}
	if !r.Hover(5, 5) || r.Board.Cards[1].HoverScale != 1 {
		t.Error("leaving every card resets hover")
	}
}
