package game

import "time"

// Click flips the card under the pixel (x, y). It reports whether a card flipped.
func (r *Run) Click(x, y float64) bool {
	idx := r.Board.CardAt(x, y)
	if idx < 0 {
		return false
	}
	return r.Flip(idx)
}

// Flip turns the card at index face-up. Clicks on matched, face-up or
// turning cards are ignored, as is every click while two cards wait for
// resolution. The second flip of a pair counts an attempt and schedules
// the match or mismatch resolution.
func (r *Run) Flip(index int) bool {
	if r.Phase == Complete || len(r.Flipped) >= 2 {
		return false
	}
	if index < 0 || index >= len(r.Board.Cards) {
		return false
	}
	card := &r.Board.Cards[index]
	if !card.Clickable() {
		return false
	}

	if !r.started {
		r.started = true
		r.startTime = r.sched.Now()
	}

	card.FaceUp = true
	card.HoverScale = 1
	card.StartFlip(FaceUp)
	r.Flipped = append(r.Flipped, index)
	r.dirty = true
	if r.OnFlip != nil {
		r.OnFlip(index)
	}

	if len(r.Flipped) == 1 {
		r.Phase = OneFaceUp
		return true
	}

	r.Attempts++
	r.Phase = Resolving
	r.publishStats()

	first, second := r.Flipped[0], r.Flipped[1]
	if r.Board.Cards[first].Symbol == r.Board.Cards[second].Symbol {
		r.sched.After(r.timings.Match, func() { r.resolveMatch(first, second) })
	} else {
		r.sched.After(r.timings.Mismatch, func() { r.resolveMismatch(first, second) })
	}
	return true
}

func (r *Run) resolveMatch(first, second int) {
	for _, idx := range []int{first, second} {
		c := &r.Board.Cards[idx]
		c.Matched = true
		c.FaceUp = false
		c.Celebrate()
	}
	r.Flipped = r.Flipped[:0]
	r.MatchedPairs++
	r.dirty = true
	r.publishStats()
	if r.OnMatch != nil {
		r.OnMatch(first, second)
	}

	if r.MatchedPairs == r.Board.TotalPairs() {
		r.Phase = Complete
		r.sched.After(r.timings.Complete, r.finish)
		return
	}
	r.Phase = Idle
}

func (r *Run) resolveMismatch(first, second int) {
	for _, idx := range []int{first, second} {
		c := &r.Board.Cards[idx]
		c.StartFlip(FaceDown)
		c.FaceUp = false
	}
	r.Flipped = r.Flipped[:0]
	r.Phase = Idle
	r.dirty = true
}

// finish stops the clock, freezes the result and plays the closing celebration.
func (r *Run) finish() {
	now := r.sched.Now()
	r.elapsed = int(now.Sub(r.startTime) / time.Second)
	r.result = &Result{
		Attempts:     r.Attempts,
		TimeSeconds:  r.elapsed,
		MatchedPairs: r.MatchedPairs,
		TotalPairs:   r.Board.TotalPairs(),
		FinishedAt:   now,
	}
	r.publishStats()

	for i := range r.Board.Cards {
		idx := i
		r.sched.After(time.Duration(i)*celebrateStagger, func() {
			r.Board.Cards[idx].Celebrate()
			r.dirty = true
		})
	}
	res := *r.result
	r.sched.After(gameOverDelay, func() {
		if r.OnGameOver != nil {
			r.OnGameOver(res)
		}
	})
}
