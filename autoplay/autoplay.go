package autoplay

import (
	"log/slog"
	"math/rand"
	"time"

	"card-flip/config"
	"card-flip/game"
)

const (
	flipReasonKnownPair = "known_pair"
	flipReasonPartner   = "known_partner"
	flipReasonUnknown   = "unknown"
	flipReasonRandom    = "random"
)

// Player flips cards on a run the way a person would: it only learns
// symbols it has seen face-up, and forgets some of them between turns.
type Player struct {
	Params config.AutoplayParams

	memory map[int]string // index -> symbol seen there
	rng    *rand.Rand
	nextAt time.Time
}

// New creates a Player. The seed makes its choices reproducible.
func New(params config.AutoplayParams, seed int64) *Player {
	return &Player{
		Params: params,
		memory: make(map[int]string),
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Reset clears memory for a new board.
func (p *Player) Reset() {
	p.memory = make(map[int]string)
	p.nextAt = time.Time{}
}

// Known returns how many positions the player currently remembers.
func (p *Player) Known() int {
	return len(p.memory)
}

// Step flips at most one card on r if the player is ready at now. It
// waits while a pair is resolving, while the previous flip's delay runs,
// and while the card it wants is still turning. It reports whether a card
// was flipped.
func (p *Player) Step(r *game.Run, now time.Time) bool {
	p.observe(r.Board)
	if r.Phase == game.Resolving || r.Phase == game.Complete {
		return false
	}
	if now.Before(p.nextAt) {
		return false
	}

	hidden := hiddenIndices(r.Board)
	var idx int
	var reason string
	if len(r.Flipped) == 0 {
		p.forget()
		idx, reason = p.pickFirst(hidden)
	} else {
		first := r.Flipped[0]
		if !r.Board.Cards[first].ShowsFace() {
			return false
		}
		idx, reason = p.pickSecond(hidden, first, r.Board.Cards[first].Symbol)
	}
	if idx < 0 {
		return false
	}
	if !r.Flip(idx) {
		return false
	}
	slog.Debug("flipping card", "tag", "autoplay", "card", idx, "reason", reason)
	p.nextAt = now.Add(p.delay())
	return true
}

// observe records every symbol currently showing and drops matched cards.
func (p *Player) observe(b *game.Board) {
	for i := range b.Cards {
		c := &b.Cards[i]
		switch {
		case c.Matched:
			delete(p.memory, i)
		case c.ShowsFace():
			p.memory[i] = c.Symbol
		}
	}
}

// forget drops each remembered card with ForgetChance percent probability.
func (p *Player) forget() {
	chance := p.Params.ForgetChance
	if chance <= 0 {
		return
	}
	if chance > 100 {
		chance = 100
	}
	for idx := range p.memory {
		if p.rng.Intn(100) < chance {
			delete(p.memory, idx)
		}
	}
}

func (p *Player) delay() time.Duration {
	ms := p.Params.DelayMinMS
	if p.Params.DelayMaxMS > p.Params.DelayMinMS {
		ms += p.rng.Intn(p.Params.DelayMaxMS - p.Params.DelayMinMS)
	}
	if ms < 0 {
		ms = 0
	}
	return time.Duration(ms) * time.Millisecond
}

// pickFirst prefers a remembered pair, then a card never seen, then any card.
func (p *Player) pickFirst(hidden []int) (int, string) {
	bySymbol := make(map[string][]int)
	for _, idx := range hidden {
		if sym, ok := p.memory[idx]; ok {
			bySymbol[sym] = append(bySymbol[sym], idx)
		}
	}
	for _, idx := range hidden {
		if sym, ok := p.memory[idx]; ok && len(bySymbol[sym]) >= 2 {
			return idx, flipReasonKnownPair
		}
	}
	if unknown := p.unknown(hidden, -1); len(unknown) > 0 {
		return unknown[p.rng.Intn(len(unknown))], flipReasonUnknown
	}
	if len(hidden) == 0 {
		return -1, flipReasonRandom
	}
	return hidden[p.rng.Intn(len(hidden))], flipReasonRandom
}

// pickSecond plays the remembered partner of symbol, else an unseen card.
func (p *Player) pickSecond(hidden []int, first int, symbol string) (int, string) {
	for _, idx := range hidden {
		if idx != first && p.memory[idx] == symbol {
			return idx, flipReasonPartner
		}
	}
	if unknown := p.unknown(hidden, first); len(unknown) > 0 {
		return unknown[p.rng.Intn(len(unknown))], flipReasonUnknown
	}
	var candidates []int
	for _, idx := range hidden {
		if idx != first {
			candidates = append(candidates, idx)
		}
	}
	if len(candidates) == 0 {
		return -1, flipReasonRandom
	}
	return candidates[p.rng.Intn(len(candidates))], flipReasonRandom
}

func (p *Player) unknown(hidden []int, except int) []int {
	var out []int
	for _, idx := range hidden {
		if _, ok := p.memory[idx]; !ok && idx != except {
			out = append(out, idx)
		}
	}
	return out
}

// hiddenIndices returns the cards that can be flipped right now.
func hiddenIndices(b *game.Board) []int {
	var out []int
	for i := range b.Cards {
		if b.Cards[i].Clickable() {
			out = append(out, i)
		}
	}
	return out
}

// Simulate plays r to the end on a simulated clock advancing by frame, and
// returns the frozen result. It gives up after maxFrames.
func Simulate(r *game.Run, p *Player, start time.Time, frame time.Duration, maxFrames int) (game.Result, bool) {
	now := start
	for i := 0; i < maxFrames; i++ {
		now = now.Add(frame)
		r.Tick(now)
		if res, ok := r.Result(); ok {
			return res, true
		}
		p.Step(r, now)
	}
	return game.Result{}, false
}
