package game

import "math"

// Rotation targets in degrees.
const (
	FaceDown = 0.0
	FaceUp   = 180.0
)

const (
	flipEasing       = 0.15 // share of the remaining angle covered each frame
	flipSnap         = 0.5
	pulseDecay       = 0.05
	matchedScale     = 1.1
	matchScaleStep   = 0.02
	unmatchScaleStep = 0.05
	dealScaleStep    = 0.15
	minWidthFactor   = 0.1

	// HoverScale is applied to the clickable card under the pointer.
	HoverScale = 1.05
)

// Card is one tile: its place on the board, its symbol, and its animation state.
type Card struct {
	Index  int
	Row    int
	Col    int
	X      float64
	Y      float64
	Size   float64
	Symbol string
	Color  string

	// FaceUp is set while the card is one of the (at most two) cards
	// turned up and waiting for resolution.
	FaceUp  bool
	Matched bool

	Rotation       float64
	TargetRotation float64
	Flipping       bool
	Scale          float64
	HoverScale     float64
	MatchPulse     float64
	Dealing        bool
}

func newCard(index, row, col int, x, y, size float64, symbol, color string) Card {
	return Card{
		Index:      index,
		Row:        row,
		Col:        col,
		X:          x,
		Y:          y,
		Size:       size,
		Symbol:     symbol,
		Color:      color,
		Scale:      1,
		HoverScale: 1,
	}
}

// Contains reports whether the pixel (x, y) lies on the card, edges included.
func (c *Card) Contains(x, y float64) bool {
	return x >= c.X && x <= c.X+c.Size && y >= c.Y && y <= c.Y+c.Size
}

// Clickable reports whether a click may flip this card.
func (c *Card) Clickable() bool {
	return !c.Matched && !c.FaceUp && !c.Flipping
}

// StartFlip begins easing the rotation toward target.
func (c *Card) StartFlip(target float64) {
	c.Flipping = true
	c.TargetRotation = target
}

// Celebrate starts the match pulse and pops the card to full match scale.
func (c *Card) Celebrate() {
	c.MatchPulse = 1
	c.Scale = matchedScale
}

// Update advances the card by one frame.
func (c *Card) Update() {
	if c.Flipping {
		diff := c.TargetRotation - c.Rotation
		if math.Abs(diff) > flipSnap {
			c.Rotation += diff * flipEasing
		} else {
			c.Rotation = c.TargetRotation
			c.Flipping = false
		}
	}

	if c.MatchPulse > 0 {
		c.MatchPulse -= pulseDecay
		if c.MatchPulse < 0 {
			c.MatchPulse = 0
		}
	}

	switch {
	case c.Dealing:
		c.Scale += dealScaleStep
		if c.Scale >= 1 {
			c.Scale = 1
			c.Dealing = false
		}
	case c.Matched && c.Scale < matchedScale:
		c.Scale = math.Min(c.Scale+matchScaleStep, matchedScale)
	case !c.Matched && c.Scale > 1:
		c.Scale -= unmatchScaleStep
		if c.Scale < 1 {
			c.Scale = 1
		}
	}
}

// ShowsFace reports whether the symbol side is visible.
func (c *Card) ShowsFace() bool {
	return c.Rotation > 90 || c.Matched
}

// WidthFactor is the horizontal squash that fakes the 3D turn.
func (c *Card) WidthFactor() float64 {
	if c.Matched {
		return 1
	}
	w := math.Abs(math.Cos(c.Rotation * math.Pi / 180))
	if w < minWidthFactor {
		w = minWidthFactor
	}
	return w
}

// DrawScale is the combined scale used when drawing.
func (c *Card) DrawScale() float64 {
	return c.Scale * c.HoverScale
}

// Animating reports whether another frame would change the card.
func (c *Card) Animating() bool {
	if c.Flipping || c.Dealing || c.MatchPulse > 0 {
		return true
	}
	if c.Matched {
		return c.Scale < matchedScale
	}
	return c.Scale != 1
}
