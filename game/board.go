package game

import (
	"log/slog"
	"math/rand"
)

// Symbols are the card faces. Each appears exactly twice on a board.
var Symbols = []string{"🍎", "🍌", "🍇", "🍊", "🍓", "🥝", "🍑", "🍉"}

// Colors tint each grid slot; the index is the slot index modulo len(Colors).
var Colors = []string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#FFA07A",
	"#98D8C8", "#F7DC6F", "#BB8FCE", "#85C1E2",
}

const (
	DefaultRows = 4
	DefaultCols = 4
)

// Layout maps grid cells to canvas pixels.
type Layout struct {
	Rows     int
	Cols     int
	CardSize int
	Spacing  int
}

// DefaultLayout is the stock 4x4 board of 80px cards with 10px gaps.
func DefaultLayout() Layout {
	return Layout{Rows: DefaultRows, Cols: DefaultCols, CardSize: 80, Spacing: 10}
}

// Width returns the canvas width in pixels.
func (l Layout) Width() int {
	return l.Cols*(l.CardSize+l.Spacing) + l.Spacing
}

// Height returns the canvas height in pixels.
func (l Layout) Height() int {
	return l.Rows*(l.CardSize+l.Spacing) + l.Spacing
}

// Origin returns the top-left pixel of the card at (row, col).
func (l Layout) Origin(row, col int) (x, y float64) {
	x = float64(col*(l.CardSize+l.Spacing) + l.Spacing)
	y = float64(row*(l.CardSize+l.Spacing) + l.Spacing)
	return x, y
}

// valid reports whether the grid can be filled with symbol pairs.
func (l Layout) valid() bool {
	total := l.Rows * l.Cols
	return l.Rows > 0 && l.Cols > 0 && l.CardSize > 0 && l.Spacing >= 0 &&
		total%2 == 0 && total/2 <= len(Symbols)
}

// Board is the ordered collection of cards, row-major.
type Board struct {
	Layout Layout
	Cards  []Card
}

// NewBoard creates a board with every symbol pair placed at a random position.
// An unusable layout falls back to DefaultLayout.
func NewBoard(layout Layout) *Board {
	if !layout.valid() {
		slog.Warn("invalid board layout, using 4x4", "tag", "game",
			"rows", layout.Rows, "cols", layout.Cols)
		layout = DefaultLayout()
	}
	total := layout.Rows * layout.Cols
	numPairs := total / 2

	symbols := make([]string, 0, total)
	for i := 0; i < numPairs; i++ {
		symbols = append(symbols, Symbols[i], Symbols[i])
	}

	// Fisher-Yates
	rand.Shuffle(total, func(i, j int) {
		symbols[i], symbols[j] = symbols[j], symbols[i]
	})

	cards := make([]Card, total)
	for i := range cards {
		row, col := i/layout.Cols, i%layout.Cols
		x, y := layout.Origin(row, col)
		cards[i] = newCard(i, row, col, x, y, float64(layout.CardSize), symbols[i], Colors[i%len(Colors)])
	}

	return &Board{Layout: layout, Cards: cards}
}

// TotalPairs is the number of pairs needed to finish the board.
func (b *Board) TotalPairs() int {
	return len(b.Cards) / 2
}

// CardAt returns the index of the card under the pixel (x, y), or -1.
func (b *Board) CardAt(x, y float64) int {
	for i := range b.Cards {
		if b.Cards[i].Contains(x, y) {
			return i
		}
	}
	return -1
}

// AllMatched returns true if every card on the board is matched.
func AllMatched(board *Board) bool {
	for _, card := range board.Cards {
		if !card.Matched {
			return false
		}
	}
	return true
}
