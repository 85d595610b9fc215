package game

import (
	"math"

	"card-flip/leaderboard"
)

// CardView is the client-facing representation of a card.
// Symbol is only included while the face is showing.
type CardView struct {
	Index      int     `json:"index"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Size       float64 `json:"size"`
	Color      string  `json:"color"`
	Symbol     string  `json:"symbol,omitempty"`
	ShowFace   bool    `json:"showFace"`
	FaceUp     bool    `json:"faceUp"`
	Matched    bool    `json:"matched"`
	Rotation   float64 `json:"rotation"`
	Width      float64 `json:"width"`
	Scale      float64 `json:"scale"`
	HoverScale float64 `json:"hoverScale"`
	MatchPulse float64 `json:"matchPulse"`
}

// SessionMsg is sent once per connection and after every reset.
type SessionMsg struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
	Rows      int    `json:"rows"`
	Cols      int    `json:"cols"`
	CardSize  int    `json:"cardSize"`
	Spacing   int    `json:"spacing"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// FrameMsg carries every card's draw state for one frame.
type FrameMsg struct {
	Type  string     `json:"type"`
	Phase string     `json:"phase"`
	Cards []CardView `json:"cards"`
}

// StatsMsg drives the attempts, matches and timer displays.
type StatsMsg struct {
	Type       string `json:"type"`
	Attempts   int    `json:"attempts"`
	Matches    int    `json:"matches"`
	TotalPairs int    `json:"totalPairs"`
	Timer      int    `json:"timer"`
}

// GameOverMsg opens the game-over panel.
type GameOverMsg struct {
	Type     string `json:"type"`
	Attempts int    `json:"attempts"`
	Time     int    `json:"time"`
	Receipt  string `json:"receipt,omitempty"`
}

// AlertMsg is a blocking user-facing notice.
type AlertMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// LeaderboardMsg updates the leaderboard panel.
type LeaderboardMsg struct {
	Type    string            `json:"type"`
	Open    bool              `json:"open"`
	Loading bool              `json:"loading"`
	Entries []leaderboard.Row `json:"entries"`
	Message string            `json:"message,omitempty"`
}

// ErrorMsg is sent when a client message is invalid.
type ErrorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// BuildCardViews constructs the client-facing card list.
// Face-down cards do not expose their symbol.
func BuildCardViews(board *Board) []CardView {
	views := make([]CardView, len(board.Cards))
	for i := range board.Cards {
		c := &board.Cards[i]
		cv := CardView{
			Index:      c.Index,
			X:          c.X,
			Y:          c.Y,
			Size:       c.Size,
			Color:      c.Color,
			ShowFace:   c.ShowsFace(),
			FaceUp:     c.FaceUp,
			Matched:    c.Matched,
			Rotation:   round3(c.Rotation),
			Width:      round3(c.WidthFactor()),
			Scale:      round3(c.Scale),
			HoverScale: c.HoverScale,
			MatchPulse: round3(c.MatchPulse),
		}
		if cv.ShowFace {
			cv.Symbol = c.Symbol
		}
		views[i] = cv
	}
	return views
}

// BuildStatsMsg converts Stats to its wire form.
func BuildStatsMsg(s Stats) StatsMsg {
	return StatsMsg{
		Type:       "stats",
		Attempts:   s.Attempts,
		Matches:    s.Matches,
		TotalPairs: s.TotalPairs,
		Timer:      s.Elapsed,
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
