package leaderboard

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"card-flip/config"
	"card-flip/storage"
)

// User-facing texts.
const (
	MsgSaved       = "Score saved! 🎉"
	MsgSaveFailed  = "Failed to save score. Please try again."
	MsgEmpty       = "No scores yet."
	MsgLoadFailed  = "Failed to load the leaderboard."
	MsgLoading     = "Loading..."
	AnonymousName  = "Anonymous"
	dateLayout     = "2006-01-02"
	defaultLimit   = 10
	defaultTimeout = 5 * time.Second
)

// Score is the part of a finished run that gets recorded.
type Score struct {
	Attempts     int `json:"attempts"`
	TimeSeconds  int `json:"time"`
	MatchedPairs int `json:"pairs"`
	TotalPairs   int `json:"total"`
}

// Row is one rendered leaderboard line.
type Row struct {
	Rank     int    `json:"rank"`
	Name     string `json:"name"`
	Time     string `json:"time"`
	Attempts string `json:"attempts"`
	Date     string `json:"date"`
}

// View is what the leaderboard panel shows after a load: either rows, or a
// message in place of the list.
type View struct {
	Entries []Row  `json:"entries"`
	Message string `json:"message,omitempty"`
	Err     error  `json:"-"`
}

// Outcome is the result of a submission and the alert to show for it.
type Outcome struct {
	OK     bool
	Alert  string
	Record storage.ScoreRecord
	Err    error
}

// Client reads and writes the leaderboard over whichever store was selected
// at startup. It is safe for concurrent use when the store is.
type Client struct {
	store   storage.ScoreStore
	limit   int
	maxName int
	timeout time.Duration
}

// New creates a Client. Zero limit or timeout take the defaults; maxName <= 0
// disables name truncation.
func New(store storage.ScoreStore, limit, maxName int, timeout time.Duration) *Client {
	if limit <= 0 {
		limit = defaultLimit
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{store: store, limit: limit, maxName: maxName, timeout: timeout}
}

// NewFromConfig creates a Client with the configured limit, name length and call timeout.
func NewFromConfig(store storage.ScoreStore, cfg *config.Config) *Client {
	return New(store, cfg.Leaderboard.Limit, cfg.MaxNameLength, cfg.CallTimeout())
}

// NormalizeName trims surrounding whitespace and truncates to maxLen runes.
// An empty result means anonymous and is returned as nil.
func NormalizeName(name string, maxLen int) *string {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	if maxLen > 0 && utf8.RuneCountInString(name) > maxLen {
		name = strings.TrimSpace(string([]rune(name)[:maxLen]))
	}
	return &name
}

// Submit records one score. It never retries; failures are logged and
// reported through the outcome's alert.
func (c *Client) Submit(ctx context.Context, name string, s Score) Outcome {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	rec, err := c.store.InsertScore(ctx, storage.ScoreRecord{
		PlayerName:   NormalizeName(name, c.maxName),
		Attempts:     s.Attempts,
		TimeSeconds:  s.TimeSeconds,
		MatchedPairs: s.MatchedPairs,
		TotalPairs:   s.TotalPairs,
	})
	if err != nil {
		slog.Error("failed to save score", "tag", "leaderboard", "err", err)
		return Outcome{Alert: MsgSaveFailed, Err: fmt.Errorf("submit score: %w", err)}
	}
	slog.Info("score saved", "tag", "leaderboard", "id", rec.ID, "time", rec.TimeSeconds, "attempts", rec.Attempts)
	return Outcome{OK: true, Alert: MsgSaved, Record: rec}
}

// Load fetches the top entries. An empty table is not an error.
func (c *Client) Load(ctx context.Context) View {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	scores, err := c.store.TopScores(ctx, c.limit)
	if err != nil {
		slog.Error("failed to load leaderboard", "tag", "leaderboard", "err", err)
		return View{Entries: []Row{}, Message: MsgLoadFailed, Err: fmt.Errorf("load leaderboard: %w", err)}
	}
	if len(scores) == 0 {
		return View{Entries: []Row{}, Message: MsgEmpty}
	}
	return View{Entries: Rows(scores)}
}

// Rows renders records in rank order.
func Rows(scores []storage.ScoreRecord) []Row {
	rows := make([]Row, len(scores))
	for i, s := range scores {
		name := AnonymousName
		if s.PlayerName != nil && *s.PlayerName != "" {
			name = *s.PlayerName
		}
		rows[i] = Row{
			Rank:     i + 1,
			Name:     name,
			Time:     fmt.Sprintf("%ds", s.TimeSeconds),
			Attempts: fmt.Sprintf("%d tries", s.Attempts),
			Date:     s.CreatedAt.Format(dateLayout),
		}
	}
	return rows
}
