package storage

import (
	"context"
	"time"
)

// ScoreRecord is one row of the scores table. PlayerName is nil for an
// anonymous run. CreatedAt and ID are assigned by the backend.
type ScoreRecord struct {
	ID           int64     `json:"id"`
	PlayerName   *string   `json:"player_name"`
	Attempts     int       `json:"attempts"`
	TimeSeconds  int       `json:"time_seconds"`
	MatchedPairs int       `json:"matched_pairs"`
	TotalPairs   int       `json:"total_pairs"`
	CreatedAt    time.Time `json:"created_at"`
}

// ScoreStore abstracts the append-only scores table.
// Implementations are selected once at startup by Open.
type ScoreStore interface {
	// InsertScore appends a record and returns it as stored.
	InsertScore(ctx context.Context, rec ScoreRecord) (ScoreRecord, error)
	// TopScores returns at most limit records ordered by time, then attempts.
	TopScores(ctx context.Context, limit int) ([]ScoreRecord, error)

	Close()
}

// Ensure every backend implements ScoreStore at compile time.
var (
	_ ScoreStore = (*PostgresStore)(nil)
	_ ScoreStore = (*SQLiteStore)(nil)
	_ ScoreStore = (*StubStore)(nil)
	_ ScoreStore = (*CachedStore)(nil)
)
