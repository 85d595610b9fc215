package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"card-flip/apperrors"
)

const createSQLiteTableSQL = `
CREATE TABLE IF NOT EXISTS %[1]s (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	player_name   TEXT,
	attempts      INTEGER NOT NULL,
	time_seconds  INTEGER NOT NULL,
	matched_pairs INTEGER NOT NULL,
	total_pairs   INTEGER NOT NULL,
	created_at    TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_%[1]s_rank ON %[1]s (time_seconds, attempts);
`

// SQLiteStore keeps scores in a local SQLite file, for development without
// the hosted database.
type SQLiteStore struct {
	db    *sql.DB
	table string
}

// NewSQLiteStore opens (and creates if missing) the database file at path.
func NewSQLiteStore(ctx context.Context, path, table string) (*SQLiteStore, error) {
	if path == "" {
		return nil, apperrors.ErrNotConfigured
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf(createSQLiteTableSQL, table)); err != nil {
		db.Close()
		return nil, fmt.Errorf("create %s: %w", table, err)
	}
	slog.Info("opened SQLite scores file", "tag", "storage", "path", path)
	return &SQLiteStore{db: db, table: table}, nil
}

// Close closes the database handle.
func (s *SQLiteStore) Close() {
	if s != nil && s.db != nil {
		s.db.Close()
	}
}

// InsertScore appends one record.
func (s *SQLiteStore) InsertScore(ctx context.Context, rec ScoreRecord) (ScoreRecord, error) {
	if s == nil || s.db == nil {
		return ScoreRecord{}, apperrors.ErrNotConfigured
	}
	rec.CreatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (player_name, attempts, time_seconds, matched_pairs, total_pairs, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`, s.table),
		rec.PlayerName, rec.Attempts, rec.TimeSeconds, rec.MatchedPairs, rec.TotalPairs, rec.CreatedAt)
	if err != nil {
		return ScoreRecord{}, fmt.Errorf("insert score: %w", err)
	}
	if rec.ID, err = res.LastInsertId(); err != nil {
		return ScoreRecord{}, fmt.Errorf("insert score id: %w", err)
	}
	return rec, nil
}

// TopScores returns the fastest runs, fewer attempts first on equal time.
func (s *SQLiteStore) TopScores(ctx context.Context, limit int) ([]ScoreRecord, error) {
	if s == nil || s.db == nil {
		return nil, apperrors.ErrNotConfigured
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, player_name, attempts, time_seconds, matched_pairs, total_pairs, created_at
		FROM %s
		ORDER BY time_seconds ASC, attempts ASC, id ASC
		LIMIT ?`, s.table),
		clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query top scores: %w", err)
	}
	defer rows.Close()
	out := []ScoreRecord{}
	for rows.Next() {
		var r ScoreRecord
		if err := rows.Scan(&r.ID, &r.PlayerName, &r.Attempts, &r.TimeSeconds, &r.MatchedPairs, &r.TotalPairs, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
