package storage

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"card-flip/apperrors"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS %[1]s (
	id            BIGSERIAL PRIMARY KEY,
	player_name   TEXT,
	attempts      INT NOT NULL,
	time_seconds  INT NOT NULL,
	matched_pairs INT NOT NULL,
	total_pairs   INT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS %[2]s ON %[1]s (time_seconds, attempts);
`

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// PostgresStore keeps scores in a hosted Postgres table.
type PostgresStore struct {
	pool  *pgxpool.Pool
	table string
}

// NewPostgresStore connects to Postgres and, when create is set, makes sure
// the scores table exists.
func NewPostgresStore(ctx context.Context, databaseURL, table string, create bool) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, apperrors.ErrNotConfigured
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	ident := pgx.Identifier{table}.Sanitize()
	if create {
		index := pgx.Identifier{"idx_" + table + "_rank"}.Sanitize()
		if _, err := pool.Exec(ctx, fmt.Sprintf(createTableSQL, ident, index)); err != nil {
			pool.Close()
			return nil, fmt.Errorf("create %s: %w", table, err)
		}
	}
	slog.Info("connected to Postgres", "tag", "storage", "table", table)
	return &PostgresStore{pool: pool, table: ident}, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

// InsertScore appends one record.
func (s *PostgresStore) InsertScore(ctx context.Context, rec ScoreRecord) (ScoreRecord, error) {
	if s == nil || s.pool == nil {
		return ScoreRecord{}, apperrors.ErrNotConfigured
	}
	err := s.pool.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO %s (player_name, attempts, time_seconds, matched_pairs, total_pairs)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`, s.table),
		rec.PlayerName, rec.Attempts, rec.TimeSeconds, rec.MatchedPairs, rec.TotalPairs,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return ScoreRecord{}, fmt.Errorf("insert score: %w", err)
	}
	return rec, nil
}

// TopScores returns the fastest runs, fewer attempts first on equal time.
func (s *PostgresStore) TopScores(ctx context.Context, limit int) ([]ScoreRecord, error) {
	if s == nil || s.pool == nil {
		return nil, apperrors.ErrNotConfigured
	}
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT id, player_name, attempts, time_seconds, matched_pairs, total_pairs, created_at
		FROM %s
		ORDER BY time_seconds ASC, attempts ASC, created_at ASC
		LIMIT $1`, s.table),
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

// clampLimit keeps queries within 1..100 rows.
func clampLimit(limit int) int {
	if limit <= 0 {
		return 10
	}
	if limit > 100 {
		return 100
	}
	return limit
}
