package storage

import (
	"context"
	"log/slog"
	"time"

	"card-flip/config"
)

// Open selects the score backend once at startup: Postgres when a database
// URL is configured, else a local SQLite file, else the stub. A backend that
// cannot be reached also degrades to the stub, so the game stays playable.
// When a Redis address is set the result is wrapped in a CachedStore.
func Open(ctx context.Context, cfg config.LeaderboardConfig) ScoreStore {
	var store ScoreStore
	switch {
	case cfg.DatabaseURL != "":
		pg, err := NewPostgresStore(ctx, cfg.DatabaseURL, cfg.Table, cfg.CreateIfAbsent)
		if err != nil {
			slog.Error("leaderboard backend unavailable, scores will not be saved", "tag", "storage", "backend", "postgres", "err", err)
			return NewStubStore()
		}
		store = pg
	case cfg.SQLitePath != "":
		lite, err := NewSQLiteStore(ctx, cfg.SQLitePath, cfg.Table)
		if err != nil {
			slog.Error("leaderboard backend unavailable, scores will not be saved", "tag", "storage", "backend", "sqlite", "err", err)
			return NewStubStore()
		}
		store = lite
	default:
		slog.Warn("leaderboard backend not configured", "tag", "storage",
			"hint", "set SUPABASE_DB_URL or DATABASE_URL for deploys, or leaderboard.sqlite_path in config.json for local development")
		return NewStubStore()
	}

	if cfg.RedisAddr == "" {
		return store
	}
	ttl := time.Duration(cfg.CacheTTLSec) * time.Second
	cached, err := NewCachedStore(ctx, store, cfg.RedisAddr, cfg.RedisDB, ttl, cfg.Table)
	if err != nil {
		slog.Warn("leaderboard cache disabled", "tag", "storage", "err", err)
		return store
	}
	return cached
}
