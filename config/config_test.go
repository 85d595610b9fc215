package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.BoardRows != 4 {
		t.Errorf("expected BoardRows=4, got %d", cfg.BoardRows)
	}
	if cfg.BoardCols != 4 {
		t.Errorf("expected BoardCols=4, got %d", cfg.BoardCols)
	}
	if cfg.MatchDelayMS != 800 {
		t.Errorf("expected MatchDelayMS=800, got %d", cfg.MatchDelayMS)
	}
	if cfg.MismatchDelayMS != 1500 {
		t.Errorf("expected MismatchDelayMS=1500, got %d", cfg.MismatchDelayMS)
	}
	if cfg.CompleteDelayMS != 500 {
		t.Errorf("expected CompleteDelayMS=500, got %d", cfg.CompleteDelayMS)
	}
	if cfg.CardSize != 80 || cfg.CardSpacing != 10 {
		t.Errorf("expected 80/10 layout, got %d/%d", cfg.CardSize, cfg.CardSpacing)
	}
	if cfg.Leaderboard.Table != "card_flip_scores" {
		t.Errorf("expected table card_flip_scores, got %q", cfg.Leaderboard.Table)
	}
	if cfg.Leaderboard.Limit != 10 {
		t.Errorf("expected Limit=10, got %d", cfg.Leaderboard.Limit)
	}
	if cfg.MismatchDelay() != 1500*time.Millisecond {
		t.Errorf("expected MismatchDelay=1.5s, got %v", cfg.MismatchDelay())
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("BOARD_ROWS", "2")
	t.Setenv("MISMATCH_DELAY_MS", "900")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("REDIS_ADDR", "cache:6379")

	cfg := LoadFile(filepath.Join(t.TempDir(), "missing.json"))

	if cfg.BoardRows != 2 {
		t.Errorf("expected BoardRows=2 after env override, got %d", cfg.BoardRows)
	}
	if cfg.MismatchDelayMS != 900 {
		t.Errorf("expected MismatchDelayMS=900 after env override, got %d", cfg.MismatchDelayMS)
	}
	if cfg.HTTPPort != 9090 {
		t.Errorf("expected HTTPPort=9090 after env override, got %d", cfg.HTTPPort)
	}
	if cfg.Leaderboard.RedisAddr != "cache:6379" {
		t.Errorf("expected RedisAddr override, got %q", cfg.Leaderboard.RedisAddr)
	}
	// Non-overridden fields should remain default
	if cfg.MatchDelayMS != 800 {
		t.Errorf("expected MatchDelayMS=800 (default), got %d", cfg.MatchDelayMS)
	}
}

func TestLoadWithInvalidEnv(t *testing.T) {
	t.Setenv("BOARD_ROWS", "invalid")

	cfg := LoadFile(filepath.Join(t.TempDir(), "missing.json"))

	if cfg.BoardRows != 4 {
		t.Errorf("expected BoardRows=4 (default) with invalid env, got %d", cfg.BoardRows)
	}
}

func TestDatabaseURLFallbackChain(t *testing.T) {
	t.Setenv("SUPABASE_DB_URL", "")
	t.Setenv("DATABASE_URL", "postgres://fallback")

	cfg := LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	if cfg.Leaderboard.DatabaseURL != "postgres://fallback" {
		t.Errorf("expected DATABASE_URL to be used, got %q", cfg.Leaderboard.DatabaseURL)
	}

	t.Setenv("SUPABASE_DB_URL", "postgres://primary")
	cfg = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	if cfg.Leaderboard.DatabaseURL != "postgres://primary" {
		t.Errorf("expected SUPABASE_DB_URL to win, got %q", cfg.Leaderboard.DatabaseURL)
	}
}

func TestEnvWinsOverLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"board_cols": 2, "leaderboard": {"sqlite_path": "local.db", "database_url": "postgres://local"}}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SUPABASE_DB_URL", "postgres://deployed")
	t.Setenv("SQLITE_PATH", "")

	cfg := LoadFile(path)

	if cfg.BoardCols != 2 {
		t.Errorf("expected BoardCols=2 from file, got %d", cfg.BoardCols)
	}
	if cfg.Leaderboard.SQLitePath != "local.db" {
		t.Errorf("expected sqlite path from file, got %q", cfg.Leaderboard.SQLitePath)
	}
	if cfg.Leaderboard.DatabaseURL != "postgres://deployed" {
		t.Errorf("expected env database URL to win, got %q", cfg.Leaderboard.DatabaseURL)
	}
	if cfg.Leaderboard.Limit != 10 {
		t.Errorf("expected default Limit kept, got %d", cfg.Leaderboard.Limit)
	}
}
