package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// AutoplayParams holds the behavior of the demo bot.
type AutoplayParams struct {
	DelayMinMS   int `json:"delay_min_ms"`
	DelayMaxMS   int `json:"delay_max_ms"`
	ForgetChance int `json:"forget_chance"` // 0-100, probability to forget a remembered card each turn
}

// LeaderboardConfig selects and tunes the score backend.
// DatabaseURL wins over SQLitePath; with neither set the stub backend is used.
type LeaderboardConfig struct {
	Table          string `json:"table"`
	DatabaseURL    string `json:"database_url"`
	SQLitePath     string `json:"sqlite_path"`
	RedisAddr      string `json:"redis_addr"`
	RedisDB        int    `json:"redis_db"`
	CacheTTLSec    int    `json:"cache_ttl_sec"`
	Limit          int    `json:"limit"`
	CallTimeoutMS  int    `json:"call_timeout_ms"`
	ReceiptSecret  string `json:"receipt_secret"`
	ReceiptTTLMin  int    `json:"receipt_ttl_min"`
	CreateIfAbsent bool   `json:"create_if_absent"`
}

// Config holds all configurable game parameters.
type Config struct {
	BoardRows       int `json:"board_rows"`
	BoardCols       int `json:"board_cols"`
	CardSize        int `json:"card_size"`
	CardSpacing     int `json:"card_spacing"`
	MatchDelayMS    int `json:"match_delay_ms"`
	MismatchDelayMS int `json:"mismatch_delay_ms"`
	CompleteDelayMS int `json:"complete_delay_ms"`
	FrameIntervalMS int `json:"frame_interval_ms"`
	MaxNameLength   int `json:"max_name_length"`
	HTTPPort        int `json:"http_port"`

	Leaderboard LeaderboardConfig `json:"leaderboard"`
	Autoplay    AutoplayParams    `json:"autoplay"`
}

// Defaults returns a Config with the stock 4x4 board and timings.
func Defaults() *Config {
	return &Config{
		BoardRows:       4,
		BoardCols:       4,
		CardSize:        80,
		CardSpacing:     10,
		MatchDelayMS:    800,
		MismatchDelayMS: 1500,
		CompleteDelayMS: 500,
		FrameIntervalMS: 16,
		MaxNameLength:   24,
		HTTPPort:        8080,
		Leaderboard: LeaderboardConfig{
			Table:          "card_flip_scores",
			CacheTTLSec:    30,
			Limit:          10,
			CallTimeoutMS:  5000,
			ReceiptTTLMin:  60,
			CreateIfAbsent: true,
		},
		Autoplay: AutoplayParams{DelayMinMS: 300, DelayMaxMS: 700, ForgetChance: 10},
	}
}

// Load reads configuration from an optional config.json file (local
// development), then applies environment variable overrides (deploy-time
// injection). Fields not set in either source retain their default values.
func Load() *Config {
	return LoadFile("config.json")
}

// LoadFile is Load with an explicit local config path.
func LoadFile(path string) *Config {
	cfg := Defaults()

	if f, err := os.Open(path); err == nil {
		defer f.Close()
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			slog.Warn("failed to parse config file", "tag", "config", "path", path, "err", err)
		}
	}

	overrideInt(&cfg.BoardRows, "BOARD_ROWS")
	overrideInt(&cfg.BoardCols, "BOARD_COLS")
	overrideInt(&cfg.MatchDelayMS, "MATCH_DELAY_MS")
	overrideInt(&cfg.MismatchDelayMS, "MISMATCH_DELAY_MS")
	overrideInt(&cfg.CompleteDelayMS, "COMPLETE_DELAY_MS")
	overrideInt(&cfg.FrameIntervalMS, "FRAME_INTERVAL_MS")
	overrideInt(&cfg.MaxNameLength, "MAX_NAME_LENGTH")
	overrideInt(&cfg.HTTPPort, "HTTP_PORT")

	// Same fallback chain the deploy scripts use for the hosted database.
	overrideString(&cfg.Leaderboard.DatabaseURL, "SUPABASE_DB_URL", "DATABASE_URL")
	overrideString(&cfg.Leaderboard.SQLitePath, "SQLITE_PATH")
	overrideString(&cfg.Leaderboard.Table, "LEADERBOARD_TABLE")
	overrideString(&cfg.Leaderboard.RedisAddr, "REDIS_ADDR")
	overrideInt(&cfg.Leaderboard.RedisDB, "REDIS_DB")
	overrideInt(&cfg.Leaderboard.CacheTTLSec, "LEADERBOARD_CACHE_TTL_SEC")
	overrideInt(&cfg.Leaderboard.Limit, "LEADERBOARD_LIMIT")
	overrideInt(&cfg.Leaderboard.CallTimeoutMS, "LEADERBOARD_TIMEOUT_MS")
	overrideString(&cfg.Leaderboard.ReceiptSecret, "RECEIPT_SECRET")
	overrideInt(&cfg.Leaderboard.ReceiptTTLMin, "RECEIPT_TTL_MIN")

	overrideInt(&cfg.Autoplay.DelayMinMS, "AUTOPLAY_DELAY_MIN_MS")
	overrideInt(&cfg.Autoplay.DelayMaxMS, "AUTOPLAY_DELAY_MAX_MS")
	overrideInt(&cfg.Autoplay.ForgetChance, "AUTOPLAY_FORGET_CHANCE")

	return cfg
}

// MatchDelay is how long a matched pair stays plain face-up before it is marked matched.
func (c *Config) MatchDelay() time.Duration {
	return time.Duration(c.MatchDelayMS) * time.Millisecond
}

// MismatchDelay is how long a mismatched pair stays visible before flipping back.
func (c *Config) MismatchDelay() time.Duration {
	return time.Duration(c.MismatchDelayMS) * time.Millisecond
}

// CompleteDelay separates the last match from the end of the run.
func (c *Config) CompleteDelay() time.Duration {
	return time.Duration(c.CompleteDelayMS) * time.Millisecond
}

// FrameInterval is the render loop period.
func (c *Config) FrameInterval() time.Duration {
	if c.FrameIntervalMS <= 0 {
		return 16 * time.Millisecond
	}
	return time.Duration(c.FrameIntervalMS) * time.Millisecond
}

// CallTimeout bounds a single leaderboard backend call.
func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.Leaderboard.CallTimeoutMS) * time.Millisecond
}

func overrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*field = n
		} else {
			slog.Warn("invalid integer in environment", "tag", "config", "key", envKey, "value", val)
		}
	}
}

// overrideString sets field from the first non-empty environment key.
func overrideString(field *string, envKeys ...string) {
	for _, k := range envKeys {
		if val := os.Getenv(k); val != "" {
			*field = val
			return
		}
	}
}
