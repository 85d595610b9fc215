package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedStore serves TopScores from a Redis hash and drops the hash on every
// insert. Redis failures are logged and fall through to the wrapped store.
type CachedStore struct {
	next ScoreStore
	rdb  redis.UniversalClient
	key  string
	ttl  time.Duration
}

// NewCachedStore connects to Redis at addr and wraps next.
func NewCachedStore(ctx context.Context, next ScoreStore, addr string, db int, ttl time.Duration, table string) (*CachedStore, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: db})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	slog.Info("leaderboard cache enabled", "tag", "storage", "addr", addr, "ttl", ttl)
	return WrapCache(next, rdb, ttl, table), nil
}

// WrapCache wraps next with an existing Redis client.
func WrapCache(next ScoreStore, rdb redis.UniversalClient, ttl time.Duration, table string) *CachedStore {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachedStore{next: next, rdb: rdb, key: table + ":top", ttl: ttl}
}

// InsertScore writes through and invalidates the cached rankings.
func (c *CachedStore) InsertScore(ctx context.Context, rec ScoreRecord) (ScoreRecord, error) {
	stored, err := c.next.InsertScore(ctx, rec)
	if err != nil {
		return ScoreRecord{}, err
	}
	if err := c.rdb.Del(ctx, c.key).Err(); err != nil {
		slog.Warn("cache invalidation failed", "tag", "storage", "err", err)
	}
	return stored, nil
}

// TopScores returns cached rankings when present, else loads and caches them.
func (c *CachedStore) TopScores(ctx context.Context, limit int) ([]ScoreRecord, error) {
	field := strconv.Itoa(clampLimit(limit))

	data, err := c.rdb.HGet(ctx, c.key, field).Bytes()
	switch {
	case err == nil:
		var cached []ScoreRecord
		if jerr := json.Unmarshal(data, &cached); jerr == nil {
			return cached, nil
		}
	case !errors.Is(err, redis.Nil):
		slog.Warn("cache read failed", "tag", "storage", "err", err)
	}

	scores, err := c.next.TopScores(ctx, limit)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(scores); err == nil {
		_, err := c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, c.key, field, data)
			p.Expire(ctx, c.key, c.ttl)
			return nil
		})
		if err != nil {
			slog.Warn("cache write failed", "tag", "storage", "err", err)
		}
	}
	return scores, nil
}

// Close closes the Redis client and the wrapped store.
func (c *CachedStore) Close() {
	c.rdb.Close()
	c.next.Close()
}
