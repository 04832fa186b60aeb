// Package cache stores computed leaderboards in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/focusquest/focusquest/internal/domain"
)

// Options configures a Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Redis is a domain.LeaderboardCache backed by a Redis server.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

var _ domain.LeaderboardCache = (*Redis)(nil)

// NewRedis connects to Redis and pings it once.
func NewRedis(ctx context.Context, opts Options, logger *zap.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("redis_connection_failed", zap.Error(err), zap.String("addr", opts.Addr))
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	logger.Info("redis_connected", zap.String("addr", opts.Addr))

	return newRedis(client, opts.TTL), nil
}

func newRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &Redis{client: client, ttl: ttl}
}

// Key is the cache key for one board on one day.
func Key(kind domain.LeaderboardKind, day time.Time) string {
	return "leaderboard:" + string(kind) + ":" + domain.FormatDate(day)
}

// cachedEntry keeps UserID, which LeaderboardEntry hides from JSON.
type cachedEntry struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Value  int64  `json:"value"`
}

// GetLeaderboard returns the cached board, or ok=false on a miss.
func (r *Redis) GetLeaderboard(ctx context.Context, kind domain.LeaderboardKind, day time.Time) ([]domain.LeaderboardEntry, bool, error) {
	val, err := r.client.Get(ctx, Key(kind, day)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}

	var cached []cachedEntry
	if err := json.Unmarshal(val, &cached); err != nil {
		return nil, false, fmt.Errorf("cache unmarshal: %w", err)
	}
	entries := make([]domain.LeaderboardEntry, len(cached))
	for i, c := range cached {
		entries[i] = domain.LeaderboardEntry{UserID: c.UserID, Name: c.Name, Value: c.Value}
	}
	return entries, true, nil
}

// SetLeaderboard stores a board for the configured TTL.
func (r *Redis) SetLeaderboard(ctx context.Context, kind domain.LeaderboardKind, day time.Time, entries []domain.LeaderboardEntry) error {
	cached := make([]cachedEntry, len(entries))
	for i, e := range entries {
		cached[i] = cachedEntry{UserID: e.UserID, Name: e.Name, Value: e.Value}
	}
	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("cache marshal: %w", err)
	}
	return r.client.Set(ctx, Key(kind, day), data, r.ttl).Err()
}

// Ping checks the server is reachable.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}
