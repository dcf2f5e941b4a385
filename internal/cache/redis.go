// Package cache holds a Redis implementation of the hours cache.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/jw6ventures/punchclock/internal/store"
)

// DefaultKey is the hash holding every cached total.
const DefaultKey = "punchclock:hours"

// Redis stores cached totals as fields of a single hash, keyed by user id.
type Redis struct {
	client redis.UniversalClient
	key    string
}

var _ store.HoursCache = (*Redis)(nil)

// NewClient parses a redis:// URL and returns a connected client.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewRedis wraps client. An empty key uses DefaultKey.
func NewRedis(client redis.UniversalClient, key string) *Redis {
	if key == "" {
		key = DefaultKey
	}
	return &Redis{client: client, key: key}
}

func (r *Redis) Get(ctx context.Context, userID string) (int64, bool, error) {
	defer observe(ctx, "redis.hours.get")()

	v, err := r.client.HGet(ctx, r.key, userID).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read cached hours for %s: %w", userID, err)
	}
	total, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("decode cached hours for %s: %w", userID, err)
	}
	return total, true, nil
}

func (r *Redis) Put(ctx context.Context, userID string, totalMs int64) error {
	defer observe(ctx, "redis.hours.put")()

	if err := r.client.HSet(ctx, r.key, userID, totalMs).Err(); err != nil {
		return fmt.Errorf("write cached hours for %s: %w", userID, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, userID string) error {
	defer observe(ctx, "redis.hours.delete")()

	if err := r.client.HDel(ctx, r.key, userID).Err(); err != nil {
		return fmt.Errorf("delete cached hours for %s: %w", userID, err)
	}
	return nil
}

func (r *Redis) DeleteAll(ctx context.Context) error {
	defer observe(ctx, "redis.hours.delete_all")()

	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("clear cached hours: %w", err)
	}
	return nil
}

// HealthCheck pings the server.
func (r *Redis) HealthCheck(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
