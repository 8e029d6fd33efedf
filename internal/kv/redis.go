package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Redis is a Store backed by a Redis server.
type Redis struct {
	client redis.UniversalClient
}

// NewRedis wraps an existing client. The Store takes ownership: Close
// closes the client.
func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client}
}

// DialRedis connects to the server named by a redis:// or rediss:// URL and
// verifies the connection with PING.
func DialRedis(ctx context.Context, rawURL string) (*Redis, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}
	return NewRedis(client), nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) Set(ctx context.Context, key string, val []byte) error {
	if err := r.client.Set(ctx, key, val, 0).Err(); err != nil {
		return fmt.Errorf("set %q: %w", key, mapRedisError(err))
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", key, mapRedisError(err))
	}
	return val, nil
}

func (r *Redis) Incr(ctx context.Context, key string) (int64, error) {
	n, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("incr %q: %w", key, mapRedisError(err))
	}
	return n, nil
}

func (r *Redis) RPush(ctx context.Context, key string, vals ...[]byte) (int64, error) {
	args := make([]any, len(vals))
	for i, v := range vals {
		args[i] = v
	}
	n, err := r.client.RPush(ctx, key, args...).Result()
	if err != nil {
		return 0, fmt.Errorf("rpush %q: %w", key, mapRedisError(err))
	}
	return n, nil
}

func (r *Redis) LRange(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	items, err := r.client.LRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange %q: %w", key, mapRedisError(err))
	}
	out := make([][]byte, len(items))
	for i, item := range items {
		out[i] = []byte(item)
	}
	return out, nil
}

func (r *Redis) FlushAll(ctx context.Context) error {
	if err := r.client.FlushAll(ctx).Err(); err != nil {
		return fmt.Errorf("flushall: %w", mapRedisError(err))
	}
	return nil
}

// mapRedisError translates server error replies into this package's
// sentinels so callers can match on them regardless of backend.
func mapRedisError(err error) error {
	msg := err.Error()
	switch {
	case strings.HasPrefix(msg, "WRONGTYPE"):
		return fmt.Errorf("%w: %s", ErrWrongType, msg)
	case strings.Contains(msg, "not an integer or out of range"):
		return fmt.Errorf("%w: %s", ErrNotInteger, msg)
	default:
		return err
	}
}
