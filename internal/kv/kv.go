package kv

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	// ErrNotFound is returned by Get when the key does not exist.
	ErrNotFound = errors.New("key not found")

	// ErrWrongType is returned when a string operation targets a list or
	// a list operation targets a string.
	ErrWrongType = errors.New("operation against a key holding the wrong kind of value")

	// ErrNotInteger is returned by Incr when the stored value is not a
	// base-10 integer.
	ErrNotInteger = errors.New("value is not an integer or out of range")
)

// Store is the contract every backend implements.
type Store interface {
	// Set writes val under key, replacing any string value.
	Set(ctx context.Context, key string, val []byte) error

	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Incr increments the integer stored under key and returns the new
	// value. A missing key counts as 0.
	Incr(ctx context.Context, key string) (int64, error)

	// RPush appends vals to the list under key and returns its new length.
	RPush(ctx context.Context, key string, vals ...[]byte) (int64, error)

	// LRange returns list elements from start to stop inclusive. Negative
	// indices count from the end; LRange(ctx, k, 0, -1) reads the whole
	// list. A missing key yields an empty slice.
	LRange(ctx context.Context, key string, start, stop int64) ([][]byte, error)

	// FlushAll deletes every key.
	FlushAll(ctx context.Context) error

	// Close releases the backend's resources.
	Close() error
}

// DefaultURL is the store used when nothing else is configured.
const DefaultURL = "redis://localhost:6379/0"

// Open connects to the backend named by rawURL.
//
//	memory://
//	sqlite:///var/lib/callcache.db   (absolute path)
//	sqlite://callcache.db            (relative path)
//	redis://localhost:6379/0
func Open(ctx context.Context, rawURL string) (Store, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse store url: %w", err)
	}

	switch u.Scheme {
	case "memory":
		return NewMemory(), nil
	case "sqlite":
		path := strings.TrimPrefix(rawURL, "sqlite://")
		if path == "" {
			return nil, fmt.Errorf("sqlite store url %q has no path", rawURL)
		}
		return OpenSQLite(path)
	case "redis", "rediss":
		return DialRedis(ctx, rawURL)
	default:
		return nil, fmt.Errorf("unsupported store scheme %q", u.Scheme)
	}
}

// rangeBounds converts Redis-style inclusive [start, stop] indices into a
// half-open [lo, hi) slice range over n elements. ok is false when the
// range is empty.
func rangeBounds(n, start, stop int64) (lo, hi int64, ok bool) {
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || start >= n {
		return 0, 0, false
	}
	return start, stop + 1, true
}
