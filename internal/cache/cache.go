// Package cache is a storage facade over a kv.Store.
//
// Every stored value gets a freshly generated key. Store calls are
// instrumented: each call bumps the "Cache.Store" counter and is appended
// to the "Cache.Store:inputs" / "Cache.Store:outputs" history lists, which
// the replay package reads back.
//
// New resets the whole store: counters, histories and values left by a
// previous instance are gone afterwards. Attach connects without resetting.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/callcache/internal/instrument"
	"github.com/roach88/callcache/internal/kv"
	"github.com/roach88/callcache/internal/value"
)

// StoreName is the name Store calls are recorded under.
var StoreName = instrument.QualifiedName("Cache", "Store")

// Cache stores values under generated keys and reads them back.
type Cache struct {
	kv     kv.Store
	keys   KeyGenerator
	order  instrument.Order
	logger *slog.Logger
	store  instrument.Call
}

// Option configures a Cache.
type Option func(*Cache)

// WithKeyGenerator replaces the default random key generator.
func WithKeyGenerator(g KeyGenerator) Option {
	return func(c *Cache) { c.keys = g }
}

// WithOrder sets the instrumentation order for Store, outermost first.
func WithOrder(order instrument.Order) Option {
	return func(c *Cache) { c.order = order }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// New flushes store and returns a cache over it.
func New(ctx context.Context, store kv.Store, opts ...Option) (*Cache, error) {
	c, err := build(store, opts)
	if err != nil {
		return nil, err
	}
	if err := store.FlushAll(ctx); err != nil {
		return nil, fmt.Errorf("reset store: %w", err)
	}
	c.logger.Debug("store reset")
	return c, nil
}

// Attach returns a cache over store without resetting it, so existing
// values and call histories remain readable.
func Attach(store kv.Store, opts ...Option) (*Cache, error) {
	return build(store, opts)
}

func build(store kv.Store, opts []Option) (*Cache, error) {
	c := &Cache{
		kv:     store,
		keys:   RandomGenerator{},
		order:  instrument.DefaultOrder,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	call, err := instrument.Wrap(store, StoreName, c.storeValue, c.order)
	if err != nil {
		return nil, fmt.Errorf("instrument %s: %w", StoreName, err)
	}
	c.store = call
	return c, nil
}

// KV returns the underlying store.
func (c *Cache) KV() kv.Store {
	return c.kv
}

// Store writes v under a new key and returns the key.
func (c *Cache) Store(ctx context.Context, v value.Value) (string, error) {
	if v == nil {
		return "", errors.New("store: nil value")
	}
	result, err := c.store(ctx, v)
	if err != nil {
		return "", err
	}
	return result.String(), nil
}

// storeValue is the uninstrumented Store operation.
func (c *Cache) storeValue(ctx context.Context, args ...value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("store: want 1 argument, got %d", len(args))
	}

	key, err := c.keys.Generate()
	if err != nil {
		return nil, err
	}
	if err := c.kv.Set(ctx, key, args[0].Encode()); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}

	c.logger.Debug("value stored", "key", key, "kind", args[0].Kind().String())
	return value.Text(key), nil
}

// Get returns the raw bytes stored under key. A missing key is not an
// error: found is false and raw is nil.
func (c *Cache) Get(ctx context.Context, key string) (raw []byte, found bool, err error) {
	raw, err = c.kv.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %q: %w", key, err)
	}
	return raw, true, nil
}

// Transform converts raw stored bytes into a caller-chosen type.
type Transform[T any] func(raw []byte) (T, error)

// GetAs reads key and applies fn. A missing key returns the zero T with
// found false; fn is not called.
func GetAs[T any](ctx context.Context, c *Cache, key string, fn Transform[T]) (out T, found bool, err error) {
	raw, found, err := c.Get(ctx, key)
	if err != nil || !found {
		return out, false, err
	}
	out, err = fn(raw)
	if err != nil {
		return out, true, fmt.Errorf("get %q: %w", key, err)
	}
	return out, true, nil
}

// GetStr reads key as UTF-8 text.
func (c *Cache) GetStr(ctx context.Context, key string) (string, bool, error) {
	return GetAs(ctx, c, key, func(raw []byte) (string, error) {
		return string(value.DecodeText(raw)), nil
	})
}

// GetInt reads key as a base-10 integer.
func (c *Cache) GetInt(ctx context.Context, key string) (int64, bool, error) {
	return GetAs(ctx, c, key, func(raw []byte) (int64, error) {
		n, err := value.DecodeInteger(raw)
		return int64(n), err
	})
}

// GetFloat reads key as a decimal float.
func (c *Cache) GetFloat(ctx context.Context, key string) (float64, bool, error) {
	return GetAs(ctx, c, key, func(raw []byte) (float64, error) {
		f, err := value.DecodeFloat(raw)
		return float64(f), err
	})
}

// GetValue reads key and decodes it as the given kind.
func (c *Cache) GetValue(ctx context.Context, key string, kind value.Kind) (value.Value, bool, error) {
	return GetAs(ctx, c, key, func(raw []byte) (value.Value, error) {
		return value.Decode(kind, raw)
	})
}
