package instrument

import (
	"context"
	"fmt"

	"github.com/roach88/callcache/internal/kv"
	"github.com/roach88/callcache/internal/value"
)

// Count increments the counter stored under name before each call.
// If the increment fails the wrapped call is not made.
func Count(store kv.Store, name string) Middleware {
	return func(next Call) Call {
		return func(ctx context.Context, args ...value.Value) (value.Value, error) {
			if _, err := store.Incr(ctx, name); err != nil {
				return nil, fmt.Errorf("count %s: %w", name, err)
			}
			return next(ctx, args...)
		}
	}
}
