package instrument

import (
	"context"
	"fmt"

	"github.com/roach88/callcache/internal/kv"
	"github.com/roach88/callcache/internal/value"
)

// History records each call's arguments and result under name.
//
// The persisted output is the result's String form; the caller still
// receives the original Value. When the wrapped call fails, its input stays
// recorded, no output is appended, and the error is returned unchanged.
func History(store kv.Store, name string) Middleware {
	inputs, outputs := InputsKey(name), OutputsKey(name)

	return func(next Call) Call {
		return func(ctx context.Context, args ...value.Value) (value.Value, error) {
			snapshot, err := value.Snapshot(args...)
			if err != nil {
				return nil, fmt.Errorf("history %s: %w", name, err)
			}
			if _, err := store.RPush(ctx, inputs, []byte(snapshot)); err != nil {
				return nil, fmt.Errorf("history %s: record input: %w", name, err)
			}

			result, err := next(ctx, args...)
			if err != nil {
				return nil, err
			}

			var persisted string
			if result != nil {
				persisted = result.String()
			}
			if _, err := store.RPush(ctx, outputs, []byte(persisted)); err != nil {
				return nil, fmt.Errorf("history %s: record output: %w", name, err)
			}
			return result, nil
		}
	}
}
