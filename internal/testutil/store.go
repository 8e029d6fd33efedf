package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/callcache/internal/kv"
)

// StoreFactory returns a fresh, empty store. Implementations should
// register cleanup with t.Cleanup.
type StoreFactory func(t *testing.T) kv.Store

// RunStoreConformance exercises the kv.Store contract against one backend.
//
// Every backend must pass the same suite, so the cache layer can rely on
// Redis semantics no matter where its state lives.
func RunStoreConformance(t *testing.T, newStore StoreFactory) {
	t.Helper()

	t.Run("SetGet", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Set(ctx, "k", []byte("v1")))
		got, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), got)

		require.NoError(t, s.Set(ctx, "k", []byte("v2")))
		got, err = s.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), got)
	})

	t.Run("SetEmptyValue", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Set(ctx, "empty", []byte{}))
		got, err := s.Get(ctx, "empty")
		require.NoError(t, err)
		assert.Len(t, got, 0)
	})

	t.Run("SetBinaryValue", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		raw := []byte{0x00, 0xff, 0x7f, 0x80}
		require.NoError(t, s.Set(ctx, "bin", raw))
		got, err := s.Get(ctx, "bin")
		require.NoError(t, err)
		assert.Equal(t, raw, got)
	})

	t.Run("GetMissing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(context.Background(), "nope")
		assert.ErrorIs(t, err, kv.ErrNotFound)
	})

	t.Run("IncrFromZero", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		for want := int64(1); want <= 3; want++ {
			n, err := s.Incr(ctx, "counter")
			require.NoError(t, err)
			assert.Equal(t, want, n)
		}

		got, err := s.Get(ctx, "counter")
		require.NoError(t, err)
		assert.Equal(t, "3", string(got))
	})

	t.Run("IncrExistingInteger", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Set(ctx, "counter", []byte("41")))
		n, err := s.Incr(ctx, "counter")
		require.NoError(t, err)
		assert.Equal(t, int64(42), n)
	})

	t.Run("IncrNotInteger", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Set(ctx, "k", []byte("foo")))
		_, err := s.Incr(ctx, "k")
		assert.ErrorIs(t, err, kv.ErrNotInteger)
	})

	t.Run("IncrConcurrent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		const goroutines = 8
		const perGoroutine = 25

		var wg sync.WaitGroup
		wg.Add(goroutines)
		for i := 0; i < goroutines; i++ {
			go func() {
				defer wg.Done()
				for j := 0; j < perGoroutine; j++ {
					_, err := s.Incr(ctx, "counter")
					assert.NoError(t, err)
				}
			}()
		}
		wg.Wait()

		got, err := s.Get(ctx, "counter")
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprint(goroutines*perGoroutine), string(got))
	})

	t.Run("RPushAppendsInOrder", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		n, err := s.RPush(ctx, "list", []byte("a"))
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = s.RPush(ctx, "list", []byte("b"), []byte("c"))
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)

		got, err := s.LRange(ctx, "list", 0, -1)
		require.NoError(t, err)
		assert.Equal(t, [][]byte{[]byte("a"), []byte("b"), []byte("c")}, got)
	})

	t.Run("LRangeIndices", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.RPush(ctx, "list", []byte("0"), []byte("1"), []byte("2"), []byte("3"), []byte("4"))
		require.NoError(t, err)

		tests := []struct {
			start, stop int64
			want        []string
		}{
			{0, -1, []string{"0", "1", "2", "3", "4"}},
			{1, 2, []string{"1", "2"}},
			{-2, -1, []string{"3", "4"}},
			{-100, 1, []string{"0", "1"}},
			{3, 100, []string{"3", "4"}},
			{4, 1, []string{}},
			{5, 10, []string{}},
		}
		for _, tt := range tests {
			got, err := s.LRange(ctx, "list", tt.start, tt.stop)
			require.NoError(t, err)
			assert.Equal(t, tt.want, asStrings(got), "LRange(%d, %d)", tt.start, tt.stop)
		}
	})

	t.Run("LRangeMissing", func(t *testing.T) {
		s := newStore(t)
		got, err := s.LRange(context.Background(), "nope", 0, -1)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("WrongType", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Set(ctx, "str", []byte("x")))
		_, err := s.RPush(ctx, "str", []byte("y"))
		assert.ErrorIs(t, err, kv.ErrWrongType)
		_, err = s.LRange(ctx, "str", 0, -1)
		assert.ErrorIs(t, err, kv.ErrWrongType)

		_, err = s.RPush(ctx, "list", []byte("y"))
		require.NoError(t, err)
		_, err = s.Get(ctx, "list")
		assert.ErrorIs(t, err, kv.ErrWrongType)
		_, err = s.Incr(ctx, "list")
		assert.ErrorIs(t, err, kv.ErrWrongType)
	})

	t.Run("SetReplacesList", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.RPush(ctx, "k", []byte("a"))
		require.NoError(t, err)
		require.NoError(t, s.Set(ctx, "k", []byte("b")))

		got, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("b"), got)
	})

	t.Run("FlushAll", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Set(ctx, "a", []byte("1")))
		_, err := s.Incr(ctx, "n")
		require.NoError(t, err)
		_, err = s.RPush(ctx, "l", []byte("x"))
		require.NoError(t, err)

		require.NoError(t, s.FlushAll(ctx))

		_, err = s.Get(ctx, "a")
		assert.ErrorIs(t, err, kv.ErrNotFound)
		_, err = s.Get(ctx, "n")
		assert.ErrorIs(t, err, kv.ErrNotFound)
		got, err := s.LRange(ctx, "l", 0, -1)
		require.NoError(t, err)
		assert.Empty(t, got)

		// Keys are reusable with any type after a flush.
		_, err = s.RPush(ctx, "a", []byte("y"))
		assert.NoError(t, err)
	})
}

func asStrings(items [][]byte) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = string(item)
	}
	return out
}
