package replay

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/callcache/internal/cache"
	"github.com/roach88/callcache/internal/instrument"
	"github.com/roach88/callcache/internal/kv"
	"github.com/roach88/callcache/internal/value"
)

func newGolden(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func seededCache(t *testing.T, values ...value.Value) kv.Store {
	t.Helper()
	ctx := context.Background()
	store := kv.NewMemory()
	c, err := cache.New(ctx, store,
		cache.WithKeyGenerator(cache.NewSequenceGenerator("key")),
		cache.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	require.NoError(t, err)

	for _, v := range values {
		_, err := c.Store(ctx, v)
		require.NoError(t, err)
	}
	return store
}

func TestReplay_Golden(t *testing.T) {
	store := seededCache(t,
		value.Text("foo"),
		value.Text("bar"),
		value.Integer(42),
		value.Float(2.5),
		value.Binary("raw"),
	)

	var buf bytes.Buffer
	require.NoError(t, Replay(context.Background(), store, cache.StoreName, &buf))

	newGolden(t).Assert(t, "store_history", buf.Bytes())
}

func TestLoad_PairsInCallOrder(t *testing.T) {
	store := seededCache(t, value.Text("a"), value.Text("b"))

	r, err := Load(context.Background(), store, cache.StoreName)
	require.NoError(t, err)

	assert.Equal(t, "Cache.Store", r.Name)
	assert.Equal(t, int64(2), r.Count)
	assert.Equal(t, []Call{
		{Input: `["a"]`, Output: "key-1"},
		{Input: `["b"]`, Output: "key-2"},
	}, r.Calls)
}

func TestLoad_NoCallsFails(t *testing.T) {
	store := seededCache(t)

	_, err := Load(context.Background(), store, cache.StoreName)
	assert.ErrorIs(t, err, ErrNoCalls)

	var buf bytes.Buffer
	err = Replay(context.Background(), store, cache.StoreName, &buf)
	assert.ErrorIs(t, err, ErrNoCalls)
	assert.Empty(t, buf.String())
}

func TestLoad_TruncatesToShorterList(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	name := "Op"

	_, err := store.Incr(ctx, name)
	require.NoError(t, err)
	_, err = store.Incr(ctx, name)
	require.NoError(t, err)
	_, err = store.RPush(ctx, instrument.InputsKey(name), []byte("[1]"), []byte("[2]"))
	require.NoError(t, err)
	_, err = store.RPush(ctx, instrument.OutputsKey(name), []byte("one"))
	require.NoError(t, err)

	r, err := Load(ctx, store, name)
	require.NoError(t, err)
	assert.Equal(t, int64(2), r.Count)
	assert.Equal(t, []Call{{Input: "[1]", Output: "one"}}, r.Calls)
}

func TestLoad_CorruptCounter(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	require.NoError(t, store.Set(ctx, "Op", []byte("many")))

	_, err := Load(ctx, store, "Op")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoCalls)
}

func TestLoad_DoesNotMutate(t *testing.T) {
	store := seededCache(t, value.Text("a"))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		r, err := Load(ctx, store, cache.StoreName)
		require.NoError(t, err)
		assert.Equal(t, int64(1), r.Count)
		assert.Len(t, r.Calls, 1)
	}
}
