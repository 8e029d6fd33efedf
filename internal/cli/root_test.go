package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/callcache/internal/cache"
	"github.com/roach88/callcache/internal/config"
	"github.com/roach88/callcache/internal/kv"
)

// testEnv runs commands against one shared in-memory store with
// predictable keys.
type testEnv struct {
	store kv.Store
	keys  cache.KeyGenerator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv(config.EnvStore, "")
	t.Setenv(config.EnvLogLevel, "")
	return &testEnv{store: kv.NewMemory(), keys: cache.NewSequenceGenerator("key")}
}

func (e *testEnv) run(args ...string) (stdout, stderr string, code int) {
	opts := &RootOptions{
		OpenStore: func(context.Context, string) (kv.Store, error) { return e.store, nil },
		Keys:      e.keys,
	}
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	code = execute(context.Background(), opts, append([]string{"--store", "memory://"}, args...), out, errOut)
	return out.String(), errOut.String(), code
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "callcache", cmd.Use)
	assert.Contains(t, cmd.Long, "sqlite://")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"store", "get", "replay", "run", "flush"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	require.NotNil(t, cmd.PersistentFlags().Lookup("store"))
}

func TestSubcommandFlags(t *testing.T) {
	cmd := NewRootCommand()

	storeCmd, _, err := cmd.Find([]string{"store"})
	require.NoError(t, err)
	kindFlag := storeCmd.Flags().Lookup("kind")
	require.NotNil(t, kindFlag)
	assert.Equal(t, "text", kindFlag.DefValue)

	getCmd, _, err := cmd.Find([]string{"get"})
	require.NoError(t, err)
	asFlag := getCmd.Flags().Lookup("as")
	require.NotNil(t, asFlag)
	assert.Equal(t, "text", asFlag.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	env := newTestEnv(t)

	_, stderr, code := env.run("--format", "yaml", "flush")
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr, `invalid format "yaml"`)
}

func TestInvalidStoreURL(t *testing.T) {
	env := newTestEnv(t)

	_, stderr, code := env.run("--store", "ftp://nowhere", "flush")
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr, "invalid --store")
}

func TestUnknownCommand(t *testing.T) {
	env := newTestEnv(t)

	_, stderr, code := env.run("compile")
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr, "unknown command")
}

func TestConfigFileOrder(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(t.TempDir(), "callcache.yaml")
	require.NoError(t, os.WriteFile(path, []byte("order: [history]\n"), 0o644))

	_, _, code := env.run("--config", path, "store", "foo")
	require.Equal(t, ExitSuccess, code)

	// History without Count records the call but leaves no counter.
	_, stderr, code := env.run("--config", path, "replay")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stderr, "no recorded calls")

	inputs, err := env.store.LRange(context.Background(), "Cache.Store:inputs", 0, -1)
	require.NoError(t, err)
	assert.Len(t, inputs, 1)
}

func TestConfigFileMissing(t *testing.T) {
	env := newTestEnv(t)

	_, stderr, code := env.run("--config", filepath.Join(t.TempDir(), "nope.yaml"), "flush")
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr, "failed to load config")
}

func TestVerboseLogsToStderr(t *testing.T) {
	env := newTestEnv(t)

	stdout, stderr, code := env.run("-v", "store", "foo")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, "key-1\n", stdout)
	assert.Contains(t, stderr, "level=DEBUG")
	assert.Contains(t, stderr, "opening store")
}
