// Package cli implements the callcache command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/callcache/internal/cache"
	"github.com/roach88/callcache/internal/config"
	"github.com/roach88/callcache/internal/kv"
)

// RootOptions holds global flags and the state shared by subcommands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	StoreURL   string

	// OpenStore overrides kv.Open (for testing).
	OpenStore func(ctx context.Context, url string) (kv.Store, error)

	// Keys overrides the random key generator (for testing).
	Keys cache.KeyGenerator

	config config.Config
	logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the callcache CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "callcache",
		Short: "Store values under generated keys and replay call history",
		Long: `callcache stores values in a key-value store under freshly generated
keys. Every store call is counted and recorded, and the recorded history can
be replayed afterwards.

Stores are selected by URL: memory://, sqlite://PATH, redis://HOST:PORT/DB.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return opts.setup(cmd.ErrOrStderr())
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.StoreURL, "store", "", "store URL (overrides config and "+config.EnvStore+")")

	cmd.AddCommand(NewStoreCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewFlushCommand(opts))

	return cmd
}

// Main runs the CLI with args and returns the process exit code. Errors
// are reported through the OutputFormatter in the selected format.
func Main(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	return execute(ctx, &RootOptions{}, args, stdout, stderr)
}

func execute(ctx context.Context, opts *RootOptions, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	var exitErr *ExitError
	if err != nil && !(errors.As(err, &exitErr) && exitErr.Reported) {
		f := &OutputFormatter{Format: opts.Format, Writer: stdout, ErrWriter: stderr}
		if !slices.Contains(ValidFormats, f.Format) {
			f.Format = "text"
		}
		_ = f.Error(err)
	}
	return GetExitCode(err)
}

// setup loads configuration, applies the --store override and installs
// the logger.
func (o *RootOptions) setup(stderr io.Writer) error {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if o.StoreURL != "" {
		cfg.Store = o.StoreURL
		if err := cfg.Validate(); err != nil {
			return WrapExitError(ExitCommandError, "invalid --store", err)
		}
	}
	o.config = cfg

	level := cfg.SlogLevel()
	if o.Verbose {
		level = slog.LevelDebug
	}
	o.logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(o.logger)
	return nil
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr()}
}

// openStore connects to the configured store. Callers close it.
func (o *RootOptions) openStore(ctx context.Context) (kv.Store, error) {
	open := o.OpenStore
	if open == nil {
		open = kv.Open
	}
	o.logger.Debug("opening store", "url", o.config.Store)
	st, err := open(ctx, o.config.Store)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open store", err)
	}
	return st, nil
}

func (o *RootOptions) closeStore(st kv.Store) {
	if err := st.Close(); err != nil {
		o.logger.Error("error closing store", "error", err)
	}
}

// cacheOptions returns the cache options derived from config and flags.
func (o *RootOptions) cacheOptions() ([]cache.Option, error) {
	order, err := o.config.InstrumentOrder()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid instrumentation order", err)
	}
	opts := []cache.Option{cache.WithOrder(order), cache.WithLogger(o.logger)}
	if o.Keys != nil {
		opts = append(opts, cache.WithKeyGenerator(o.Keys))
	}
	return opts, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
