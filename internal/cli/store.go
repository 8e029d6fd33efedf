package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/callcache/internal/cache"
	"github.com/roach88/callcache/internal/value"
)

// StoreOptions holds flags for the store command.
type StoreOptions struct {
	*RootOptions
	Kind string
}

// StoreResult is the JSON payload of the store command.
type StoreResult struct {
	Keys []string `json:"keys"`
}

// NewStoreCommand creates the store command.
func NewStoreCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StoreOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "store VALUE...",
		Short: "Reset the store and save values under new keys",
		Long: `Reset the store, then save each VALUE under a freshly generated key and
print the keys in argument order.

Every value is parsed as --kind. The reset clears values, counters and call
history left by earlier runs.

Examples:
  callcache store foo bar
  callcache store --kind int 1 2 3
  callcache --store sqlite://cache.db store hello`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStore(opts, cmd, args)
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", "text", "value kind (text|bytes|int|float)")

	return cmd
}

func runStore(opts *StoreOptions, cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	kind, err := value.ParseKind(opts.Kind)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --kind", err)
	}
	values := make([]value.Value, len(args))
	for i, arg := range args {
		if values[i], err = value.Parse(kind, arg); err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("invalid value %q", arg), err)
		}
	}

	st, err := opts.openStore(ctx)
	if err != nil {
		return err
	}
	defer opts.closeStore(st)

	cacheOpts, err := opts.cacheOptions()
	if err != nil {
		return err
	}
	c, err := cache.New(ctx, st, cacheOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to reset store", err)
	}

	result := StoreResult{Keys: make([]string, 0, len(values))}
	for _, v := range values {
		key, err := c.Store(ctx, v)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to store value", err)
		}
		result.Keys = append(result.Keys, key)
	}
	opts.logger.Info("values stored", "count", len(result.Keys))

	return opts.formatter(cmd).Emit(result, func(w io.Writer) error {
		for _, key := range result.Keys {
			if _, err := fmt.Fprintln(w, key); err != nil {
				return err
			}
		}
		return nil
	})
}
