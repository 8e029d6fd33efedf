package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/callcache/internal/cache"
	"github.com/roach88/callcache/internal/value"
)

// MissingValue is printed in text mode for a key that does not exist.
const MissingValue = "(nil)"

// GetOptions holds flags for the get command.
type GetOptions struct {
	*RootOptions
	As string
}

// GetResult is the JSON payload of the get command.
type GetResult struct {
	Key   string  `json:"key"`
	Found bool    `json:"found"`
	Kind  string  `json:"kind"`
	Value *string `json:"value"`
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "get KEY",
		Short: "Print the value stored under a key",
		Long: `Print the value stored under KEY, decoded as --as.

A missing key is not an error: text output prints (nil) and JSON output
reports found=false. A value that does not decode as the requested kind
exits with code 1.

Examples:
  callcache get 0b7c9f2e-...
  callcache get --as int 0b7c9f2e-...`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.As, "as", "text", "decode as (bytes|text|int|float)")

	return cmd
}

func runGet(opts *GetOptions, cmd *cobra.Command, key string) error {
	ctx := commandContext(cmd)

	kind, err := value.ParseKind(opts.As)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --as", err)
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
	c, err := cache.Attach(st, cacheOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to attach to store", err)
	}

	v, found, err := c.GetValue(ctx, key, kind)
	if err != nil {
		if found {
			return WrapExitError(ExitFailure, fmt.Sprintf("value is not %s", kind), err)
		}
		return WrapExitError(ExitCommandError, "failed to read key", err)
	}

	result := GetResult{Key: key, Found: found, Kind: kind.String()}
	if found {
		s := v.String()
		result.Value = &s
	}

	return opts.formatter(cmd).Emit(result, func(w io.Writer) error {
		out := MissingValue
		if result.Value != nil {
			out = *result.Value
		}
		_, err := fmt.Fprintln(w, out)
		return err
	})
}
