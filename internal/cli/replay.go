package cli

import (
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/callcache/internal/cache"
	"github.com/roach88/callcache/internal/replay"
)

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay [NAME]",
		Short: "Print the recorded call history of an operation",
		Long: `Print how many times NAME was called and, for each recorded call, its
arguments and result. NAME defaults to ` + cache.StoreName + `.

The store is read as-is; nothing is reset.

Exit codes:
  0 - History printed
  1 - NAME has no recorded calls
  2 - Command error (store unreachable, corrupt counter)

Examples:
  callcache replay
  callcache --format json replay Cache.Store`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := cache.StoreName
			if len(args) == 1 {
				name = args[0]
			}
			return runReplay(rootOpts, cmd, name)
		},
	}

	return cmd
}

func runReplay(opts *RootOptions, cmd *cobra.Command, name string) error {
	ctx := commandContext(cmd)

	st, err := opts.openStore(ctx)
	if err != nil {
		return err
	}
	defer opts.closeStore(st)

	report, err := replay.Load(ctx, st, name)
	if errors.Is(err, replay.ErrNoCalls) {
		return WrapExitError(ExitFailure, "nothing to replay", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load history", err)
	}
	opts.logger.Debug("history loaded", "name", name, "count", report.Count, "calls", len(report.Calls))

	return opts.formatter(cmd).Emit(report, func(w io.Writer) error {
		return replay.Write(w, report)
	})
}
