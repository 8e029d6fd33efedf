package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewFlushCommand creates the flush command.
func NewFlushCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "flush",
		Short: "Delete every key in the store",
		Long: `Delete every value, counter and history list in the store.

Example:
  callcache --store sqlite://cache.db flush`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			st, err := rootOpts.openStore(ctx)
			if err != nil {
				return err
			}
			defer rootOpts.closeStore(st)

			if err := st.FlushAll(ctx); err != nil {
				return WrapExitError(ExitCommandError, "failed to flush store", err)
			}
			rootOpts.logger.Info("store flushed")

			return rootOpts.formatter(cmd).Emit(map[string]bool{"flushed": true}, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, "OK")
				return err
			})
		},
	}
}
