package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/callcache/internal/cache"
	"github.com/roach88/callcache/internal/scenario"
)

// RunResult is the JSON payload of the run command.
type RunResult struct {
	Scenario string           `json:"scenario"`
	Result   *scenario.Result `json:"result"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run SCRIPT",
		Short: "Execute a scenario script against a fresh store",
		Long: `Reset the store and execute the store/get/count/replay steps of a YAML
scenario script, printing one trace line per step.

Exit codes:
  0 - Every expectation in the script held
  1 - At least one expectation failed
  2 - Command error (invalid script, store unreachable)

Example:
  callcache --store memory:// run testdata/scripts/basic.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(rootOpts, cmd, args[0])
		},
	}

	return cmd
}

func runScenario(opts *RootOptions, cmd *cobra.Command, path string) error {
	ctx := commandContext(cmd)

	script, err := scenario.LoadScript(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load script", err)
	}
	opts.logger.Info("running scenario", "name", script.Name, "steps", len(script.Steps))

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

	result, err := scenario.Run(ctx, c, script)
	if err != nil {
		return WrapExitError(ExitCommandError, "scenario aborted", err)
	}

	err = opts.formatter(cmd).Emit(RunResult{Scenario: script.Name, Result: result}, func(w io.Writer) error {
		return writeTrace(w, script.Name, result)
	})
	if err != nil {
		return err
	}

	if !result.Pass {
		exitErr := NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed with %d error(s)", script.Name, len(result.Errors)))
		exitErr.Reported = true
		return exitErr
	}
	return nil
}

func writeTrace(w io.Writer, name string, result *scenario.Result) error {
	var b strings.Builder
	for _, ev := range result.Trace {
		fmt.Fprintf(&b, "[%d] %s", ev.Step, ev.Op)
		if ev.Input != "" {
			fmt.Fprintf(&b, " %s", ev.Input)
		}
		out := strings.TrimSuffix(ev.Output, "\n")
		if strings.Contains(out, "\n") {
			b.WriteString(" ->\n    ")
			b.WriteString(strings.ReplaceAll(out, "\n", "\n    "))
			b.WriteByte('\n')
		} else {
			fmt.Fprintf(&b, " -> %s\n", out)
		}
	}

	if result.Pass {
		fmt.Fprintf(&b, "PASS %s\n", name)
	} else {
		fmt.Fprintf(&b, "FAIL %s\n", name)
		for _, e := range result.Errors {
			fmt.Fprintf(&b, "  %s\n", e)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
