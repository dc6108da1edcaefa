package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sysme/poscheck/internal/config"
	"github.com/sysme/poscheck/internal/runlog"
	"github.com/sysme/poscheck/internal/scenario"
	"github.com/sysme/poscheck/internal/suite"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Filter string // scenario filter (glob pattern)
	NoLog  bool   // skip the run history store
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run [scenario...]",
		Short: "Run verification scenarios against the POS backend",
		Long: `Run verification scenarios against the configured POS backend.

With no arguments, every registered scenario runs in order. Scenarios
may also be selected by name or by glob filter.

Exit codes:
  0 - All selected scenarios passed
  1 - One or more scenarios failed
  2 - Command error (bad config, unknown scenario, etc.)

Examples:
  poscheck run
  poscheck run cash-lifecycle product-crud
  poscheck run --filter "order-*"
  poscheck run --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().BoolVar(&opts.NoLog, "no-log", false, "do not record outcomes in the run history")

	return cmd
}

func runScenarios(opts *RunOptions, args []string, cmd *cobra.Command) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	scenarios, err := suite.Select(args, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to select scenarios", err)
	}
	if len(scenarios) == 0 {
		if opts.Format == "json" {
			return writeJSON(cmd.OutOrStdout(), CLIResponse{
				Status: "ok",
				Data:   scenario.Summary{},
			})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios matched.")
		return nil
	}

	var log *runlog.Store
	if !opts.NoLog {
		log, err = runlog.Open(cfg.RunLog)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open run log", err)
		}
		defer log.Close()
	}

	logger := newLogger(opts.RootOptions)
	runner := scenario.NewRunner(cfg, logger, log)
	results := runner.Run(cmd.Context(), scenarios)
	summary := scenario.Summarize(results)

	if opts.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: summary}
		if summary.Failed > 0 {
			resp.Status = "error"
			resp.Error = &CLIError{
				Code:    "E_RUN_FAILED",
				Message: fmt.Sprintf("%d scenario(s) failed", summary.Failed),
			}
		}
		if err := writeJSON(cmd.OutOrStdout(), resp); err != nil {
			return err
		}
	} else {
		RenderText(cmd.OutOrStdout(), summary)
	}

	if summary.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", summary.Failed))
	}
	return nil
}
