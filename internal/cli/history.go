package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sysme/poscheck/internal/config"
	"github.com/sysme/poscheck/internal/runlog"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "history",
		Short:         "Show recent scenario outcomes from the run log",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showHistory(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum entries to show")
	return cmd
}

func showHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	log, err := runlog.Open(cfg.RunLog)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open run log", err)
	}
	defer log.Close()

	entries, err := log.Recent(cmd.Context(), opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run log", err)
	}

	if opts.Format == "json" {
		rows := make([]map[string]any, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, map[string]any{
				"run_id":      e.RunID,
				"scenario":    e.Scenario,
				"outcome":     e.Outcome,
				"class":       e.Class,
				"duration_ms": e.Duration.Milliseconds(),
				"started_at":  e.StartedAt.Format(time.RFC3339),
			})
		}
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: rows})
	}

	w := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(w, "No recorded runs.")
		return nil
	}
	for _, e := range entries {
		mark := "✓"
		if e.Outcome == "fail" {
			mark = "✗"
		} else if e.Outcome == "skip" {
			mark = "-"
		}
		fmt.Fprintf(w, "%s %-18s %-5s %8s  %s\n",
			mark, e.Scenario, e.Outcome, e.Duration.Round(time.Millisecond),
			e.StartedAt.Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}
