package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sysme/poscheck/internal/suite"
)

// scenarioInfo is the list command's JSON row.
type scenarioInfo struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	NeedsBrowser bool   `json:"needs_browser,omitempty"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List registered scenarios",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			infos := make([]scenarioInfo, 0)
			for _, s := range suite.All() {
				infos = append(infos, scenarioInfo{
					Name:         s.Name,
					Description:  s.Description,
					NeedsBrowser: s.NeedsBrowser,
				})
			}

			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: infos})
			}

			w := cmd.OutOrStdout()
			for _, info := range infos {
				marker := ""
				if info.NeedsBrowser {
					marker = " (browser)"
				}
				fmt.Fprintf(w, "%-18s %s%s\n", info.Name, info.Description, marker)
			}
			return nil
		},
	}
}
