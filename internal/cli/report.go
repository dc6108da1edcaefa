package cli

import (
	"fmt"
	"io"

	"github.com/sysme/poscheck/internal/scenario"
)

// RenderText writes the human-readable scenario report: one ✓/✗ line
// per scenario with the first failing check's message, then the totals.
func RenderText(w io.Writer, summary scenario.Summary) {
	for _, r := range summary.Results {
		switch {
		case r.Skipped:
			fmt.Fprintf(w, "- %s (skipped: no browser driver configured)\n", r.Name)
		case r.Pass:
			fmt.Fprintf(w, "✓ %s\n", r.Name)
		default:
			fmt.Fprintf(w, "✗ %s [%s]\n", r.Name, r.Class)
			if msg := r.FirstFailure(); msg != "" {
				indent(w, msg)
			}
		}
		for _, advisory := range r.Advisories {
			fmt.Fprintf(w, "  ⚠ advisory: %s\n", advisory.Expected)
		}
		if r.CleanupErr != "" {
			fmt.Fprintf(w, "  ⚠ %s\n", r.CleanupErr)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Summary: %s\n", summary)
}

// indent writes a (possibly multi-line) message indented two spaces.
func indent(w io.Writer, msg string) {
	start := 0
	for i := 0; i <= len(msg); i++ {
		if i == len(msg) || msg[i] == '\n' {
			fmt.Fprintf(w, "  %s\n", msg[start:i])
			start = i + 1
		}
	}
}
