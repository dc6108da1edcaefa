// Command poscheck runs end-to-end verification scenarios against an
// external POS backend.
package main

import (
	"fmt"
	"os"

	"github.com/sysme/poscheck/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
