// Command codeauditor is a manual/ops harness around the audit engine
// library: it exercises one-shot auditing, session inspection, judge
// health checks, and a file-watch loop from the command line. The engine
// itself has no CLI surface of its own (spec.md §6) — everything here is
// a caller built on top of the internal/* packages.
package main

import (
	"fmt"
	"os"

	"github.com/codeauditor/codeauditor/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
