// Command symgo is a thin CLI front-end wiring the in-scope packages
// together for manual testing (§1). It does not parse C or normalize
// IR itself: an external listener chain is assumed to hand it a
// clir.Program, here read from a small JSON fixture format in place of
// that assumed front-end.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "symgo",
		Short: "symgo runs the fixed-point symbolic-heap shape analyzer over a CFG fixture",
	}
	root.AddCommand(newAnalyzeCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "symgo:", err)
		os.Exit(1)
	}
}
