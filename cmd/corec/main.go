// Command corec is the CLI driver for the semantic analyzer and code-IR
// builder, grounded on the teacher's cmd/dwscript entry point (a thin
// main.go delegating to cmd.Execute(), plus cmd.exitWithError's
// stderr-then-os.Exit(1) convention).
package main

import (
	"fmt"
	"os"

	"github.com/dynscript/corec/cmd/corec/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
