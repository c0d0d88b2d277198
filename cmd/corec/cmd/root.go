// Package cmd implements the corec CLI, grounded on the teacher's
// cmd/dwscript/cmd/root.go (rootCmd shape, version template, persistent
// verbose flag) and cmd/dwscript/cmd/compile.go (subcommand structure,
// error-formatting-then-exit pattern).
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version information, set by build flags the way the teacher's
	// cmd/dwscript/cmd/root.go does.
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	verbose    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "corec",
	Short: "Semantic analyzer and code-IR builder",
	Long: `corec analyzes a validated AST for a dynamically-typed,
reference-counted scripting language: it resolves names and types,
applies overload resolution and implicit conversions, and lowers the
result into a basic-block code IR with exception-aware reference-counting
cleanup. It ships no parser and no execution back end — only the core and
a reference dump renderer for inspecting the IR it produces.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a corec.yaml config file")
}
