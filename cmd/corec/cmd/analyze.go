package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dynscript/corec/internal/config"
	"github.com/dynscript/corec/internal/driver"
	"github.com/dynscript/corec/pkg/astjson"
	"github.com/dynscript/corec/pkg/diag"
)

// analyzeCmd runs the two-pass semantic analyzer and IR builder over a
// JSON-encoded AST and reports diagnostics, grounded on the teacher's
// cmd/dwscript/cmd/compile.go "parse, then report errors and exit nonzero
// on failure" shape — minus the parse step, since this repository accepts
// an already-validated AST (see pkg/astjson's package doc for why JSON).
var analyzeCmd = &cobra.Command{
	Use:   "analyze <ast.json>",
	Short: "Run semantic analysis over a JSON-encoded AST and report diagnostics",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func loadConfig() config.Config {
	if configPath == "" {
		return config.Default()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %s, using defaults\n", err)
		return config.Default()
	}
	return cfg
}

func runAnalyze(c *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	prog, err := astjson.Decode(data)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	cfg := loadConfig()
	sink := diag.NewTextSink(nil, cfg.Color)
	result := driver.Run(prog, sink, cfg.Concurrency)

	fmt.Fprint(c.OutOrStdout(), sink.Out.String())
	if result.Fatal {
		return fmt.Errorf("analyze: analysis failed")
	}
	fmt.Fprintf(c.OutOrStdout(), "ok: %d function(s) analyzed\n", len(result.Functions))
	return nil
}
