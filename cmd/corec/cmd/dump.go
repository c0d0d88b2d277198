package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dynscript/corec/internal/backend"
	"github.com/dynscript/corec/internal/backend/dump"
	"github.com/dynscript/corec/internal/driver"
	"github.com/dynscript/corec/pkg/astjson"
	"github.com/dynscript/corec/pkg/diag"
)

var dumpFormat string

// dumpCmd runs analysis and renders the resulting code IR through the
// reference dump back end, grounded on the teacher's cmd/dwscript/cmd
// --dis/--json flags for inspecting a compiled bytecode.Chunk.
var dumpCmd = &cobra.Command{
	Use:   "dump <ast.json>",
	Short: "Analyze a JSON-encoded AST and dump the resulting code IR",
	Args:  cobra.ExactArgs(1),
	RunE:  runDump,
}

func init() {
	dumpCmd.Flags().StringVar(&dumpFormat, "format", "", `rendering format: "text" or "json" (default from config, else "text")`)
	rootCmd.AddCommand(dumpCmd)
}

func runDump(c *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("dump: %w", err)
	}
	prog, err := astjson.Decode(data)
	if err != nil {
		return fmt.Errorf("dump: %w", err)
	}

	cfg := loadConfig()
	sink := diag.NewTextSink(nil, cfg.Color)
	result := driver.Run(prog, sink, cfg.Concurrency)
	if result.Fatal {
		fmt.Fprint(os.Stderr, sink.Out.String())
		return fmt.Errorf("dump: analysis failed")
	}

	format := dumpFormat
	if format == "" {
		format = cfg.DumpFormat
	}

	view := &backend.View{Env: result.Env, Functions: result.Functions}
	switch format {
	case "json":
		out, err := dump.JSON(view)
		if err != nil {
			return fmt.Errorf("dump: %w", err)
		}
		fmt.Fprintln(c.OutOrStdout(), out)
	case "text", "":
		if err := dump.Text(c.OutOrStdout(), view); err != nil {
			return fmt.Errorf("dump: %w", err)
		}
	default:
		return fmt.Errorf("dump: unknown format %q", format)
	}
	return nil
}
