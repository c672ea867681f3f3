package commands

import (
	"fmt"
	"strings"

	"github.com/importguard/importguard/internal/cli/output"
	"github.com/spf13/cobra"
)

// GraphOptions holds options for the graph command.
type GraphOptions struct {
	Modules bool
	Module  string
}

// NewGraphCommand creates the graph command.
func NewGraphCommand() *cobra.Command {
	opts := &GraphOptions{}

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Show the dependency graph",
		Long: `Build the import graph and print its statistics. Useful for debugging
contract definitions: module names shown here are the names contracts
match against.`,
		Example: `  # Graph statistics
  importguard graph

  # List every module with its direct imports
  importguard graph --modules

  # Show one module's neighborhood
  importguard graph --module shop.internal.api`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGraph(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Modules, "modules", false, "List all modules with their direct imports")
	cmd.Flags().StringVar(&opts.Module, "module", "", "Show direct imports and importers of one module")

	return cmd
}

type graphSummary struct {
	Modules int            `json:"modules"`
	Imports int            `json:"imports"`
	Listing []moduleDetail `json:"listing,omitempty"`
}

type moduleDetail struct {
	Module    string   `json:"module"`
	Imports   []string `json:"imports,omitempty"`
	Importers []string `json:"importers,omitempty"`
}

func runGraph(cmd *cobra.Command, opts *GraphOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	run, cleanup := newRunner(cmdCtx)
	defer cleanup()

	g, err := run.Source.Graph(cmd.Context())
	if err != nil {
		return err
	}

	summary := graphSummary{Modules: g.ModuleCount(), Imports: g.ImportCount()}
	switch {
	case opts.Module != "":
		if !g.Contains(opts.Module) {
			return fmt.Errorf("module %q is not in the graph", opts.Module)
		}
		summary.Listing = []moduleDetail{{
			Module:    opts.Module,
			Imports:   g.DirectImports(opts.Module),
			Importers: g.DirectImporters(opts.Module),
		}}
	case opts.Modules:
		for _, m := range g.Modules() {
			summary.Listing = append(summary.Listing, moduleDetail{
				Module:  m,
				Imports: g.DirectImports(m),
			})
		}
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(summary)
	}

	r.Header(1, "Dependency graph")
	r.Printf("%d modules, %d imports\n", summary.Modules, summary.Imports)
	for _, d := range summary.Listing {
		r.Println("")
		r.Println(d.Module)
		if len(d.Imports) > 0 {
			r.Println(r.Subtle("  imports: " + strings.Join(d.Imports, ", ")))
		}
		if len(d.Importers) > 0 {
			r.Println(r.Subtle("  imported by: " + strings.Join(d.Importers, ", ")))
		}
	}
	return nil
}
