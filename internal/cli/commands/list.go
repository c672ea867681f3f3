package commands

import (
	"fmt"

	"github.com/importguard/importguard/internal/cli/output"
	"github.com/importguard/importguard/internal/config"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured contracts",
		Long: `List every contract declared in importguard.yaml with its id and type.

Use --output to override the format: auto, text, markdown, json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(NewCommandContext(cmd))
		},
	}
}

type contractListing struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Modules int    `json:"modules"`
}

func runList(cmdCtx *CommandContext) error {
	r := cmdCtx.Renderer

	listings := make([]contractListing, 0, len(cmdCtx.Cfg.Contracts))
	for _, cc := range cmdCtx.Cfg.Contracts {
		listings = append(listings, contractListing{
			ID:      cc.ID,
			Name:    cc.DisplayName(),
			Type:    cc.Type,
			Modules: countModuleOptions(cc),
		})
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(listings)
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, fmt.Sprintf("Contracts (%d total)", len(listings))))
		r.Println("")
		r.Println("| Id | Name | Type | Modules |")
		r.Println("|---|---|---|---|")
		for _, l := range listings {
			r.Printf("| %s | %s | %s | %d |\n", l.ID, l.Name, l.Type, l.Modules)
		}
	default:
		r.Header(1, fmt.Sprintf("Contracts (%d total)", len(listings)))
		t := table.NewWriter()
		t.SetOutputMirror(r.Writer())
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Id", "Name", "Type", "Modules"})
		for _, l := range listings {
			t.AppendRow(table.Row{l.ID, l.Name, l.Type, l.Modules})
		}
		t.Render()
	}
	return nil
}

// countModuleOptions counts the module expressions a contract mentions, as
// a rough indicator of its breadth.
func countModuleOptions(cc config.ContractConfig) int {
	n := 0
	for _, key := range []string{"source_modules", "forbidden_modules", "modules", "layers"} {
		if v, ok := cc.Options[key]; ok {
			if items, ok := v.([]any); ok {
				n += len(items)
			}
			if items, ok := v.([]string); ok {
				n += len(items)
			}
		}
	}
	return n
}
