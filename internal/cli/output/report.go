package output

import (
	"fmt"
	"time"

	"github.com/importguard/importguard/pkg/report"
	"github.com/jedib0t/go-pretty/v6/table"
)

// Report renders a check report in the renderer's effective mode.
func (r *Renderer) Report(rep *report.Report) error {
	switch r.EffectiveMode() {
	case ModeJSON:
		return r.JSON(rep)
	case ModeMarkdown:
		r.reportMarkdown(rep)
	default:
		r.reportText(rep)
	}
	return nil
}

func (r *Renderer) reportText(rep *report.Report) {
	r.Header(1, "Contracts")
	r.Println("")

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Contract", "Type", "Status", "Time"})
	for _, c := range rep.Checks {
		t.AppendRow(table.Row{c.Name, c.Type, r.Status(string(c.Status)), formatDuration(c)})
	}
	t.Render()

	for i := range rep.Checks {
		r.checkDetail(&rep.Checks[i], false)
	}

	r.Println("")
	r.Println(r.Subtle(summaryLine(rep)))
}

func (r *Renderer) reportMarkdown(rep *report.Report) {
	r.Println(FormatHeader(1, "Contracts"))
	r.Println("")
	r.Println("| Contract | Type | Status | Time |")
	r.Println("|---|---|---|---|")
	for _, c := range rep.Checks {
		r.Printf("| %s | %s | %s | %s |\n", c.Name, c.Type, c.Status, formatDuration(c))
	}
	r.Println("")

	for i := range rep.Checks {
		r.checkDetail(&rep.Checks[i], true)
	}

	r.Println(summaryLine(rep))
}

// checkDetail prints violations, warnings and errors for one check.
func (r *Renderer) checkDetail(c *report.ContractCheck, markdown bool) {
	if c.Status == report.StatusPass && len(c.Warnings) == 0 {
		return
	}

	r.Println("")
	if markdown {
		r.Println(FormatHeader(2, fmt.Sprintf("%s (%s)", c.Name, c.Status)))
	} else {
		r.Header(2, fmt.Sprintf("%s  %s", c.Name, r.Status(string(c.Status))))
	}

	if c.Error != "" {
		r.Println("  " + c.Error)
	}
	for _, w := range c.Warnings {
		r.Warning(w)
	}
	for _, v := range c.Violations {
		r.Println("")
		r.Println("  " + v.Summary + ":")
		for _, chain := range v.Chains {
			r.Println("    " + chain.String())
			for _, hop := range chain.Hops {
				for _, loc := range hop.Locations {
					r.Println(r.Subtle(fmt.Sprintf("      %s -> %s (%s:%d)",
						hop.Importer, hop.Imported, loc.File, loc.Line)))
				}
			}
		}
	}
}

func summaryLine(rep *report.Report) string {
	var pass, broken, errored int
	for _, c := range rep.Checks {
		switch c.Status {
		case report.StatusPass:
			pass++
		case report.StatusBroken:
			broken++
		case report.StatusError:
			errored++
		}
	}
	s := fmt.Sprintf("%d modules, %d imports; contracts: %d passed, %d broken",
		rep.ModuleCount, rep.ImportCount, pass, broken)
	if errored > 0 {
		s += fmt.Sprintf(", %d errored", errored)
	}
	return s
}

func formatDuration(c report.ContractCheck) string {
	if c.Cached {
		return "cached"
	}
	return c.Duration.Round(time.Millisecond).String()
}
