package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/importguard/importguard/pkg/graph"
	"github.com/importguard/importguard/pkg/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(mode Mode, isTTY bool) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return NewRendererWithTTY(out, errOut, isTTY, mode), out, errOut
}

func TestEffectiveMode(t *testing.T) {
	tests := []struct {
		name  string
		mode  Mode
		isTTY bool
		want  Mode
	}{
		{"auto on terminal", ModeAuto, true, ModeText},
		{"auto piped", ModeAuto, false, ModeMarkdown},
		{"explicit json", ModeJSON, true, ModeJSON},
		{"explicit markdown", ModeMarkdown, true, ModeMarkdown},
		{"unknown falls back to auto", Mode("bogus"), false, ModeMarkdown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, _ := newTestRenderer(tt.mode, tt.isTTY)
			assert.Equal(t, tt.want, r.EffectiveMode())
		})
	}
}

func TestMarkdownHelpers(t *testing.T) {
	assert.Equal(t, "## Title", FormatHeader(2, "Title"))
	assert.Equal(t, "- **Key**: value", FormatKeyValue("Key", "value"))
}

func sampleReport() *report.Report {
	violation := report.Violation{
		Summary: "app.api is not allowed to import app.db",
		Chains: []report.Chain{{Hops: []report.Hop{{
			Importer:  "app.api",
			Imported:  "app.db",
			Locations: []graph.Location{{File: "internal/api/server.go", Line: 12}},
		}}}},
	}
	return &report.Report{
		RunID:       "run-1",
		ModuleCount: 3,
		ImportCount: 4,
		Checks: []report.ContractCheck{
			{Name: "layers", Type: "layers", Status: report.StatusPass, Duration: 2 * time.Millisecond},
			{Name: "no-db", Type: "forbidden", Status: report.StatusBroken,
				Violations: []report.Violation{violation}},
		},
	}
}

func TestReport_Markdown(t *testing.T) {
	r, out, _ := newTestRenderer(ModeMarkdown, false)

	require.NoError(t, r.Report(sampleReport()))
	got := out.String()

	assert.Contains(t, got, "# Contracts")
	assert.Contains(t, got, "| no-db | forbidden | BROKEN |")
	assert.Contains(t, got, "app.api -> app.db")
	assert.Contains(t, got, "internal/api/server.go:12")
	assert.Contains(t, got, "3 modules, 4 imports; contracts: 1 passed, 1 broken")
	// Passing checks get no detail section.
	assert.NotContains(t, got, "## layers")
}

func TestReport_Text(t *testing.T) {
	r, out, _ := newTestRenderer(ModeText, false)

	require.NoError(t, r.Report(sampleReport()))
	got := out.String()

	assert.Contains(t, got, "Contract")
	assert.Contains(t, got, "no-db")
	assert.Contains(t, got, "BROKEN")
	assert.Contains(t, got, "app.api -> app.db")
}

func TestReport_JSON(t *testing.T) {
	r, out, _ := newTestRenderer(ModeJSON, false)

	require.NoError(t, r.Report(sampleReport()))

	var decoded report.Report
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, "run-1", decoded.RunID)
	require.Len(t, decoded.Checks, 2)
	assert.Equal(t, report.StatusBroken, decoded.Checks[1].Status)
}

func TestWarning(t *testing.T) {
	r, out, errOut := newTestRenderer(ModeMarkdown, false)

	r.Warning("unmatched ignored import expression")
	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "warning: unmatched ignored import expression")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "cached", formatDuration(report.ContractCheck{Cached: true}))
	assert.Equal(t, "5ms", formatDuration(report.ContractCheck{Duration: 5 * time.Millisecond}))
}
