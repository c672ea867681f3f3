package report

import (
	"encoding/json"
	"testing"

	"github.com/importguard/importguard/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChain_String(t *testing.T) {
	c := Chain{Hops: []Hop{
		{Importer: "a", Imported: "b"},
		{Importer: "b", Imported: "c"},
	}}
	assert.Equal(t, "a -> b -> c", c.String())
	assert.Equal(t, "", Chain{}.String())
}

func TestNewChain_CarriesLocations(t *testing.T) {
	g := graph.NewBuilder().
		AddImport("a", "b", graph.Location{File: "a/a.go", Line: 4}).
		AddImport("b", "c").
		Build()

	chain := NewChain(g, graph.Chain{"a", "b", "c"})
	require.Len(t, chain.Hops, 2)
	assert.Equal(t, "a", chain.Hops[0].Importer)
	require.Len(t, chain.Hops[0].Locations, 1)
	assert.Equal(t, 4, chain.Hops[0].Locations[0].Line)
	assert.Empty(t, chain.Hops[1].Locations)
}

func TestContractCheck_Clone(t *testing.T) {
	orig := &ContractCheck{
		Name:   "boundaries",
		Status: StatusBroken,
		Violations: []Violation{{
			Summary: "a is not allowed to import b",
			Chains: []Chain{{Hops: []Hop{{
				Importer:  "a",
				Imported:  "b",
				Locations: []graph.Location{{File: "a/a.go", Line: 4}},
			}}}},
		}},
		Warnings: []string{"w"},
	}

	clone := orig.Clone()
	clone.Violations[0].Summary = "changed"
	clone.Violations[0].Chains[0].Hops[0].Locations[0].Line = 99
	clone.Warnings[0] = "changed"

	assert.Equal(t, "a is not allowed to import b", orig.Violations[0].Summary)
	assert.Equal(t, 4, orig.Violations[0].Chains[0].Hops[0].Locations[0].Line)
	assert.Equal(t, []string{"w"}, orig.Warnings)
}

func TestReport_Counters(t *testing.T) {
	r := &Report{Checks: []ContractCheck{
		{Name: "one", Status: StatusPass},
		{Name: "two", Status: StatusBroken},
		{Name: "three", Status: StatusError},
	}}

	assert.False(t, r.Passed())
	assert.Equal(t, 1, r.Broken())
	assert.Equal(t, 1, r.Errored())

	all := &Report{Checks: []ContractCheck{{Status: StatusPass}}}
	assert.True(t, all.Passed())
}

func TestReport_JSONStable(t *testing.T) {
	r := &Report{
		RunID:       "fixed",
		ModuleCount: 2,
		ImportCount: 1,
		Checks: []ContractCheck{{
			Name:   "core stays clean",
			Type:   "forbidden",
			Status: StatusBroken,
			Violations: []Violation{{
				Summary: "a is not allowed to import b",
				Chains:  []Chain{{Hops: []Hop{{Importer: "a", Imported: "b"}}}},
			}},
		}},
	}

	first, err := json.Marshal(r)
	require.NoError(t, err)
	second, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
	assert.Contains(t, string(first), `"status":"BROKEN"`)
}

func violationAt(file string) Violation {
	return Violation{Chains: []Chain{{Hops: []Hop{{
		Importer:  "a",
		Imported:  "b",
		Locations: []graph.Location{{File: file, Line: 1}},
	}}}}}
}

func TestReport_Scoped(t *testing.T) {
	r := &Report{Checks: []ContractCheck{{
		Name:   "boundaries",
		Status: StatusBroken,
		Violations: []Violation{
			violationAt("internal/api/x.go"),
			violationAt("internal/core/y.go"),
		},
	}}}

	t.Run("no filters returns same report", func(t *testing.T) {
		assert.Same(t, r, r.Scoped(nil, nil))
	})

	t.Run("target keeps matching violations", func(t *testing.T) {
		scoped := r.Scoped([]string{"internal/api"}, nil)
		require.Len(t, scoped.Checks[0].Violations, 1)
		assert.Equal(t, StatusBroken, scoped.Checks[0].Status)
	})

	t.Run("exclude wins over target", func(t *testing.T) {
		scoped := r.Scoped([]string{"internal"}, []string{"internal/api"})
		require.Len(t, scoped.Checks[0].Violations, 1)
		assert.Equal(t, "internal/core/y.go",
			scoped.Checks[0].Violations[0].Chains[0].Hops[0].Locations[0].File)
	})

	t.Run("fully filtered contract shows as passing", func(t *testing.T) {
		scoped := r.Scoped([]string{"cmd/"}, nil)
		assert.Empty(t, scoped.Checks[0].Violations)
		assert.Equal(t, StatusPass, scoped.Checks[0].Status)
	})

	t.Run("violation without locations is always surfaced", func(t *testing.T) {
		noLoc := &Report{Checks: []ContractCheck{{
			Status:     StatusBroken,
			Violations: []Violation{{Chains: []Chain{{Hops: []Hop{{Importer: "a", Imported: "b"}}}}}},
		}}}
		scoped := noLoc.Scoped([]string{"cmd/"}, nil)
		assert.Len(t, scoped.Checks[0].Violations, 1)
	})
}
