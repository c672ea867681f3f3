package contract

import (
	"context"
	"testing"

	"github.com/importguard/importguard/pkg/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIndependenceContract(t *testing.T, options map[string]any) Contract {
	t.Helper()
	c, err := New(TypeIndependence, "independence test", options)
	require.NoError(t, err)
	return c
}

func TestIndependence_RequiresTwoMembers(t *testing.T) {
	t.Run("no expressions rejected at construction", func(t *testing.T) {
		_, err := New(TypeIndependence, "c", map[string]any{"modules": []string{}})
		require.Error(t, err)
	})

	t.Run("single expression resolving to one member fails at check", func(t *testing.T) {
		g := buildGraph([2]string{"a", "b"})
		c := newIndependenceContract(t, map[string]any{"modules": []string{"a"}})

		_, err := c.Check(context.Background(), g)
		require.Error(t, err)
		assert.ErrorContains(t, err, "at least two modules")
	})

	t.Run("single wildcard expanding to several members is accepted", func(t *testing.T) {
		g := buildGraph([2]string{"domains.billing", "domains.contacts"})
		c := newIndependenceContract(t, map[string]any{"modules": []string{"domains.*"}})

		check, err := c.Check(context.Background(), g)
		require.NoError(t, err)
		assert.Equal(t, report.StatusBroken, check.Status)
	})
}

func TestIndependence_DirectImport(t *testing.T) {
	g := buildGraph([2]string{"app.billing", "app.contacts"})
	c := newIndependenceContract(t, map[string]any{
		"modules": []string{"app.billing", "app.contacts"},
	})

	check, err := c.Check(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, report.StatusBroken, check.Status)
	require.Len(t, check.Violations, 1)
	assert.Equal(t, "app.billing is not allowed to import app.contacts", check.Violations[0].Summary)
}

func TestIndependence_BothDirectionsChecked(t *testing.T) {
	g := buildGraph([2]string{"b", "a"})
	c := newIndependenceContract(t, map[string]any{"modules": []string{"a", "b"}})

	check, err := c.Check(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, report.StatusBroken, check.Status)
	assert.Equal(t, "b is not allowed to import a", check.Violations[0].Summary)
}

func TestIndependence_ChainThroughConfiguredSiblingIsExempt(t *testing.T) {
	// a reaches b only through c, itself a configured member: c's own
	// pairs carry the responsibility, so a↔b stays clean.
	g := buildGraph(
		[2]string{"a", "c"},
		[2]string{"c", "b"},
	)

	t.Run("with sibling configured", func(t *testing.T) {
		c := newIndependenceContract(t, map[string]any{"modules": []string{"a", "b", "c"}})
		check, err := c.Check(context.Background(), g)
		require.NoError(t, err)

		// a→c and c→b are direct violations of their own pairs, but no
		// a→c→b chain is reported for the (a, b) pair.
		for _, v := range check.Violations {
			for _, chain := range v.Chains {
				assert.NotEqual(t, "a -> c -> b", chain.String())
			}
		}
	})

	t.Run("without sibling the chain is a violation", func(t *testing.T) {
		c := newIndependenceContract(t, map[string]any{"modules": []string{"a", "b"}})
		check, err := c.Check(context.Background(), g)
		require.NoError(t, err)

		assert.Equal(t, report.StatusBroken, check.Status)
		require.Len(t, check.Violations, 1)
		assert.Equal(t, "a -> c -> b", check.Violations[0].Chains[0].String())
	})
}

func TestIndependence_DescendantsIncluded(t *testing.T) {
	g := buildGraph([2]string{"app.a.sub", "app.b.impl"})
	c := newIndependenceContract(t, map[string]any{"modules": []string{"app.a", "app.b"}})

	check, err := c.Check(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, report.StatusBroken, check.Status)
}

func TestIndependence_IgnoreImports(t *testing.T) {
	g := buildGraph([2]string{"a", "b"})
	c := newIndependenceContract(t, map[string]any{
		"modules":        []string{"a", "b"},
		"ignore_imports": []string{"a -> b"},
	})

	check, err := c.Check(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, report.StatusPass, check.Status)
}

func TestIndependence_WildcardModules(t *testing.T) {
	g := buildGraph(
		[2]string{"domains.billing", "domains.contacts"},
		[2]string{"domains.docs", "other"},
	)
	c := newIndependenceContract(t, map[string]any{"modules": []string{"domains.*"}})

	check, err := c.Check(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, report.StatusBroken, check.Status)
	require.Len(t, check.Violations, 1)
	assert.Equal(t, "domains.billing is not allowed to import domains.contacts", check.Violations[0].Summary)
}

func TestIndependence_MissingModuleIsRuntimeError(t *testing.T) {
	g := buildGraph([2]string{"a", "b"})
	c := newIndependenceContract(t, map[string]any{"modules": []string{"a", "ghost"}})

	_, err := c.Check(context.Background(), g)
	require.Error(t, err)
}

func TestIndependence_Pass(t *testing.T) {
	g := buildGraph(
		[2]string{"a", "shared"},
		[2]string{"b", "shared"},
	)
	c := newIndependenceContract(t, map[string]any{"modules": []string{"a", "b"}})

	check, err := c.Check(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, report.StatusPass, check.Status)
	assert.True(t, check.Status == report.StatusPass && len(check.Violations) == 0)
}
