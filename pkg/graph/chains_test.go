package graph

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShortestChain_Direct(t *testing.T) {
	g := buildGraph([2]string{"a", "b"})
	p := g.Project()

	chain := p.ShortestChain(set("a"), set("b"))
	require.NotNil(t, chain)
	assert.Equal(t, Chain{"a", "b"}, chain)
}

func TestShortestChain_PrefersShorter(t *testing.T) {
	g := buildGraph(
		[2]string{"a", "x"},
		[2]string{"x", "y"},
		[2]string{"y", "b"},
		[2]string{"a", "b"},
	)
	chain := g.Project().ShortestChain(set("a"), set("b"))
	assert.Equal(t, Chain{"a", "b"}, chain)
}

func TestShortestChain_NoPath(t *testing.T) {
	g := buildGraph([2]string{"b", "a"})
	assert.Nil(t, g.Project().ShortestChain(set("a"), set("b")))
}

func TestShortestChain_DeterministicTieBreak(t *testing.T) {
	// Two equal-length routes; lexically smaller intermediate wins.
	g := buildGraph(
		[2]string{"a", "m"},
		[2]string{"a", "z"},
		[2]string{"m", "b"},
		[2]string{"z", "b"},
	)
	for i := 0; i < 5; i++ {
		chain := g.Project().ShortestChain(set("a"), set("b"))
		assert.Equal(t, Chain{"a", "m", "b"}, chain)
	}
}

func TestShortestChain_DoesNotPassThroughSources(t *testing.T) {
	// The only route from a1 runs through a2, itself a source: a2's own
	// chain is the one that gets reported.
	g := buildGraph(
		[2]string{"a1", "a2"},
		[2]string{"a2", "b"},
	)
	chain := g.Project().ShortestChain(set("a1", "a2"), set("b"))
	assert.Equal(t, Chain{"a2", "b"}, chain)
}

func TestPopShortestChains_Exhaustive(t *testing.T) {
	g := buildGraph(
		[2]string{"a", "b"},
		[2]string{"a", "x"},
		[2]string{"x", "b"},
		[2]string{"a", "y"},
		[2]string{"y", "z"},
		[2]string{"z", "b"},
	)
	chains, err := g.Project().PopShortestChains(context.Background(), set("a"), set("b"))
	require.NoError(t, err)

	require.Len(t, chains, 3)
	assert.Equal(t, Chain{"a", "b"}, chains[0])
	assert.Equal(t, Chain{"a", "x", "b"}, chains[1])
	assert.Equal(t, Chain{"a", "y", "z", "b"}, chains[2])
}

func TestPopShortestChains_NoDuplicateEdgeSequences(t *testing.T) {
	g := buildGraph(
		[2]string{"a", "m"},
		[2]string{"m", "b"},
		[2]string{"c", "m"},
		[2]string{"m", "d"},
	)
	chains, err := g.Project().PopShortestChains(context.Background(), set("a", "c"), set("b", "d"))
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, chain := range chains {
		key := chain.String()
		assert.False(t, seen[key], "duplicate chain %s", key)
		seen[key] = true
	}
}

func TestPopShortestChains_Cancellation(t *testing.T) {
	g := buildGraph([2]string{"a", "b"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Project().PopShortestChains(ctx, set("a"), set("b"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPopShortestChains_ProgressLogging(t *testing.T) {
	g := buildGraph(
		[2]string{"a", "b"},
		[2]string{"a", "x"},
		[2]string{"x", "b"},
	)

	t.Run("logger on context reports each chain", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		ctx := WithProgressLogger(context.Background(), logger)

		chains, err := g.Project().PopShortestChains(ctx, set("a"), set("b"))
		require.NoError(t, err)
		require.Len(t, chains, 2)

		out := buf.String()
		assert.Contains(t, out, "chain found")
		assert.Contains(t, out, "a -> b")
		assert.Contains(t, out, "a -> x -> b")
	})

	t.Run("no logger stays silent", func(t *testing.T) {
		_, err := g.Project().PopShortestChains(context.Background(), set("a"), set("b"))
		require.NoError(t, err)
	})
}

func TestPopShortestChains_Deterministic(t *testing.T) {
	edges := [][2]string{
		{"a", "p"}, {"p", "b"},
		{"a", "q"}, {"q", "b"},
		{"a", "r"}, {"r", "s"}, {"s", "b"},
	}
	g := buildGraph(edges...)

	first, err := g.Project().PopShortestChains(context.Background(), set("a"), set("b"))
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := g.Project().PopShortestChains(context.Background(), set("a"), set("b"))
		require.NoError(t, err)
		require.Len(t, again, len(first))
		for j := range first {
			assert.True(t, first[j].Equal(again[j]))
		}
	}
}

func TestMergeChains(t *testing.T) {
	t.Run("shared interior merges", func(t *testing.T) {
		groups := MergeChains([]Chain{
			{"a1", "mid", "b1"},
			{"a2", "mid", "b1"},
			{"a1", "mid", "b2"},
		})
		require.Len(t, groups, 1)
		assert.Len(t, groups[0], 3)
	})

	t.Run("different interiors stay apart", func(t *testing.T) {
		groups := MergeChains([]Chain{
			{"a", "m1", "b"},
			{"a", "m2", "b"},
		})
		assert.Len(t, groups, 2)
	})

	t.Run("direct chains never merge", func(t *testing.T) {
		groups := MergeChains([]Chain{
			{"a", "b"},
			{"c", "d"},
		})
		assert.Len(t, groups, 2)
	})

	t.Run("order follows first appearance", func(t *testing.T) {
		groups := MergeChains([]Chain{
			{"a", "m2", "b"},
			{"a", "m1", "b"},
			{"x", "m2", "y"},
		})
		require.Len(t, groups, 2)
		assert.Equal(t, Chain{"a", "m2", "b"}, groups[0][0])
		assert.Equal(t, Chain{"x", "m2", "y"}, groups[0][1])
		assert.Equal(t, Chain{"a", "m1", "b"}, groups[1][0])
	})
}
