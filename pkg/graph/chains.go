package graph

import "strings"

// Chain is an ordered sequence of at least two modules where each adjacent
// pair is a direct import edge.
type Chain []string

// String renders the chain as "a -> b -> c".
func (c Chain) String() string {
	return strings.Join(c, " -> ")
}

// Equal reports whether two chains are identical module sequences.
func (c Chain) Equal(other Chain) bool {
	if len(c) != len(other) {
		return false
	}
	for i := range c {
		if c[i] != other[i] {
			return false
		}
	}
	return true
}

// interiorKey identifies the shared middle of a chain: everything except
// the first and last module. Chains with fewer than three modules have no
// interior and are never merged.
func (c Chain) interiorKey() string {
	if len(c) < 3 {
		return ""
	}
	return strings.Join(c[1:len(c)-1], "\x00")
}

// MergeChains groups chains that differ only in their first or last module,
// so near-duplicate routes through the same interior are reported as a
// single violation with multiple start and end points. Groups preserve the
// enumeration order of their first member; direct chains stay unmerged.
func MergeChains(chains []Chain) [][]Chain {
	var groups [][]Chain
	index := make(map[string]int)

	for _, chain := range chains {
		key := chain.interiorKey()
		if key == "" {
			groups = append(groups, []Chain{chain})
			continue
		}
		if i, ok := index[key]; ok {
			groups[i] = append(groups[i], chain)
			continue
		}
		index[key] = len(groups)
		groups = append(groups, []Chain{chain})
	}
	return groups
}
