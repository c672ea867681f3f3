package graph

import (
	"context"
	"sort"
)

// Projection is a mutable filtered view of a Graph used for chain finding.
// Each contract check creates its own projection, so removing edges or
// modules here never touches the canonical snapshot.
type Projection struct {
	succ map[string]map[string]struct{}
	pred map[string]map[string]struct{}
}

// Project copies the graph's adjacency into a fresh Projection.
func (g *Graph) Project() *Projection {
	p := &Projection{
		succ: make(map[string]map[string]struct{}, len(g.modules)),
		pred: make(map[string]map[string]struct{}, len(g.modules)),
	}
	for m := range g.modules {
		p.succ[m] = make(map[string]struct{})
		p.pred[m] = make(map[string]struct{})
	}
	for importer, imports := range g.imports {
		for imported := range imports {
			p.succ[importer][imported] = struct{}{}
			p.pred[imported][importer] = struct{}{}
		}
	}
	return p
}

// Clone returns an independent copy of the projection.
func (p *Projection) Clone() *Projection {
	c := &Projection{
		succ: make(map[string]map[string]struct{}, len(p.succ)),
		pred: make(map[string]map[string]struct{}, len(p.pred)),
	}
	for m, next := range p.succ {
		c.succ[m] = make(map[string]struct{}, len(next))
		for n := range next {
			c.succ[m][n] = struct{}{}
		}
	}
	for m, prev := range p.pred {
		c.pred[m] = make(map[string]struct{}, len(prev))
		for n := range prev {
			c.pred[m][n] = struct{}{}
		}
	}
	return c
}

// Contains reports whether the module survives in the projection.
func (p *Projection) Contains(module string) bool {
	_, ok := p.succ[module]
	return ok
}

// HasEdge reports whether the directed edge exists in the projection.
func (p *Projection) HasEdge(importer, imported string) bool {
	_, ok := p.succ[importer][imported]
	return ok
}

// RemoveEdge deletes a directed edge if present.
func (p *Projection) RemoveEdge(importer, imported string) {
	delete(p.succ[importer], imported)
	delete(p.pred[imported], importer)
}

// RemoveModule deletes a module and all its edges.
func (p *Projection) RemoveModule(module string) {
	for next := range p.succ[module] {
		delete(p.pred[next], module)
	}
	for prev := range p.pred[module] {
		delete(p.succ[prev], module)
	}
	delete(p.succ, module)
	delete(p.pred, module)
}

// Restrict drops every module not in keep.
func (p *Projection) Restrict(keep map[string]struct{}) {
	for m := range p.succ {
		if _, ok := keep[m]; !ok {
			p.RemoveModule(m)
		}
	}
}

// Narrow restricts the projection to modules relevant for chains from
// sources to dests: those reachable from a source and able to reach a
// destination, plus the sources and destinations themselves.
func (p *Projection) Narrow(sources, dests map[string]struct{}) {
	forward := p.reachable(sources, true)
	backward := p.reachable(dests, false)

	keep := make(map[string]struct{})
	for m := range forward {
		if _, ok := backward[m]; ok {
			keep[m] = struct{}{}
		}
	}
	for m := range sources {
		keep[m] = struct{}{}
	}
	for m := range dests {
		keep[m] = struct{}{}
	}
	p.Restrict(keep)
}

// reachable returns the closure of the seed set following successor edges
// when forward is true, predecessor edges otherwise. Seeds are included.
func (p *Projection) reachable(seeds map[string]struct{}, forward bool) map[string]struct{} {
	adj := p.succ
	if !forward {
		adj = p.pred
	}

	seen := make(map[string]struct{}, len(seeds))
	stack := make([]string, 0, len(seeds))
	for m := range seeds {
		if _, ok := p.succ[m]; !ok {
			continue
		}
		seen[m] = struct{}{}
		stack = append(stack, m)
	}
	for len(stack) > 0 {
		m := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for n := range adj[m] {
			if _, ok := seen[n]; !ok {
				seen[n] = struct{}{}
				stack = append(stack, n)
			}
		}
	}
	return seen
}

// ShortestChain returns a shortest module chain from any source to any
// destination, or nil if none exists. Ties are broken deterministically by
// visiting modules in lexical order. A module appearing in both sets never
// produces a zero-length chain.
func (p *Projection) ShortestChain(sources, dests map[string]struct{}) Chain {
	isDest := func(m string) bool {
		if _, ok := dests[m]; !ok {
			return false
		}
		_, alsoSource := sources[m]
		return !alsoSource
	}

	seeds := make([]string, 0, len(sources))
	for m := range sources {
		if p.Contains(m) {
			seeds = append(seeds, m)
		}
	}
	sort.Strings(seeds)

	parent := make(map[string]string, len(seeds))
	queue := make([]string, 0, len(seeds))
	for _, m := range seeds {
		parent[m] = ""
		queue = append(queue, m)
	}

	for len(queue) > 0 {
		m := queue[0]
		queue = queue[1:]
		if isDest(m) {
			var chain Chain
			for at := m; at != ""; at = parent[at] {
				chain = append(Chain{at}, chain...)
			}
			return chain
		}
		for _, n := range sortedKeys(p.succ[m]) {
			if _, seen := parent[n]; seen {
				continue
			}
			if _, isSource := sources[n]; isSource {
				// Chains must start at a source, not pass through one.
				continue
			}
			parent[n] = m
			queue = append(queue, n)
		}
	}
	return nil
}

// PopShortestChains exhaustively enumerates minimal chains from sources to
// dests. After each chain is found its edges are removed from the
// projection, so every subsequent chain takes a genuinely different route.
// The context is checked between iterations to bound pathological graphs;
// for runs that complete, the result is deterministic.
func (p *Projection) PopShortestChains(ctx context.Context, sources, dests map[string]struct{}) ([]Chain, error) {
	logger := progressLogger(ctx)

	var chains []Chain
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		chain := p.ShortestChain(sources, dests)
		if chain == nil {
			return chains, nil
		}
		logger.Debug("chain found", "chain", chain.String(), "hops", len(chain)-1)
		chains = append(chains, chain)
		for i := 0; i+1 < len(chain); i++ {
			p.RemoveEdge(chain[i], chain[i+1])
		}
	}
}
