// Package graph provides the module dependency graph consumed by contract
// checks. A Graph is an immutable snapshot built once per run; all
// restriction and edge removal happens on per-check Projections so that
// contracts can be evaluated in parallel against the shared snapshot.
package graph

import (
	"sort"
	"strings"
)

// Location records where an import statement occurs. It is attached by the
// graph provider and carried through to violation reporting unchanged.
type Location struct {
	File string `json:"file"`
	Line int    `json:"line"`
}

// Graph is an immutable module dependency graph. Build one with a Builder.
type Graph struct {
	modules map[string]struct{}
	// imports maps importer → imported → locations. Edge existence is
	// boolean per ordered pair; locations hold one entry per distinct
	// import statement.
	imports   map[string]map[string][]Location
	importers map[string]map[string]struct{}

	sortedModules []string
	edgeCount     int
}

// Builder accumulates modules and import edges for a Graph. Not safe for
// concurrent use.
type Builder struct {
	g *Graph
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{g: &Graph{
		modules:   make(map[string]struct{}),
		imports:   make(map[string]map[string][]Location),
		importers: make(map[string]map[string]struct{}),
	}}
}

// AddModule registers a module together with all of its dotted ancestors,
// so a parent package is a graph member even when no source file lives
// directly in it. Adding the same module twice is a no-op.
func (b *Builder) AddModule(name string) *Builder {
	for {
		if _, ok := b.g.modules[name]; ok {
			return b
		}
		b.g.modules[name] = struct{}{}
		i := strings.LastIndexByte(name, '.')
		if i < 0 {
			return b
		}
		name = name[:i]
	}
}

// AddImport records a directed import edge with optional location metadata.
// Both endpoints are registered as modules if not already present.
// Self-imports are ignored.
func (b *Builder) AddImport(importer, imported string, locations ...Location) *Builder {
	if importer == imported {
		return b
	}
	b.AddModule(importer)
	b.AddModule(imported)

	if b.g.imports[importer] == nil {
		b.g.imports[importer] = make(map[string][]Location)
	}
	if _, exists := b.g.imports[importer][imported]; !exists {
		b.g.edgeCount++
	}
	b.g.imports[importer][imported] = append(b.g.imports[importer][imported], locations...)

	if b.g.importers[imported] == nil {
		b.g.importers[imported] = make(map[string]struct{})
	}
	b.g.importers[imported][importer] = struct{}{}
	return b
}

// Build freezes the accumulated data into a Graph. The Builder must not be
// used afterwards.
func (b *Builder) Build() *Graph {
	g := b.g
	b.g = nil

	g.sortedModules = make([]string, 0, len(g.modules))
	for m := range g.modules {
		g.sortedModules = append(g.sortedModules, m)
	}
	sort.Strings(g.sortedModules)
	return g
}

// Modules returns all module names in lexical order.
func (g *Graph) Modules() []string {
	out := make([]string, len(g.sortedModules))
	copy(out, g.sortedModules)
	return out
}

// Contains reports whether the module is part of the snapshot.
func (g *Graph) Contains(name string) bool {
	_, ok := g.modules[name]
	return ok
}

// ModuleCount returns the number of modules.
func (g *Graph) ModuleCount() int { return len(g.modules) }

// ImportCount returns the number of distinct ordered import pairs.
func (g *Graph) ImportCount() int { return g.edgeCount }

// DirectImports returns the modules directly imported by the given module,
// in lexical order.
func (g *Graph) DirectImports(module string) []string {
	return sortedKeys(g.imports[module])
}

// DirectImporters returns the modules that directly import the given
// module, in lexical order.
func (g *Graph) DirectImporters(module string) []string {
	out := make([]string, 0, len(g.importers[module]))
	for m := range g.importers[module] {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// HasImport reports whether a direct edge importer→imported exists.
func (g *Graph) HasImport(importer, imported string) bool {
	_, ok := g.imports[importer][imported]
	return ok
}

// ImportDetails returns the recorded locations for a direct edge, or nil if
// the edge does not exist.
func (g *Graph) ImportDetails(importer, imported string) []Location {
	locs, ok := g.imports[importer][imported]
	if !ok {
		return nil
	}
	out := make([]Location, len(locs))
	copy(out, locs)
	sort.Slice(out, func(i, j int) bool {
		if out[i].File != out[j].File {
			return out[i].File < out[j].File
		}
		return out[i].Line < out[j].Line
	})
	return out
}

// Descendants returns every module strictly below the given module in the
// dotted hierarchy, in lexical order.
func (g *Graph) Descendants(module string) []string {
	prefix := module + "."
	var out []string
	for _, m := range g.sortedModules {
		if strings.HasPrefix(m, prefix) {
			out = append(out, m)
		}
	}
	return out
}

// IsPackage reports whether the module has descendants in the snapshot.
func (g *Graph) IsPackage(module string) bool {
	prefix := module + "."
	for m := range g.modules {
		if strings.HasPrefix(m, prefix) {
			return true
		}
	}
	return false
}

// Children returns the immediate children of the given module, in lexical
// order.
func (g *Graph) Children(module string) []string {
	prefix := module + "."
	var out []string
	for _, m := range g.sortedModules {
		if strings.HasPrefix(m, prefix) && !strings.Contains(m[len(prefix):], ".") {
			out = append(out, m)
		}
	}
	return out
}

// Matching returns all modules satisfying the predicate, in lexical order.
// Callers typically pass a compiled pattern's Matches method.
func (g *Graph) Matching(match func(string) bool) []string {
	var out []string
	for _, m := range g.sortedModules {
		if match(m) {
			out = append(out, m)
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
