package contract

import (
	"context"
	"fmt"
	"strings"

	"github.com/importguard/importguard/pkg/graph"
	"github.com/importguard/importguard/pkg/pattern"
	"github.com/importguard/importguard/pkg/report"
)

// TypeLayers is the registered type name for layers contracts.
const TypeLayers = "layers"

func init() {
	register(TypeLayers, newLayers)
}

type layersOptions struct {
	Layers              []string `mapstructure:"layers"`
	Containers          []string `mapstructure:"containers"`
	Exhaustive          bool     `mapstructure:"exhaustive"`
	ExhaustiveIgnores   []string `mapstructure:"exhaustive_ignores"`
	IndependentSiblings *bool    `mapstructure:"independent_siblings"`
	IgnoreImports       []string `mapstructure:"ignore_imports"`
	Alerting            string   `mapstructure:"unmatched_ignore_imports_alerting"`
}

// layerModule is one module within a rank. Optional modules, written
// "(name)", may be absent from the graph without failing the contract.
type layerModule struct {
	name     string
	optional bool
}

// Layers declares a strict ordering: modules in higher layers may import
// lower layers, never the reverse. A rank may hold several siblings
// separated by "|"; siblings are mutually independent unless
// independent_siblings is false.
type Layers struct {
	name                string
	ranks               [][]layerModule // ordered high → low
	containers          []string
	exhaustive          bool
	exhaustiveIgnores   []pattern.Pattern
	independentSiblings bool
	ignore              []pattern.ImportPattern
	alerting            AlertLevel
}

func newLayers(name string, options map[string]any) (Contract, error) {
	var opts layersOptions
	if err := decodeOptions(name, options, &opts); err != nil {
		return nil, err
	}
	if len(opts.Layers) == 0 {
		return nil, &ConfigurationError{Contract: name, Field: "layers", Reason: "at least one layer is required"}
	}
	if opts.Exhaustive && len(opts.Containers) == 0 {
		return nil, &ConfigurationError{Contract: name, Field: "exhaustive", Reason: "exhaustive requires containers"}
	}

	ranks := make([][]layerModule, 0, len(opts.Layers))
	for _, entry := range opts.Layers {
		var rank []layerModule
		for _, raw := range strings.Split(entry, "|") {
			raw = strings.TrimSpace(raw)
			m := layerModule{name: raw}
			if strings.HasPrefix(raw, "(") && strings.HasSuffix(raw, ")") {
				m.name = strings.TrimSpace(raw[1 : len(raw)-1])
				m.optional = true
			}
			if m.name == "" {
				return nil, &ConfigurationError{Contract: name, Field: "layers", Reason: fmt.Sprintf("empty layer in entry %q", entry)}
			}
			rank = append(rank, m)
		}
		ranks = append(ranks, rank)
	}

	ignores, err := compilePatterns(name, "exhaustive_ignores", opts.ExhaustiveIgnores)
	if err != nil {
		return nil, err
	}
	ignore, err := compileImportPatterns(name, opts.IgnoreImports)
	if err != nil {
		return nil, err
	}
	alerting, err := parseAlertLevel(name, opts.Alerting)
	if err != nil {
		return nil, err
	}

	independentSiblings := true
	if opts.IndependentSiblings != nil {
		independentSiblings = *opts.IndependentSiblings
	}

	return &Layers{
		name:                name,
		ranks:               ranks,
		containers:          opts.Containers,
		exhaustive:          opts.Exhaustive,
		exhaustiveIgnores:   ignores,
		independentSiblings: independentSiblings,
		ignore:              ignore,
		alerting:            alerting,
	}, nil
}

func (c *Layers) Name() string { return c.name }
func (c *Layers) Type() string { return TypeLayers }

// ValidateGraph enforces the exhaustive option: every immediate child of a
// container must be declared as a layer (or matched by
// exhaustive_ignores). Runs before any contract is checked.
func (c *Layers) ValidateGraph(g *graph.Graph) error {
	if !c.exhaustive {
		return nil
	}

	declared := make(map[string]struct{})
	for _, rank := range c.ranks {
		for _, m := range rank {
			declared[m.name] = struct{}{}
		}
	}

	for _, container := range c.containers {
		for _, child := range g.Children(container) {
			base := strings.TrimPrefix(child, container+".")
			if _, ok := declared[base]; ok {
				continue
			}
			ignored := false
			for _, p := range c.exhaustiveIgnores {
				if p.Matches(base) {
					ignored = true
					break
				}
			}
			if !ignored {
				return &ConfigurationError{
					Contract: c.name,
					Field:    "layers",
					Reason:   fmt.Sprintf("container %q has a child %q that is not declared as a layer", container, base),
				}
			}
		}
	}
	return nil
}

// Check evaluates layer ordering within each container, or against the
// whole graph when no containers are declared.
func (c *Layers) Check(ctx context.Context, g *graph.Graph) (*report.ContractCheck, error) {
	check := &report.ContractCheck{Name: c.name, Type: TypeLayers, Status: report.StatusPass}

	base := g.Project()
	unmatched := pruneIgnoredImports(base, g, c.ignore)
	if err := applyUnmatchedAlerting(check, unmatched, c.alerting); err != nil {
		return nil, err
	}

	containers := c.containers
	if len(containers) == 0 {
		containers = []string{""}
	}

	for _, container := range containers {
		if container != "" && !g.Contains(container) {
			return nil, fmt.Errorf("container %q is not present in the graph", container)
		}
		if err := c.checkContainer(ctx, g, base, container, check); err != nil {
			return nil, err
		}
	}

	if len(check.Violations) > 0 {
		check.Status = report.StatusBroken
	}
	return check, nil
}

func (c *Layers) checkContainer(ctx context.Context, g *graph.Graph, base *graph.Projection, container string, check *report.ContractCheck) error {
	// Materialize each rank's modules that are present in the graph.
	present := make([][]string, len(c.ranks))
	var missing []string
	for i, rank := range c.ranks {
		for _, m := range rank {
			qualified := m.name
			if container != "" {
				qualified = container + "." + m.name
			}
			if !g.Contains(qualified) {
				if !m.optional {
					missing = append(missing, qualified)
				}
				continue
			}
			present[i] = append(present[i], qualified)
		}
	}
	if len(missing) > 0 {
		return missingModulesError(missing)
	}

	// Lower layers must never import higher layers.
	for hi := 0; hi < len(present); hi++ {
		for lo := hi + 1; lo < len(present); lo++ {
			for _, higher := range present[hi] {
				for _, lower := range present[lo] {
					if err := c.checkPair(ctx, g, base, lower, higher, check); err != nil {
						return err
					}
				}
			}
		}
	}

	if c.independentSiblings {
		for _, rank := range present {
			for i := 0; i < len(rank); i++ {
				for j := i + 1; j < len(rank); j++ {
					if err := c.checkPair(ctx, g, base, rank[i], rank[j], check); err != nil {
						return err
					}
					if err := c.checkPair(ctx, g, base, rank[j], rank[i], check); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

// checkPair searches for chains from src (and its descendants) to dst on a
// projection restricted to the two subtrees.
func (c *Layers) checkPair(ctx context.Context, g *graph.Graph, base *graph.Projection, src, dst string, check *report.ContractCheck) error {
	srcSet := moduleSet(g, src, true)
	dstSet := moduleSet(g, dst, true)

	p := base.Clone()
	p.Restrict(unionSets(srcSet, dstSet))
	chains, err := p.PopShortestChains(ctx, srcSet, dstSet)
	if err != nil {
		return err
	}
	if len(chains) == 0 {
		return nil
	}

	summary := fmt.Sprintf("%s is not allowed to import %s", src, dst)
	for _, group := range graph.MergeChains(chains) {
		check.Violations = append(check.Violations, chainsToViolation(g, summary, group))
	}
	return nil
}
