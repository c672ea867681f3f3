package contract

import (
	"context"
	"fmt"

	"github.com/importguard/importguard/pkg/graph"
	"github.com/importguard/importguard/pkg/pattern"
	"github.com/importguard/importguard/pkg/report"
)

// TypeIndependence is the registered type name for independence contracts.
const TypeIndependence = "independence"

func init() {
	register(TypeIndependence, newIndependence)
}

type independenceOptions struct {
	Modules       []string `mapstructure:"modules"`
	IgnoreImports []string `mapstructure:"ignore_imports"`
	Alerting      string   `mapstructure:"unmatched_ignore_imports_alerting"`
}

// Independence declares that none of the configured modules may depend on
// any of the others, directly or indirectly. A chain that passes through a
// third configured member is exempt: that member's own pair is responsible
// for it.
type Independence struct {
	name     string
	modules  []pattern.Pattern
	ignore   []pattern.ImportPattern
	alerting AlertLevel
}

func newIndependence(name string, options map[string]any) (Contract, error) {
	var opts independenceOptions
	if err := decodeOptions(name, options, &opts); err != nil {
		return nil, err
	}
	if len(opts.Modules) == 0 {
		return nil, &ConfigurationError{Contract: name, Field: "modules", Reason: "at least one module expression is required"}
	}

	modules, err := compilePatterns(name, "modules", opts.Modules)
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

	return &Independence{name: name, modules: modules, ignore: ignore, alerting: alerting}, nil
}

func (c *Independence) Name() string { return c.name }
func (c *Independence) Type() string { return TypeIndependence }

// Check evaluates every unordered pair of configured members in both
// directions.
func (c *Independence) Check(ctx context.Context, g *graph.Graph) (*report.ContractCheck, error) {
	check := &report.ContractCheck{Name: c.name, Type: TypeIndependence, Status: report.StatusPass}

	members, missing := resolveModules(g, c.modules)
	if len(missing) > 0 {
		return nil, missingModulesError(missing)
	}
	// A single wildcard expression can expand to the whole member set, so
	// the pair requirement applies after expansion.
	if len(members) < 2 {
		return nil, &ConfigurationError{Contract: c.name, Field: "modules", Reason: "at least two modules are required after wildcard expansion"}
	}

	base := g.Project()
	unmatched := pruneIgnoredImports(base, g, c.ignore)
	if err := applyUnmatchedAlerting(check, unmatched, c.alerting); err != nil {
		return nil, err
	}

	sets := make([]map[string]struct{}, len(members))
	for i, m := range members {
		sets[i] = moduleSet(g, m, true)
	}

	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			// Chains routed through another configured member are that
			// member's responsibility; drop its subtree before searching.
			pair := base.Clone()
			for k := range members {
				if k == i || k == j {
					continue
				}
				for m := range sets[k] {
					pair.RemoveModule(m)
				}
			}

			if err := c.checkDirection(ctx, g, pair, members[i], sets[i], members[j], sets[j], check); err != nil {
				return nil, err
			}
			if err := c.checkDirection(ctx, g, pair, members[j], sets[j], members[i], sets[i], check); err != nil {
				return nil, err
			}
		}
	}

	if len(check.Violations) > 0 {
		check.Status = report.StatusBroken
	}
	return check, nil
}

func (c *Independence) checkDirection(
	ctx context.Context,
	g *graph.Graph,
	pair *graph.Projection,
	srcName string, srcSet map[string]struct{},
	dstName string, dstSet map[string]struct{},
	check *report.ContractCheck,
) error {
	p := pair.Clone()
	p.Narrow(srcSet, dstSet)
	chains, err := p.PopShortestChains(ctx, srcSet, dstSet)
	if err != nil {
		return err
	}
	if len(chains) == 0 {
		return nil
	}

	summary := fmt.Sprintf("%s is not allowed to import %s", srcName, dstName)
	for _, group := range graph.MergeChains(chains) {
		check.Violations = append(check.Violations, chainsToViolation(g, summary, group))
	}
	return nil
}
