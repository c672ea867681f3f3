package contract

import (
	"context"
	"fmt"
	"strings"

	"github.com/importguard/importguard/pkg/graph"
	"github.com/importguard/importguard/pkg/pattern"
	"github.com/importguard/importguard/pkg/report"
)

// TypeForbidden is the registered type name for forbidden contracts.
const TypeForbidden = "forbidden"

func init() {
	register(TypeForbidden, newForbidden)
}

type forbiddenOptions struct {
	SourceModules        []string `mapstructure:"source_modules"`
	ForbiddenModules     []string `mapstructure:"forbidden_modules"`
	IgnoreImports        []string `mapstructure:"ignore_imports"`
	AllowIndirectImports bool     `mapstructure:"allow_indirect_imports"`
	AsPackages           *bool    `mapstructure:"as_packages"`
	Alerting             string   `mapstructure:"unmatched_ignore_imports_alerting"`
}

// Forbidden declares that source modules must not import forbidden
// modules. Only direct edges count as violations unless
// allow_indirect_imports is set, in which case indirect chains count too.
type Forbidden struct {
	name          string
	sources       []pattern.Pattern
	forbidden     []pattern.Pattern
	ignore        []pattern.ImportPattern
	allowIndirect bool
	asPackages    bool
	alerting      AlertLevel
}

func newForbidden(name string, options map[string]any) (Contract, error) {
	var opts forbiddenOptions
	if err := decodeOptions(name, options, &opts); err != nil {
		return nil, err
	}
	if len(opts.SourceModules) == 0 {
		return nil, &ConfigurationError{Contract: name, Field: "source_modules", Reason: "at least one module is required"}
	}
	if len(opts.ForbiddenModules) == 0 {
		return nil, &ConfigurationError{Contract: name, Field: "forbidden_modules", Reason: "at least one module is required"}
	}

	sources, err := compilePatterns(name, "source_modules", opts.SourceModules)
	if err != nil {
		return nil, err
	}
	forbidden, err := compilePatterns(name, "forbidden_modules", opts.ForbiddenModules)
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

	asPackages := true
	if opts.AsPackages != nil {
		asPackages = *opts.AsPackages
	}

	return &Forbidden{
		name:          name,
		sources:       sources,
		forbidden:     forbidden,
		ignore:        ignore,
		allowIndirect: opts.AllowIndirectImports,
		asPackages:    asPackages,
		alerting:      alerting,
	}, nil
}

func (c *Forbidden) Name() string { return c.name }
func (c *Forbidden) Type() string { return TypeForbidden }

// Check evaluates every (source, forbidden) module pair. Sources always
// include their descendants when they denote a package; forbidden modules
// include theirs only when as_packages is set.
func (c *Forbidden) Check(ctx context.Context, g *graph.Graph) (*report.ContractCheck, error) {
	check := &report.ContractCheck{Name: c.name, Type: TypeForbidden, Status: report.StatusPass}

	sources, missing := resolveModules(g, c.sources)
	forbidden, missingForbidden := resolveModules(g, c.forbidden)
	if missing = append(missing, missingForbidden...); len(missing) > 0 {
		return nil, missingModulesError(missing)
	}

	base := g.Project()
	unmatched := pruneIgnoredImports(base, g, c.ignore)
	if err := applyUnmatchedAlerting(check, unmatched, c.alerting); err != nil {
		return nil, err
	}

	for _, src := range sources {
		srcSet := moduleSet(g, src, true)
		for _, fb := range forbidden {
			if src == fb || isDescendant(src, fb) || isDescendant(fb, src) {
				continue
			}
			fbSet := moduleSet(g, fb, c.asPackages)

			chains, err := c.findChains(ctx, base, srcSet, fbSet)
			if err != nil {
				return nil, err
			}
			if len(chains) == 0 {
				continue
			}
			summary := fmt.Sprintf("%s is not allowed to import %s", src, fb)
			for _, group := range graph.MergeChains(chains) {
				check.Violations = append(check.Violations, chainsToViolation(g, summary, group))
			}
		}
	}

	if len(check.Violations) > 0 {
		check.Status = report.StatusBroken
	}
	return check, nil
}

// findChains locates illegal routes between the expanded source and
// forbidden sets. Indirect chains are enumerated per module pair on a
// private copy of the pruned projection, with the other candidate modules
// removed so a chain passing through another source or forbidden module is
// reported for that module's own pair instead.
func (c *Forbidden) findChains(ctx context.Context, base *graph.Projection, srcSet, fbSet map[string]struct{}) ([]graph.Chain, error) {
	sources := sortedSet(srcSet)
	dests := sortedSet(fbSet)

	if !c.allowIndirect {
		var chains []graph.Chain
		for _, s := range sources {
			for _, d := range dests {
				if base.HasEdge(s, d) {
					chains = append(chains, graph.Chain{s, d})
				}
			}
		}
		return chains, nil
	}

	var chains []graph.Chain
	for _, s := range sources {
		for _, d := range dests {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			p := base.Clone()
			for _, other := range sources {
				if other != s && other != d {
					p.RemoveModule(other)
				}
			}
			for _, other := range dests {
				if other != s && other != d {
					p.RemoveModule(other)
				}
			}
			src := map[string]struct{}{s: {}}
			dst := map[string]struct{}{d: {}}
			p.Narrow(src, dst)
			found, err := p.PopShortestChains(ctx, src, dst)
			if err != nil {
				return nil, err
			}
			chains = append(chains, found...)
		}
	}
	return chains, nil
}

func isDescendant(module, ancestor string) bool {
	return strings.HasPrefix(module, ancestor+".")
}
