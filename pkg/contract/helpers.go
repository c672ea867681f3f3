package contract

import (
	"fmt"
	"sort"
	"strings"

	"github.com/importguard/importguard/pkg/graph"
	"github.com/importguard/importguard/pkg/pattern"
	"github.com/importguard/importguard/pkg/report"
)

// AlertLevel controls how unmatched ignore_imports expressions are
// surfaced.
type AlertLevel string

const (
	AlertNone  AlertLevel = "none"
	AlertWarn  AlertLevel = "warn"
	AlertError AlertLevel = "error"
)

// parseAlertLevel validates an alerting option. The empty string selects
// the default, error, matching the strictest interpretation: an ignore
// entry that matches nothing is usually a stale or misspelt pattern.
func parseAlertLevel(contract, value string) (AlertLevel, error) {
	switch AlertLevel(value) {
	case "":
		return AlertError, nil
	case AlertNone, AlertWarn, AlertError:
		return AlertLevel(value), nil
	default:
		return "", &ConfigurationError{
			Contract: contract,
			Field:    "unmatched_ignore_imports_alerting",
			Reason:   fmt.Sprintf("must be one of none, warn, error; got %q", value),
		}
	}
}

// compilePatterns compiles module expressions, wrapping syntax errors with
// contract/field context.
func compilePatterns(contract, field string, expressions []string) ([]pattern.Pattern, error) {
	patterns := make([]pattern.Pattern, 0, len(expressions))
	for _, expr := range expressions {
		p, err := pattern.Compile(expr)
		if err != nil {
			return nil, &ConfigurationError{Contract: contract, Field: field, Reason: err.Error()}
		}
		patterns = append(patterns, p)
	}
	return patterns, nil
}

// compileImportPatterns compiles ignore_imports expressions with context.
func compileImportPatterns(contract string, expressions []string) ([]pattern.ImportPattern, error) {
	patterns, err := pattern.ParseImports(expressions)
	if err != nil {
		return nil, &ConfigurationError{Contract: contract, Field: "ignore_imports", Reason: err.Error()}
	}
	return patterns, nil
}

// resolveModules expands module expressions against the graph. Wildcard
// expressions resolve to every matching module; literal expressions must
// name a module present in the graph. The result is deduplicated and
// sorted; expressions matching nothing are returned separately.
func resolveModules(g *graph.Graph, patterns []pattern.Pattern) (modules, missing []string) {
	seen := make(map[string]struct{})
	for _, p := range patterns {
		if !p.HasWildcard() {
			name := p.String()
			if !g.Contains(name) {
				missing = append(missing, name)
				continue
			}
			seen[name] = struct{}{}
			continue
		}
		matches := g.Matching(p.Matches)
		if len(matches) == 0 {
			missing = append(missing, p.String())
			continue
		}
		for _, m := range matches {
			seen[m] = struct{}{}
		}
	}

	modules = make([]string, 0, len(seen))
	for m := range seen {
		modules = append(modules, m)
	}
	sort.Strings(modules)
	return modules, missing
}

// missingModulesError formats the per-contract runtime error for configured
// modules absent from the graph.
func missingModulesError(missing []string) error {
	sort.Strings(missing)
	return fmt.Errorf("modules not present in the graph: %s", strings.Join(missing, ", "))
}

// moduleSet returns the module itself plus, when expand is set and the
// module is a package, all of its descendants.
func moduleSet(g *graph.Graph, module string, expand bool) map[string]struct{} {
	set := map[string]struct{}{module: {}}
	if expand {
		for _, d := range g.Descendants(module) {
			set[d] = struct{}{}
		}
	}
	return set
}

// unionSets merges module sets.
func unionSets(sets ...map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{})
	for _, s := range sets {
		for m := range s {
			out[m] = struct{}{}
		}
	}
	return out
}

// pruneIgnoredImports removes every edge matching an ignore pattern from
// the projection and returns the expressions that matched no edge in the
// canonical graph.
func pruneIgnoredImports(p *graph.Projection, g *graph.Graph, patterns []pattern.ImportPattern) (unmatched []string) {
	for _, pat := range patterns {
		matched := false
		for _, importer := range g.Modules() {
			for _, imported := range g.DirectImports(importer) {
				if pat.MatchesEdge(importer, imported) {
					matched = true
					p.RemoveEdge(importer, imported)
				}
			}
		}
		if !matched {
			unmatched = append(unmatched, pat.String())
		}
	}
	return unmatched
}

// applyUnmatchedAlerting folds unmatched ignore expressions into the check
// according to the contract's alert level. At AlertError it returns a
// runtime error, turning the contract's status into ERROR.
func applyUnmatchedAlerting(check *report.ContractCheck, unmatched []string, level AlertLevel) error {
	if len(unmatched) == 0 || level == AlertNone {
		return nil
	}
	sort.Strings(unmatched)
	if level == AlertError {
		return fmt.Errorf("ignore_imports expressions matched nothing in the graph: %s",
			strings.Join(unmatched, ", "))
	}
	for _, expr := range unmatched {
		check.Warnings = append(check.Warnings,
			fmt.Sprintf("ignore_imports expression %q didn't match anything in the graph", expr))
	}
	return nil
}

// chainsToViolation converts one merged chain group into a report
// violation, attaching per-edge locations from the graph.
func chainsToViolation(g *graph.Graph, summary string, group []graph.Chain) report.Violation {
	v := report.Violation{Summary: summary}
	for _, chain := range group {
		v.Chains = append(v.Chains, report.NewChain(g, chain))
	}
	return v
}

// sortedSet returns the set's members in lexical order.
func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for m := range set {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}
