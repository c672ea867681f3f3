// Package report aggregates per-contract outcomes into one deterministic
// result. The JSON serialization of a Report is stable and independent of
// how a renderer chooses to display it.
package report

import (
	"strings"
	"time"

	"github.com/importguard/importguard/pkg/graph"
)

// Status is the outcome of a single contract check.
type Status string

const (
	StatusPass   Status = "PASS"
	StatusBroken Status = "BROKEN"
	StatusError  Status = "ERROR"
)

// Hop is one import edge inside a violation chain, with whatever location
// metadata the graph provider attached.
type Hop struct {
	Importer  string           `json:"importer"`
	Imported  string           `json:"imported"`
	Locations []graph.Location `json:"locations,omitempty"`
}

// Chain is a connected sequence of hops.
type Chain struct {
	Hops []Hop `json:"hops"`
}

// String renders the chain as "a -> b -> c".
func (c Chain) String() string {
	if len(c.Hops) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(c.Hops[0].Importer)
	for _, hop := range c.Hops {
		b.WriteString(" -> ")
		b.WriteString(hop.Imported)
	}
	return b.String()
}

// NewChain builds a Chain from an ordered module sequence, pulling per-edge
// locations from the graph.
func NewChain(g *graph.Graph, modules graph.Chain) Chain {
	hops := make([]Hop, 0, len(modules)-1)
	for i := 0; i+1 < len(modules); i++ {
		hops = append(hops, Hop{
			Importer:  modules[i],
			Imported:  modules[i+1],
			Locations: g.ImportDetails(modules[i], modules[i+1]),
		})
	}
	return Chain{Hops: hops}
}

// Violation is one reported breach of a contract. Chains that differ only
// in their first or last module are merged into a single violation.
type Violation struct {
	Summary string  `json:"summary"`
	Chains  []Chain `json:"chains"`
}

// ContractCheck is the outcome of evaluating one contract.
type ContractCheck struct {
	Name       string        `json:"name"`
	Type       string        `json:"type"`
	Status     Status        `json:"status"`
	Violations []Violation   `json:"violations,omitempty"`
	Warnings   []string      `json:"warnings,omitempty"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration_ns"`
	Cached     bool          `json:"cached,omitempty"`
}

// Clone returns a deep copy of the check. Mutating the copy's violations,
// chains, locations or warnings never touches the receiver.
func (c *ContractCheck) Clone() *ContractCheck {
	clone := *c
	if c.Violations != nil {
		clone.Violations = make([]Violation, len(c.Violations))
		for i, v := range c.Violations {
			cv := v
			cv.Chains = make([]Chain, len(v.Chains))
			for j, chain := range v.Chains {
				hops := make([]Hop, len(chain.Hops))
				for k, hop := range chain.Hops {
					hop.Locations = append([]graph.Location(nil), hop.Locations...)
					hops[k] = hop
				}
				cv.Chains[j] = Chain{Hops: hops}
			}
			clone.Violations[i] = cv
		}
	}
	clone.Warnings = append([]string(nil), c.Warnings...)
	return &clone
}

// Report is the aggregated result of a run.
type Report struct {
	RunID       string          `json:"run_id"`
	ModuleCount int             `json:"module_count"`
	ImportCount int             `json:"import_count"`
	Checks      []ContractCheck `json:"contracts"`
}

// Passed reports whether every contract check passed.
func (r *Report) Passed() bool {
	for _, c := range r.Checks {
		if c.Status != StatusPass {
			return false
		}
	}
	return true
}

// Broken returns the number of broken contracts.
func (r *Report) Broken() int {
	n := 0
	for _, c := range r.Checks {
		if c.Status == StatusBroken {
			n++
		}
	}
	return n
}

// Errored returns the number of contracts that could not be evaluated.
func (r *Report) Errored() int {
	n := 0
	for _, c := range r.Checks {
		if c.Status == StatusError {
			n++
		}
	}
	return n
}

// Scoped returns a copy of the report restricted to violations whose
// location metadata falls inside the target path prefixes and outside the
// exclude prefixes. Exclusion is checked before inclusion. Scoping filters
// which violations are surfaced, never which edges were analyzed: a
// contract whose violations are all filtered away is shown as passing in
// the scoped view.
func (r *Report) Scoped(target, exclude []string) *Report {
	if len(target) == 0 && len(exclude) == 0 {
		return r
	}

	scoped := &Report{
		RunID:       r.RunID,
		ModuleCount: r.ModuleCount,
		ImportCount: r.ImportCount,
		Checks:      make([]ContractCheck, 0, len(r.Checks)),
	}
	for _, check := range r.Checks {
		c := check
		c.Violations = nil
		for _, v := range check.Violations {
			if violationInScope(v, target, exclude) {
				c.Violations = append(c.Violations, v)
			}
		}
		if c.Status == StatusBroken && len(c.Violations) == 0 {
			c.Status = StatusPass
		}
		scoped.Checks = append(scoped.Checks, c)
	}
	return scoped
}

// violationInScope reports whether any chain location survives the path
// filters. Violations with no location metadata cannot be attributed to a
// path and are always surfaced.
func violationInScope(v Violation, target, exclude []string) bool {
	hasLocations := false
	for _, chain := range v.Chains {
		for _, hop := range chain.Hops {
			for _, loc := range hop.Locations {
				hasLocations = true
				if locationInScope(loc.File, target, exclude) {
					return true
				}
			}
		}
	}
	return !hasLocations
}

func locationInScope(file string, target, exclude []string) bool {
	for _, prefix := range exclude {
		if strings.HasPrefix(file, prefix) {
			return false
		}
	}
	if len(target) == 0 {
		return true
	}
	for _, prefix := range target {
		if strings.HasPrefix(file, prefix) {
			return true
		}
	}
	return false
}
