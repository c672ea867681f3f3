// Package runner orchestrates a check run: it builds contracts from
// configuration, obtains the dependency graph, evaluates every contract
// (consulting the result cache around each) and assembles the report.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/importguard/importguard/internal/cache"
	"github.com/importguard/importguard/internal/config"
	"github.com/importguard/importguard/internal/provider"
	"github.com/importguard/importguard/pkg/contract"
	"github.com/importguard/importguard/pkg/graph"
	"github.com/importguard/importguard/pkg/report"
)

// Runner evaluates contracts against the graph supplied by Source.
type Runner struct {
	Source provider.Source
	Cache  cache.Store
	Logger *slog.Logger

	// Parallelism bounds concurrent contract evaluation; 0 means one
	// goroutine per CPU. Contracts only read the shared graph and mutate
	// private projections, so parallel evaluation is safe.
	Parallelism int
}

// New returns a Runner with the given collaborators. A nil store disables
// caching; a nil logger discards.
func New(source provider.Source, store cache.Store, logger *slog.Logger) *Runner {
	if store == nil {
		store = cache.Disabled{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{Source: source, Cache: store, Logger: logger}
}

// Run executes all configured contracts, or only those named in onlyIDs.
// Configuration problems and an unavailable graph are fatal; a runtime
// failure in one contract becomes that contract's ERROR status and never
// aborts the others.
func (r *Runner) Run(ctx context.Context, cfg *config.Config, onlyIDs []string) (*report.Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	selected, err := selectContracts(cfg.Contracts, onlyIDs)
	if err != nil {
		return nil, err
	}

	contracts := make([]contract.Contract, len(selected))
	for i, cc := range selected {
		c, err := contract.New(cc.Type, cc.DisplayName(), cc.Options)
		if err != nil {
			return nil, err
		}
		contracts[i] = c
	}

	g, err := r.Source.Graph(ctx)
	if err != nil {
		return nil, err
	}
	r.Logger.Debug("graph received", "modules", g.ModuleCount(), "imports", g.ImportCount())

	// Graph-dependent configuration checks run before any contract does.
	for _, c := range contracts {
		if v, ok := c.(contract.GraphValidator); ok {
			if err := v.ValidateGraph(g); err != nil {
				return nil, err
			}
		}
	}

	digest := cache.GraphDigest(g)
	checks := make([]report.ContractCheck, len(contracts))

	limit := r.Parallelism
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(limit)

	r.Logger.Info("checking contracts", "count", len(contracts))
	for i := range contracts {
		group.Go(func() error {
			checks[i] = r.runContract(gctx, g, digest, contracts[i], selected[i].Options)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &report.Report{
		RunID:       uuid.New().String(),
		ModuleCount: g.ModuleCount(),
		ImportCount: g.ImportCount(),
		Checks:      checks,
	}, nil
}

// runContract evaluates one contract with the cache bracketing the check.
func (r *Runner) runContract(
	ctx context.Context,
	g *graph.Graph,
	digest string,
	c contract.Contract,
	options map[string]any,
) report.ContractCheck {
	fp := cache.NewFingerprint(digest, c.Type(), c.Name(), options)
	if cached, ok := r.Cache.Get(fp); ok {
		r.Logger.Debug("contract result from cache", "contract", c.Name())
		cached.Cached = true
		return *cached
	}

	started := time.Now()
	check, err := c.Check(graph.WithProgressLogger(ctx, r.Logger.With("contract", c.Name())), g)
	elapsed := time.Since(started)

	if err != nil {
		r.Logger.Warn("contract errored", "contract", c.Name(), "error", err)
		return report.ContractCheck{
			Name:     c.Name(),
			Type:     c.Type(),
			Status:   report.StatusError,
			Error:    err.Error(),
			Duration: elapsed,
		}
	}

	check.Duration = elapsed
	r.Logger.Debug("contract checked",
		"contract", c.Name(),
		"status", string(check.Status),
		"violations", len(check.Violations),
		"duration", elapsed)

	r.Cache.Put(fp, check)
	return *check
}

// selectContracts applies the contract-id subset filter, preserving
// configuration order. Unknown ids are an error.
func selectContracts(all []config.ContractConfig, onlyIDs []string) ([]config.ContractConfig, error) {
	if len(onlyIDs) == 0 {
		return all, nil
	}

	byID := make(map[string]struct{}, len(all))
	for _, cc := range all {
		byID[cc.ID] = struct{}{}
	}
	want := make(map[string]struct{}, len(onlyIDs))
	for _, id := range onlyIDs {
		if _, ok := byID[id]; !ok {
			return nil, fmt.Errorf("unknown contract id %q", id)
		}
		want[id] = struct{}{}
	}

	var selected []config.ContractConfig
	for _, cc := range all {
		if _, ok := want[cc.ID]; ok {
			selected = append(selected, cc)
		}
	}
	return selected, nil
}
