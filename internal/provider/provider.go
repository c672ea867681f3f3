// Package provider supplies dependency graphs to the contract engine. The
// engine only depends on the Source port; how a graph is constructed
// (scanning Go sources, loading a serialized snapshot, a test fixture) is
// the provider's concern.
package provider

import (
	"context"
	"fmt"

	"github.com/importguard/importguard/pkg/graph"
)

// Source produces the dependency graph for a run. Implementations must
// return a graph that is immutable for the lifetime of the run.
type Source interface {
	Graph(ctx context.Context) (*graph.Graph, error)
}

// UnavailableError means the provider could not supply a graph. It is
// fatal for the run.
type UnavailableError struct {
	Reason string
	Err    error
}

func (e *UnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dependency graph unavailable: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("dependency graph unavailable: %s", e.Reason)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Static is a Source wrapping a pre-built graph. Used by tests and by
// callers that obtain a graph elsewhere.
type Static struct {
	G *graph.Graph
}

func (s Static) Graph(context.Context) (*graph.Graph, error) {
	if s.G == nil {
		return nil, &UnavailableError{Reason: "no graph supplied"}
	}
	return s.G, nil
}
