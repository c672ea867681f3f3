// Package contract implements the architectural rules checked against a
// dependency graph: forbidden imports, module independence and layered
// ordering. Contract types form a closed set behind an explicit registry
// mapping a type name to a constructor.
package contract

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/go-viper/mapstructure/v2"

	"github.com/importguard/importguard/pkg/graph"
	"github.com/importguard/importguard/pkg/report"
)

// Contract is a declared architectural rule. Implementations are immutable
// after construction and safe to check concurrently: each check operates on
// a private projection of the shared read-only graph.
type Contract interface {
	// Name returns the contract's configured identifier.
	Name() string

	// Type returns the registered type name, e.g. "forbidden".
	Type() string

	// Check evaluates the contract against the graph. A returned error
	// denotes a runtime problem with this contract only (for example a
	// configured module missing from the graph); the caller reports it as
	// the contract's ERROR status without aborting other contracts.
	Check(ctx context.Context, g *graph.Graph) (*report.ContractCheck, error)
}

// GraphValidator is implemented by contracts whose configuration can only
// be fully validated against a concrete graph. Validation failures are
// ConfigurationErrors and abort the run before any contract is checked.
type GraphValidator interface {
	ValidateGraph(g *graph.Graph) error
}

// ConfigurationError reports invalid contract configuration. It is fatal
// before any contract executes.
type ConfigurationError struct {
	Contract string
	Field    string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("contract %q: field %q: %s", e.Contract, e.Field, e.Reason)
	}
	return fmt.Sprintf("contract %q: %s", e.Contract, e.Reason)
}

// Factory constructs a contract from its configured options.
type Factory func(name string, options map[string]any) (Contract, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// register adds a contract type. Called from init funcs in this package;
// the set of types is closed by design.
func register(typ string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[typ] = factory
}

// Types returns the registered contract type names in lexical order.
func Types() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	types := make([]string, 0, len(registry))
	for typ := range registry {
		types = append(types, typ)
	}
	sort.Strings(types)
	return types
}

// New builds a contract of the given type from raw configuration options.
// An unknown type or malformed options yield a *ConfigurationError.
func New(typ, name string, options map[string]any) (Contract, error) {
	registryMu.RLock()
	factory, ok := registry[typ]
	registryMu.RUnlock()
	if !ok {
		return nil, &ConfigurationError{
			Contract: name,
			Field:    "type",
			Reason:   fmt.Sprintf("unknown contract type %q (known: %v)", typ, Types()),
		}
	}
	return factory(name, options)
}

// decodeOptions maps raw option values onto a typed options struct.
// Unknown keys are configuration errors so option typos surface early.
func decodeOptions(name string, options map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return &ConfigurationError{Contract: name, Reason: err.Error()}
	}
	if err := dec.Decode(options); err != nil {
		return &ConfigurationError{Contract: name, Reason: err.Error()}
	}
	return nil
}
