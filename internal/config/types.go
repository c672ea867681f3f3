// Package config loads and validates importguard project configuration.
// It is decoupled from CLI concerns so other front ends (editor plugins,
// CI integrations) can load the same configuration.
package config

import (
	"fmt"

	"github.com/importguard/importguard/pkg/contract"
)

// Config file names searched in the project root.
const (
	ConfigFileName    = "importguard.yaml"
	ConfigFileNameAlt = "importguard.yml"
)

// Defaults applied before any other configuration layer.
const (
	DefaultSourceDir = "."
	DefaultCacheDir  = ".importguard"
	DefaultOutput    = "auto"
)

// CacheConfig controls result caching.
type CacheConfig struct {
	Dir      string `koanf:"dir"`
	Disabled bool   `koanf:"disabled"`
}

// ContractConfig is one contract section. Everything beyond the common
// fields is passed untyped to the contract constructor, which owns the
// per-type schema.
type ContractConfig struct {
	ID      string         `koanf:"id"`
	Name    string         `koanf:"name"`
	Type    string         `koanf:"type"`
	Options map[string]any `koanf:",remain"`
}

// DisplayName returns the human-readable contract name, falling back to
// the id.
func (c ContractConfig) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.ID
}

// Config is the full project configuration.
type Config struct {
	// ProjectRoot is the directory the config was resolved against.
	// Derived, never read from the file.
	ProjectRoot string `koanf:"-"`

	SourceDir    string `koanf:"source_dir"`
	IncludeTests bool   `koanf:"include_tests"`

	Contracts []ContractConfig `koanf:"contracts"`
	Cache     CacheConfig      `koanf:"cache"`

	// Target and Exclude are path prefixes scoping which violations are
	// surfaced. Exclusion is checked before inclusion.
	Target  []string `koanf:"target"`
	Exclude []string `koanf:"exclude"`

	Output  string `koanf:"output"`
	Verbose bool   `koanf:"verbose"`
}

// Validate checks the structural parts of the configuration that do not
// need a graph: required fields, unique ids and known contract types.
// Per-type option validation happens in the contract constructors.
func (c *Config) Validate() error {
	if len(c.Contracts) == 0 {
		return &contract.ConfigurationError{Contract: "", Field: "contracts", Reason: "no contracts configured"}
	}

	seen := make(map[string]struct{}, len(c.Contracts))
	known := make(map[string]struct{})
	for _, typ := range contract.Types() {
		known[typ] = struct{}{}
	}

	for i, cc := range c.Contracts {
		label := cc.ID
		if label == "" {
			label = fmt.Sprintf("contracts[%d]", i)
		}
		if cc.ID == "" {
			return &contract.ConfigurationError{Contract: label, Field: "id", Reason: "id is required"}
		}
		if _, dup := seen[cc.ID]; dup {
			return &contract.ConfigurationError{Contract: label, Field: "id", Reason: "duplicate contract id"}
		}
		seen[cc.ID] = struct{}{}
		if cc.Type == "" {
			return &contract.ConfigurationError{Contract: label, Field: "type", Reason: "type is required"}
		}
		if _, ok := known[cc.Type]; !ok {
			return &contract.ConfigurationError{
				Contract: label,
				Field:    "type",
				Reason:   fmt.Sprintf("unknown contract type %q (known: %v)", cc.Type, contract.Types()),
			}
		}
	}
	return nil
}
