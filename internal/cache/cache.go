// Package cache memoizes contract outcomes keyed by a fingerprint of the
// graph snapshot and contract configuration. The cache is purely an
// accelerator: a miss, a corrupted entry or a failing backend always
// degrades to recomputation, never to an error the user sees.
package cache

import (
	"sync"

	"github.com/importguard/importguard/pkg/report"
)

// Store is the narrow capability contracts results go through. An
// identical fingerprint must always yield the identical stored check.
type Store interface {
	// Get returns the cached check for the fingerprint, if present.
	Get(fp Fingerprint) (*report.ContractCheck, bool)

	// Put stores the check under the fingerprint. Writes are atomic from
	// a concurrent reader's perspective: no torn entry is ever observable.
	Put(fp Fingerprint, check *report.ContractCheck)
}

// Memory is an in-process Store.
type Memory struct {
	mu      sync.RWMutex
	entries map[Fingerprint]*report.ContractCheck
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[Fingerprint]*report.ContractCheck)}
}

func (m *Memory) Get(fp Fingerprint) (*report.ContractCheck, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	check, ok := m.entries[fp]
	if !ok {
		return nil, false
	}
	// Deep copies on both sides keep stored entries immutable even when
	// callers mutate what they put in or got out.
	return check.Clone(), true
}

func (m *Memory) Put(fp Fingerprint, check *report.ContractCheck) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[fp] = check.Clone()
}

// Disabled is a Store that never hits. Used for --no-cache.
type Disabled struct{}

func (Disabled) Get(Fingerprint) (*report.ContractCheck, bool) { return nil, false }
func (Disabled) Put(Fingerprint, *report.ContractCheck)        {}
