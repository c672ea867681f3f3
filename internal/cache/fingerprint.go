package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"

	"github.com/importguard/importguard/pkg/graph"
)

// Fingerprint identifies a (graph snapshot, contract configuration) pair.
type Fingerprint string

// GraphDigest hashes the module and edge sets of a graph snapshot. Compute
// it once per run and combine with per-contract configuration via
// NewFingerprint.
func GraphDigest(g *graph.Graph) string {
	h := sha256.New()
	for _, m := range g.Modules() {
		writeField(h, m)
		for _, imported := range g.DirectImports(m) {
			writeField(h, imported)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// NewFingerprint derives a cache key from the graph digest and a
// contract's type, name and raw configuration. The configuration is
// serialized as canonical JSON (sorted map keys), so semantically identical
// configs hash identically.
func NewFingerprint(graphDigest, contractType, contractName string, options map[string]any) Fingerprint {
	h := sha256.New()
	writeField(h, graphDigest)
	writeField(h, contractType)
	writeField(h, contractName)

	// encoding/json sorts map keys, which keeps the digest canonical.
	encoded, err := json.Marshal(options)
	if err != nil {
		// Unserializable options fall back to an uncacheable sentinel.
		encoded = []byte(fmt.Sprintf("%#v", options))
	}
	h.Write(encoded)

	return Fingerprint(hex.EncodeToString(h.Sum(nil)))
}

// writeField writes a length-prefixed field so that adjacent values cannot
// collide across boundaries.
func writeField(h hash.Hash, s string) {
	fmt.Fprintf(h, "%d:%s", len(s), s)
}
