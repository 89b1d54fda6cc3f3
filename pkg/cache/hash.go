package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Hash returns the SHA-256 digest of data as a 64-character hex string.
// Graphs and layouts are keyed by the digest of their JSON encoding, so
// equal content always maps to the same cache entry regardless of where
// it was computed.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey builds a namespaced key for one artifact family by hashing the
// JSON encoding of the parts: "<family>:<sha256 hex>". The digest is kept
// in full; truncating it would invite collisions between near-identical
// option sets.
func hashKey(family string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return family + ":" + Hash(data)
}
