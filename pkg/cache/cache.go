// Package cache provides pluggable byte caches and deterministic cache keys
// for layout pipeline results.
//
// A cache stores opaque byte slices under string keys with optional TTLs.
// Implementations: FileCache for CLI usage, RedisCache for the server, and
// NullCache to disable caching entirely.
package cache

import (
	"context"
	"time"
)

// Default TTLs per artifact family. Graphs are cheap to rebuild but layouts
// and quality snapshots are worth keeping longer.
const (
	TTLGraph   = 1 * time.Hour
	TTLLayout  = 24 * time.Hour
	TTLQuality = 24 * time.Hour
)

// Cache is a byte store with TTL support.
//
// Get returns (data, true, nil) on a hit and (nil, false, nil) on a miss;
// errors are reserved for backend failures. A zero ttl on Set means the
// entry never expires.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// GraphKeyOpts are the inputs that shape a synthesized graph.
type GraphKeyOpts struct {
	BaseWeight      float64
	InjectVirtual   bool
}

// LayoutKeyOpts are the inputs that shape a computed layout.
type LayoutKeyOpts struct {
	Algorithm       string
	RankSep         float64
	NodeSep         float64
	FractionalRanks bool
	AdaptiveSpacing bool
	Clustering      bool
	Compression     float64
}

// Keyer generates deterministic cache keys per artifact family.
type Keyer interface {
	// SnapshotKey keys a raw entity snapshot by name.
	SnapshotKey(name string) string

	// GraphKey keys a synthesized graph by snapshot content hash and
	// builder options.
	GraphKey(snapshotHash string, opts GraphKeyOpts) string

	// LayoutKey keys a computed layout by graph content hash and layout
	// options.
	LayoutKey(graphHash string, opts LayoutKeyOpts) string

	// QualityKey keys a quality snapshot by layout content hash.
	QualityKey(layoutHash string) string
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// SnapshotKey generates a key for snapshot caching.
func (k *DefaultKeyer) SnapshotKey(name string) string {
	return hashKey("snapshot", name)
}

// GraphKey generates a key for graph caching.
func (k *DefaultKeyer) GraphKey(snapshotHash string, opts GraphKeyOpts) string {
	return hashKey("graph", snapshotHash, opts)
}

// LayoutKey generates a key for layout caching.
func (k *DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}

// QualityKey generates a key for quality snapshot caching.
func (k *DefaultKeyer) QualityKey(layoutHash string) string {
	return hashKey("quality", layoutHash)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
