package cache

// ScopedKeyer wraps a Keyer with a prefix for multi-tenant isolation.
// Useful when the server hosts several projects and each needs a separate
// cache namespace.
//
// Example usage:
//
//	// Project-specific keys
//	projectKeyer := NewScopedKeyer(NewDefaultKeyer(), "project:abc123:")
//
//	// Shared keys
//	sharedKeyer := NewDefaultKeyer()
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// SnapshotKey generates a prefixed key for snapshot caching.
func (k *ScopedKeyer) SnapshotKey(name string) string {
	return k.prefix + k.inner.SnapshotKey(name)
}

// GraphKey generates a prefixed key for graph caching.
func (k *ScopedKeyer) GraphKey(snapshotHash string, opts GraphKeyOpts) string {
	return k.prefix + k.inner.GraphKey(snapshotHash, opts)
}

// LayoutKey generates a prefixed key for layout caching.
func (k *ScopedKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(graphHash, opts)
}

// QualityKey generates a prefixed key for quality snapshot caching.
func (k *ScopedKeyer) QualityKey(layoutHash string) string {
	return k.prefix + k.inner.QualityKey(layoutHash)
}
