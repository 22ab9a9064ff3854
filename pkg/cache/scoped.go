package cache

// ScopedKeyer wraps a Keyer with a prefix for multi-tenant isolation.
// The HTTP server gives every session its own namespace this way.
//
// Example usage:
//
//	sessionKeyer := NewScopedKeyer(NewDefaultKeyer(), "session:9b1d...:")
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

// StateKey generates a prefixed key for placement state.
func (k *ScopedKeyer) StateKey(scene string) string {
	return k.prefix + k.inner.StateKey(scene)
}
