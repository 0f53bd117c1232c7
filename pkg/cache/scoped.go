package cache

// ScopedKeyer prefixes every key of an inner Keyer, giving callers separate
// namespaces in a shared backend:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), buildinfo.CachePrefix())
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the default keyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// PlacementKey returns the prefixed inner key.
func (k *ScopedKeyer) PlacementKey(netlistHash, deviceHash string, opts PlacementKeyOpts) string {
	return k.prefix + k.inner.PlacementKey(netlistHash, deviceHash, opts)
}
