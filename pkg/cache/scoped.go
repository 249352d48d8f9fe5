package cache

// ScopedKeyer wraps a Keyer with a prefix so several deployments can share
// one Redis instance without colliding:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "castleblock:staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer means
// the default keyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) RenderKey(snapshotHash string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(snapshotHash, opts)
}

func (k *ScopedKeyer) RegistrationKey(version int) string {
	return k.prefix + k.inner.RegistrationKey(version)
}
