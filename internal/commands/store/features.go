package storecmd

// FeatureGates exposes runtime feature toggles required by store command handlers.
// Callers should supply closures that read from press.Config.Features so handlers
// stay decoupled from configuration while honouring feature flags.
type FeatureGates struct {
	StoreEnabled   func() bool
	ArchiveEnabled func() bool
}

func (g FeatureGates) storeEnabled() bool {
	if g.StoreEnabled == nil {
		return true
	}
	return g.StoreEnabled()
}

func (g FeatureGates) archiveEnabled() bool {
	if g.ArchiveEnabled == nil {
		return true
	}
	return g.ArchiveEnabled()
}
