package publishcmd

// FeatureGates exposes runtime feature toggles required by publish command handlers.
// Callers should supply closures that read from press.Config.Features so handlers
// stay decoupled from configuration while honouring feature flags.
type FeatureGates struct {
	PublisherEnabled func() bool
}

func (g FeatureGates) publisherEnabled() bool {
	if g.PublisherEnabled == nil {
		return true
	}
	return g.PublisherEnabled()
}
