package tracker

// Classifier assigns risk and category to third-party hosts
type Classifier struct {
	registry *Registry
}

// NewClassifier creates a classifier over the given registry.
// A nil registry uses Default().
func NewClassifier(registry *Registry) *Classifier {
	if registry == nil {
		registry = Default()
	}
	return &Classifier{registry: registry}
}

// Classify returns the risk level and category for a host observed as the given type.
// Known domains take their registry values; anything else falls back by type.
func (c *Classifier) Classify(host string, observed ResourceType) (RiskLevel, string) {
	if entry, ok := c.registry.Lookup(host); ok {
		return entry.Risk, entry.Category
	}

	switch observed {
	case TypeScript, TypeIframe:
		return RiskMedium, string(observed)
	case TypeCookie:
		return RiskLow, "cookie"
	case TypePixel:
		return RiskMedium, "tracking"
	default:
		return RiskLow, "general"
	}
}
