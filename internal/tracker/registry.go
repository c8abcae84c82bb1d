package tracker

import (
	"fmt"
	"strings"
)

// RiskLevel is the privacy risk assigned to a third-party resource
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// RiskLevels lists every risk level from lowest to highest
var RiskLevels = []RiskLevel{RiskLow, RiskMedium, RiskHigh, RiskCritical}

// Rank orders risk levels; unknown levels rank below low
func (r RiskLevel) Rank() int {
	for i, level := range RiskLevels {
		if level == r {
			return i + 1
		}
	}
	return 0
}

// ParseRiskLevel accepts a risk level name in any case
func ParseRiskLevel(s string) (RiskLevel, error) {
	level := RiskLevel(strings.ToLower(strings.TrimSpace(s)))
	if level.Rank() == 0 {
		return "", fmt.Errorf("unknown risk level %q", s)
	}
	return level, nil
}

// ResourceType is the kind of resource observed on a page
type ResourceType string

const (
	TypeScript         ResourceType = "script"
	TypeCookie         ResourceType = "cookie"
	TypePixel          ResourceType = "pixel"
	TypeImage          ResourceType = "image"
	TypeIframe         ResourceType = "iframe"
	TypeStylesheet     ResourceType = "stylesheet"
	TypeNetworkRequest ResourceType = "network_request"
)

// Entry is one known third-party domain
type Entry struct {
	// Domain matches any host containing it as a substring
	Domain   string
	Type     string // informational service kind, e.g. "analytics" or "cdn"
	Risk     RiskLevel
	Category string
}

// Registry is an ordered, read-only list of known tracker domains.
// The first matching entry wins, so more specific domains must come
// before broader ones to take effect.
type Registry struct {
	entries []Entry
}

// NewRegistry builds a registry from entries in match order
func NewRegistry(entries []Entry) (*Registry, error) {
	copied := make([]Entry, 0, len(entries))
	for i, e := range entries {
		e.Domain = strings.ToLower(strings.TrimSpace(e.Domain))
		if e.Domain == "" {
			return nil, fmt.Errorf("registry entry %d: empty domain", i)
		}
		if e.Risk == "" {
			e.Risk = RiskLow
		} else if e.Risk.Rank() == 0 {
			return nil, fmt.Errorf("registry entry %d (%s): unknown risk level %q", i, e.Domain, e.Risk)
		}
		if e.Category == "" {
			e.Category = "general"
		}
		copied = append(copied, e)
	}
	return &Registry{entries: copied}, nil
}

// Lookup returns the first entry whose domain is contained in host
func (r *Registry) Lookup(host string) (Entry, bool) {
	host = strings.ToLower(host)
	for _, e := range r.entries {
		if strings.Contains(host, e.Domain) {
			return e, true
		}
	}
	return Entry{}, false
}

// Entries returns a copy of the registry in match order
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of entries
func (r *Registry) Len() int {
	return len(r.entries)
}

// Default returns the built-in registry.
// cloudflare.com precedes cdnjs.cloudflare.com, so the latter never matches.
func Default() *Registry {
	return &Registry{entries: []Entry{
		{Domain: "google-analytics.com", Type: "analytics", Risk: RiskLow, Category: "analytics"},
		{Domain: "googletagmanager.com", Type: "tag_manager", Risk: RiskLow, Category: "analytics"},
		{Domain: "doubleclick.net", Type: "advertising", Risk: RiskMedium, Category: "advertising"},
		{Domain: "facebook.net", Type: "social_tracking", Risk: RiskMedium, Category: "social"},
		{Domain: "facebook.com", Type: "social_tracking", Risk: RiskMedium, Category: "social"},
		{Domain: "twitter.com", Type: "social_tracking", Risk: RiskMedium, Category: "social"},
		{Domain: "linkedin.com", Type: "social_tracking", Risk: RiskMedium, Category: "social"},
		{Domain: "hotjar.com", Type: "heat_mapping", Risk: RiskMedium, Category: "analytics"},
		{Domain: "mixpanel.com", Type: "analytics", Risk: RiskLow, Category: "analytics"},
		{Domain: "segment.com", Type: "analytics", Risk: RiskLow, Category: "analytics"},
		{Domain: "intercom.io", Type: "chat", Risk: RiskLow, Category: "customer_support"},
		{Domain: "zendesk.com", Type: "chat", Risk: RiskLow, Category: "customer_support"},
		{Domain: "cloudflare.com", Type: "cdn", Risk: RiskLow, Category: "infrastructure"},
		{Domain: "amazonaws.com", Type: "cdn", Risk: RiskLow, Category: "infrastructure"},
		{Domain: "cdnjs.cloudflare.com", Type: "cdn", Risk: RiskLow, Category: "infrastructure"},
		{Domain: "fonts.googleapis.com", Type: "fonts", Risk: RiskLow, Category: "ui"},
		{Domain: "fonts.gstatic.com", Type: "fonts", Risk: RiskLow, Category: "ui"},
		{Domain: "youtube.com", Type: "video", Risk: RiskMedium, Category: "media"},
		{Domain: "youtu.be", Type: "video", Risk: RiskMedium, Category: "media"},
		{Domain: "vimeo.com", Type: "video", Risk: RiskMedium, Category: "media"},
		{Domain: "wistia.com", Type: "video", Risk: RiskMedium, Category: "media"},
		{Domain: "stripe.com", Type: "payment", Risk: RiskLow, Category: "payments"},
		{Domain: "paypal.com", Type: "payment", Risk: RiskLow, Category: "payments"},
		{Domain: "braintreepayments.com", Type: "payment", Risk: RiskLow, Category: "payments"},
		{Domain: "recaptcha.net", Type: "security", Risk: RiskLow, Category: "security"},
		{Domain: "hcaptcha.com", Type: "security", Risk: RiskLow, Category: "security"},
	}}
}
