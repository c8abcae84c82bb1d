package scanner

import (
	"context"
	"strings"

	"github.com/olegrjumin/sitescan/internal/browser"
	"github.com/olegrjumin/sitescan/internal/tracker"
)

// CookieDetector reports cookies set in the browsing context by other hosts.
// Cookies are never run through the registry: they are always low risk.
type CookieDetector struct{}

// NewCookieDetector creates a new cookie detector
func NewCookieDetector() *CookieDetector {
	return &CookieDetector{}
}

func (d *CookieDetector) Name() string { return "cookies" }

func (d *CookieDetector) Detect(ctx context.Context, page browser.Page, pageHost string) ([]Resource, error) {
	cookies, err := page.Cookies(ctx)
	if err != nil {
		return nil, err
	}

	resources := make([]Resource, 0, len(cookies))
	for _, c := range cookies {
		domain := strings.ToLower(strings.TrimLeft(c.Domain, "."))
		if domain == "" || !tracker.IsThirdParty(domain, pageHost) {
			continue
		}

		name := c.Name
		if name == "" {
			name = "unknown"
		}

		resources = append(resources, Resource{
			Host:        domain,
			Type:        tracker.TypeCookie,
			URL:         "cookie://" + domain,
			RiskLevel:   tracker.RiskLow,
			Description: "Cookie: " + name,
			Category:    "cookie",
		})
	}
	return resources, nil
}
