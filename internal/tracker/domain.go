package tracker

import (
	"net/url"
	"strings"
)

// ExtractHost returns the lowercased authority of rawURL, userinfo and port
// included, or "" when the URL cannot be parsed or has no host
func ExtractHost(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return ""
	}
	if u.User != nil {
		return strings.ToLower(u.User.String() + "@" + u.Host)
	}
	return strings.ToLower(u.Host)
}

// IsThirdParty reports whether candidate is a host other than the page host.
// Subdomains of the page host count as third-party.
func IsThirdParty(candidate, pageHost string) bool {
	return candidate != "" && candidate != pageHost
}
