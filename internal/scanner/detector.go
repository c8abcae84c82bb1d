package scanner

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/olegrjumin/sitescan/internal/browser"
	"github.com/olegrjumin/sitescan/internal/tracker"
)

// Detector extracts one kind of third-party resource from a loaded page
type Detector interface {
	Name() string
	Detect(ctx context.Context, page browser.Page, pageHost string) ([]Resource, error)
}

// DefaultDetectors returns the DOM detectors in the order they run
func DefaultDetectors(classifier *tracker.Classifier) []Detector {
	return []Detector{
		NewCookieDetector(),
		NewScriptDetector(classifier),
		NewImageDetector(classifier),
		NewIframeDetector(classifier),
	}
}

// classified builds a resource for a third-party URL, or reports false
// when the URL has no host or belongs to the page itself
func classified(classifier *tracker.Classifier, rawURL, pageHost string, t tracker.ResourceType) (Resource, bool) {
	host := tracker.ExtractHost(rawURL)
	if !tracker.IsThirdParty(host, pageHost) {
		return Resource{}, false
	}

	risk, category := classifier.Classify(host, t)
	return Resource{
		Host:        host,
		Type:        t,
		URL:         rawURL,
		RiskLevel:   risk,
		Description: describe(t, host),
		Category:    category,
	}, true
}

// describe renders "<Type> from <host>", e.g. "Network Request from cdn.example.net"
func describe(t tracker.ResourceType, host string) string {
	// Casers keep state, so each call gets its own
	title := cases.Title(language.English).String(strings.ReplaceAll(string(t), "_", " "))
	return title + " from " + host
}
