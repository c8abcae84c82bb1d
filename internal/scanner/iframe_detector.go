package scanner

import (
	"context"

	"github.com/olegrjumin/sitescan/internal/browser"
	"github.com/olegrjumin/sitescan/internal/tracker"
)

// IframeDetector reports frames embedded from other hosts
type IframeDetector struct {
	classifier *tracker.Classifier
}

// NewIframeDetector creates a new iframe detector
func NewIframeDetector(classifier *tracker.Classifier) *IframeDetector {
	return &IframeDetector{classifier: classifier}
}

func (d *IframeDetector) Name() string { return "iframes" }

func (d *IframeDetector) Detect(ctx context.Context, page browser.Page, pageHost string) ([]Resource, error) {
	var sources []string
	if err := page.Evaluate(ctx, iframeSourcesQuery, &sources); err != nil {
		return nil, err
	}

	var resources []Resource
	for _, src := range sources {
		if r, ok := classified(d.classifier, src, pageHost, tracker.TypeIframe); ok {
			resources = append(resources, r)
		}
	}
	return resources, nil
}
