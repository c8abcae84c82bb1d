package scanner

import (
	"context"

	"github.com/olegrjumin/sitescan/internal/browser"
	"github.com/olegrjumin/sitescan/internal/tracker"
)

// ScriptDetector reports external scripts loaded from other hosts
type ScriptDetector struct {
	classifier *tracker.Classifier
}

// NewScriptDetector creates a new script detector
func NewScriptDetector(classifier *tracker.Classifier) *ScriptDetector {
	return &ScriptDetector{classifier: classifier}
}

func (d *ScriptDetector) Name() string { return "scripts" }

func (d *ScriptDetector) Detect(ctx context.Context, page browser.Page, pageHost string) ([]Resource, error) {
	var sources []string
	if err := page.Evaluate(ctx, scriptSourcesQuery, &sources); err != nil {
		return nil, err
	}

	var resources []Resource
	for _, src := range sources {
		if r, ok := classified(d.classifier, src, pageHost, tracker.TypeScript); ok {
			resources = append(resources, r)
		}
	}
	return resources, nil
}
