package scanner

import (
	"context"
	"strings"
	"time"

	"github.com/olegrjumin/sitescan/internal/browser"
	"github.com/olegrjumin/sitescan/internal/tracker"
)

// responseBuffer is the subscription buffer for network responses
const responseBuffer = 256

// NetworkDetector classifies responses the page completes after it subscribes.
// Responses from the initial navigation have already happened and are not seen.
type NetworkDetector struct {
	classifier *tracker.Classifier
	window     time.Duration
}

// NewNetworkDetector creates a detector that listens for the given window
func NewNetworkDetector(classifier *tracker.Classifier, window time.Duration) *NetworkDetector {
	return &NetworkDetector{classifier: classifier, window: window}
}

func (d *NetworkDetector) Name() string { return "network" }

// Detect subscribes to responses and collects third-party ones until the
// window elapses, the page stops emitting, or ctx is done
func (d *NetworkDetector) Detect(ctx context.Context, page browser.Page, pageHost string) ([]Resource, error) {
	responses, unsubscribe := page.OnResponse(responseBuffer)
	defer unsubscribe()

	timer := time.NewTimer(d.window)
	defer timer.Stop()

	var resources []Resource
	for {
		select {
		case resp, ok := <-responses:
			if !ok {
				return resources, nil
			}
			if r, ok := classified(d.classifier, resp.URL, pageHost, typeFromContentType(resp.ContentType)); ok {
				resources = append(resources, r)
			}
		case <-timer.C:
			return resources, nil
		case <-ctx.Done():
			return resources, ctx.Err()
		}
	}
}

// typeFromContentType maps a response Content-Type to a resource type
func typeFromContentType(contentType string) tracker.ResourceType {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "script"):
		return tracker.TypeScript
	case strings.Contains(ct, "image"):
		return tracker.TypeImage
	case strings.Contains(ct, "css"):
		return tracker.TypeStylesheet
	default:
		return tracker.TypeNetworkRequest
	}
}
