package scanner

import (
	"context"
	"strings"

	"github.com/olegrjumin/sitescan/internal/browser"
	"github.com/olegrjumin/sitescan/internal/tracker"
)

// ImageDetector reports third-party images and tells tracking pixels apart
type ImageDetector struct {
	classifier *tracker.Classifier
}

// NewImageDetector creates a new image detector
func NewImageDetector(classifier *tracker.Classifier) *ImageDetector {
	return &ImageDetector{classifier: classifier}
}

func (d *ImageDetector) Name() string { return "images" }

func (d *ImageDetector) Detect(ctx context.Context, page browser.Page, pageHost string) ([]Resource, error) {
	var images []imageInfo
	if err := page.Evaluate(ctx, imagesQuery, &images); err != nil {
		return nil, err
	}

	var resources []Resource
	for _, img := range images {
		if img.Src == "" {
			continue
		}
		t := tracker.TypeImage
		if IsPixel(img.Src, img.Width, img.Height) {
			t = tracker.TypePixel
		}
		if r, ok := classified(d.classifier, img.Src, pageHost, t); ok {
			resources = append(resources, r)
		}
	}
	return resources, nil
}

// IsPixel reports whether an image looks like a tracking pixel: at most 2x2,
// or a URL mentioning "pixel" or "track"
func IsPixel(src string, width, height int) bool {
	if width <= 2 && height <= 2 {
		return true
	}
	lower := strings.ToLower(src)
	return strings.Contains(lower, "pixel") || strings.Contains(lower, "track")
}
