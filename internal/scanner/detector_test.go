package scanner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegrjumin/sitescan/internal/browser"
	"github.com/olegrjumin/sitescan/internal/tracker"
)

func TestIsPixel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		src    string
		width  int
		height int
		want   bool
	}{
		{"1x1", "https://cdn.example/a.gif", 1, 1, true},
		{"2x2", "https://cdn.example/a.gif", 2, 2, true},
		{"unrendered", "https://cdn.example/a.gif", 0, 0, true},
		{"50x50 track url", "https://cdn.example/track.gif", 50, 50, true},
		{"50x50 pixel url uppercase", "https://cdn.example/PIXEL?id=1", 50, 50, true},
		{"50x50 clean", "https://cdn.example/photo.jpg", 50, 50, false},
		{"thin banner", "https://cdn.example/line.png", 1, 300, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsPixel(tt.src, tt.width, tt.height))
		})
	}
}

func TestTypeFromContentType(t *testing.T) {
	t.Parallel()

	tests := map[string]tracker.ResourceType{
		"application/javascript":   tracker.TypeScript,
		"text/ecmascript":          tracker.TypeScript,
		"image/webp":               tracker.TypeImage,
		"text/css; charset=utf-8":  tracker.TypeStylesheet,
		"application/json":         tracker.TypeNetworkRequest,
		"":                         tracker.TypeNetworkRequest,
		"font/woff2":               tracker.TypeNetworkRequest,
	}

	for ct, want := range tests {
		assert.Equal(t, want, typeFromContentType(ct), ct)
	}
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Network Request from cdn.example.net", describe(tracker.TypeNetworkRequest, "cdn.example.net"))
	assert.Equal(t, "Pixel from px.example", describe(tracker.TypePixel, "px.example"))
	assert.Equal(t, "Iframe from www.youtube.com", describe(tracker.TypeIframe, "www.youtube.com"))
}

func TestScriptDetectorSkipsFirstPartyAndRelative(t *testing.T) {
	t.Parallel()

	page := &fakePage{scripts: []string{
		"https://example.com/app.js",
		"/relative.js",
		"https://cdn.unknown.example/lib.js",
	}}

	resources, err := NewScriptDetector(tracker.NewClassifier(nil)).Detect(context.Background(), page, "example.com")
	require.NoError(t, err)
	require.Len(t, resources, 1)
	assert.Equal(t, tracker.RiskMedium, resources[0].RiskLevel)
	assert.Equal(t, "script", resources[0].Category)
}

func TestImageDetectorSkipsEmptySources(t *testing.T) {
	t.Parallel()

	page := &fakePage{images: []imageInfo{
		{Src: "", Width: 1, Height: 1},
		{Src: "https://images.example/hero.jpg", Width: 800, Height: 600},
	}}

	resources, err := NewImageDetector(tracker.NewClassifier(nil)).Detect(context.Background(), page, "example.com")
	require.NoError(t, err)
	require.Len(t, resources, 1)
	assert.Equal(t, tracker.TypeImage, resources[0].Type)
	assert.Equal(t, tracker.RiskLow, resources[0].RiskLevel)
	assert.Equal(t, "general", resources[0].Category)
}

func TestCookieDetectorError(t *testing.T) {
	t.Parallel()

	page := &fakePage{cookieErr: errors.New("target closed")}
	_, err := NewCookieDetector().Detect(context.Background(), page, "example.com")
	assert.Error(t, err)
}

func TestNetworkDetectorStopsOnClosedChannel(t *testing.T) {
	t.Parallel()

	launcher := browser.NewStaticLauncher(nil, 0)
	page, err := launcher.Launch(context.Background())
	require.NoError(t, err)
	defer page.Close()

	resources, err := NewNetworkDetector(tracker.NewClassifier(nil), 0).Detect(context.Background(), page, "example.com")
	require.NoError(t, err)
	assert.Empty(t, resources)
}
