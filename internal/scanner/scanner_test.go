package scanner

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegrjumin/sitescan/internal/browser"
	"github.com/olegrjumin/sitescan/internal/httpclient"
	"github.com/olegrjumin/sitescan/internal/tracker"
)

const target = "https://example.com/"

func newTestScanner(page *fakePage, opts ...Option) (*Scanner, *fakeLauncher) {
	launcher := &fakeLauncher{page: page}
	base := []Option{
		WithSettleDelay(0),
		WithResponseWindow(20 * time.Millisecond),
	}
	return New(launcher, tracker.NewClassifier(tracker.Default()), append(base, opts...)...), launcher
}

func scan(t *testing.T, s *Scanner, opts ScanOptions) *ScanResult {
	t.Helper()
	result, err := s.Scan(context.Background(), target, opts)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func TestScanSingleAnalyticsScript(t *testing.T) {
	t.Parallel()

	page := &fakePage{scripts: []string{
		"https://www.google-analytics.com/analytics.js",
		"https://example.com/static/app.js",
	}}
	s, _ := newTestScanner(page)

	result := scan(t, s, DefaultScanOptions())

	require.Len(t, result.Resources, 1)
	r := result.Resources[0]
	assert.Equal(t, "www.google-analytics.com", r.Host)
	assert.Equal(t, tracker.TypeScript, r.Type)
	assert.Equal(t, tracker.RiskLow, r.RiskLevel)
	assert.Equal(t, "analytics", r.Category)
	assert.Equal(t, "Script from www.google-analytics.com", r.Description)

	assert.Equal(t, map[string]int{"low": 1, "medium": 0, "high": 0, "critical": 0}, result.Summary.ByRisk)
	assert.Equal(t, 1, result.Summary.UniqueHosts)
	assert.Equal(t, 1, result.Summary.TotalResources)
	assert.Equal(t, 1, result.PagesScanned)
	assert.Equal(t, 1, page.closed)
}

func TestScanThirdPartyCookies(t *testing.T) {
	t.Parallel()

	page := &fakePage{cookies: []browser.Cookie{
		{Name: "_ga", Domain: ".tracker.example"},
		{Name: "ad_id", Domain: "ads.example"},
		{Name: "session", Domain: "example.com"},
		{Name: "orphan", Domain: ""},
	}}
	s, _ := newTestScanner(page)

	result := scan(t, s, DefaultScanOptions())

	assert.Equal(t, map[string]int{"cookie": 2}, result.Summary.ByType)
	require.Len(t, result.Resources, 2)
	assert.Equal(t, "tracker.example", result.Resources[0].Host)
	assert.Equal(t, "cookie://tracker.example", result.Resources[0].URL)
	assert.Equal(t, "Cookie: _ga", result.Resources[0].Description)
	assert.Equal(t, tracker.RiskLow, result.Resources[0].RiskLevel)
	assert.Equal(t, "cookie", result.Resources[0].Category)
}

// Cookie domains carry no port while the page host keeps it, so a host-only
// cookie from a page on an explicit port is reported as third-party.
func TestScanCookieOnPortedHostIsThirdParty(t *testing.T) {
	t.Parallel()

	page := &fakePage{cookies: []browser.Cookie{
		{Name: "session", Domain: "localhost"},
		{Name: "exact", Domain: "localhost:8080"},
	}}
	s, _ := newTestScanner(page)

	result, err := s.Scan(context.Background(), "http://localhost:8080/", DefaultScanOptions())
	require.NoError(t, err)

	require.Len(t, result.Resources, 1)
	assert.Equal(t, "localhost", result.Resources[0].Host)
	assert.Equal(t, tracker.TypeCookie, result.Resources[0].Type)
	assert.Equal(t, "Cookie: session", result.Resources[0].Description)
}

func TestScanCookiesAreNeverClassified(t *testing.T) {
	t.Parallel()

	page := &fakePage{cookies: []browser.Cookie{{Name: "fr", Domain: ".facebook.com"}}}
	s, _ := newTestScanner(page)

	result := scan(t, s, DefaultScanOptions())

	require.Len(t, result.Resources, 1)
	assert.Equal(t, tracker.RiskLow, result.Resources[0].RiskLevel)
	assert.Equal(t, "cookie", result.Resources[0].Category)
}

func TestScanNavigationFailureStillSummarizes(t *testing.T) {
	t.Parallel()

	page := &fakePage{
		navErr:  errors.New("net::ERR_NAME_NOT_RESOLVED"),
		scripts: []string{"https://www.google-analytics.com/analytics.js"},
	}
	s, _ := newTestScanner(page)

	var mu sync.Mutex
	var states []State
	opts := DefaultScanOptions()
	opts.OnState = func(st State) {
		mu.Lock()
		defer mu.Unlock()
		states = append(states, st)
	}

	result := scan(t, s, opts)

	assert.Empty(t, result.Resources)
	assert.NotNil(t, result.Resources)
	assert.Equal(t, 0, result.Summary.TotalResources)
	assert.Equal(t, map[string]int{"low": 0, "medium": 0, "high": 0, "critical": 0}, result.Summary.ByRisk)
	assert.Equal(t, []string{StepNavigate}, result.FailedSteps())

	nav, ok := result.Step(StepNavigate)
	require.True(t, ok)
	assert.Contains(t, nav.Error, "ERR_NAME_NOT_RESOLVED")

	for _, name := range []string{StepSettle, "cookies", "scripts", "images", "iframes", StepNetwork} {
		step, ok := result.Step(name)
		require.True(t, ok, name)
		assert.True(t, step.Skipped, name)
	}

	assert.Equal(t, []State{StateCreated, StateNavigating, StateError, StateAggregating, StateDone}, states)
	assert.Equal(t, 1, page.closed)
}

func TestScanNavigationTimeoutIgnoresRequestTimeout(t *testing.T) {
	t.Parallel()

	page := &fakePage{}
	s, _ := newTestScanner(page)

	opts := DefaultScanOptions()
	opts.Timeout = 5
	scan(t, s, opts)

	opts.Timeout = 120
	scan(t, s, opts)

	assert.Equal(t, []time.Duration{30 * time.Second, 30 * time.Second}, page.navTimeouts)
}

func TestScanResponsesBeforeSubscriptionAreNotObserved(t *testing.T) {
	t.Parallel()

	page := &fakePage{
		navResponses: []browser.Response{
			{URL: "https://early.example/boot.js", ContentType: "application/javascript"},
		},
		lateResponses: []browser.Response{
			{URL: "https://late.example/beacon.gif", ContentType: "image/gif"},
			{URL: "https://fonts.googleapis.com/css?family=Roboto", ContentType: "text/css"},
			{URL: "https://api.example.org/collect", ContentType: "APPLICATION/JSON"},
			{URL: "https://example.com/self.js", ContentType: "text/javascript"},
		},
	}
	s, _ := newTestScanner(page)

	result := scan(t, s, DefaultScanOptions())

	hosts := make([]string, 0, len(result.Resources))
	for _, r := range result.Resources {
		hosts = append(hosts, r.Host)
	}
	assert.NotContains(t, hosts, "early.example")
	assert.Equal(t, []string{"late.example", "fonts.googleapis.com", "api.example.org"}, hosts)

	assert.Equal(t, tracker.TypeImage, result.Resources[0].Type)
	assert.Equal(t, tracker.TypeStylesheet, result.Resources[1].Type)
	assert.Equal(t, "ui", result.Resources[1].Category)
	assert.Equal(t, tracker.TypeNetworkRequest, result.Resources[2].Type)
	assert.Equal(t, "Network Request from api.example.org", result.Resources[2].Description)
}

func TestScanDetectorFailureContinues(t *testing.T) {
	t.Parallel()

	page := &fakePage{
		evalErr: map[string]error{"scripts": errors.New("execution context destroyed")},
		images:  []imageInfo{{Src: "https://px.ads.example/i.gif", Width: 1, Height: 1}},
		iframes: []string{"https://www.youtube.com/embed/xyz"},
	}
	s, _ := newTestScanner(page)

	var states []State
	opts := DefaultScanOptions()
	opts.OnState = func(st State) { states = append(states, st) }

	result := scan(t, s, opts)

	assert.Equal(t, []string{"scripts"}, result.FailedSteps())
	require.Len(t, result.Resources, 2)
	assert.Equal(t, tracker.TypePixel, result.Resources[0].Type)
	assert.Equal(t, tracker.RiskMedium, result.Resources[0].RiskLevel)
	assert.Equal(t, "tracking", result.Resources[0].Category)
	assert.Equal(t, tracker.TypeIframe, result.Resources[1].Type)
	assert.Equal(t, "media", result.Resources[1].Category)

	assert.Equal(t, []State{
		StateCreated, StateNavigating, StateSettling, StateExtracting,
		StateError, StateAggregating, StateDone,
	}, states)
}

func TestScanDetectionOrder(t *testing.T) {
	t.Parallel()

	page := &fakePage{
		cookies: []browser.Cookie{{Name: "c", Domain: ".cookie.example"}},
		scripts: []string{"https://script.example/a.js", "https://script.example/a.js"},
		images:  []imageInfo{{Src: "https://img.example/photo.jpg", Width: 640, Height: 480}},
		iframes: []string{"https://frame.example/"},
		lateResponses: []browser.Response{
			{URL: "https://net.example/x", ContentType: "text/plain"},
		},
	}
	s, _ := newTestScanner(page)

	result := scan(t, s, DefaultScanOptions())

	var types []tracker.ResourceType
	for _, r := range result.Resources {
		types = append(types, r.Type)
	}
	assert.Equal(t, []tracker.ResourceType{
		tracker.TypeCookie, tracker.TypeScript, tracker.TypeScript,
		tracker.TypeImage, tracker.TypeIframe, tracker.TypeNetworkRequest,
	}, types, "resources keep detection order without deduplication")
	assert.Equal(t, 5, result.Summary.UniqueHosts)
}

func TestScanLaunchFailure(t *testing.T) {
	t.Parallel()

	launcher := &fakeLauncher{launchErr: browser.ErrBrowserUnavailable}
	s := New(launcher, nil)

	result, err := s.Scan(context.Background(), target, DefaultScanOptions())
	assert.Nil(t, result)
	assert.ErrorIs(t, err, browser.ErrBrowserUnavailable)
}

func TestScanIDAndTimestamp(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	calls := 0
	clock := func() time.Time {
		calls++
		return start.Add(time.Duration(calls-1) * 1500 * time.Millisecond)
	}

	s, _ := newTestScanner(&fakePage{}, WithClock(clock))
	result := scan(t, s, DefaultScanOptions())

	assert.True(t, strings.HasPrefix(result.ScanID, "scan_"))
	assert.Equal(t, "scan_1714557600000000000", result.ScanID)
	assert.Equal(t, time.UTC, result.Timestamp.Location())
	assert.Equal(t, target, result.TargetURL)
	assert.InDelta(t, 1.5, result.ScanDuration, 0.001)
}

func TestScanSettleRespectsContext(t *testing.T) {
	t.Parallel()

	s, _ := newTestScanner(&fakePage{}, WithSettleDelay(time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	result, err := s.Scan(ctx, target, DefaultScanOptions())
	require.NoError(t, err)

	settle, ok := result.Step(StepSettle)
	require.True(t, ok)
	assert.False(t, settle.OK)
	assert.Contains(t, result.FailedSteps(), StepSettle)
}

func TestScanStaticEngine(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "_fbp", Value: "1", Domain: "facebook.com"})
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head>
<script src="https://www.googletagmanager.com/gtm.js?id=GTM-1"></script>
<script src="/bundle.js"></script>
</head><body>
<img src="https://www.facebook.com/tr?id=1&ev=PageView" width="1" height="1">
<img src="/logo.png" width="200" height="80">
<iframe src="https://js.stripe.com/v3/"></iframe>
</body></html>`))
	}))
	defer srv.Close()

	launcher := browser.NewStaticLauncher(httpclient.NewClient(), 2)
	s := New(launcher, tracker.NewClassifier(nil), WithSettleDelay(0), WithResponseWindow(time.Second))

	result, err := s.Scan(context.Background(), srv.URL, DefaultScanOptions())
	require.NoError(t, err)
	assert.Empty(t, result.FailedSteps())

	assert.Equal(t, map[string]int{"cookie": 1, "script": 1, "pixel": 1, "iframe": 1}, result.Summary.ByType)
	assert.Equal(t, map[string]int{"low": 3, "medium": 1, "high": 0, "critical": 0}, result.Summary.ByRisk)
	assert.Equal(t, 4, result.Summary.UniqueHosts)

	available, total := launcher.Health()
	assert.Equal(t, total, available, "page released after scan")
}
