package browser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegrjumin/sitescan/internal/httpclient"
)

const fixturePage = `<!doctype html>
<html><head>
<script src="https://www.google-analytics.com/analytics.js"></script>
<script src="/local.js"></script>
</head><body>
<img src="//pixel.tracker.example/p.gif" width="1" height="1">
</body></html>`

var scriptSrcs = Query{
	Name: "scripts",
	Select: func(doc *goquery.Document, base *url.URL) any {
		var out []string
		doc.Find("script[src]").Each(func(_ int, s *goquery.Selection) {
			src, _ := s.Attr("src")
			ref, err := url.Parse(src)
			if err == nil {
				out = append(out, base.ResolveReference(ref).String())
			}
		})
		return out
	},
}

func fixtureServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "_ga", Value: "1", Domain: "tracker.example"})
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "2"})
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(fixturePage))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestStaticPageEvaluate(t *testing.T) {
	t.Parallel()

	srv := fixtureServer(t)
	launcher := NewStaticLauncher(httpclient.NewClient(), 0)

	page, err := launcher.Launch(context.Background())
	require.NoError(t, err)
	defer page.Close()

	require.NoError(t, page.Navigate(context.Background(), srv.URL, WaitNetworkIdle, 5*time.Second))

	var scripts []string
	require.NoError(t, page.Evaluate(context.Background(), scriptSrcs, &scripts))
	assert.Equal(t, []string{"https://www.google-analytics.com/analytics.js", srv.URL + "/local.js"}, scripts)

	cookies, err := page.Cookies(context.Background())
	require.NoError(t, err)
	require.Len(t, cookies, 2)
	assert.Equal(t, "tracker.example", cookies[0].Domain)
	assert.Equal(t, "127.0.0.1", cookies[1].Domain)
}

func TestStaticPageBeforeNavigate(t *testing.T) {
	t.Parallel()

	page, err := NewStaticLauncher(nil, 0).Launch(context.Background())
	require.NoError(t, err)
	defer page.Close()

	var out []string
	assert.ErrorIs(t, page.Evaluate(context.Background(), scriptSrcs, &out), ErrNoDocument)
}

func TestStaticPageUnsupportedQuery(t *testing.T) {
	t.Parallel()

	srv := fixtureServer(t)
	page, err := NewStaticLauncher(nil, 0).Launch(context.Background())
	require.NoError(t, err)
	defer page.Close()

	require.NoError(t, page.Navigate(context.Background(), srv.URL, WaitLoad, 5*time.Second))

	var out any
	err = page.Evaluate(context.Background(), Query{Name: "js-only", Script: "1+1"}, &out)
	assert.ErrorIs(t, err, ErrUnsupportedQuery)
}

func TestStaticPageNavigationTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	page, err := NewStaticLauncher(nil, 0).Launch(context.Background())
	require.NoError(t, err)
	defer page.Close()

	err = page.Navigate(context.Background(), srv.URL, WaitNetworkIdle, 50*time.Millisecond)
	assert.ErrorIs(t, err, ErrNavigationTimeout)
}

func TestStaticResponsesClosed(t *testing.T) {
	t.Parallel()

	page, err := NewStaticLauncher(nil, 0).Launch(context.Background())
	require.NoError(t, err)
	defer page.Close()

	ch, unsubscribe := page.OnResponse(8)
	defer unsubscribe()
	_, open := <-ch
	assert.False(t, open)
}

func TestStaticLauncherSlots(t *testing.T) {
	t.Parallel()

	launcher := NewStaticLauncher(nil, 1)
	first, err := launcher.Launch(context.Background())
	require.NoError(t, err)

	_, err = launcher.Launch(context.Background())
	assert.ErrorIs(t, err, ErrBrowserUnavailable)

	available, total := launcher.Health()
	assert.Equal(t, 0, available)
	assert.Equal(t, 1, total)

	require.NoError(t, first.Close())
	require.NoError(t, first.Close())

	available, _ = launcher.Health()
	assert.Equal(t, 1, available)
}
