package browser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireChrome(t *testing.T) {
	t.Helper()
	if os.Getenv("CI") == "true" {
		t.Skip("Skipping browser test in CI")
	}
	if testing.Short() {
		t.Skip("Skipping browser test in short mode")
	}
	if FindChromePath() == "" {
		t.Skip("Chrome not installed")
	}
}

func TestSubscribersDropWhenFull(t *testing.T) {
	t.Parallel()

	s := newSubscribers()
	ch, unsubscribe := s.subscribe(1)

	s.publish(Response{URL: "https://a.example/1"})
	s.publish(Response{URL: "https://a.example/2"})

	got := <-ch
	assert.Equal(t, "https://a.example/1", got.URL)

	unsubscribe()
	unsubscribe()
	_, open := <-ch
	assert.False(t, open)
}

func TestSubscribersAfterClose(t *testing.T) {
	t.Parallel()

	s := newSubscribers()
	before, _ := s.subscribe(4)
	s.closeAll()

	_, open := <-before
	assert.False(t, open)

	after, unsubscribe := s.subscribe(4)
	defer unsubscribe()
	_, open = <-after
	assert.False(t, open)
}

func TestContentTypeHeaderLookup(t *testing.T) {
	t.Parallel()

	resp := &network.Response{
		Headers:  network.Headers{"Content-Type": "application/javascript; charset=utf-8"},
		MimeType: "text/plain",
	}
	assert.Equal(t, "application/javascript; charset=utf-8", contentType(resp))

	resp = &network.Response{Headers: network.Headers{}, MimeType: "image/png"}
	assert.Equal(t, "image/png", contentType(resp))
}

func TestNewChromeLauncherMissingBinary(t *testing.T) {
	t.Parallel()

	_, err := NewChromeLauncher(ChromeOptions{ExecPath: "/nonexistent/chrome"})
	assert.ErrorIs(t, err, ErrChromeNotFound)
}

func TestChromeLauncherFailsFastWhenFull(t *testing.T) {
	t.Parallel()

	launcher, err := NewChromeLauncher(ChromeOptions{PoolSize: 1})
	require.NoError(t, err)

	launcher.inUse = 1
	_, err = launcher.Launch(context.Background())
	assert.ErrorIs(t, err, ErrBrowserUnavailable)

	available, total := launcher.Health()
	assert.Equal(t, 0, available)
	assert.Equal(t, 1, total)
}

func TestChromePageScan(t *testing.T) {
	requireChrome(t)

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "visited", Value: "1"})
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><script src="/app.js"></script></body></html>`))
	})
	mux.HandleFunc("/app.js", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/javascript")
		_, _ = w.Write([]byte(`window.loaded = true;`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	launcher, err := NewChromeLauncher(ChromeOptions{PoolSize: 1})
	require.NoError(t, err)
	defer launcher.Close()

	page, err := launcher.Launch(context.Background())
	require.NoError(t, err)
	defer page.Close()

	require.NoError(t, page.Navigate(context.Background(), srv.URL, WaitNetworkIdle, 30*time.Second))

	var scripts []string
	err = page.Evaluate(context.Background(), Query{
		Name:   "scripts",
		Script: `Array.from(document.scripts).map(s => s.src).filter(Boolean)`,
	}, &scripts)
	require.NoError(t, err)
	assert.Equal(t, []string{srv.URL + "/app.js"}, scripts)

	cookies, err := page.Cookies(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, cookies)
	assert.Equal(t, "visited", cookies[0].Name)

	require.NoError(t, page.Close())
	available, _ := launcher.Health()
	assert.Equal(t, 1, available)
}
