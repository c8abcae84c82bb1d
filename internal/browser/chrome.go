package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
)

// chromePage is a tab in a dedicated headless Chrome process
type chromePage struct {
	ctx     context.Context
	cancel  context.CancelFunc
	release func()

	subs      *subscribers
	closeOnce sync.Once
	closed    chan struct{}
}

func newChromePage(ctx context.Context, cancel context.CancelFunc, release func()) *chromePage {
	p := &chromePage{
		ctx:     ctx,
		cancel:  cancel,
		release: release,
		subs:    newSubscribers(),
		closed:  make(chan struct{}),
	}

	chromedp.ListenTarget(ctx, func(ev any) {
		if e, ok := ev.(*network.EventResponseReceived); ok && e.Response != nil {
			p.subs.publish(Response{
				URL:         e.Response.URL,
				ContentType: contentType(e.Response),
			})
		}
	})

	return p
}

// Navigate loads rawURL. With WaitNetworkIdle it additionally waits for the
// networkIdle lifecycle event of the navigation it started.
func (p *chromePage) Navigate(ctx context.Context, rawURL string, wait WaitCondition, timeout time.Duration) error {
	if p.isClosed() {
		return ErrPageClosed
	}

	navCtx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	idle := make(chan cdp.LoaderID, 16)
	if wait == WaitNetworkIdle {
		chromedp.ListenTarget(navCtx, func(ev any) {
			if e, ok := ev.(*page.EventLifecycleEvent); ok && e.Name == "networkIdle" {
				select {
				case idle <- e.LoaderID:
				default:
				}
			}
		})
	}

	var loaderID cdp.LoaderID
	err := chromedp.Run(navCtx,
		page.SetLifecycleEventsEnabled(true),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, id, errorText, _, err := page.Navigate(rawURL).Do(ctx)
			if err != nil {
				return err
			}
			if errorText != "" {
				return fmt.Errorf("navigate %s: %s", rawURL, errorText)
			}
			loaderID = id
			return nil
		}),
	)

	if err == nil && wait == WaitNetworkIdle {
		err = waitForLoader(navCtx, idle, loaderID)
	}
	if err == nil && wait == WaitLoad {
		err = chromedp.Run(navCtx, chromedp.WaitReady("body", chromedp.ByQuery))
	}

	if err != nil {
		if errors.Is(navCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return fmt.Errorf("%w after %s: %s", ErrNavigationTimeout, timeout, rawURL)
		}
		return err
	}
	return nil
}

func waitForLoader(ctx context.Context, idle <-chan cdp.LoaderID, loaderID cdp.LoaderID) error {
	for {
		select {
		case id := <-idle:
			if id == loaderID || loaderID == "" {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (p *chromePage) Cookies(ctx context.Context) ([]Cookie, error) {
	if p.isClosed() {
		return nil, ErrPageClosed
	}

	var raw []*network.Cookie
	err := p.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		raw, err = storage.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("get cookies: %w", err)
	}

	cookies := make([]Cookie, 0, len(raw))
	for _, c := range raw {
		cookies = append(cookies, Cookie{
			Name:     c.Name,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
		})
	}
	return cookies, nil
}

func (p *chromePage) Evaluate(ctx context.Context, q Query, out any) error {
	if p.isClosed() {
		return ErrPageClosed
	}
	if q.Script == "" {
		return fmt.Errorf("%w: %s has no script", ErrUnsupportedQuery, q.Name)
	}
	if err := p.run(ctx, chromedp.Evaluate(q.Script, out)); err != nil {
		return fmt.Errorf("evaluate %s: %w", q.Name, err)
	}
	return nil
}

func (p *chromePage) OnResponse(buffer int) (<-chan Response, func()) {
	return p.subs.subscribe(buffer)
}

func (p *chromePage) Close() error {
	p.closeOnce.Do(func() {
		close(p.closed)
		p.subs.closeAll()
		p.cancel()
		if p.release != nil {
			p.release()
		}
	})
	return nil
}

func (p *chromePage) isClosed() bool {
	select {
	case <-p.closed:
		return true
	default:
		return false
	}
}

// run executes actions in the tab, bounded by the caller's context
func (p *chromePage) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

// contentType reads the Content-Type header case-insensitively,
// falling back to the MIME type Chrome sniffed
func contentType(resp *network.Response) string {
	for key, value := range resp.Headers {
		if strings.EqualFold(key, "content-type") {
			if s, ok := value.(string); ok {
				return s
			}
		}
	}
	return resp.MimeType
}

// FindChromePath finds a Chrome or Chromium executable
func FindChromePath() string {
	paths := []string{
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
		"/Applications/Chromium.app/Contents/MacOS/Chromium",
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		"/snap/bin/chromium",
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	for _, name := range []string{"google-chrome", "chromium", "chromium-browser", "headless-shell"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	return ""
}
