package browser

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/olegrjumin/sitescan/internal/httpclient"
)

// StaticLauncher serves pages from a plain HTTP fetch parsed with goquery.
// Scripts never run, so only markup-level resources and response cookies are visible.
type StaticLauncher struct {
	client *httpclient.Client

	mu   sync.Mutex
	open int
	size int
}

// NewStaticLauncher creates a launcher over the shared HTTP client.
// size bounds concurrent pages; zero means unbounded.
func NewStaticLauncher(client *httpclient.Client, size int) *StaticLauncher {
	if client == nil {
		client = httpclient.NewClient()
	}
	return &StaticLauncher{client: client, size: size}
}

func (l *StaticLauncher) Launch(ctx context.Context) (Page, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.size > 0 && l.open >= l.size {
		return nil, ErrBrowserUnavailable
	}
	l.open++

	var once sync.Once
	return &staticPage{
		client: l.client,
		release: func() {
			once.Do(func() {
				l.mu.Lock()
				l.open--
				l.mu.Unlock()
			})
		},
	}, nil
}

func (l *StaticLauncher) Health() (available, total int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.size <= 0 {
		return 1, 1
	}
	return l.size - l.open, l.size
}

func (l *StaticLauncher) Close() error { return nil }

type staticPage struct {
	client  *httpclient.Client
	release func()

	mu      sync.Mutex
	doc     *goquery.Document
	base    *url.URL
	cookies []Cookie
	closed  bool
}

func (p *staticPage) Navigate(ctx context.Context, rawURL string, _ WaitCondition, timeout time.Duration) error {
	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := p.client.Fetch(fetchCtx, rawURL)
	if err != nil {
		if errors.Is(fetchCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return fmt.Errorf("%w after %s: %s", ErrNavigationTimeout, timeout, rawURL)
		}
		return err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return fmt.Errorf("parse %s: %w", rawURL, err)
	}
	base, err := url.Parse(resp.URL)
	if err != nil {
		return err
	}
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if ref, err := url.Parse(href); err == nil {
			base = base.ResolveReference(ref)
		}
	}

	cookies := make([]Cookie, 0, len(resp.Cookies))
	for _, c := range resp.Cookies {
		cookies = append(cookies, Cookie{
			Name:     c.Name,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
		})
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPageClosed
	}
	p.doc = doc
	p.base = base
	p.cookies = cookies
	return nil
}

func (p *staticPage) Cookies(_ context.Context) ([]Cookie, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrPageClosed
	}
	out := make([]Cookie, len(p.cookies))
	copy(out, p.cookies)
	return out, nil
}

// Evaluate answers q with its Select function and copies the result into out
// through JSON, as the browser engine would.
func (p *staticPage) Evaluate(_ context.Context, q Query, out any) error {
	p.mu.Lock()
	doc, base, closed := p.doc, p.base, p.closed
	p.mu.Unlock()

	if closed {
		return ErrPageClosed
	}
	if doc == nil {
		return ErrNoDocument
	}
	if q.Select == nil {
		return fmt.Errorf("%w: %s has no selector", ErrUnsupportedQuery, q.Name)
	}

	data, err := json.Marshal(q.Select(doc, base))
	if err != nil {
		return fmt.Errorf("evaluate %s: %w", q.Name, err)
	}
	return json.Unmarshal(data, out)
}

// OnResponse returns a closed channel; static pages load no subresources
func (p *staticPage) OnResponse(_ int) (<-chan Response, func()) {
	ch := make(chan Response)
	close(ch)
	return ch, func() {}
}

func (p *staticPage) Close() error {
	p.mu.Lock()
	p.closed = true
	p.doc = nil
	p.mu.Unlock()
	p.release()
	return nil
}
