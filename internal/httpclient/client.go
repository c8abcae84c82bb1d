package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"

	"golang.org/x/net/publicsuffix"
)

// DefaultMaxBodySize caps how much of a page body is read
const DefaultMaxBodySize = 5 << 20

// DefaultMaxRedirects bounds redirect chains
const DefaultMaxRedirects = 10

// ErrTooManyRedirects is returned when a redirect chain exceeds the limit
var ErrTooManyRedirects = errors.New("too many redirects")

// Client fetches pages over a shared, pooled transport
type Client struct {
	transport    http.RoundTripper
	maxBodySize  int64
	maxRedirects int
	userAgent    string
}

// Option configures a Client
type Option func(*Client)

// WithTransport replaces the pooled transport
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.transport = rt }
}

// WithMaxBodySize sets the body read limit in bytes
func WithMaxBodySize(n int64) Option {
	return func(c *Client) { c.maxBodySize = n }
}

// WithUserAgent sets the default User-Agent
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// Cookie is a cookie set by any response in a fetch, with its effective domain
type Cookie struct {
	Name     string
	Domain   string // cookie Domain attribute, or the response host for host-only cookies
	Path     string
	Secure   bool
	HTTPOnly bool
}

// Response holds a fetched page
type Response struct {
	URL     string // final URL after redirects
	Body    []byte // at most the client's body limit
	Cookies []Cookie
}

// NewClient creates a new HTTP client with the configured transport
func NewClient(opts ...Option) *Client {
	c := &Client{
		transport:    NewTransport(),
		maxBodySize:  DefaultMaxBodySize,
		maxRedirects: DefaultMaxRedirects,
		userAgent:    "sitescan/1.0",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch performs a GET, following redirects with a fresh cookie jar,
// and records every cookie set along the way
func (c *Client) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}

	rec := &recordingTransport{next: c.transport}
	client := &http.Client{
		Transport: rec,
		Jar:       jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= c.maxRedirects {
				return ErrTooManyRedirects
			}
			return nil
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return &Response{
		URL:     resp.Request.URL.String(),
		Body:    body,
		Cookies: rec.snapshot(),
	}, nil
}

// recordingTransport captures Set-Cookie headers from every hop
type recordingTransport struct {
	next http.RoundTripper

	mu      sync.Mutex
	cookies []Cookie
}

func (t *recordingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	host := strings.ToLower(req.URL.Hostname())
	t.mu.Lock()
	for _, hc := range resp.Cookies() {
		domain := hc.Domain
		if domain == "" {
			domain = host
		}
		t.cookies = append(t.cookies, Cookie{
			Name:     hc.Name,
			Domain:   domain,
			Path:     hc.Path,
			Secure:   hc.Secure,
			HTTPOnly: hc.HttpOnly,
		})
	}
	t.mu.Unlock()

	return resp, nil
}

func (t *recordingTransport) snapshot() []Cookie {
	t.mu.Lock()
	defer t.mu.Unlock()
	cookies := make([]Cookie, len(t.cookies))
	copy(cookies, t.cookies)
	return cookies
}
