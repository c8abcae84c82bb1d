package browser

import (
	"context"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// WaitCondition selects when a navigation counts as finished
type WaitCondition string

const (
	// WaitLoad waits for the load event
	WaitLoad WaitCondition = "load"
	// WaitNetworkIdle waits until the page has had no network activity for a short period
	WaitNetworkIdle WaitCondition = "networkidle"
)

// Cookie is a cookie held by the browsing context
type Cookie struct {
	Name     string
	Domain   string
	Path     string
	Secure   bool
	HTTPOnly bool
}

// Response is a completed network response observed by the page
type Response struct {
	URL         string
	ContentType string
}

// Query is a page extraction. Script is evaluated in the browser and must
// return JSON-compatible data; Select answers the same question from static
// HTML for engines without a JavaScript runtime.
type Query struct {
	Name   string
	Script string
	Select func(doc *goquery.Document, base *url.URL) any
}

// Page is one isolated browsing context
type Page interface {
	// Navigate loads rawURL and blocks until wait is satisfied or timeout elapses
	Navigate(ctx context.Context, rawURL string, wait WaitCondition, timeout time.Duration) error

	// Cookies returns every cookie in the browsing context
	Cookies(ctx context.Context) ([]Cookie, error)

	// Evaluate runs q and decodes its result into out
	Evaluate(ctx context.Context, q Query, out any) error

	// OnResponse subscribes to responses completed from now on.
	// Responses are dropped when the buffer is full. The returned func unsubscribes.
	OnResponse(buffer int) (<-chan Response, func())

	// Close releases the browsing context and its browser
	Close() error
}

// Launcher starts isolated pages
type Launcher interface {
	Launch(ctx context.Context) (Page, error)

	// Health reports free and total page slots
	Health() (available, total int)

	Close() error
}
