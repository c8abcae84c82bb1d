package browser

import "errors"

var (
	// ErrBrowserUnavailable indicates every browser slot is in use
	ErrBrowserUnavailable = errors.New("browser pool exhausted")

	// ErrNavigationTimeout indicates the page did not finish loading in time
	ErrNavigationTimeout = errors.New("navigation timed out")

	// ErrChromeNotFound indicates no Chrome or Chromium binary could be located
	ErrChromeNotFound = errors.New("chrome executable not found")

	// ErrNoDocument indicates an extraction ran before a successful navigation
	ErrNoDocument = errors.New("no document loaded")

	// ErrUnsupportedQuery indicates the engine cannot answer a query
	ErrUnsupportedQuery = errors.New("query not supported by engine")

	// ErrPageClosed indicates the page was used after Close
	ErrPageClosed = errors.New("page closed")
)
