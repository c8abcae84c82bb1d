package scanner

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	MinDepth       = 1
	MaxDepth       = 5
	DefaultDepth   = 1
	MinTimeout     = 5
	MaxTimeout     = 120
	DefaultTimeout = 30
)

// ScanOptions are per-request scan parameters.
// Depth and Timeout are validated but the scan always covers the first page
// and bounds only navigation, by the scanner's own navigation timeout.
type ScanOptions struct {
	Depth   int // pages to follow, 1-5
	Timeout int // seconds, 5-120

	// OnState, when set, is called on every state transition
	OnState func(State)
}

// DefaultScanOptions returns depth 1 and a 30 second timeout
func DefaultScanOptions() ScanOptions {
	return ScanOptions{Depth: DefaultDepth, Timeout: DefaultTimeout}
}

// Validate checks depth and timeout ranges
func (o ScanOptions) Validate() error {
	if o.Depth < MinDepth || o.Depth > MaxDepth {
		return fmt.Errorf("%w: got %d", ErrInvalidDepth, o.Depth)
	}
	if o.Timeout < MinTimeout || o.Timeout > MaxTimeout {
		return fmt.Errorf("%w: got %d", ErrInvalidTimeout, o.Timeout)
	}
	return nil
}

// ValidateURL checks that rawURL is an absolute http(s) URL with a host
func ValidateURL(rawURL string) (*url.URL, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidURL)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme == "" {
		return nil, fmt.Errorf("%w: missing scheme", ErrInvalidURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return u, nil
}
