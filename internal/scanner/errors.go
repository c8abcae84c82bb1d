package scanner

import (
	"context"
	"errors"
	"net"

	"github.com/olegrjumin/sitescan/internal/browser"
)

// Request validation errors
var (
	ErrInvalidURL        = errors.New("invalid URL")
	ErrUnsupportedScheme = errors.New("URL must use http or https")
	ErrInvalidDepth      = errors.New("depth must be between 1 and 5")
	ErrInvalidTimeout    = errors.New("timeout must be between 5 and 120 seconds")
)

// IsTimeout reports whether err is a deadline, a network timeout,
// or a navigation that ran out of time
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, browser.ErrNavigationTimeout) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

// IsValidationError reports whether err came from request validation
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidURL) ||
		errors.Is(err, ErrUnsupportedScheme) ||
		errors.Is(err, ErrInvalidDepth) ||
		errors.Is(err, ErrInvalidTimeout)
}
