package scanclient

import (
	"errors"
	"fmt"
	"net/http"
)

// Errors returned by Client, matched with errors.Is
var (
	ErrTimeout        = errors.New("scanner service timeout: the target website took too long to load")
	ErrInvalidURL     = errors.New("invalid URL")
	ErrInvalidRequest = errors.New("invalid scan request")
	ErrNotFound       = errors.New("scan result not found")
	ErrBusy           = errors.New("scanner service is busy")
	ErrServer         = errors.New("scanner service error")
	ErrUnavailable    = errors.New("scanner service is not available")
)

// APIError is a non-200 response from the scan service
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s (status %d)", e.kind(), e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.kind(), e.Detail)
}

// Unwrap maps the status code onto one of the package errors
func (e *APIError) Unwrap() error {
	return e.kind()
}

func (e *APIError) kind() error {
	switch {
	case e.StatusCode == http.StatusRequestTimeout:
		return ErrTimeout
	case e.StatusCode == http.StatusBadRequest:
		return ErrInvalidURL
	case e.StatusCode == http.StatusUnprocessableEntity:
		return ErrInvalidRequest
	case e.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case e.StatusCode == http.StatusTooManyRequests, e.StatusCode == http.StatusServiceUnavailable:
		return ErrBusy
	default:
		return ErrServer
	}
}
