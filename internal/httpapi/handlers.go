package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/olegrjumin/sitescan/internal/browser"
	"github.com/olegrjumin/sitescan/internal/scanner"
	"github.com/olegrjumin/sitescan/internal/service"
)

// scanRequest represents the JSON request body for /scan.
// Pointer fields tell an omitted value from an explicit zero.
type scanRequest struct {
	URL     string `json:"url"`
	Depth   *int   `json:"depth,omitempty"`
	Timeout *int   `json:"timeout,omitempty"`
}

// toServiceRequest applies defaults and range-checks the optional fields
func (r scanRequest) toServiceRequest() (service.ScanRequest, error) {
	req := service.ScanRequest{
		URL:     r.URL,
		Depth:   scanner.DefaultDepth,
		Timeout: scanner.DefaultTimeout,
	}
	if r.Depth != nil {
		if *r.Depth < scanner.MinDepth || *r.Depth > scanner.MaxDepth {
			return req, scanner.ErrInvalidDepth
		}
		req.Depth = *r.Depth
	}
	if r.Timeout != nil {
		if *r.Timeout < scanner.MinTimeout || *r.Timeout > scanner.MaxTimeout {
			return req, scanner.ErrInvalidTimeout
		}
		req.Timeout = *r.Timeout
	}
	return req, nil
}

// scanHandler handles POST requests to /scan
func scanHandler(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		var body scanRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "Invalid JSON")
			return
		}
		if body.URL == "" {
			writeError(w, http.StatusUnprocessableEntity, "url is required")
			return
		}

		req, err := body.toServiceRequest()
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}

		result, err := svc.Scan(r.Context(), req)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

// getScanHandler handles GET requests to /scan/{id}
func getScanHandler(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		result, err := svc.Get(r.Context(), r.PathValue("id"))
		if err != nil {
			writeError(w, statusFor(err), "Scan not found")
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// statusFor maps a scan error to its HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, scanner.ErrUnsupportedScheme):
		return http.StatusBadRequest
	case scanner.IsValidationError(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrScanNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrQueueFull):
		return http.StatusTooManyRequests
	case errors.Is(err, browser.ErrBrowserUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, service.ErrQueueTimeout), scanner.IsTimeout(err):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}
