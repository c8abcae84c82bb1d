package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/olegrjumin/sitescan/internal/logging"
	"github.com/olegrjumin/sitescan/internal/scanner"
)

// ErrScanNotFound is returned for every lookup; scan results are not stored
var ErrScanNotFound = errors.New("scan not found")

// Scanner runs a single scan
type Scanner interface {
	Scan(ctx context.Context, target string, opts scanner.ScanOptions) (*scanner.ScanResult, error)
}

// Recorder observes finished scans
type Recorder interface {
	ObserveScan(result *scanner.ScanResult, err error)
}

// ScanRequest is a request to scan one URL
type ScanRequest struct {
	URL     string
	Depth   int
	Timeout int // seconds
}

// Service provides the business logic layer for scanning
// It sits between the HTTP transport layer and the scanner
type Service struct {
	scanner  Scanner
	logger   *logging.Logger
	recorder Recorder
}

// New creates a new Service instance. recorder may be nil.
func New(s Scanner, logger *logging.Logger, recorder Recorder) *Service {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Service{
		scanner:  s,
		logger:   logger,
		recorder: recorder,
	}
}

// Validate checks a request and fills in default depth and timeout
func (s *Service) Validate(req *ScanRequest) (scanner.ScanOptions, error) {
	if _, err := scanner.ValidateURL(req.URL); err != nil {
		return scanner.ScanOptions{}, err
	}

	opts := scanner.DefaultScanOptions()
	if req.Depth != 0 {
		opts.Depth = req.Depth
	}
	if req.Timeout != 0 {
		opts.Timeout = req.Timeout
	}
	if err := opts.Validate(); err != nil {
		return scanner.ScanOptions{}, err
	}
	return opts, nil
}

// Scan validates the request and scans the page.
// The request timeout is validated but does not bound the scan.
func (s *Service) Scan(ctx context.Context, req ScanRequest) (*scanner.ScanResult, error) {
	opts, err := s.Validate(&req)
	if err != nil {
		s.logger.Warn("Rejected scan request", "url", req.URL, "error", err)
		return nil, err
	}
	return s.run(ctx, req.URL, opts)
}

func (s *Service) run(ctx context.Context, target string, opts scanner.ScanOptions) (*scanner.ScanResult, error) {
	s.logger.Info("Scanning URL", "url", target, "depth", opts.Depth, "timeout", opts.Timeout)

	result, err := s.scanner.Scan(ctx, target, opts)
	if s.recorder != nil {
		s.recorder.ObserveScan(result, err)
	}
	if err != nil {
		s.logger.Error("Scan failed", "url", target, "error", err)
		return nil, fmt.Errorf("scan %s: %w", target, err)
	}

	s.logger.Info("Scan completed",
		"url", target,
		"scan_id", result.ScanID,
		"resources", result.Summary.TotalResources,
		"failed_steps", len(result.FailedSteps()),
		"duration_s", result.ScanDuration,
	)
	return result, nil
}

// Get looks up a past scan. Results are never stored, so it always fails.
func (s *Service) Get(_ context.Context, scanID string) (*scanner.ScanResult, error) {
	return nil, fmt.Errorf("%w: %s", ErrScanNotFound, scanID)
}
