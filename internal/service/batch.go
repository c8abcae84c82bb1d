package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/olegrjumin/sitescan/internal/logging"
	"github.com/olegrjumin/sitescan/internal/scanner"
)

// BatchResult is the outcome of one URL in a batch
type BatchResult struct {
	URL    string
	Result *scanner.ScanResult
	Err    error
}

// BatchScanner scans many URLs with bounded concurrency
type BatchScanner struct {
	service     *Service
	concurrency int
	logger      *logging.Logger
}

// NewBatchScanner creates a batch scanner; concurrency below 1 means 1
func NewBatchScanner(svc *Service, concurrency int, logger *logging.Logger) *BatchScanner {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &BatchScanner{service: svc, concurrency: concurrency, logger: logger}
}

// ScanAll scans every URL. Results keep the input order; a failed URL
// carries its error and does not stop the others. The returned error is
// non-nil only when ctx was cancelled.
func (b *BatchScanner) ScanAll(ctx context.Context, urls []string, depth, timeout int) ([]BatchResult, error) {
	b.logger.Info("Starting batch scan", "total", len(urls), "concurrency", b.concurrency)
	started := time.Now()

	results := make([]BatchResult, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i, u := range urls {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = BatchResult{URL: u, Err: err}
				return err
			}

			result, err := b.service.Scan(gctx, ScanRequest{URL: u, Depth: depth, Timeout: timeout})
			results[i] = BatchResult{URL: u, Result: result, Err: err}
			if err != nil {
				b.logger.Warn("Batch item failed", "url", u, "index", i+1, "error", err)
			}
			return nil
		})
	}

	err := g.Wait()
	b.logger.Info("Batch scan complete", "total", len(urls), "elapsed", time.Since(started))
	return results, err
}
