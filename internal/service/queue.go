package service

import (
	"context"
	"errors"
	"sync"

	"github.com/olegrjumin/sitescan/internal/scanner"
)

var (
	ErrQueueFull    = errors.New("scan queue is full")
	ErrQueueTimeout = errors.New("queue wait timeout")
	ErrQueueClosed  = errors.New("scan queue is closed")
)

// QueuedScanner puts scans on a bounded queue served by a fixed number of workers,
// one per browser slot, so bursts wait instead of failing on an exhausted pool
type QueuedScanner struct {
	scanner Scanner
	queue   chan *queueRequest

	mu        sync.RWMutex
	closed    bool
	waitGroup sync.WaitGroup
}

type queueRequest struct {
	ctx    context.Context
	target string
	opts   scanner.ScanOptions
	result chan scanResult
}

type scanResult struct {
	result *scanner.ScanResult
	err    error
}

// NewQueuedScanner starts workers over s
func NewQueuedScanner(s Scanner, workers, queueSize int) *QueuedScanner {
	if workers <= 0 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}

	qs := &QueuedScanner{
		scanner: s,
		queue:   make(chan *queueRequest, queueSize),
	}

	for i := 0; i < workers; i++ {
		qs.waitGroup.Add(1)
		go qs.worker()
	}

	return qs
}

// Scan queues the request and waits for its result
func (qs *QueuedScanner) Scan(ctx context.Context, target string, opts scanner.ScanOptions) (*scanner.ScanResult, error) {
	req := &queueRequest{
		ctx:    ctx,
		target: target,
		opts:   opts,
		result: make(chan scanResult, 1),
	}

	qs.mu.RLock()
	if qs.closed {
		qs.mu.RUnlock()
		return nil, ErrQueueClosed
	}
	select {
	case qs.queue <- req:
	case <-ctx.Done():
		qs.mu.RUnlock()
		return nil, ctx.Err()
	default:
		qs.mu.RUnlock()
		return nil, ErrQueueFull
	}
	qs.mu.RUnlock()

	select {
	case res := <-req.result:
		return res.result, res.err
	case <-ctx.Done():
		return nil, ErrQueueTimeout
	}
}

// worker processes requests from the queue
func (qs *QueuedScanner) worker() {
	defer qs.waitGroup.Done()

	for req := range qs.queue {
		// Skip requests whose caller already gave up
		if err := req.ctx.Err(); err != nil {
			req.result <- scanResult{err: err}
			continue
		}

		result, err := qs.scanner.Scan(req.ctx, req.target, req.opts)
		req.result <- scanResult{result: result, err: err}
	}
}

// Close stops accepting scans and waits for queued ones to finish
func (qs *QueuedScanner) Close() error {
	qs.mu.Lock()
	if qs.closed {
		qs.mu.Unlock()
		return nil
	}
	qs.closed = true
	close(qs.queue)
	qs.mu.Unlock()

	qs.waitGroup.Wait()
	return nil
}

// QueueStats returns current queue statistics
func (qs *QueuedScanner) QueueStats() (queued, capacity int) {
	return len(qs.queue), cap(qs.queue)
}
