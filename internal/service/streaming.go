package service

import (
	"context"
	"fmt"

	"github.com/olegrjumin/sitescan/internal/logging"
	"github.com/olegrjumin/sitescan/internal/scanner"
)

// Stream event stages
const (
	StageState    = "state"
	StageComplete = "complete"
	StageError    = "error"
)

// StreamEvent represents a progressive event during a scan
type StreamEvent struct {
	Stage   string      `json:"stage"`   // "state", "complete", "error"
	Message string      `json:"message"` // Human-readable message
	Data    interface{} `json:"data"`    // State name, final result, or error detail
}

// StreamingService wraps the standard Service to provide streaming capabilities
type StreamingService struct {
	service *Service
	logger  *logging.Logger
}

// NewStreamingService creates a new StreamingService
func NewStreamingService(svc *Service, logger *logging.Logger) *StreamingService {
	if logger == nil {
		logger = logging.Nop()
	}
	return &StreamingService{
		service: svc,
		logger:  logger,
	}
}

// ScanStreaming scans req and emits one event per state change followed by
// a complete or error event. The channel closes when the scan ends.
func (s *StreamingService) ScanStreaming(ctx context.Context, req ScanRequest) <-chan StreamEvent {
	events := make(chan StreamEvent, 16)

	go func() {
		defer close(events)

		send := func(evt StreamEvent) bool {
			select {
			case events <- evt:
				return true
			case <-ctx.Done():
				return false
			}
		}

		opts, err := s.service.Validate(&req)
		if err != nil {
			send(StreamEvent{Stage: StageError, Message: err.Error(), Data: map[string]string{"url": req.URL}})
			return
		}

		opts.OnState = func(st scanner.State) {
			send(StreamEvent{
				Stage:   StageState,
				Message: fmt.Sprintf("Scan %s", st),
				Data:    map[string]string{"state": string(st)},
			})
		}

		result, err := s.service.run(ctx, req.URL, opts)
		if err != nil {
			s.logger.Error("Streaming scan failed", "url", req.URL, "error", err)
			send(StreamEvent{Stage: StageError, Message: err.Error(), Data: map[string]string{"url": req.URL}})
			return
		}

		send(StreamEvent{
			Stage:   StageComplete,
			Message: fmt.Sprintf("Found %d third-party resources", result.Summary.TotalResources),
			Data:    result,
		})
	}()

	return events
}
