package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/olegrjumin/sitescan/internal/browser"
	"github.com/olegrjumin/sitescan/internal/logging"
	"github.com/olegrjumin/sitescan/internal/tracker"
)

// Defaults for scan timing
const (
	DefaultNavigationTimeout = 30 * time.Second
	DefaultSettleDelay       = 2 * time.Second
	DefaultResponseWindow    = time.Second
)

// Step names as they appear in ScanResult.Steps
const (
	StepNavigate = "navigate"
	StepSettle   = "settle"
	StepNetwork  = "network"
)

// Scanner runs one page visit per scan and reports the third-party resources it sees
type Scanner struct {
	launcher   browser.Launcher
	classifier *tracker.Classifier
	logger     *logging.Logger
	detectors  []Detector

	navigationTimeout time.Duration
	settleDelay       time.Duration
	responseWindow    time.Duration
	now               func() time.Time
}

// Option configures a Scanner
type Option func(*Scanner)

// WithLogger sets the logger
func WithLogger(l *logging.Logger) Option {
	return func(s *Scanner) { s.logger = l }
}

// WithNavigationTimeout bounds page navigation
func WithNavigationTimeout(d time.Duration) Option {
	return func(s *Scanner) { s.navigationTimeout = d }
}

// WithSettleDelay sets the pause between navigation and extraction
func WithSettleDelay(d time.Duration) Option {
	return func(s *Scanner) { s.settleDelay = d }
}

// WithResponseWindow sets how long network responses are collected
func WithResponseWindow(d time.Duration) Option {
	return func(s *Scanner) { s.responseWindow = d }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Scanner) { s.now = now }
}

// New creates a new Scanner
func New(launcher browser.Launcher, classifier *tracker.Classifier, opts ...Option) *Scanner {
	if classifier == nil {
		classifier = tracker.NewClassifier(nil)
	}
	s := &Scanner{
		launcher:          launcher,
		classifier:        classifier,
		logger:            logging.Nop(),
		navigationTimeout: DefaultNavigationTimeout,
		settleDelay:       DefaultSettleDelay,
		responseWindow:    DefaultResponseWindow,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.detectors = DefaultDetectors(classifier)
	return s
}

// Scan visits target once and collects third-party resources.
// Navigation and detector failures are recorded in the result's steps and
// the partial result is still returned. An error is returned only when no
// page could be opened.
func (s *Scanner) Scan(ctx context.Context, target string, opts ScanOptions) (*ScanResult, error) {
	start := s.now()
	result := &ScanResult{
		ScanID:    fmt.Sprintf("scan_%d", start.UnixNano()),
		TargetURL: target,
		Timestamp: start.UTC(),
		Resources: []Resource{},
	}
	log := s.logger.With("scan_id", result.ScanID)
	states := newStateMachine(opts.OnState)

	// Step 1: Open an isolated page, closed on every exit path
	page, err := s.launcher.Launch(ctx)
	if err != nil {
		states.to(StateError)
		log.Error("Failed to open page", "url", target, "error", err)
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			log.Warn("Failed to close page", "error", err)
		}
	}()

	pageHost := tracker.ExtractHost(target)
	log.Info("Scan started", "url", target, "page_host", pageHost)

	// Step 2: Navigate, bounded by the scanner's navigation timeout only
	states.to(StateNavigating)
	navErr := s.step(result, log, StepNavigate, func() error {
		return page.Navigate(ctx, target, browser.WaitNetworkIdle, s.navigationTimeout)
	})

	if navErr != nil {
		states.to(StateError)
		skip(result, StepSettle)
		for _, d := range s.detectors {
			skip(result, d.Name())
		}
		skip(result, StepNetwork)
	} else {
		// Step 3: Let late scripts run
		states.to(StateSettling)
		s.step(result, log, StepSettle, func() error {
			return sleep(ctx, s.settleDelay)
		})

		// Step 4: Run each detector; one failing does not stop the rest
		states.to(StateExtracting)
		failed := false
		for _, d := range s.detectors {
			err := s.step(result, log, d.Name(), func() error {
				found, err := d.Detect(ctx, page, pageHost)
				result.Resources = append(result.Resources, found...)
				return err
			})
			failed = failed || err != nil
		}

		// The response listener is attached only now, after the DOM detectors
		network := NewNetworkDetector(s.classifier, s.responseWindow)
		err := s.step(result, log, StepNetwork, func() error {
			found, err := network.Detect(ctx, page, pageHost)
			result.Resources = append(result.Resources, found...)
			return err
		})
		failed = failed || err != nil

		if failed {
			states.to(StateError)
		}
	}

	// Step 5: Aggregate
	states.to(StateAggregating)
	result.Summary = Summarize(result.Resources)
	result.PagesScanned = 1
	result.ScanDuration = s.now().Sub(start).Seconds()
	states.to(StateDone)

	log.Info("Scan completed",
		"url", target,
		"resources", result.Summary.TotalResources,
		"unique_hosts", result.Summary.UniqueHosts,
		"failed_steps", result.FailedSteps(),
		"duration_s", result.ScanDuration,
	)

	return result, nil
}

// step runs fn, records its outcome and logs failures
func (s *Scanner) step(result *ScanResult, log *logging.Logger, name string, fn func() error) error {
	started := time.Now()
	err := fn()
	sr := StepResult{
		Name:       name,
		OK:         err == nil,
		DurationMs: time.Since(started).Milliseconds(),
	}
	if err != nil {
		sr.Error = err.Error()
		log.Error("Scan step failed", "step", name, "error", err)
	}
	result.Steps = append(result.Steps, sr)
	return err
}

func skip(result *ScanResult, name string) {
	result.Steps = append(result.Steps, StepResult{Name: name, Skipped: true})
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
