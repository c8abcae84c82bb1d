package scanner

import (
	"time"

	"github.com/olegrjumin/sitescan/internal/tracker"
)

// Resource is a third-party resource observed while loading a page
type Resource struct {
	Host        string               `json:"host"`
	Type        tracker.ResourceType `json:"type"`
	URL         string               `json:"url"`
	RiskLevel   tracker.RiskLevel    `json:"risk_level"`
	Description string               `json:"description"`
	Category    string               `json:"category"`
}

// Summary holds aggregate counts over a scan's resources
type Summary struct {
	TotalResources int            `json:"total_resources"`
	ByType         map[string]int `json:"by_type"`
	ByRisk         map[string]int `json:"by_risk"`
	ByCategory     map[string]int `json:"by_category"`
	UniqueHosts    int            `json:"unique_hosts"`
}

// StepResult records the outcome of one pipeline step
type StepResult struct {
	Name       string `json:"name"`
	OK         bool   `json:"ok"`
	Skipped    bool   `json:"skipped,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// ScanResult is the outcome of scanning one page
type ScanResult struct {
	ScanID       string       `json:"scan_id"`
	TargetURL    string       `json:"target_url"`
	Timestamp    time.Time    `json:"timestamp"`
	Resources    []Resource   `json:"resources"`
	Summary      Summary      `json:"summary"`
	ScanDuration float64      `json:"scan_duration"` // seconds
	PagesScanned int          `json:"pages_scanned"`
	Steps        []StepResult `json:"steps,omitempty"`
}

// FailedSteps returns the names of steps that ran and failed
func (r *ScanResult) FailedSteps() []string {
	var failed []string
	for _, s := range r.Steps {
		if !s.OK && !s.Skipped {
			failed = append(failed, s.Name)
		}
	}
	return failed
}

// Step returns the named step result
func (r *ScanResult) Step(name string) (StepResult, bool) {
	for _, s := range r.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return StepResult{}, false
}
