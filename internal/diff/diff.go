// Package diff compares two scans of the same page.
package diff

import (
	"sort"

	"github.com/olegrjumin/sitescan/internal/scanner"
	"github.com/olegrjumin/sitescan/internal/tracker"
)

// Risk directions between two scans
const (
	DirectionWorsened  = "worsened"
	DirectionImproved  = "improved"
	DirectionUnchanged = "unchanged"
)

// Key identifies a resource across scans
type Key struct {
	Host string               `json:"host"`
	Type tracker.ResourceType `json:"type"`
}

// Regression is a resource present in both scans whose highest risk went up
type Regression struct {
	Key
	Previous tracker.RiskLevel `json:"previous_risk"`
	Current  tracker.RiskLevel `json:"current_risk"`
	Category string            `json:"category"`
}

// Counts summarizes a Diff
type Counts struct {
	TotalNew         int `json:"total_new"`
	TotalRemoved     int `json:"total_removed"`
	TotalRegressions int `json:"total_regressions"`
	Unchanged        int `json:"unchanged"`
}

// Diff is the result of comparing a previous scan with a current one
type Diff struct {
	TargetURL      string             `json:"target_url"`
	PreviousScanID string             `json:"previous_scan_id"`
	CurrentScanID  string             `json:"current_scan_id"`
	New            []scanner.Resource `json:"new"`
	Removed        []scanner.Resource `json:"removed"`
	Regressions    []Regression       `json:"regressions"`
	Counts         Counts             `json:"summary"`
	// Severity is the highest current risk among regressions, empty when there are none
	Severity  tracker.RiskLevel `json:"severity,omitempty"`
	Direction string            `json:"direction"`
}

// HasChanges reports whether anything was added, removed or regressed
func (d *Diff) HasChanges() bool {
	return d.Counts.TotalNew+d.Counts.TotalRemoved+d.Counts.TotalRegressions > 0
}

// entry is the representative resource for a key plus its highest risk
type entry struct {
	resource scanner.Resource
	maxRisk  tracker.RiskLevel
}

func index(resources []scanner.Resource) map[Key]*entry {
	m := make(map[Key]*entry, len(resources))
	for _, r := range resources {
		k := Key{Host: r.Host, Type: r.Type}
		e, ok := m[k]
		if !ok {
			m[k] = &entry{resource: r, maxRisk: r.RiskLevel}
			continue
		}
		if r.RiskLevel.Rank() > e.maxRisk.Rank() {
			e.maxRisk = r.RiskLevel
		}
	}
	return m
}

// Compare diffs two scan results. Either may be nil, which counts as an empty scan.
// Output slices are sorted by host then type.
func Compare(prev, curr *scanner.ScanResult) *Diff {
	if prev == nil {
		prev = &scanner.ScanResult{}
	}
	if curr == nil {
		curr = &scanner.ScanResult{}
	}

	d := &Diff{
		TargetURL:      curr.TargetURL,
		PreviousScanID: prev.ScanID,
		CurrentScanID:  curr.ScanID,
		New:            []scanner.Resource{},
		Removed:        []scanner.Resource{},
		Regressions:    []Regression{},
	}
	if d.TargetURL == "" {
		d.TargetURL = prev.TargetURL
	}

	before := index(prev.Resources)
	after := index(curr.Resources)

	for k, e := range after {
		if _, ok := before[k]; !ok {
			d.New = append(d.New, e.resource)
		}
	}

	for k, old := range before {
		cur, ok := after[k]
		if !ok {
			d.Removed = append(d.Removed, old.resource)
			continue
		}
		if cur.maxRisk.Rank() > old.maxRisk.Rank() {
			d.Regressions = append(d.Regressions, Regression{
				Key:      k,
				Previous: old.maxRisk,
				Current:  cur.maxRisk,
				Category: cur.resource.Category,
			})
			continue
		}
		d.Counts.Unchanged++
	}

	sortResources(d.New)
	sortResources(d.Removed)
	sort.Slice(d.Regressions, func(i, j int) bool {
		return less(d.Regressions[i].Key, d.Regressions[j].Key)
	})

	for _, r := range d.Regressions {
		if r.Current.Rank() > d.Severity.Rank() {
			d.Severity = r.Current
		}
	}

	d.Counts.TotalNew = len(d.New)
	d.Counts.TotalRemoved = len(d.Removed)
	d.Counts.TotalRegressions = len(d.Regressions)
	d.Direction = direction(prev.Summary, curr.Summary)

	return d
}

// direction weighs risk counts so one critical outweighs many lows
func direction(prev, curr scanner.Summary) string {
	weights := map[tracker.RiskLevel]int{
		tracker.RiskCritical: 100,
		tracker.RiskHigh:     50,
		tracker.RiskMedium:   10,
		tracker.RiskLow:      1,
	}

	var before, after int
	for level, w := range weights {
		before += prev.ByRisk[string(level)] * w
		after += curr.ByRisk[string(level)] * w
	}

	switch {
	case after > before:
		return DirectionWorsened
	case after < before:
		return DirectionImproved
	default:
		return DirectionUnchanged
	}
}

func sortResources(rs []scanner.Resource) {
	sort.Slice(rs, func(i, j int) bool {
		return less(Key{rs[i].Host, rs[i].Type}, Key{rs[j].Host, rs[j].Type})
	})
}

func less(a, b Key) bool {
	if a.Host != b.Host {
		return a.Host < b.Host
	}
	return a.Type < b.Type
}
