package scanner

import "github.com/olegrjumin/sitescan/internal/tracker"

// Summarize folds resources into counts. Every risk level is present in
// ByRisk even when zero, so TotalResources always equals the sum of ByRisk
// and the sum of ByType.
func Summarize(resources []Resource) Summary {
	summary := Summary{
		TotalResources: len(resources),
		ByType:         make(map[string]int),
		ByRisk:         make(map[string]int, len(tracker.RiskLevels)),
		ByCategory:     make(map[string]int),
	}
	for _, level := range tracker.RiskLevels {
		summary.ByRisk[string(level)] = 0
	}

	hosts := make(map[string]struct{})
	for _, r := range resources {
		summary.ByType[string(r.Type)]++
		summary.ByRisk[string(r.RiskLevel)]++
		summary.ByCategory[r.Category]++
		hosts[r.Host] = struct{}{}
	}
	summary.UniqueHosts = len(hosts)

	return summary
}
