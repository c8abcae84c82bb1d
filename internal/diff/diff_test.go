package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegrjumin/sitescan/internal/scanner"
	"github.com/olegrjumin/sitescan/internal/tracker"
)

func res(host string, t tracker.ResourceType, risk tracker.RiskLevel) scanner.Resource {
	return scanner.Resource{Host: host, Type: t, RiskLevel: risk, Category: "test", URL: "https://" + host + "/x"}
}

func result(id string, resources ...scanner.Resource) *scanner.ScanResult {
	return &scanner.ScanResult{
		ScanID:    id,
		TargetURL: "https://example.com",
		Resources: resources,
		Summary:   scanner.Summarize(resources),
	}
}

func TestCompareNewAndRemoved(t *testing.T) {
	t.Parallel()

	prev := result("scan_1",
		res("cdn.example", tracker.TypeScript, tracker.RiskLow),
		res("old.example", tracker.TypePixel, tracker.RiskMedium),
	)
	curr := result("scan_2",
		res("cdn.example", tracker.TypeScript, tracker.RiskLow),
		res("new.example", tracker.TypeIframe, tracker.RiskMedium),
		res("a.example", tracker.TypeCookie, tracker.RiskLow),
	)

	d := Compare(prev, curr)

	assert.Equal(t, "scan_1", d.PreviousScanID)
	assert.Equal(t, "scan_2", d.CurrentScanID)
	require.Len(t, d.New, 2)
	assert.Equal(t, "a.example", d.New[0].Host)
	assert.Equal(t, "new.example", d.New[1].Host)
	require.Len(t, d.Removed, 1)
	assert.Equal(t, "old.example", d.Removed[0].Host)
	assert.Empty(t, d.Regressions)
	assert.Empty(t, d.Severity)
	assert.Equal(t, Counts{TotalNew: 2, TotalRemoved: 1, Unchanged: 1}, d.Counts)
	assert.True(t, d.HasChanges())
}

func TestCompareSameHostDifferentTypeIsNew(t *testing.T) {
	t.Parallel()

	prev := result("a", res("tracker.example", tracker.TypeScript, tracker.RiskLow))
	curr := result("b",
		res("tracker.example", tracker.TypeScript, tracker.RiskLow),
		res("tracker.example", tracker.TypePixel, tracker.RiskLow),
	)

	d := Compare(prev, curr)
	require.Len(t, d.New, 1)
	assert.Equal(t, tracker.TypePixel, d.New[0].Type)
}

func TestCompareRegressions(t *testing.T) {
	t.Parallel()

	prev := result("a",
		res("x.example", tracker.TypeScript, tracker.RiskLow),
		res("y.example", tracker.TypeIframe, tracker.RiskMedium),
		res("z.example", tracker.TypeScript, tracker.RiskHigh),
	)
	curr := result("b",
		res("x.example", tracker.TypeScript, tracker.RiskMedium),
		res("y.example", tracker.TypeIframe, tracker.RiskCritical),
		res("z.example", tracker.TypeScript, tracker.RiskLow),
	)

	d := Compare(prev, curr)

	require.Len(t, d.Regressions, 2)
	assert.Equal(t, Key{"x.example", tracker.TypeScript}, d.Regressions[0].Key)
	assert.Equal(t, tracker.RiskLow, d.Regressions[0].Previous)
	assert.Equal(t, tracker.RiskMedium, d.Regressions[0].Current)
	assert.Equal(t, tracker.RiskCritical, d.Severity)
	assert.Equal(t, 1, d.Counts.Unchanged, "a risk decrease is not a regression")
	assert.Equal(t, DirectionWorsened, d.Direction)
}

func TestCompareUsesHighestRiskPerKey(t *testing.T) {
	t.Parallel()

	prev := result("a",
		res("x.example", tracker.TypeScript, tracker.RiskHigh),
		res("x.example", tracker.TypeScript, tracker.RiskLow),
	)
	curr := result("b", res("x.example", tracker.TypeScript, tracker.RiskMedium))

	d := Compare(prev, curr)
	assert.Empty(t, d.Regressions)
	assert.False(t, d.HasChanges())
	assert.Equal(t, DirectionImproved, d.Direction)
}

func TestCompareNilAndIdentical(t *testing.T) {
	t.Parallel()

	curr := result("b", res("x.example", tracker.TypeScript, tracker.RiskLow))

	d := Compare(nil, curr)
	assert.Len(t, d.New, 1)
	assert.Equal(t, "https://example.com", d.TargetURL)

	same := Compare(curr, curr)
	assert.False(t, same.HasChanges())
	assert.Equal(t, DirectionUnchanged, same.Direction)
	assert.NotNil(t, same.New)
	assert.NotNil(t, same.Removed)
	assert.NotNil(t, same.Regressions)
}
