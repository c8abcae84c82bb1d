package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/olegrjumin/sitescan/internal/diff"
	"github.com/olegrjumin/sitescan/internal/scanner"
	"github.com/olegrjumin/sitescan/internal/tracker"
)

// MarkdownWriter outputs results as GitHub-flavored Markdown
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// riskHeadings orders risk sections from most to least severe
var riskHeadings = []struct {
	level tracker.RiskLevel
	label string
}{
	{tracker.RiskCritical, "🔴 Critical"},
	{tracker.RiskHigh, "🟠 High"},
	{tracker.RiskMedium, "🟡 Medium"},
	{tracker.RiskLow, "🔵 Low"},
}

// WriteScan outputs one scan result
func (w *MarkdownWriter) WriteScan(result *scanner.ScanResult) (int, error) {
	md := markdown.NewMarkdown(w.output)
	w.writeScan(md, result, 1)
	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// WriteBatch outputs each result as its own section
func (w *MarkdownWriter) WriteBatch(results []*scanner.ScanResult) (int, error) {
	md := markdown.NewMarkdown(w.output)
	md.H1("Third-Party Resource Scan")
	md.PlainText("")

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			cell(r.TargetURL),
			strconv.Itoa(r.Summary.TotalResources),
			strconv.Itoa(r.Summary.UniqueHosts),
			highestRisk(r.Summary),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Resources", "Hosts", "Highest Risk"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, r := range results {
		w.writeScan(md, r, 2)
	}
	w.writeFooter(md)
	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeScan(md *markdown.Markdown, result *scanner.ScanResult, level int) {
	title := "Scan Report: " + result.TargetURL
	if level == 1 {
		md.H1(title)
	} else {
		md.H2(title)
	}
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Scan ID", "`" + result.ScanID + "`"},
			{"Scanned At", result.Timestamp.Format("2006-01-02 15:04:05 MST")},
			{"Duration", formatSeconds(result.ScanDuration)},
			{"Pages Scanned", strconv.Itoa(result.PagesScanned)},
			{"Status", statusText(result)},
		},
	})
	md.PlainText("")

	w.writeRiskSummary(md, result.Summary)
	w.writeResources(md, result.Resources)
	w.writeSteps(md, result.Steps)
}

func (w *MarkdownWriter) writeRiskSummary(md *markdown.Markdown, s scanner.Summary) {
	md.H3("Risk Summary")
	md.PlainText("")

	rows := make([][]string, 0, len(riskHeadings)+1)
	for _, h := range riskHeadings {
		rows = append(rows, []string{h.label, strconv.Itoa(s.ByRisk[string(h.level)])})
	}
	rows = append(rows, []string{"**Total**", "**" + strconv.Itoa(s.TotalResources) + "**"})
	md.Table(markdown.TableSet{Header: []string{"Risk", "Count"}, Rows: rows})
	md.PlainText("")

	if s.TotalResources > 0 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Risk Distribution"),
			piechart.WithShowData(true),
		)
		for _, h := range riskHeadings {
			if n := s.ByRisk[string(h.level)]; n > 0 {
				chart.LabelAndIntValue(titleCase(h.level), uint64(n))
			}
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}

	switch {
	case s.ByRisk[string(tracker.RiskCritical)] > 0:
		md.Cautionf("%d critical-risk resource(s) found.", s.ByRisk[string(tracker.RiskCritical)])
	case s.ByRisk[string(tracker.RiskHigh)] > 0:
		md.Warningf("%d high-risk resource(s) found.", s.ByRisk[string(tracker.RiskHigh)])
	case s.TotalResources > 0:
		md.Note("Only low and medium risk resources found.")
	default:
		md.Tip("No third-party resources detected.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeResources(md *markdown.Markdown, resources []scanner.Resource) {
	md.H3("Resources")
	md.PlainText("")

	if len(resources) == 0 {
		md.PlainText("No third-party resources detected.")
		md.PlainText("")
		return
	}

	for _, h := range riskHeadings {
		var rows [][]string
		for _, r := range resources {
			if r.RiskLevel != h.level {
				continue
			}
			rows = append(rows, []string{cell(r.Host), string(r.Type), cell(r.Category), cell(truncate(r.URL, 60))})
		}
		if len(rows) == 0 {
			continue
		}

		md.PlainTextf("#### %s (%d)", h.label, len(rows))
		md.PlainText("")
		md.Table(markdown.TableSet{
			Header: []string{"Host", "Type", "Category", "URL"},
			Rows:   rows,
		})
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeSteps(md *markdown.Markdown, steps []scanner.StepResult) {
	if len(steps) == 0 {
		return
	}

	rows := make([][]string, 0, len(steps))
	for _, s := range steps {
		status := "✅"
		switch {
		case s.Skipped:
			status = "⏭️ skipped"
		case !s.OK:
			status = "❌ " + cell(s.Error)
		}
		rows = append(rows, []string{s.Name, status, strconv.FormatInt(s.DurationMs, 10)})
	}

	md.H3("Steps")
	md.PlainText("")
	md.Table(markdown.TableSet{Header: []string{"Step", "Status", "Duration (ms)"}, Rows: rows})
	md.PlainText("")
}

// WriteDiff outputs a comparison of two scans
func (w *MarkdownWriter) WriteDiff(d *diff.Diff) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Scan Comparison: " + d.TargetURL)
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Previous Scan", "`" + d.PreviousScanID + "`"},
			{"Current Scan", "`" + d.CurrentScanID + "`"},
			{"Risk Direction", d.Direction},
			{"New", strconv.Itoa(d.Counts.TotalNew)},
			{"Removed", strconv.Itoa(d.Counts.TotalRemoved)},
			{"Regressions", strconv.Itoa(d.Counts.TotalRegressions)},
			{"Unchanged", strconv.Itoa(d.Counts.Unchanged)},
		},
	})
	md.PlainText("")

	if d.Severity != "" {
		md.Warningf("Risk increased for %d resource(s); highest current risk is %s.", d.Counts.TotalRegressions, d.Severity)
		md.PlainText("")
	}

	if len(d.Regressions) > 0 {
		rows := make([][]string, 0, len(d.Regressions))
		for _, r := range d.Regressions {
			rows = append(rows, []string{cell(r.Host), string(r.Type), string(r.Previous), string(r.Current)})
		}
		md.H2(fmt.Sprintf("Regressions (%d)", len(d.Regressions)))
		md.PlainText("")
		md.Table(markdown.TableSet{Header: []string{"Host", "Type", "Previous", "Current"}, Rows: rows})
		md.PlainText("")
	}

	if len(d.New) > 0 {
		md.H2(fmt.Sprintf("New Resources (%d)", len(d.New)))
		md.PlainText("")
		items := make([]string, 0, len(d.New))
		for _, r := range d.New {
			items = append(items, fmt.Sprintf("**[%s]** %s `%s`", r.RiskLevel, r.Host, r.Type))
		}
		md.BulletList(items...)
		md.PlainText("")
	}

	if len(d.Removed) > 0 {
		md.H2(fmt.Sprintf("Removed Resources (%d)", len(d.Removed)))
		md.PlainText("")
		items := make([]string, 0, len(d.Removed))
		for _, r := range d.Removed {
			items = append(items, fmt.Sprintf("~~%s `%s`~~", r.Host, r.Type))
		}
		md.BulletList(items...)
		md.PlainText("")
	}

	if !d.HasChanges() {
		md.Tip("No changes between the two scans.")
		md.PlainText("")
	}

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by sitescan*")
}

func statusText(result *scanner.ScanResult) string {
	failed := result.FailedSteps()
	if len(failed) == 0 {
		return "✅ Complete"
	}
	return "⚠️ Partial (failed: " + strings.Join(failed, ", ") + ")"
}

func highestRisk(s scanner.Summary) string {
	for _, h := range riskHeadings {
		if s.ByRisk[string(h.level)] > 0 {
			return string(h.level)
		}
	}
	return "-"
}

func formatSeconds(s float64) string {
	return (time.Duration(s * float64(time.Second))).Round(time.Millisecond).String()
}

func titleCase(level tracker.RiskLevel) string {
	return cases.Title(language.English).String(string(level))
}

// cell escapes pipes so values cannot break table columns
func cell(s string) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(s, "|", `\|`)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
