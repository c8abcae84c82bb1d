// Package report renders scan results and scan diffs for people and tools.
package report

import (
	"io"

	"github.com/olegrjumin/sitescan/internal/diff"
	"github.com/olegrjumin/sitescan/internal/scanner"
)

// Writer outputs scan results in one format
type Writer interface {
	// WriteScan outputs a single scan result
	WriteScan(result *scanner.ScanResult) (int, error)

	// WriteDiff outputs a comparison of two scans
	WriteDiff(d *diff.Diff) (int, error)

	// WriteBatch outputs several scan results, in order
	WriteBatch(results []*scanner.ScanResult) (int, error)
}

type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
