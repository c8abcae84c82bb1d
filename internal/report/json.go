package report

import (
	"encoding/json"
	"io"

	"github.com/olegrjumin/sitescan/internal/diff"
	"github.com/olegrjumin/sitescan/internal/scanner"
)

// JSONWriter outputs results in the same JSON shape the HTTP API returns
type JSONWriter struct {
	baseWriter
	indent bool
}

// JSONWriterOption configures a JSONWriter
type JSONWriterOption func(*JSONWriter)

// WithPrettyPrint enables two-space indentation
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteScan outputs one scan result
func (w *JSONWriter) WriteScan(result *scanner.ScanResult) (int, error) {
	return w.writeJSON(result)
}

// WriteDiff outputs a diff
func (w *JSONWriter) WriteDiff(d *diff.Diff) (int, error) {
	return w.writeJSON(d)
}

// WriteBatch outputs a JSON array of results
func (w *JSONWriter) WriteBatch(results []*scanner.ScanResult) (int, error) {
	if results == nil {
		results = []*scanner.ScanResult{}
	}
	return w.writeJSON(results)
}

func (w *JSONWriter) writeJSON(v interface{}) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}

// ReadScan decodes a scan result previously written by JSONWriter or
// returned by the HTTP API
func ReadScan(r io.Reader) (*scanner.ScanResult, error) {
	var result scanner.ScanResult
	if err := json.NewDecoder(r).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}
