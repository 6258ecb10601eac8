// Package report renders comparison results and suite reports.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ahrav/outcmp/internal/domain"
	"github.com/ahrav/outcmp/internal/ports"
)

// JSONWriter renders results as the flat JSON record consumers store.
type JSONWriter struct {
	indent string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithPrettyPrint indents output with two spaces.
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) { w.indent = "  " }
}

// NewJSONWriter creates a JSONWriter. Output is compact unless
// WithPrettyPrint is given.
func NewJSONWriter(opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteResult writes result.Record() followed by a newline.
func (w *JSONWriter) WriteResult(out io.Writer, result domain.ComparisonResult) error {
	return w.encode(out, result.Record())
}

// WriteSuite writes the whole report, one object per case.
func (w *JSONWriter) WriteSuite(out io.Writer, report domain.SuiteReport) error {
	if report.Cases == nil {
		report.Cases = []domain.CaseOutcome{}
	}
	return w.encode(out, report)
}

func (w *JSONWriter) encode(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	if w.indent != "" {
		enc.SetIndent("", w.indent)
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json report: %w", err)
	}
	return nil
}

var _ ports.ReportWriter = (*JSONWriter)(nil)
