package report

import (
	"fmt"
	"strings"

	"github.com/ahrav/outcmp/internal/ports"
)

// Supported output formats.
const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// New returns the writer for format. "md" is accepted for markdown.
func New(format string) (ports.ReportWriter, error) {
	switch strings.ToLower(format) {
	case FormatJSON:
		return NewJSONWriter(WithPrettyPrint()), nil
	case FormatMarkdown, "md":
		return NewMarkdownWriter(), nil
	default:
		return nil, fmt.Errorf("unsupported report format %q (want %s or %s)", format, FormatJSON, FormatMarkdown)
	}
}
