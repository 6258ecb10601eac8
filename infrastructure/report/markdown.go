package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/ahrav/outcmp/internal/domain"
	"github.com/ahrav/outcmp/internal/ports"
)

// fingerprintPrefix is how much of a fingerprint the case table shows.
const fingerprintPrefix = 12

// MarkdownWriter renders results for people reading them in a pull request
// or terminal.
type MarkdownWriter struct{}

// NewMarkdownWriter creates a MarkdownWriter.
func NewMarkdownWriter() *MarkdownWriter { return &MarkdownWriter{} }

// WriteResult writes a summary table and the full attempt trace.
func (w *MarkdownWriter) WriteResult(out io.Writer, result domain.ComparisonResult) error {
	md := markdown.NewMarkdown(out)
	rec := result.Record()

	md.H1("Comparison Result")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Passed", strconv.FormatBool(rec.Passed)},
			{"Mode applied", code(deref(rec.CompareModeApplied))},
			{"Normalisations", codeList(rec.NormalisationsApplied)},
			{"Why failed", cell(deref(rec.WhyFailed))},
		},
	})
	md.PlainText("")

	if rec.Passed {
		md.Tip("Outputs match under " + deref(rec.CompareModeApplied) + ".")
	} else {
		md.Warningf("Outputs differ: %s", deref(rec.WhyFailed))
	}
	md.PlainText("")

	writeAttempts(md, rec.ComparisonAttempts)
	return md.Build()
}

func writeAttempts(md *markdown.Markdown, attempts []domain.AttemptRecord) {
	md.H2("Attempts")
	md.PlainText("")

	if len(attempts) == 0 {
		md.PlainText("No strategy was consulted.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(attempts))
	for _, a := range attempts {
		rows = append(rows, []string{
			a.Mode,
			verdict(a.Passed),
			cell(deref(a.Reason)),
			strconv.FormatFloat(a.DurationMs, 'f', 3, 64),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Mode", "Verdict", "Reason", "Duration (ms)"},
		Rows:   rows,
	})
	md.PlainText("")
}

// WriteSuite writes the totals followed by one row per case.
func (w *MarkdownWriter) WriteSuite(out io.Writer, report domain.SuiteReport) error {
	md := markdown.NewMarkdown(out)

	md.H1("Suite Report: " + report.Suite)
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Result", "Count"},
		Rows: [][]string{
			{"Passed", strconv.Itoa(report.Passed)},
			{"Failed", strconv.Itoa(report.Failed)},
			{"Errored", strconv.Itoa(report.Errored)},
			{"**Total**", "**" + strconv.Itoa(report.Total()) + "**"},
			{"Duration", report.Duration.String()},
		},
	})
	md.PlainText("")

	switch {
	case report.Errored > 0:
		md.Cautionf("%d case(s) could not be graded.", report.Errored)
	case report.Failed > 0:
		md.Warningf("%d of %d case(s) failed.", report.Failed, report.Total())
	default:
		md.Tip("All cases passed.")
	}
	md.PlainText("")

	md.H2("Cases")
	md.PlainText("")
	if len(report.Cases) == 0 {
		md.PlainText("The suite has no cases.")
		return md.Build()
	}

	rows := make([][]string, 0, len(report.Cases))
	for _, c := range report.Cases {
		rows = append(rows, caseRow(c))
	}
	md.Table(markdown.TableSet{
		Header: []string{"Case", "Result", "Mode", "Detail", "Fingerprint"},
		Rows:   rows,
	})
	return md.Build()
}

func caseRow(c domain.CaseOutcome) []string {
	if !c.Graded() {
		return []string{code(c.CaseID), "ERROR", "", cell(c.Error), ""}
	}

	status, detail := "FAIL", deref(c.Result.WhyFailed)
	if c.Result.Passed {
		status = "PASS"
		detail = strings.Join(c.Result.NormalisationsApplied, ", ")
	}
	fp := c.Fingerprint
	if len(fp) > fingerprintPrefix {
		fp = fp[:fingerprintPrefix]
	}
	return []string{
		code(c.CaseID),
		status,
		code(deref(c.Result.CompareModeApplied)),
		cell(detail),
		code(fp),
	}
}

func verdict(passed *bool) string {
	switch {
	case passed == nil:
		return "DEFER"
	case *passed:
		return "PASS"
	default:
		return "FAIL"
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// cell makes s safe to place inside a table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}

func code(s string) string {
	if s == "" {
		return ""
	}
	return fmt.Sprintf("`%s`", strings.ReplaceAll(s, "`", "'"))
}

func codeList(items []string) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = code(it)
	}
	return strings.Join(parts, ", ")
}

var _ ports.ReportWriter = (*MarkdownWriter)(nil)
