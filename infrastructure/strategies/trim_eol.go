package strategies

import (
	"context"
	"strings"

	"github.com/ahrav/outcmp/internal/domain"
	"github.com/ahrav/outcmp/internal/ports"
)

var _ ports.Strategy = TrimEOL{}

// TrimEOL ignores trailing whitespace on every line and at the end of the
// output. It never fails: a mismatch after trimming means some other
// strategy should decide.
type TrimEOL struct{}

// Mode returns domain.ModeTrimEOL.
func (TrimEOL) Mode() domain.Mode { return domain.ModeTrimEOL }

// Evaluate compares both texts after trimming line ends.
func (TrimEOL) Evaluate(ctx context.Context, submitted, expected string, _ domain.ComparisonConfig) domain.StrategyVerdict {
	if trimLineEnds(submitted) == trimLineEnds(expected) {
		return domain.Pass(domain.ModeTrimEOL, LabelTrimEOL)
	}
	if ctx.Err() != nil {
		return domain.Defer(domain.ModeTrimEOL, "evaluation cancelled")
	}
	return domain.Defer(domain.ModeTrimEOL, "")
}

// lineEndSpace is the set trimmed from line ends. Other Unicode spaces
// such as U+00A0 are content.
const lineEndSpace = " \t\r\n"

// trimLineEnds removes trailing spaces and tabs from each line and trailing
// blank lines from the text.
func trimLineEnds(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for line := range strings.SplitSeq(s, "\n") {
		b.WriteString(strings.TrimRight(line, lineEndSpace))
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), lineEndSpace)
}
