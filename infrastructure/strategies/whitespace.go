package strategies

import (
	"context"
	"strings"
	"unicode"

	"github.com/ahrav/outcmp/internal/domain"
	"github.com/ahrav/outcmp/internal/ports"
)

var _ ports.Strategy = NormaliseWhitespace{}

// NormaliseWhitespace compares outputs whose only differences are in the
// amount of whitespace. It tries a conservative pass that keeps line
// structure and then an aggressive pass that flattens it.
type NormaliseWhitespace struct{}

// Mode returns domain.ModeNormaliseWhitespace.
func (NormaliseWhitespace) Mode() domain.Mode { return domain.ModeNormaliseWhitespace }

// Evaluate passes if either pass makes the texts equal and defers otherwise.
func (NormaliseWhitespace) Evaluate(
	ctx context.Context,
	submitted, expected string,
	_ domain.ComparisonConfig,
) domain.StrategyVerdict {
	if collapseHorizontal(submitted) == collapseHorizontal(expected) {
		return domain.Pass(domain.ModeNormaliseWhitespace, LabelWhitespaceConservative)
	}
	if ctx.Err() != nil {
		return domain.Defer(domain.ModeNormaliseWhitespace, "evaluation cancelled")
	}
	if collapseAll(submitted) == collapseAll(expected) {
		return domain.Pass(domain.ModeNormaliseWhitespace, LabelWhitespaceConservative, LabelWhitespaceAggressive)
	}
	return domain.Defer(domain.ModeNormaliseWhitespace, "")
}

// collapseHorizontal collapses runs of non-newline whitespace to one space
// and trims each line. Blank lines at either end are dropped.
func collapseHorizontal(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	first := true
	for line := range strings.SplitSeq(s, "\n") {
		if !first {
			b.WriteByte('\n')
		}
		first = false
		b.WriteString(strings.Join(strings.FieldsFunc(line, unicode.IsSpace), " "))
	}
	return strings.Trim(b.String(), "\n")
}

// collapseAll collapses every whitespace run, newlines included, into a
// single space.
func collapseAll(s string) string { return strings.Join(strings.Fields(s), " ") }
