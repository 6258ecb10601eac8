package strategies

import (
	"context"
	"fmt"
	"strings"

	"github.com/ahrav/outcmp/internal/domain"
	"github.com/ahrav/outcmp/internal/ports"
)

var _ ports.Strategy = Strict{}

// Strict is byte equality on normalized text. The orchestrator runs it as a
// fast path before anything else; as a strategy it is only consulted when
// STRICT is forced, to explain the mismatch.
type Strict struct{}

// Mode returns domain.ModeStrict.
func (Strict) Mode() domain.Mode { return domain.ModeStrict }

// Evaluate passes on byte equality and otherwise fails with the first
// differing line.
func (Strict) Evaluate(_ context.Context, submitted, expected string, _ domain.ComparisonConfig) domain.StrategyVerdict {
	if submitted == expected {
		return domain.Pass(domain.ModeStrict)
	}
	return domain.Fail(domain.ModeStrict, describeLineMismatch(submitted, expected))
}

// describeLineMismatch locates the first line that differs between the two
// texts and renders both sides.
func describeLineMismatch(submitted, expected string) string {
	subLines := strings.Split(submitted, "\n")
	expLines := strings.Split(expected, "\n")

	for i := 0; i < len(subLines) && i < len(expLines); i++ {
		if subLines[i] != expLines[i] {
			return fmt.Sprintf("line %d: %s != %s",
				i+1,
				truncate(fmt.Sprintf("%q", subLines[i]), maxRenderedValue),
				truncate(fmt.Sprintf("%q", expLines[i]), maxRenderedValue),
			)
		}
	}
	return fmt.Sprintf("line count %d != %d", len(subLines), len(expLines))
}
