package strategies

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/ahrav/outcmp/internal/domain"
	"github.com/ahrav/outcmp/internal/ports"
)

var _ ports.Strategy = FloatEps{}

// numberToken matches a decimal number with optional sign, fraction, and
// exponent.
var numberToken = regexp.MustCompile(`[-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?`)

// FloatEps compares outputs whose text is identical apart from numbers,
// allowing each number to differ from its counterpart by the configured
// tolerance.
type FloatEps struct{}

// Mode returns domain.ModeFloatEps.
func (FloatEps) Mode() domain.Mode { return domain.ModeFloatEps }

// Evaluate defers when the texts have no numbers or differ outside them,
// passes when every number pair is within tolerance, and otherwise fails
// on the first pair that is not.
func (FloatEps) Evaluate(ctx context.Context, submitted, expected string, cfg domain.ComparisonConfig) domain.StrategyVerdict {
	subSpans, subNums := splitNumeric(submitted)
	expSpans, expNums := splitNumeric(expected)

	if len(expNums) == 0 && len(subNums) == 0 {
		return domain.Defer(domain.ModeFloatEps, "no numeric tokens")
	}
	if len(subNums) != len(expNums) || len(subSpans) != len(expSpans) {
		return domain.Defer(domain.ModeFloatEps, "numeric token layout differs")
	}
	for i := range expSpans {
		if subSpans[i] != expSpans[i] {
			return domain.Defer(domain.ModeFloatEps, "non-numeric text differs")
		}
	}
	if ctx.Err() != nil {
		return domain.Defer(domain.ModeFloatEps, "evaluation cancelled")
	}

	for i := range expNums {
		a, errA := parseFloatToken(subNums[i])
		b, errB := parseFloatToken(expNums[i])
		if errors.Is(errA, errOutOfRange) || errors.Is(errB, errOutOfRange) {
			return domain.Defer(domain.ModeFloatEps, fmt.Sprintf("number %d: numeric token out of range", i))
		}
		if errA != nil || errB != nil {
			return domain.Defer(domain.ModeFloatEps, "unparseable numeric token")
		}
		if !withinTolerance(a, b, cfg.FloatEps) {
			return domain.Fail(domain.ModeFloatEps, fmt.Sprintf(
				"number %d: %s != %s (difference %g exceeds eps %g)",
				i, subNums[i], expNums[i], math.Abs(a-b), cfg.FloatEps,
			), LabelFloatEps)
		}
	}
	return domain.Pass(domain.ModeFloatEps, LabelFloatEps)
}

// splitNumeric returns the text between numbers and the numbers themselves.
// len(spans) is always len(numbers)+1.
func splitNumeric(s string) (spans, numbers []string) {
	locs := numberToken.FindAllStringIndex(s, -1)
	spans = make([]string, 0, len(locs)+1)
	numbers = make([]string, 0, len(locs))
	prev := 0
	for _, loc := range locs {
		spans = append(spans, s[prev:loc[0]])
		numbers = append(numbers, s[loc[0]:loc[1]])
		prev = loc[1]
	}
	spans = append(spans, s[prev:])
	return spans, numbers
}

var errOutOfRange = errors.New("numeric token out of range")

// parseFloatToken parses tok as a float64. A token that overflows to an
// infinity has no meaningful distance to its counterpart and is reported
// as errOutOfRange. Underflow to zero is not reported.
func parseFloatToken(tok string) (float64, error) {
	f, err := strconv.ParseFloat(tok, 64)
	if err == nil {
		return f, nil
	}
	if errors.Is(err, strconv.ErrRange) && math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %s", errOutOfRange, tok)
	}
	return 0, err
}

// withinTolerance applies an absolute tolerance, falling back to a relative
// one when the expected magnitude exceeds 1. Infinities must match exactly
// and NaN never matches.
func withinTolerance(submitted, expected, eps float64) bool {
	if math.IsInf(submitted, 0) || math.IsInf(expected, 0) || math.IsNaN(submitted) || math.IsNaN(expected) {
		return submitted == expected
	}
	diff := math.Abs(submitted - expected)
	if diff <= eps {
		return true
	}
	if mag := math.Abs(expected); mag > 1 {
		return diff/mag <= eps
	}
	return false
}
