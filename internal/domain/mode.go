// Package domain contains pure, dependency-free domain models and types
// for the output comparison engine.
package domain

import "strings"

// Mode names a comparison stage or strategy. The set is closed: every
// strategy the engine can rank or force is one of the constants below, and
// the priority order used for tie-breaking is fixed by RankedModes.
type Mode string

// Known comparison modes.
const (
	// ModeAuto runs the fast paths followed by every ranked strategy.
	ModeAuto Mode = "AUTO"

	// ModeStrict is the byte-exact fast path on normalized text.
	ModeStrict Mode = "STRICT"

	// ModeHashShortcut is the SHA-256 fast path for large outputs.
	// It is never forced and never ranked.
	ModeHashShortcut Mode = "HASH_SHORTCUT"

	// ModeTrimEOL ignores trailing whitespace on each line and at the end.
	ModeTrimEOL Mode = "TRIM_EOL"

	// ModeNormaliseWhitespace collapses whitespace runs conservatively,
	// then aggressively.
	ModeNormaliseWhitespace Mode = "NORMALISE_WHITESPACE"

	// ModeCanonicalLiteral compares outputs parsed as nested data literals.
	ModeCanonicalLiteral Mode = "CANONICAL_LITERAL"

	// ModeFloatEps compares numeric tokens within a tolerance.
	ModeFloatEps Mode = "FLOAT_EPS"

	// ModeTokenSet compares whitespace-separated tokens as multisets.
	ModeTokenSet Mode = "TOKEN_SET"
)

// RankedModes lists the strategy pool in priority order. Index 0 has the
// highest priority. The slice must not be modified.
var RankedModes = []Mode{
	ModeTrimEOL,
	ModeNormaliseWhitespace,
	ModeCanonicalLiteral,
	ModeFloatEps,
	ModeTokenSet,
}

// modeAliases maps alternate spellings accepted from test definitions onto
// their canonical mode.
var modeAliases = map[string]Mode{
	"CANONICAL_PY_LITERAL": ModeCanonicalLiteral,
	"NORMALIZE_WHITESPACE": ModeNormaliseWhitespace,
	"WHITESPACE":           ModeNormaliseWhitespace,
	"FLOAT":                ModeFloatEps,
	"TOKENS":               ModeTokenSet,
}

// Priority returns the rank of m within RankedModes and true, or -1 and
// false when m is not a ranked strategy.
func (m Mode) Priority() (int, bool) {
	for i, ranked := range RankedModes {
		if ranked == m {
			return i, true
		}
	}
	return -1, false
}

// IsRanked reports whether m takes part in the AUTO fan-out.
func (m Mode) IsRanked() bool {
	_, ok := m.Priority()
	return ok
}

// IsForcible reports whether m can be requested as a forced compare mode.
func (m Mode) IsForcible() bool { return m == ModeStrict || m.IsRanked() }

// String returns the mode name.
func (m Mode) String() string { return string(m) }

// ParseMode coerces a free-form compare_mode value into a Mode.
// Matching is case-insensitive and ignores surrounding whitespace.
// Empty, unknown, or non-forcible values resolve to ModeAuto; this function
// never fails.
func ParseMode(value string) Mode {
	candidate := strings.ToUpper(strings.TrimSpace(value))
	if candidate == "" {
		return ModeAuto
	}
	if alias, ok := modeAliases[candidate]; ok {
		return alias
	}
	m := Mode(candidate)
	if m.IsForcible() {
		return m
	}
	return ModeAuto
}

// Outcome is the tagged result of one strategy evaluation.
type Outcome int

// Strategy outcomes.
const (
	// OutcomeDefer means the strategy does not apply or cannot decide.
	OutcomeDefer Outcome = iota
	// OutcomePass means the strategy judged the outputs equivalent.
	OutcomePass
	// OutcomeFail means the strategy found a definite mismatch.
	OutcomeFail
)

// String returns the upper-case outcome name used in traces and metrics.
func (o Outcome) String() string {
	switch o {
	case OutcomePass:
		return "PASS"
	case OutcomeFail:
		return "FAIL"
	default:
		return "DEFER"
	}
}
