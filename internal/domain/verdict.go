package domain

import (
	"slices"
	"time"
)

// ComparisonRequest carries one submitted/expected pair together with the
// per-test configuration record supplied by the surrounding system.
type ComparisonRequest struct {
	// Submitted is the output produced by the learner's program.
	Submitted string `json:"submitted"`

	// Expected is the reference output. A nil Expected is a malformed call
	// and is rejected before any work is done.
	Expected *string `json:"expected" validate:"required"`

	// CompareMode is the free-form compare_mode value. Invalid or empty
	// values resolve to AUTO.
	CompareMode string `json:"compare_mode"`

	// CompareConfig is the free-form compare_config payload.
	CompareConfig map[string]any `json:"compare_config,omitempty"`
}

// NewComparisonRequest builds a request for the common case where both texts
// are known.
func NewComparisonRequest(submitted, expected, mode string, config map[string]any) ComparisonRequest {
	return ComparisonRequest{
		Submitted:     submitted,
		Expected:      &expected,
		CompareMode:   mode,
		CompareConfig: config,
	}
}

// NormalizedText is the immutable output of the normalizer.
type NormalizedText struct {
	// Original is the text as received.
	Original string

	// Text is the normalized form every later stage compares.
	Text string

	// Labels lists the normalizations applied, in order.
	Labels []string
}

// StrategyVerdict is the outcome of one strategy evaluation.
type StrategyVerdict struct {
	// Mode names the strategy that produced this verdict.
	Mode Mode

	// Outcome is PASS, FAIL, or DEFER.
	Outcome Outcome

	// Reason explains the outcome. It is always set for FAIL and may be set
	// for DEFER (for example on timeout).
	Reason string

	// Normalisations lists the extra normalizations the strategy applied.
	Normalisations []string

	// Elapsed is the wall-clock time spent in the strategy.
	Elapsed time.Duration
}

// Pass builds a PASS verdict.
func Pass(mode Mode, labels ...string) StrategyVerdict {
	return StrategyVerdict{Mode: mode, Outcome: OutcomePass, Normalisations: labels}
}

// Fail builds a FAIL verdict. An empty reason is replaced with a generic one
// so that FAIL always carries an explanation.
func Fail(mode Mode, reason string, labels ...string) StrategyVerdict {
	if reason == "" {
		reason = "mismatch under " + string(mode)
	}
	return StrategyVerdict{Mode: mode, Outcome: OutcomeFail, Reason: reason, Normalisations: labels}
}

// Defer builds a DEFER verdict with an optional reason.
func Defer(mode Mode, reason string, labels ...string) StrategyVerdict {
	return StrategyVerdict{Mode: mode, Outcome: OutcomeDefer, Reason: reason, Normalisations: labels}
}

// ComparisonResult is the public output of one comparison.
type ComparisonResult struct {
	// Passed is the overall verdict.
	Passed bool

	// ModeApplied names the stage that decided the verdict: the winning
	// strategy, STRICT, HASH_SHORTCUT, or on failure the strategy that
	// supplied WhyFailed. It is empty when no strategy was applicable.
	ModeApplied Mode

	// Normalisations is the ordered, de-duplicated union of the base
	// normalization labels and the deciding strategy's labels.
	Normalisations []string

	// Attempts lists every strategy verdict in priority order. Stages that
	// never ran because an earlier one short-circuited are absent.
	Attempts []StrategyVerdict

	// WhyFailed is set only when Passed is false.
	WhyFailed string
}

// AttemptRecord is the serialized form of a StrategyVerdict.
type AttemptRecord struct {
	Mode           string   `json:"mode"`
	Passed         *bool    `json:"passed"`
	Reason         *string  `json:"reason"`
	Normalisations []string `json:"normalisations"`
	DurationMs     float64  `json:"duration_ms"`
}

// ResultRecord is the flat record included in a grading response.
type ResultRecord struct {
	Passed                bool            `json:"passed"`
	CompareModeApplied    *string         `json:"compare_mode_applied"`
	NormalisationsApplied []string        `json:"normalisations_applied"`
	ComparisonAttempts    []AttemptRecord `json:"comparison_attempts"`
	WhyFailed             *string         `json:"why_failed"`
}

// Record converts the result into its flat serializable form.
// DEFER attempts serialize passed as null.
func (r ComparisonResult) Record() ResultRecord {
	rec := ResultRecord{
		Passed:                r.Passed,
		NormalisationsApplied: dedupe(r.Normalisations),
		ComparisonAttempts:    make([]AttemptRecord, 0, len(r.Attempts)),
	}
	if r.ModeApplied != "" {
		mode := string(r.ModeApplied)
		rec.CompareModeApplied = &mode
	}
	if !r.Passed && r.WhyFailed != "" {
		why := r.WhyFailed
		rec.WhyFailed = &why
	}

	for _, a := range r.Attempts {
		ar := AttemptRecord{
			Mode:           string(a.Mode),
			Normalisations: a.Normalisations,
			DurationMs:     float64(a.Elapsed.Microseconds()) / 1000.0,
		}
		if ar.Normalisations == nil {
			ar.Normalisations = []string{}
		}
		switch a.Outcome {
		case OutcomePass:
			ar.Passed = new(bool)
			*ar.Passed = true
		case OutcomeFail:
			ar.Passed = new(bool)
		}
		if a.Reason != "" {
			reason := a.Reason
			ar.Reason = &reason
		}
		rec.ComparisonAttempts = append(rec.ComparisonAttempts, ar)
	}

	return rec
}

// WithoutTimings returns a copy of the record with every duration zeroed.
// Two runs on identical inputs produce identical timing-free records.
func (r ResultRecord) WithoutTimings() ResultRecord {
	out := r
	out.ComparisonAttempts = slices.Clone(r.ComparisonAttempts)
	for i := range out.ComparisonAttempts {
		out.ComparisonAttempts[i].DurationMs = 0
	}
	return out
}

// MergeLabels returns the ordered union of the given label lists with
// duplicates removed.
func MergeLabels(lists ...[]string) []string {
	var merged []string
	for _, l := range lists {
		merged = append(merged, l...)
	}
	return dedupe(merged)
}

func dedupe(labels []string) []string {
	out := make([]string, 0, len(labels))
	seen := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}
