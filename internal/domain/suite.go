package domain

import "time"

// CaseOutcome is the graded result of a single suite case.
type CaseOutcome struct {
	// CaseID identifies the case within its suite.
	CaseID string `json:"case_id"`

	// Result is the comparison record. It is the zero record when Error is set.
	Result ResultRecord `json:"result"`

	// Fingerprint is the SHA-256 of the canonical, duration-free record.
	Fingerprint string `json:"fingerprint,omitempty"`

	// Error describes why the case could not be graded, e.g. a missing
	// submission. Grading errors are reported per case and never abort
	// the suite.
	Error string `json:"error,omitempty"`
}

// Graded reports whether the case produced a comparison result.
func (c CaseOutcome) Graded() bool { return c.Error == "" }

// SuiteReport aggregates the outcomes of one suite run.
type SuiteReport struct {
	Suite    string        `json:"suite"`
	Cases    []CaseOutcome `json:"cases"`
	Passed   int           `json:"passed"`
	Failed   int           `json:"failed"`
	Errored  int           `json:"errored"`
	Duration time.Duration `json:"duration_ns"`
}

// NewSuiteReport tallies the given outcomes. Cases keep the order they
// were supplied in.
func NewSuiteReport(suite string, cases []CaseOutcome, elapsed time.Duration) SuiteReport {
	report := SuiteReport{Suite: suite, Cases: cases, Duration: elapsed}
	for _, c := range cases {
		switch {
		case !c.Graded():
			report.Errored++
		case c.Result.Passed:
			report.Passed++
		default:
			report.Failed++
		}
	}
	return report
}

// Total returns the number of cases in the report.
func (r SuiteReport) Total() int { return len(r.Cases) }

// AllPassed reports whether every case was graded and passed.
func (r SuiteReport) AllPassed() bool { return r.Passed == len(r.Cases) }
