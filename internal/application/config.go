package application

import (
	"maps"

	"github.com/ahrav/outcmp/internal/domain"
)

// SuiteConfig defines a grading suite: a named set of test cases, each
// pairing an expected output with the compare settings used to grade a
// submission against it. It is the on-disk form of the test definitions a
// grading service would otherwise keep in its database.
type SuiteConfig struct {
	// Version specifies the suite schema version using semantic
	// versioning to ensure compatibility across system updates.
	Version string `yaml:"version" validate:"required,semver"`
	// Name is the human-readable identifier of the suite and appears in
	// every report generated from it.
	Name string `yaml:"name" validate:"required,min=1,max=255"`
	// Description explains what the suite exercises.
	Description string `yaml:"description,omitempty" validate:"max=1000"`
	// Defaults are applied to every case that does not set its own
	// compare mode or compare config keys.
	Defaults CaseDefaults `yaml:"defaults,omitempty"`
	// Strategies configures individual built-in strategies, keyed by mode.
	// Keys use the same spellings accepted for compare_mode.
	Strategies map[string]map[string]any `yaml:"strategies,omitempty" validate:"max=16,dive,keys,strategy_mode,endkeys"`
	// Cases lists the test cases to grade. IDs must be unique within the
	// suite because they also name the submission files.
	Cases []CaseConfig `yaml:"cases" validate:"required,min=1,dive"`
}

// CaseDefaults holds suite-wide compare settings.
type CaseDefaults struct {
	// CompareMode is the default compare_mode. Empty means AUTO.
	CompareMode string `yaml:"compare_mode,omitempty" validate:"omitempty,compare_mode"`
	// CompareConfig holds default compare_config keys.
	CompareConfig map[string]any `yaml:"compare_config,omitempty"`
}

// CaseConfig defines a single test case. Exactly one of Expected and
// ExpectedSHA256 is set: the digest form lets a suite reference very
// large expected outputs without embedding them.
type CaseConfig struct {
	// ID identifies the case. The submission for the case is read from
	// "<id>.out", so IDs are restricted to a filename-safe alphabet.
	ID string `yaml:"id" validate:"required,caseid"`
	// Expected is the reference output.
	Expected *string `yaml:"expected,omitempty" validate:"required_without=ExpectedSHA256"`
	// ExpectedSHA256 is the hex digest of the normalized reference output,
	// as produced by LargeOutputDigest.
	ExpectedSHA256 string `yaml:"expected_sha256,omitempty" validate:"omitempty,len=64,hexadecimal,excluded_with=Expected"`
	// CompareMode overrides the suite default compare_mode.
	CompareMode string `yaml:"compare_mode,omitempty" validate:"omitempty,compare_mode"`
	// CompareConfig keys override the suite default keys one by one.
	CompareConfig map[string]any `yaml:"compare_config,omitempty"`
}

// StrategyOptions returns the per-strategy options keyed by canonical mode.
func (s *SuiteConfig) StrategyOptions() map[domain.Mode]map[string]any {
	if len(s.Strategies) == 0 {
		return nil
	}
	out := make(map[domain.Mode]map[string]any, len(s.Strategies))
	for name, opts := range s.Strategies {
		out[domain.ParseMode(name)] = opts
	}
	return out
}

// Settings returns the compare mode and compare config that apply to c
// once suite defaults are merged in.
func (c CaseConfig) Settings(defaults CaseDefaults) (string, map[string]any) {
	mode := c.CompareMode
	if mode == "" {
		mode = defaults.CompareMode
	}

	if len(defaults.CompareConfig) == 0 {
		return mode, c.CompareConfig
	}
	merged := maps.Clone(defaults.CompareConfig)
	maps.Copy(merged, c.CompareConfig)
	return mode, merged
}

// Request builds the comparison request for c. It must only be called for
// cases with an inline expected output.
func (c CaseConfig) Request(defaults CaseDefaults, submitted string) domain.ComparisonRequest {
	mode, config := c.Settings(defaults)
	return domain.ComparisonRequest{
		Submitted:     submitted,
		Expected:      c.Expected,
		CompareMode:   mode,
		CompareConfig: config,
	}
}
