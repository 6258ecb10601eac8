// Package application provides the comparison orchestration, configuration
// resolution, and suite grading for the output comparison engine.
package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/outcmp/internal/domain"
)

// TestSuiteConfig_UnmarshalYAML tests the YAML unmarshaling of SuiteConfig.
// This test focuses on the unmarshaling process itself, not validation.
func TestSuiteConfig_UnmarshalYAML(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
		verify  func(t *testing.T, config *SuiteConfig)
	}{
		{
			name: "valid minimal config",
			yaml: `
version: "1.0.0"
name: intro
cases:
  - id: hello
    expected: "Hello, world!"
`,
			verify: func(t *testing.T, config *SuiteConfig) {
				assert.Equal(t, "1.0.0", config.Version)
				assert.Equal(t, "intro", config.Name)
				require.Len(t, config.Cases, 1)
				require.NotNil(t, config.Cases[0].Expected)
				assert.Equal(t, "Hello, world!", *config.Cases[0].Expected)
			},
		},
		{
			name: "defaults, strategies, and nested overrides",
			yaml: `
version: "2.1.0"
name: numerics
defaults:
  compare_mode: FLOAT_EPS
  compare_config:
    float:
      eps: 0.001
strategies:
  TOKEN_SET:
    max_listed: 4
cases:
  - id: pi
    expected: |
      3.14159
    compare_config:
      float_eps: 0.01
  - id: big
    expected_sha256: e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855
`,
			verify: func(t *testing.T, config *SuiteConfig) {
				assert.Equal(t, "FLOAT_EPS", config.Defaults.CompareMode)
				assert.Equal(t, map[string]any{"eps": 0.001}, config.Defaults.CompareConfig["float"])
				assert.Equal(t, 4, config.Strategies["TOKEN_SET"]["max_listed"])
				require.Len(t, config.Cases, 2)
				assert.Equal(t, "3.14159\n", *config.Cases[0].Expected)
				assert.Nil(t, config.Cases[1].Expected)
				assert.Len(t, config.Cases[1].ExpectedSHA256, 64)
			},
		},
		{
			name:    "malformed yaml",
			yaml:    "version: [",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var config SuiteConfig
			err := yaml.Unmarshal([]byte(tt.yaml), &config)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.verify(t, &config)
		})
	}
}

func TestCaseConfig_Settings(t *testing.T) {
	defaults := CaseDefaults{
		CompareMode:   "FLOAT_EPS",
		CompareConfig: map[string]any{"float_eps": 0.1, "unicode_nf": "NFKC"},
	}

	t.Run("case inherits defaults", func(t *testing.T) {
		mode, config := CaseConfig{ID: "a"}.Settings(defaults)

		assert.Equal(t, "FLOAT_EPS", mode)
		assert.Equal(t, defaults.CompareConfig, config)
	})

	t.Run("case keys override default keys", func(t *testing.T) {
		c := CaseConfig{
			ID:            "b",
			CompareMode:   "TOKEN_SET",
			CompareConfig: map[string]any{"float_eps": 0.5},
		}
		mode, config := c.Settings(defaults)

		assert.Equal(t, "TOKEN_SET", mode)
		assert.Equal(t, map[string]any{"float_eps": 0.5, "unicode_nf": "NFKC"}, config)
		assert.Equal(t, 0.1, defaults.CompareConfig["float_eps"], "defaults must not be mutated")
	})

	t.Run("request carries the expected output", func(t *testing.T) {
		expected := "42"
		req := CaseConfig{ID: "c", Expected: &expected}.Request(CaseDefaults{}, "42\n")

		assert.Equal(t, "42\n", req.Submitted)
		assert.Equal(t, &expected, req.Expected)
		assert.Empty(t, req.CompareMode)
	})
}

func TestSuiteConfig_StrategyOptions(t *testing.T) {
	config := SuiteConfig{Strategies: map[string]map[string]any{
		"tokens":            {"max_listed": 3},
		"CANONICAL_LITERAL": {"max_depth": 10},
	}}

	assert.Equal(t, map[domain.Mode]map[string]any{
		domain.ModeTokenSet:         {"max_listed": 3},
		domain.ModeCanonicalLiteral: {"max_depth": 10},
	}, config.StrategyOptions())

	assert.Nil(t, (&SuiteConfig{}).StrategyOptions())
}
