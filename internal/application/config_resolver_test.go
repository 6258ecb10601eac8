package application

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/outcmp/internal/domain"
)

func newTestResolver(t *testing.T) (*ConfigResolver, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	r, err := NewConfigResolver(domain.DefaultComparisonConfig(), logger)
	require.NoError(t, err)
	return r, &buf
}

func TestConfigResolver_Mode(t *testing.T) {
	r, _ := newTestResolver(t)

	tests := []struct {
		mode string
		want domain.Mode
	}{
		{"", domain.ModeAuto},
		{"auto", domain.ModeAuto},
		{"float_eps", domain.ModeFloatEps},
		{" STRICT ", domain.ModeStrict},
		{"canonical_py_literal", domain.ModeCanonicalLiteral},
		{"HASH_SHORTCUT", domain.ModeAuto},
		{"levenshtein", domain.ModeAuto},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Resolve(tt.mode, nil).Mode)
		})
	}
}

func TestConfigResolver_Overrides(t *testing.T) {
	defaults := domain.DefaultComparisonConfig()

	tests := []struct {
		name      string
		overrides map[string]any
		check     func(t *testing.T, cfg domain.ComparisonConfig)
	}{
		{
			name:      "no overrides",
			overrides: nil,
			check: func(t *testing.T, cfg domain.ComparisonConfig) {
				assert.Equal(t, defaults, cfg)
			},
		},
		{
			name:      "float eps as number",
			overrides: map[string]any{"float_eps": 0.01},
			check: func(t *testing.T, cfg domain.ComparisonConfig) {
				assert.Equal(t, 0.01, cfg.FloatEps)
			},
		},
		{
			name:      "float eps as numeric string",
			overrides: map[string]any{"float_eps": " 1e-3 "},
			check: func(t *testing.T, cfg domain.ComparisonConfig) {
				assert.Equal(t, 1e-3, cfg.FloatEps)
			},
		},
		{
			name:      "float eps as json number",
			overrides: map[string]any{"float_eps": json.Number("0.5")},
			check: func(t *testing.T, cfg domain.ComparisonConfig) {
				assert.Equal(t, 0.5, cfg.FloatEps)
			},
		},
		{
			name:      "nested float eps",
			overrides: map[string]any{"float": map[string]any{"eps": 0.25}},
			check: func(t *testing.T, cfg domain.ComparisonConfig) {
				assert.Equal(t, 0.25, cfg.FloatEps)
			},
		},
		{
			name:      "flat key wins over nested",
			overrides: map[string]any{"float_eps": 0.1, "float": map[string]any{"eps": 0.2}},
			check: func(t *testing.T, cfg domain.ComparisonConfig) {
				assert.Equal(t, 0.1, cfg.FloatEps)
			},
		},
		{
			name:      "nested token limit with yaml map",
			overrides: map[string]any{"token": map[any]any{"limit": 10}},
			check: func(t *testing.T, cfg domain.ComparisonConfig) {
				assert.Equal(t, 10, cfg.TokenSetLimit)
			},
		},
		{
			name:      "zero token limit disables the check",
			overrides: map[string]any{"token_set_limit": 0},
			check: func(t *testing.T, cfg domain.ComparisonConfig) {
				assert.Equal(t, 0, cfg.TokenSetLimit)
			},
		},
		{
			name:      "integral float token limit",
			overrides: map[string]any{"token_set_limit": 64.0},
			check: func(t *testing.T, cfg domain.ComparisonConfig) {
				assert.Equal(t, 64, cfg.TokenSetLimit)
			},
		},
		{
			name:      "unicode form",
			overrides: map[string]any{"unicode_nf": "nfkc"},
			check: func(t *testing.T, cfg domain.ComparisonConfig) {
				assert.Equal(t, domain.FormNFKC, cfg.UnicodeForm)
			},
		},
		{
			name:      "threshold alias",
			overrides: map[string]any{"large_output_threshold_bytes": 1024},
			check: func(t *testing.T, cfg domain.ComparisonConfig) {
				assert.Equal(t, int64(1024), cfg.LargeOutputThreshold)
			},
		},
		{
			name:      "strategy timeout",
			overrides: map[string]any{"strategy_timeout_ms": 250},
			check: func(t *testing.T, cfg domain.ComparisonConfig) {
				assert.Equal(t, 250*time.Millisecond, cfg.StrategyTimeout)
			},
		},
		{
			name:      "unknown keys are ignored",
			overrides: map[string]any{"colour": "blue", "retries": 3},
			check: func(t *testing.T, cfg domain.ComparisonConfig) {
				assert.Equal(t, defaults, cfg)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestResolver(t)
			tt.check(t, r.Resolve("", tt.overrides))
		})
	}
}

func TestConfigResolver_UnusableValues(t *testing.T) {
	defaults := domain.DefaultComparisonConfig()

	tests := []struct {
		name      string
		overrides map[string]any
		wantKey   string
	}{
		{name: "non numeric eps", overrides: map[string]any{"float_eps": "tiny"}, wantKey: "float_eps"},
		{name: "negative eps", overrides: map[string]any{"float_eps": -1}, wantKey: "float_eps"},
		{name: "nan eps", overrides: map[string]any{"float_eps": math.NaN()}, wantKey: "float_eps"},
		{name: "eps beyond bound", overrides: map[string]any{"float_eps": 1e9}, wantKey: "FloatEps"},
		{name: "negative token limit", overrides: map[string]any{"token_set_limit": -5}, wantKey: "token_set_limit"},
		{name: "fractional token limit", overrides: map[string]any{"token_set_limit": 1.5}, wantKey: "token_set_limit"},
		{name: "bool token limit", overrides: map[string]any{"token": map[string]any{"limit": true}}, wantKey: "token.limit"},
		{name: "unknown form", overrides: map[string]any{"unicode_nf": "NFX"}, wantKey: "unicode_nf"},
		{name: "zero threshold", overrides: map[string]any{"large_output_threshold": 0}, wantKey: "large_output_threshold"},
		{name: "negative timeout", overrides: map[string]any{"strategy_timeout_ms": -10}, wantKey: "strategy_timeout_ms"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, logs := newTestResolver(t)

			cfg := r.Resolve("", tt.overrides)

			assert.Equal(t, defaults, cfg, "unusable values fall back to the base configuration")
			assert.Contains(t, logs.String(), "config error: key="+tt.wantKey, "the ignored value should be logged")
		})
	}
}

func TestConfigResolver_UnknownModeLogged(t *testing.T) {
	r, logs := newTestResolver(t)

	assert.Equal(t, domain.ModeAuto, r.Resolve("fuzzy", nil).Mode)
	assert.Contains(t, logs.String(), "unrecognized compare mode")
}

func TestNewConfigResolver_InvalidBase(t *testing.T) {
	base := domain.DefaultComparisonConfig()
	base.StrategyTimeout = 0

	_, err := NewConfigResolver(base, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

func TestCoerceInt(t *testing.T) {
	tests := []struct {
		in     any
		want   int64
		wantOK bool
	}{
		{in: 7, want: 7, wantOK: true},
		{in: int64(9), want: 9, wantOK: true},
		{in: uint8(3), want: 3, wantOK: true},
		{in: "12", want: 12, wantOK: true},
		{in: json.Number("40"), want: 40, wantOK: true},
		{in: 2.0, want: 2, wantOK: true},
		{in: 2.5, wantOK: false},
		{in: "x", wantOK: false},
		{in: nil, wantOK: false},
		{in: math.Inf(1), wantOK: false},
	}

	for _, tt := range tests {
		got, ok := coerceInt(tt.in)
		assert.Equal(t, tt.wantOK, ok, "coerceInt(%v)", tt.in)
		if tt.wantOK {
			assert.Equal(t, tt.want, got, "coerceInt(%v)", tt.in)
		}
	}
}
