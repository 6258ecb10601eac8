package application

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ahrav/outcmp/internal/domain"
	"github.com/ahrav/outcmp/internal/ports"
)

// Package-level validator instance for resolved configuration.
var validate = validator.New()

// Recognized compare_config keys. Nested keys are looked up under the
// first element, e.g. {"float": {"eps": 0.01}}.
const (
	keyFloatEps             = "float_eps"
	keyTokenSetLimit        = "token_set_limit"
	keyUnicodeForm          = "unicode_nf"
	keyLargeOutputThreshold = "large_output_threshold"
	keyLargeOutputBytes     = "large_output_threshold_bytes"
	keyStrategyTimeoutMs    = "strategy_timeout_ms"
)

var (
	nestedFloatEps      = [2]string{"float", "eps"}
	nestedTokenSetLimit = [2]string{"token", "limit"}
)

// ConfigResolver turns the free-form compare_mode and compare_config
// values of a test definition into a validated ComparisonConfig.
// Unusable values never fail a comparison: they are logged and replaced
// by the base configuration.
type ConfigResolver struct {
	base   domain.ComparisonConfig
	logger *slog.Logger
}

// NewConfigResolver creates a resolver that overlays overrides on base.
// base must itself be valid; a nil logger discards warnings.
func NewConfigResolver(base domain.ComparisonConfig, logger *slog.Logger) (*ConfigResolver, error) {
	if err := validate.Struct(base); err != nil {
		return nil, errors.Join(domain.ErrInvalidConfiguration, err)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ConfigResolver{base: base, logger: logger}, nil
}

// Base returns the configuration used when nothing is overridden.
func (r *ConfigResolver) Base() domain.ComparisonConfig { return r.base }

// Resolve returns the configuration for one comparison. An empty mode
// keeps the base mode; any other value is coerced with domain.ParseMode.
// Unknown keys are ignored.
func (r *ConfigResolver) Resolve(mode string, overrides map[string]any) domain.ComparisonConfig {
	cfg := r.base
	cfg.Mode = r.resolveMode(mode)

	if v, key, ok := lookup(overrides, keyFloatEps, nestedFloatEps); ok {
		if eps, ok := coerceFloat(v); ok && eps >= 0 {
			cfg.FloatEps = eps
		} else {
			r.ignored(key, v)
		}
	}

	if v, key, ok := lookup(overrides, keyTokenSetLimit, nestedTokenSetLimit); ok {
		if limit, ok := coerceInt(v); ok && limit >= 0 && limit <= math.MaxInt32 {
			cfg.TokenSetLimit = int(limit)
		} else {
			r.ignored(key, v)
		}
	}

	if v, ok := overrides[keyUnicodeForm]; ok {
		if form, ok := coerceForm(v); ok {
			cfg.UnicodeForm = form
		} else {
			r.ignored(keyUnicodeForm, v)
		}
	}

	for _, key := range []string{keyLargeOutputThreshold, keyLargeOutputBytes} {
		v, ok := overrides[key]
		if !ok {
			continue
		}
		if n, ok := coerceInt(v); ok && n > 0 {
			cfg.LargeOutputThreshold = n
			break
		}
		r.ignored(key, v)
	}

	if v, ok := overrides[keyStrategyTimeoutMs]; ok {
		if ms, ok := coerceFloat(v); ok && ms > 0 && ms < float64(math.MaxInt64/int64(time.Millisecond)) {
			cfg.StrategyTimeout = time.Duration(ms * float64(time.Millisecond))
		} else {
			r.ignored(keyStrategyTimeoutMs, v)
		}
	}

	return r.backstop(cfg)
}

func (r *ConfigResolver) resolveMode(mode string) domain.Mode {
	if strings.TrimSpace(mode) == "" {
		return r.base.Mode
	}
	m := domain.ParseMode(mode)
	if m == domain.ModeAuto && !strings.EqualFold(strings.TrimSpace(mode), string(domain.ModeAuto)) {
		r.logger.Warn("unrecognized compare mode, using AUTO", "compare_mode", mode)
	}
	return m
}

// backstop resets any field that still fails validation to its base value.
func (r *ConfigResolver) backstop(cfg domain.ComparisonConfig) domain.ComparisonConfig {
	err := validate.Struct(cfg)
	if err == nil {
		return cfg
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		r.logger.Warn("compare config failed validation, using base", "error", err)
		return r.base
	}
	for _, fe := range verrs {
		r.logger.Warn("compare config field invalid, using base value",
			"field", fe.StructField(), "tag", fe.Tag(), "error", ports.NewConfigError(fe.StructField(), fe))
		switch fe.StructField() {
		case "Mode":
			cfg.Mode = r.base.Mode
		case "UnicodeForm":
			cfg.UnicodeForm = r.base.UnicodeForm
		case "LargeOutputThreshold":
			cfg.LargeOutputThreshold = r.base.LargeOutputThreshold
		case "FloatEps":
			cfg.FloatEps = r.base.FloatEps
		case "TokenSetLimit":
			cfg.TokenSetLimit = r.base.TokenSetLimit
		case "StrategyTimeout":
			cfg.StrategyTimeout = r.base.StrategyTimeout
		}
	}
	return cfg
}

func (r *ConfigResolver) ignored(key string, value any) {
	err := ports.NewConfigError(key, fmt.Errorf("%w: unusable value %v", domain.ErrInvalidConfiguration, value))
	r.logger.Warn("ignoring unusable compare config value", "key", key, "value", value, "error", err)
}

// lookup finds a flat key first and then its nested spelling.
func lookup(overrides map[string]any, flat string, nested [2]string) (any, string, bool) {
	if v, ok := overrides[flat]; ok {
		return v, flat, true
	}
	inner, ok := asMap(overrides[nested[0]])
	if !ok {
		return nil, "", false
	}
	v, ok := inner[nested[1]]
	return v, nested[0] + "." + nested[1], ok
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			if s, ok := k.(string); ok {
				out[s] = val
			}
		}
		return out, true
	default:
		return nil, false
	}
}

// coerceFloat accepts any numeric value or numeric string. NaN and the
// infinities are rejected.
func coerceFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// coerceInt accepts integral numbers, including floats without a
// fractional part such as 512.0.
func coerceInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64); err == nil {
			return i, true
		}
	}

	f, ok := coerceFloat(v)
	if !ok || f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

func coerceForm(v any) (domain.UnicodeForm, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	form := domain.UnicodeForm(strings.ToUpper(strings.TrimSpace(s)))
	switch form {
	case domain.FormNFC, domain.FormNFD, domain.FormNFKC, domain.FormNFKD:
		return form, true
	default:
		return "", false
	}
}
