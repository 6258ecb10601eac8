package domain

import (
	"strings"
	"time"
)

// Default configuration values applied when a test definition leaves a
// setting unset or supplies an unusable value.
const (
	// DefaultFloatEps is the absolute (and, above magnitude 1, relative)
	// tolerance used by FLOAT_EPS.
	DefaultFloatEps = 1e-6

	// DefaultLargeOutputThreshold is the normalized byte length above which
	// the hash shortcut is attempted (2 MiB).
	DefaultLargeOutputThreshold int64 = 2 * 1024 * 1024

	// DefaultTokenSetLimit is the token count above which TOKEN_SET defers.
	DefaultTokenSetLimit = 512

	// DefaultStrategyTimeout bounds a single strategy evaluation.
	DefaultStrategyTimeout = 2 * time.Second
)

// UnicodeForm names a Unicode normalization form.
type UnicodeForm string

// Supported normalization forms.
const (
	FormNFC  UnicodeForm = "NFC"
	FormNFD  UnicodeForm = "NFD"
	FormNFKC UnicodeForm = "NFKC"
	FormNFKD UnicodeForm = "NFKD"
)

// Label returns the normalization label recorded for this form,
// e.g. "unicode_nfc".
func (f UnicodeForm) Label() string { return "unicode_" + strings.ToLower(string(f)) }

// ComparisonConfig is the resolved, validated configuration for one
// comparison. Values are produced by the config resolver and are immutable
// for the duration of the comparison.
type ComparisonConfig struct {
	// Mode is ModeAuto or a single forced strategy.
	Mode Mode `json:"mode" validate:"required"`

	// UnicodeForm selects the normalization applied to both texts.
	UnicodeForm UnicodeForm `json:"unicode_nf" validate:"oneof=NFC NFD NFKC NFKD"`

	// LargeOutputThreshold is the byte length above which the hash
	// shortcut applies.
	LargeOutputThreshold int64 `json:"large_output_threshold" validate:"gt=0"`

	// FloatEps is the numeric tolerance used by FLOAT_EPS.
	FloatEps float64 `json:"float_eps" validate:"gte=0,lte=1e6"`

	// TokenSetLimit is the token count above which TOKEN_SET defers.
	// Zero disables the limit.
	TokenSetLimit int `json:"token_set_limit" validate:"gte=0"`

	// StrategyTimeout bounds each strategy evaluation.
	StrategyTimeout time.Duration `json:"strategy_timeout" validate:"gt=0"`
}

// DefaultComparisonConfig returns the configuration used when a test
// definition supplies no overrides.
func DefaultComparisonConfig() ComparisonConfig {
	return ComparisonConfig{
		Mode:                 ModeAuto,
		UnicodeForm:          FormNFC,
		LargeOutputThreshold: DefaultLargeOutputThreshold,
		FloatEps:             DefaultFloatEps,
		TokenSetLimit:        DefaultTokenSetLimit,
		StrategyTimeout:      DefaultStrategyTimeout,
	}
}
