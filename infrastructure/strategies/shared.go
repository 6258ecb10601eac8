// Package strategies provides the built-in comparison strategies that
// implement the ports.Strategy interface for the outcmp comparison engine.
package strategies

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Normalization labels reported by the built-in strategies.
const (
	LabelTrimEOL                = "trim_eol"
	LabelWhitespaceConservative = "whitespace_conservative"
	LabelWhitespaceAggressive   = "whitespace_aggressive"
	LabelLiteralParse           = "literal_parse"
	LabelFloatEps               = "float_eps"
	LabelTokenSet               = "token_set"
)

// maxRenderedValue bounds how much of a value is quoted in a reason.
const maxRenderedValue = 60

// Package-level validator instance for configuration validation.
// Uses go-playground/validator v10 for struct tag-based validation.
var validate = validator.New()

// overlayConfig decodes a free-form configuration map on top of dst, which
// must already hold the defaults. Keys use the yaml tags of dst.
func overlayConfig(config map[string]any, dst any) error {
	if len(config) == 0 {
		return nil
	}
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := yaml.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// truncate shortens s to at most limit runes, marking the cut with an
// ellipsis.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	var b strings.Builder
	n := 0
	for _, r := range s {
		if n == limit {
			break
		}
		b.WriteRune(r)
		n++
	}
	b.WriteString("…")
	return b.String()
}
