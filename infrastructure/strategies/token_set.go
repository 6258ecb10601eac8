package strategies

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"

	"github.com/ahrav/outcmp/internal/domain"
	"github.com/ahrav/outcmp/internal/ports"
)

var _ ports.Strategy = (*TokenSet)(nil)

// TokenSet compares whitespace-separated tokens as multisets: order is
// ignored but duplicate counts matter. Outputs with more tokens than the
// configured limit are not compared.
//
// Concurrency: TokenSet is immutable after creation and safe for concurrent
// use.
type TokenSet struct {
	config TokenSetConfig
}

// TokenSetConfig controls how mismatches are reported.
type TokenSetConfig struct {
	// MaxListed is the number of distinct tokens quoted on each side of
	// the difference before the list is cut short.
	MaxListed int `yaml:"max_listed" json:"max_listed" validate:"min=1,max=100"`

	// HintDistance is the largest edit distance at which a missing token
	// and an unexpected token are reported as a likely misspelling.
	// Zero disables spelling hints.
	HintDistance int `yaml:"hint_distance" json:"hint_distance" validate:"min=0,max=5"`
}

// DefaultTokenSetConfig returns the reporting limits used by the default
// registry.
func DefaultTokenSetConfig() TokenSetConfig {
	return TokenSetConfig{MaxListed: 8, HintDistance: 2}
}

// NewTokenSet creates a TokenSet with validated configuration.
func NewTokenSet(config TokenSetConfig) (*TokenSet, error) {
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &TokenSet{config: config}, nil
}

// NewTokenSetFromConfig creates a TokenSet from a configuration map,
// starting from the defaults.
func NewTokenSetFromConfig(config map[string]any) (ports.Strategy, error) {
	cfg := DefaultTokenSetConfig()
	if err := overlayConfig(config, &cfg); err != nil {
		return nil, err
	}
	return NewTokenSet(cfg)
}

// Mode returns domain.ModeTokenSet.
func (*TokenSet) Mode() domain.Mode { return domain.ModeTokenSet }

// Evaluate defers when either side has more tokens than the configured
// limit, passes on equal multisets, and otherwise fails listing the
// difference.
func (ts *TokenSet) Evaluate(
	ctx context.Context,
	submitted, expected string,
	cfg domain.ComparisonConfig,
) domain.StrategyVerdict {
	if limit := cfg.TokenSetLimit; limit > 0 {
		if n := countTokens(expected, limit); n > limit {
			return domain.Defer(domain.ModeTokenSet, fmt.Sprintf("expected output has more than %d tokens", limit))
		}
		if n := countTokens(submitted, limit); n > limit {
			return domain.Defer(domain.ModeTokenSet, fmt.Sprintf("submitted output has more than %d tokens", limit))
		}
	}

	counts := make(map[string]int)
	for _, tok := range strings.Fields(expected) {
		counts[tok]++
	}
	for _, tok := range strings.Fields(submitted) {
		counts[tok]--
	}
	if ctx.Err() != nil {
		return domain.Defer(domain.ModeTokenSet, "evaluation cancelled")
	}

	var missing, unexpected []string
	for tok, n := range counts {
		switch {
		case n > 0:
			missing = append(missing, tok)
		case n < 0:
			unexpected = append(unexpected, tok)
		}
	}
	if len(missing) == 0 && len(unexpected) == 0 {
		return domain.Pass(domain.ModeTokenSet, LabelTokenSet)
	}
	slices.Sort(missing)
	slices.Sort(unexpected)

	reason := "token sets differ: " + ts.describe(missing, unexpected, counts)
	if hint := ts.spellingHint(missing, unexpected); hint != "" {
		reason += "; " + hint
	}
	return domain.Fail(domain.ModeTokenSet, reason, LabelTokenSet)
}

// countTokens counts whitespace-separated tokens, stopping once the count
// passes limit.
func countTokens(s string, limit int) int {
	n := 0
	inToken := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			inToken = false
			continue
		}
		if !inToken {
			n++
			if n > limit {
				return n
			}
			inToken = true
		}
	}
	return n
}

func (ts *TokenSet) describe(missing, unexpected []string, counts map[string]int) string {
	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing "+ts.list(missing, counts))
	}
	if len(unexpected) > 0 {
		parts = append(parts, "unexpected "+ts.list(unexpected, counts))
	}
	return strings.Join(parts, ", ")
}

// list quotes up to MaxListed tokens, annotating surplus counts.
func (ts *TokenSet) list(tokens []string, counts map[string]int) string {
	shown := tokens
	if len(shown) > ts.config.MaxListed {
		shown = shown[:ts.config.MaxListed]
	}
	quoted := make([]string, len(shown))
	for i, tok := range shown {
		q := fmt.Sprintf("%q", truncate(tok, maxRenderedValue/2))
		if n := abs(counts[tok]); n > 1 {
			q += fmt.Sprintf(" x%d", n)
		}
		quoted[i] = q
	}
	out := "[" + strings.Join(quoted, ", ")
	if extra := len(tokens) - len(shown); extra > 0 {
		out += fmt.Sprintf(", … %d more", extra)
	}
	return out + "]"
}

// spellingHint pairs the first listed missing token that has a close
// unexpected counterpart with that counterpart.
func (ts *TokenSet) spellingHint(missing, unexpected []string) string {
	if len(missing) == 0 || len(unexpected) == 0 {
		return ""
	}
	// Casers keep state between calls and cannot be shared.
	folder := cases.Fold()
	if len(missing) > ts.config.MaxListed {
		missing = missing[:ts.config.MaxListed]
	}
	for _, want := range missing {
		foldedWant := folder.String(want)
		best, bestDist := "", -1
		for _, got := range unexpected {
			if folder.String(got) == foldedWant {
				return fmt.Sprintf("%q differs from %q only in letter case", got, want)
			}
			if ts.config.HintDistance == 0 {
				continue
			}
			d := levenshtein.ComputeDistance(got, want)
			if d <= ts.config.HintDistance && (bestDist < 0 || d < bestDist) {
				best, bestDist = got, d
			}
		}
		if bestDist >= 0 {
			return fmt.Sprintf("%q looks like a misspelling of %q", best, want)
		}
	}
	return ""
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
