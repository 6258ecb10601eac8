package application

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/ahrav/outcmp/internal/domain"
)

// Fixed reasons produced by the orchestrator rather than by a strategy.
const (
	ReasonNoComparatorMatched = "no comparator matched"
	ReasonForcedNoVerdict     = "forced mode produced no verdict"
	ReasonHashMismatch        = "hash mismatch for large output"
)

// Digest returns the lowercase hex SHA-256 of text.
func Digest(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// isLarge reports whether either normalized text exceeds the threshold.
func isLarge(sub, exp domain.NormalizedText, cfg domain.ComparisonConfig) bool {
	return int64(len(sub.Text)) > cfg.LargeOutputThreshold || int64(len(exp.Text)) > cfg.LargeOutputThreshold
}

// TryHashShortcut resolves a comparison of large outputs whose normalized
// digests match. It returns false when the outputs are small or the
// digests differ; a digest mismatch is not a verdict because the outputs
// may still differ only in tolerable ways.
func TryHashShortcut(sub, exp domain.NormalizedText, cfg domain.ComparisonConfig) (domain.ComparisonResult, bool) {
	if !isLarge(sub, exp, cfg) {
		return domain.ComparisonResult{}, false
	}
	if len(sub.Text) != len(exp.Text) || Digest(sub.Text) != Digest(exp.Text) {
		return domain.ComparisonResult{}, false
	}
	return domain.ComparisonResult{
		Passed:         true,
		ModeApplied:    domain.ModeHashShortcut,
		Normalisations: domain.MergeLabels(exp.Labels),
		Attempts:       []domain.StrategyVerdict{},
	}, true
}

// TryStrict resolves a comparison of byte-identical normalized texts.
// A mismatch is not recorded anywhere.
func TryStrict(sub, exp domain.NormalizedText) (domain.ComparisonResult, bool) {
	if sub.Text != exp.Text {
		return domain.ComparisonResult{}, false
	}
	return domain.ComparisonResult{
		Passed:         true,
		ModeApplied:    domain.ModeStrict,
		Normalisations: domain.MergeLabels(exp.Labels),
		Attempts:       []domain.StrategyVerdict{},
	}, true
}

// LargeOutputDigest normalizes expected under cfg and returns its digest
// when it is large enough for the hash shortcut. Callers can store the
// digest instead of the text and grade with Comparator.CompareDigest.
func LargeOutputDigest(expected string, cfg domain.ComparisonConfig) (string, bool) {
	n := Normalize(expected, cfg.UnicodeForm)
	if int64(len(n.Text)) <= cfg.LargeOutputThreshold {
		return "", false
	}
	return Digest(n.Text), true
}

// digestsEqual compares hex digests case-insensitively.
func digestsEqual(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
