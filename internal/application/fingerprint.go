package application

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"

	"github.com/ahrav/outcmp/internal/domain"
)

// Fingerprint returns the SHA-256 of the RFC 8785 canonical JSON form of
// the result record with every duration removed. Two comparisons of the
// same inputs under the same configuration always share a fingerprint.
func Fingerprint(result domain.ComparisonResult) (string, error) {
	raw, err := json.Marshal(result.Record().WithoutTimings())
	if err != nil {
		return "", fmt.Errorf("failed to marshal result record: %w", err)
	}
	canonical, err := jsoncanonicalizer.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize result record: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
