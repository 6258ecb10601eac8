package application

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/outcmp/internal/domain"
)

func TestFingerprint(t *testing.T) {
	base := domain.ComparisonResult{
		Passed:         true,
		ModeApplied:    domain.ModeTrimEOL,
		Normalisations: []string{"unicode_nfc", "crlf_to_lf", "trim_eol"},
		Attempts: []domain.StrategyVerdict{
			{Mode: domain.ModeTrimEOL, Outcome: domain.OutcomePass, Elapsed: 3 * time.Millisecond},
		},
	}

	fp, err := Fingerprint(base)
	require.NoError(t, err)
	assert.Len(t, fp, 64)

	t.Run("durations do not matter", func(t *testing.T) {
		slower := base
		slower.Attempts = []domain.StrategyVerdict{
			{Mode: domain.ModeTrimEOL, Outcome: domain.OutcomePass, Elapsed: time.Second},
		}

		got, err := Fingerprint(slower)
		require.NoError(t, err)
		assert.Equal(t, fp, got)
	})

	t.Run("verdict changes the fingerprint", func(t *testing.T) {
		failed := base
		failed.Passed = false
		failed.WhyFailed = "no comparator matched"

		got, err := Fingerprint(failed)
		require.NoError(t, err)
		assert.NotEqual(t, fp, got)
	})

	t.Run("attempt outcome changes the fingerprint", func(t *testing.T) {
		deferred := base
		deferred.Attempts = []domain.StrategyVerdict{
			{Mode: domain.ModeTrimEOL, Outcome: domain.OutcomeDefer},
		}

		got, err := Fingerprint(deferred)
		require.NoError(t, err)
		assert.NotEqual(t, fp, got)
	})
}
