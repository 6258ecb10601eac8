package testutils

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ahrav/outcmp/internal/domain"
	"github.com/ahrav/outcmp/internal/ports"
)

// Verify interface compliance at compile time.
var _ ports.Strategy = (*StubStrategy)(nil)

// StubStrategy implements ports.Strategy with a scripted verdict. It can
// delay, block until cancelled, or panic, which makes it useful for
// exercising timeouts, early cancellation, and completion-order
// independence.
type StubStrategy struct {
	// Name is the mode the stub claims.
	Name domain.Mode
	// Outcome is returned after Delay elapses.
	Outcome domain.Outcome
	// Reason accompanies Outcome.
	Reason string
	// Labels are reported as the stub's normalizations.
	Labels []string
	// Delay postpones the verdict. The stub still honors ctx while waiting.
	Delay time.Duration
	// IgnoreContext makes the stub sleep through cancellation, like a
	// strategy stuck in a tight loop.
	IgnoreContext bool
	// Panic, when non-nil, is raised instead of returning a verdict.
	Panic any

	calls atomic.Int64
}

// NewStub creates a stub that returns outcome immediately.
func NewStub(mode domain.Mode, outcome domain.Outcome, reason string) *StubStrategy {
	return &StubStrategy{Name: mode, Outcome: outcome, Reason: reason}
}

// Mode returns the configured mode.
func (s *StubStrategy) Mode() domain.Mode { return s.Name }

// Calls returns how many times Evaluate has been called.
func (s *StubStrategy) Calls() int64 { return s.calls.Load() }

// Evaluate returns the scripted verdict.
func (s *StubStrategy) Evaluate(ctx context.Context, _, _ string, _ domain.ComparisonConfig) domain.StrategyVerdict {
	s.calls.Add(1)

	if s.Delay > 0 {
		if s.IgnoreContext {
			time.Sleep(s.Delay)
		} else {
			timer := time.NewTimer(s.Delay)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-ctx.Done():
				return domain.Defer(s.Name, "stub cancelled")
			}
		}
	}

	if s.Panic != nil {
		panic(s.Panic)
	}

	return domain.StrategyVerdict{
		Mode:           s.Name,
		Outcome:        s.Outcome,
		Reason:         s.Reason,
		Normalisations: s.Labels,
	}
}
