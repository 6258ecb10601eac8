// Package ports defines the core interfaces that form the contract between
// the domain/application layers and the infrastructure layer.
// These interfaces enable dependency inversion and make the system testable.
package ports

import (
	"context"

	"github.com/ahrav/outcmp/internal/domain"
)

// Strategy judges whether two normalized outputs are equivalent under one
// notion of equivalence. Strategies are stateless and safe for concurrent
// use; the same instance evaluates every comparison a Comparator runs.
type Strategy interface {
	// Mode returns the comparison mode this strategy implements.
	Mode() domain.Mode

	// Evaluate compares submitted against expected. Both texts have already
	// been normalized. Evaluate never returns an error: inapplicability is a
	// DEFER verdict and a definite mismatch is a FAIL with a reason.
	//
	// Long-running strategies should observe ctx and return a DEFER verdict
	// promptly once it is done.
	//
	// Example:
	//
	//	v := strategy.Evaluate(ctx, sub.Text, exp.Text, cfg)
	//	if v.Outcome == domain.OutcomePass {
	//	    // equivalent
	//	}
	Evaluate(ctx context.Context, submitted, expected string, cfg domain.ComparisonConfig) domain.StrategyVerdict
}
