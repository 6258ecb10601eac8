package application

import (
	"fmt"
	"slices"

	"github.com/ahrav/outcmp/infrastructure/strategies"
	"github.com/ahrav/outcmp/internal/domain"
	"github.com/ahrav/outcmp/internal/ports"
)

// StrategyRegistry is the immutable set of strategies a Comparator runs.
// It holds STRICT plus the ranked strategies, keyed by mode, and is safe
// to share between comparators and goroutines because it is never
// modified after construction.
type StrategyRegistry struct {
	// byMode maps each mode to its strategy.
	byMode map[domain.Mode]ports.Strategy
	// ranked lists the ranked strategies in priority order.
	ranked []ports.Strategy
}

// NewStrategyRegistry builds a registry from strategies. Each strategy
// must implement STRICT or a ranked mode and no mode may appear twice.
// Ranked modes without a strategy are simply absent from AUTO fan-outs.
func NewStrategyRegistry(list ...ports.Strategy) (*StrategyRegistry, error) {
	r := &StrategyRegistry{byMode: make(map[domain.Mode]ports.Strategy, len(list))}

	for i, s := range list {
		if s == nil {
			return nil, fmt.Errorf("strategy at position %d is nil: %w", i, domain.ErrInvalidConfiguration)
		}
		mode := s.Mode()
		if !mode.IsForcible() {
			return nil, domain.NewStrategyError(mode, domain.ErrUnknownMode)
		}
		if _, dup := r.byMode[mode]; dup {
			return nil, domain.NewStrategyError(mode, domain.ErrDuplicateMode)
		}
		r.byMode[mode] = s
	}

	for _, mode := range domain.RankedModes {
		if s, ok := r.byMode[mode]; ok {
			r.ranked = append(r.ranked, s)
		}
	}
	return r, nil
}

// NewDefaultStrategyRegistry builds a registry holding every built-in
// strategy. options configures individual strategies and mws wraps each
// of them, e.g. with tracing and metrics.
func NewDefaultStrategyRegistry(
	options map[domain.Mode]map[string]any,
	mws ...strategies.Middleware,
) (*StrategyRegistry, error) {
	builtins, err := strategies.Builtins(options, mws...)
	if err != nil {
		return nil, fmt.Errorf("failed to create built-in strategies: %w", err)
	}
	return NewStrategyRegistry(builtins...)
}

// Lookup returns the strategy registered for mode.
func (r *StrategyRegistry) Lookup(mode domain.Mode) (ports.Strategy, bool) {
	s, ok := r.byMode[mode]
	return s, ok
}

// Ranked returns the ranked strategies in priority order. The returned
// slice is a copy.
func (r *StrategyRegistry) Ranked() []ports.Strategy { return slices.Clone(r.ranked) }

// SupportedModes returns every mode that can be forced with this
// registry, STRICT first and then in priority order.
func (r *StrategyRegistry) SupportedModes() []domain.Mode {
	modes := make([]domain.Mode, 0, len(r.byMode))
	if _, ok := r.byMode[domain.ModeStrict]; ok {
		modes = append(modes, domain.ModeStrict)
	}
	for _, s := range r.ranked {
		modes = append(modes, s.Mode())
	}
	return modes
}
