package strategies

import (
	"fmt"
	"maps"
	"slices"

	"github.com/ahrav/outcmp/internal/domain"
	"github.com/ahrav/outcmp/internal/ports"
)

// Factory creates a strategy from a free-form configuration map. Missing
// keys keep their defaults.
type Factory func(config map[string]any) (ports.Strategy, error)

func stateless(s ports.Strategy) Factory {
	return func(map[string]any) (ports.Strategy, error) { return s, nil }
}

// factories maps each mode to the constructor of its built-in strategy.
var factories = map[domain.Mode]Factory{
	domain.ModeStrict:              stateless(Strict{}),
	domain.ModeTrimEOL:             stateless(TrimEOL{}),
	domain.ModeNormaliseWhitespace: stateless(NormaliseWhitespace{}),
	domain.ModeCanonicalLiteral:    NewCanonicalLiteralFromConfig,
	domain.ModeFloatEps:            stateless(FloatEps{}),
	domain.ModeTokenSet:            NewTokenSetFromConfig,
}

// Factories returns a copy of the built-in factory table.
func Factories() map[domain.Mode]Factory { return maps.Clone(factories) }

// Builtins creates every built-in strategy, STRICT first and then the
// ranked strategies in priority order. options supplies per-mode
// configuration; an option for a mode without a built-in strategy is an
// error. Each strategy is wrapped with mws.
func Builtins(options map[domain.Mode]map[string]any, mws ...Middleware) ([]ports.Strategy, error) {
	for mode := range options {
		if _, ok := factories[mode]; !ok {
			return nil, domain.NewStrategyError(mode, domain.ErrUnknownMode)
		}
	}

	modes := slices.Concat([]domain.Mode{domain.ModeStrict}, domain.RankedModes)
	out := make([]ports.Strategy, 0, len(modes))
	for _, mode := range modes {
		s, err := factories[mode](options[mode])
		if err != nil {
			return nil, fmt.Errorf("failed to create %s strategy: %w", mode, err)
		}
		out = append(out, Chain(s, mws...))
	}
	return out, nil
}
