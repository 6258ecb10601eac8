package strategies

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/outcmp/internal/domain"
	"github.com/ahrav/outcmp/internal/ports"
)

// recordingCollector implements ports.MetricsCollector for tests.
type recordingCollector struct {
	mu       sync.Mutex
	counters map[string]float64
	latency  []string
}

func newRecordingCollector() *recordingCollector {
	return &recordingCollector{counters: make(map[string]float64)}
}

func (r *recordingCollector) RecordLatency(operation string, _ time.Duration, labels map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.latency = append(r.latency, operation+"/"+labels["strategy"])
}

func (r *recordingCollector) RecordCounter(metric string, value float64, labels map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[metric+"/"+labels["strategy"]+"/"+labels["outcome"]] += value
}

func (r *recordingCollector) RecordGauge(string, float64, map[string]string)     {}
func (r *recordingCollector) RecordHistogram(string, float64, map[string]string) {}

func TestBuiltins(t *testing.T) {
	all, err := Builtins(nil)
	require.NoError(t, err)

	modes := make([]domain.Mode, len(all))
	for i, s := range all {
		modes[i] = s.Mode()
	}
	assert.Equal(t, []domain.Mode{
		domain.ModeStrict,
		domain.ModeTrimEOL,
		domain.ModeNormaliseWhitespace,
		domain.ModeCanonicalLiteral,
		domain.ModeFloatEps,
		domain.ModeTokenSet,
	}, modes, "STRICT first, then priority order")
}

func TestBuiltins_Options(t *testing.T) {
	t.Run("valid options", func(t *testing.T) {
		_, err := Builtins(map[domain.Mode]map[string]any{
			domain.ModeTokenSet:         {"max_listed": 3},
			domain.ModeCanonicalLiteral: {"max_depth": 64},
		})
		assert.NoError(t, err)
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := Builtins(map[domain.Mode]map[string]any{"LEVENSHTEIN": {}})
		assert.ErrorIs(t, err, domain.ErrUnknownMode)
	})

	t.Run("invalid option value", func(t *testing.T) {
		_, err := Builtins(map[domain.Mode]map[string]any{domain.ModeTokenSet: {"max_listed": 0}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "TOKEN_SET")
	})
}

func TestFactories_ReturnsCopy(t *testing.T) {
	f := Factories()
	delete(f, domain.ModeStrict)

	_, ok := Factories()[domain.ModeStrict]
	assert.True(t, ok, "mutating the returned table must not affect the built-ins")
}

func TestMetricsMiddleware(t *testing.T) {
	collector := newRecordingCollector()
	s := Chain(TrimEOL{}, MetricsMiddleware(collector), TracingMiddleware())

	assert.Equal(t, domain.ModeTrimEOL, s.Mode(), "middleware preserves the mode")

	cfg := domain.DefaultComparisonConfig()
	s.Evaluate(context.Background(), "a ", "a", cfg)
	s.Evaluate(context.Background(), "a", "b", cfg)

	assert.Equal(t, 1.0, collector.counters["strategy_verdicts_total/TRIM_EOL/PASS"])
	assert.Equal(t, 1.0, collector.counters["strategy_verdicts_total/TRIM_EOL/DEFER"])
	assert.Equal(t, []string{"strategy_evaluate/TRIM_EOL", "strategy_evaluate/TRIM_EOL"}, collector.latency)
}

func TestMetricsMiddleware_NilCollector(t *testing.T) {
	s := MetricsMiddleware(nil)(FloatEps{})

	v := s.Evaluate(context.Background(), "1", "1.0", domain.DefaultComparisonConfig())
	assert.Equal(t, domain.OutcomePass, v.Outcome)
}

func TestChain_Order(t *testing.T) {
	var calls []string
	tag := func(name string) Middleware {
		return func(next ports.Strategy) ports.Strategy {
			return &taggedStrategy{next: next, onEvaluate: func() { calls = append(calls, name) }}
		}
	}

	s := Chain(Strict{}, tag("outer"), tag("inner"))
	s.Evaluate(context.Background(), "x", "x", domain.DefaultComparisonConfig())

	assert.Equal(t, []string{"outer", "inner"}, calls)
}

// taggedStrategy calls onEvaluate before delegating to next.
type taggedStrategy struct {
	next       ports.Strategy
	onEvaluate func()
}

func (t *taggedStrategy) Mode() domain.Mode { return t.next.Mode() }

func (t *taggedStrategy) Evaluate(ctx context.Context, s, e string, cfg domain.ComparisonConfig) domain.StrategyVerdict {
	t.onEvaluate()
	return t.next.Evaluate(ctx, s, e, cfg)
}
