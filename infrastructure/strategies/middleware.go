package strategies

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/outcmp/internal/domain"
	"github.com/ahrav/outcmp/internal/ports"
)

// Middleware wraps a strategy with cross-cutting behavior. Wrapped
// strategies report the same Mode as the strategy they wrap.
type Middleware func(ports.Strategy) ports.Strategy

// Chain applies middlewares so that the first one listed is outermost.
func Chain(s ports.Strategy, mws ...Middleware) ports.Strategy {
	for i := len(mws) - 1; i >= 0; i-- {
		s = mws[i](s)
	}
	return s
}

// tracedStrategy records an OpenTelemetry span per evaluation.
type tracedStrategy struct {
	next   ports.Strategy
	tracer trace.Tracer
}

// TracingMiddleware creates middleware that wraps every evaluation in a
// span carrying the mode, input sizes, and outcome.
func TracingMiddleware() Middleware {
	tracer := otel.Tracer("outcmp-strategies")
	return func(next ports.Strategy) ports.Strategy {
		return &tracedStrategy{next: next, tracer: tracer}
	}
}

func (t *tracedStrategy) Mode() domain.Mode { return t.next.Mode() }

func (t *tracedStrategy) Evaluate(
	ctx context.Context,
	submitted, expected string,
	cfg domain.ComparisonConfig,
) domain.StrategyVerdict {
	ctx, span := t.tracer.Start(ctx, "Strategy.Evaluate",
		trace.WithAttributes(
			attribute.String("strategy.mode", string(t.next.Mode())),
			attribute.Int("input.submitted_bytes", len(submitted)),
			attribute.Int("input.expected_bytes", len(expected)),
		),
	)
	defer span.End()

	v := t.next.Evaluate(ctx, submitted, expected, cfg)

	span.SetAttributes(attribute.String("strategy.outcome", v.Outcome.String()))
	if v.Reason != "" {
		span.SetAttributes(attribute.String("strategy.reason", v.Reason))
	}
	return v
}

// metricsStrategy records latency and verdict counts per evaluation.
type metricsStrategy struct {
	next      ports.Strategy
	collector ports.MetricsCollector
}

// MetricsMiddleware creates middleware that reports evaluation latency and
// verdict counts to collector. A nil collector disables recording.
func MetricsMiddleware(collector ports.MetricsCollector) Middleware {
	return func(next ports.Strategy) ports.Strategy {
		return &metricsStrategy{next: next, collector: collector}
	}
}

func (m *metricsStrategy) Mode() domain.Mode { return m.next.Mode() }

func (m *metricsStrategy) Evaluate(
	ctx context.Context,
	submitted, expected string,
	cfg domain.ComparisonConfig,
) domain.StrategyVerdict {
	start := time.Now()
	v := m.next.Evaluate(ctx, submitted, expected, cfg)

	if m.collector != nil {
		mode := string(m.next.Mode())
		m.collector.RecordLatency("strategy_evaluate", time.Since(start), map[string]string{"strategy": mode})
		m.collector.RecordCounter("strategy_verdicts_total", 1, map[string]string{
			"strategy": mode,
			"outcome":  v.Outcome.String(),
		})
	}
	return v
}
