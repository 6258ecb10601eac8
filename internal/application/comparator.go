package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/outcmp/internal/domain"
	"github.com/ahrav/outcmp/internal/ports"
)

// Comparator grades submitted outputs against expected outputs. It owns
// no per-comparison state, so a single Comparator can serve any number of
// concurrent Compare calls.
type Comparator struct {
	registry    *StrategyRegistry
	resolver    *ConfigResolver
	pool        *StrategyPool
	logger      *slog.Logger
	metrics     ports.MetricsCollector
	tracer      trace.Tracer
	earlyCancel bool
}

type comparatorOptions struct {
	logger      *slog.Logger
	metrics     ports.MetricsCollector
	workers     int
	pool        *StrategyPool
	earlyCancel bool
	base        *domain.ComparisonConfig
}

// Option configures a Comparator.
type Option func(*comparatorOptions)

// WithLogger sets the structured logger. The default discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(o *comparatorOptions) { o.logger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(metrics ports.MetricsCollector) Option {
	return func(o *comparatorOptions) { o.metrics = metrics }
}

// WithWorkers sets the number of strategy evaluation slots.
// Ignored when WithPool is also given.
func WithWorkers(n int) Option {
	return func(o *comparatorOptions) { o.workers = n }
}

// WithPool shares an existing evaluation pool between comparators.
func WithPool(pool *StrategyPool) Option {
	return func(o *comparatorOptions) { o.pool = pool }
}

// WithEarlyCancel cancels lower-priority strategies once the winner is
// known. The recorded attempts then end at the winning strategy.
func WithEarlyCancel(enabled bool) Option {
	return func(o *comparatorOptions) { o.earlyCancel = enabled }
}

// WithBaseConfig replaces the defaults that per-test overrides are
// applied to.
func WithBaseConfig(cfg domain.ComparisonConfig) Option {
	return func(o *comparatorOptions) { o.base = &cfg }
}

// NewComparator creates a Comparator that runs the strategies in registry.
func NewComparator(registry *StrategyRegistry, opts ...Option) (*Comparator, error) {
	if registry == nil {
		return nil, errors.Join(domain.ErrInvalidConfiguration, errors.New("strategy registry is required"))
	}

	o := comparatorOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	base := domain.DefaultComparisonConfig()
	if o.base != nil {
		base = *o.base
	}

	resolver, err := NewConfigResolver(base, o.logger)
	if err != nil {
		return nil, err
	}
	pool := o.pool
	if pool == nil {
		pool = NewStrategyPool(o.workers, o.logger, o.metrics)
	}

	return &Comparator{
		registry:    registry,
		resolver:    resolver,
		pool:        pool,
		logger:      o.logger,
		metrics:     o.metrics,
		tracer:      otel.Tracer("outcmp-comparator"),
		earlyCancel: o.earlyCancel,
	}, nil
}

// SupportedModes lists the modes that can be forced on this comparator.
func (c *Comparator) SupportedModes() []domain.Mode { return c.registry.SupportedModes() }

// Resolver returns the configuration resolver used by Compare.
func (c *Comparator) Resolver() *ConfigResolver { return c.resolver }

// Compare grades req and returns the result with its full trace.
//
// Stages run in order: configuration is resolved, both texts are
// normalized, and then either the forced strategy or the AUTO pipeline
// (hash shortcut, STRICT, concurrent fan-out) decides. In AUTO mode the
// first PASS in priority order wins; completion order never matters.
//
// Compare fails only for a request without an expected output
// (domain.ErrMissingExpected) or when ctx is done before a verdict.
// Mismatches and inapplicable strategies are reported in the result.
func (c *Comparator) Compare(ctx context.Context, req domain.ComparisonRequest) (domain.ComparisonResult, error) {
	if req.Expected == nil {
		return domain.ComparisonResult{}, domain.ErrMissingExpected
	}
	if err := ctx.Err(); err != nil {
		return domain.ComparisonResult{}, err
	}

	ctx, span := c.tracer.Start(ctx, "Comparator.Compare",
		trace.WithAttributes(
			attribute.String("compare.mode_requested", req.CompareMode),
			attribute.Int("input.submitted_bytes", len(req.Submitted)),
			attribute.Int("input.expected_bytes", len(*req.Expected)),
		))
	defer span.End()

	start := time.Now()
	cfg := c.resolver.Resolve(req.CompareMode, req.CompareConfig)

	result, err := c.compare(ctx, req.Submitted, *req.Expected, cfg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.ComparisonResult{}, err
	}

	span.SetAttributes(
		attribute.String("compare.mode", string(cfg.Mode)),
		attribute.String("compare.mode_applied", string(result.ModeApplied)),
		attribute.Bool("compare.passed", result.Passed),
		attribute.Int("compare.attempts", len(result.Attempts)),
	)
	span.SetStatus(codes.Ok, "comparison completed")
	c.observe(cfg, result, len(req.Submitted)+len(*req.Expected), time.Since(start))

	return result, nil
}

// CompareDigest grades submitted against the digest of a large expected
// output produced by LargeOutputDigest. Only byte equality after
// normalization can be established this way, so a digest mismatch is a
// FAIL rather than a fall-through to the strategy pool.
func (c *Comparator) CompareDigest(
	ctx context.Context,
	submitted, expectedDigest string,
	overrides map[string]any,
) (domain.ComparisonResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.ComparisonResult{}, err
	}
	_, span := c.tracer.Start(ctx, "Comparator.CompareDigest",
		trace.WithAttributes(attribute.Int("input.submitted_bytes", len(submitted))))
	defer span.End()

	start := time.Now()
	cfg := c.resolver.Resolve("", overrides)
	sub := Normalize(submitted, cfg.UnicodeForm)

	result := domain.ComparisonResult{
		ModeApplied:    domain.ModeHashShortcut,
		Normalisations: domain.MergeLabels(sub.Labels),
		Attempts:       []domain.StrategyVerdict{},
	}
	if digestsEqual(Digest(sub.Text), expectedDigest) {
		result.Passed = true
	} else {
		result.WhyFailed = ReasonHashMismatch
	}

	span.SetAttributes(attribute.Bool("compare.passed", result.Passed))
	c.observe(cfg, result, len(submitted), time.Since(start))
	return result, nil
}

func (c *Comparator) compare(
	ctx context.Context,
	submitted, expected string,
	cfg domain.ComparisonConfig,
) (domain.ComparisonResult, error) {
	sub := Normalize(submitted, cfg.UnicodeForm)
	exp := Normalize(expected, cfg.UnicodeForm)

	if cfg.Mode != domain.ModeAuto {
		return c.forced(ctx, sub, exp, cfg)
	}

	if result, ok := TryHashShortcut(sub, exp, cfg); ok {
		return result, nil
	}
	if result, ok := TryStrict(sub, exp); ok {
		return result, nil
	}

	verdicts, err := c.pool.Evaluate(ctx, c.registry.Ranked(), sub.Text, exp.Text, cfg, c.earlyCancel)
	if err != nil {
		return domain.ComparisonResult{}, err
	}
	return assemble(exp.Labels, verdicts), nil
}

// forced runs STRICT and then only the named strategy. Anything short
// of a PASS or FAIL from that strategy fails the comparison.
func (c *Comparator) forced(
	ctx context.Context,
	sub, exp domain.NormalizedText,
	cfg domain.ComparisonConfig,
) (domain.ComparisonResult, error) {
	if result, ok := TryStrict(sub, exp); ok {
		return result, nil
	}

	result := domain.ComparisonResult{
		ModeApplied:    cfg.Mode,
		Normalisations: domain.MergeLabels(exp.Labels),
		Attempts:       []domain.StrategyVerdict{},
		WhyFailed:      ReasonForcedNoVerdict,
	}

	s, ok := c.registry.Lookup(cfg.Mode)
	if !ok {
		c.logger.Warn("forced compare mode has no registered strategy", "mode", cfg.Mode)
		return result, nil
	}

	verdicts, err := c.pool.Evaluate(ctx, []ports.Strategy{s}, sub.Text, exp.Text, cfg, false)
	if err != nil {
		return domain.ComparisonResult{}, err
	}
	result.Attempts = verdicts

	v := verdicts[0]
	switch v.Outcome {
	case domain.OutcomePass:
		result.Passed = true
		result.WhyFailed = ""
		result.Normalisations = domain.MergeLabels(exp.Labels, v.Normalisations)
	case domain.OutcomeFail:
		result.WhyFailed = v.Reason
	}
	return result, nil
}

// assemble picks the overall verdict from ranked verdicts listed in
// priority order.
func assemble(base []string, verdicts []domain.StrategyVerdict) domain.ComparisonResult {
	result := domain.ComparisonResult{
		Normalisations: domain.MergeLabels(base),
		Attempts:       verdicts,
	}

	for _, v := range verdicts {
		if v.Outcome == domain.OutcomePass {
			result.Passed = true
			result.ModeApplied = v.Mode
			result.Normalisations = domain.MergeLabels(base, v.Normalisations)
			return result
		}
	}
	for _, v := range verdicts {
		if v.Outcome == domain.OutcomeFail {
			result.ModeApplied = v.Mode
			result.WhyFailed = v.Reason
			return result
		}
	}

	result.WhyFailed = ReasonNoComparatorMatched
	return result
}

func (c *Comparator) observe(cfg domain.ComparisonConfig, result domain.ComparisonResult, inputBytes int, elapsed time.Duration) {
	c.logger.Debug("comparison completed",
		"mode", cfg.Mode,
		"mode_applied", result.ModeApplied,
		"passed", result.Passed,
		"attempts", len(result.Attempts),
		"duration", elapsed,
	)

	if c.metrics == nil {
		return
	}
	labels := map[string]string{
		"mode_applied": string(result.ModeApplied),
		"passed":       strconv.FormatBool(result.Passed),
	}
	c.metrics.RecordCounter("comparisons_total", 1, labels)
	c.metrics.RecordLatency("compare", elapsed, map[string]string{"mode_applied": string(result.ModeApplied)})
	c.metrics.RecordHistogram("comparison_input_bytes", float64(inputBytes), nil)
}
