package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/ahrav/outcmp/internal/domain"
	"github.com/ahrav/outcmp/internal/ports"
)

// ReasonCancelled is the DEFER reason of an evaluation that was stopped
// before it produced a verdict.
const ReasonCancelled = "evaluation cancelled"

// StrategyPool runs strategy evaluations on a bounded number of slots.
// One pool is shared by every comparison a Comparator runs, so the bound
// applies process-wide rather than per comparison.
//
// A strategy that overruns its timeout is reported as DEFER immediately,
// but its slot is only released once the strategy actually returns. Time
// spent waiting for a slot counts against the timeout, so strategies that
// ignore cancellation cannot stall other comparisons past their budget.
type StrategyPool struct {
	sem     *semaphore.Weighted
	size    int
	logger  *slog.Logger
	metrics ports.MetricsCollector

	// inFlight counts evaluations currently holding a slot.
	inFlight atomic.Int64
}

// NewStrategyPool creates a pool with size slots. A size of zero or less
// defaults to runtime.NumCPU() * 2. logger and metrics may be nil.
func NewStrategyPool(size int, logger *slog.Logger, metrics ports.MetricsCollector) *StrategyPool {
	if size <= 0 {
		size = runtime.NumCPU() * 2
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &StrategyPool{
		sem:     semaphore.NewWeighted(int64(size)),
		size:    size,
		logger:  logger,
		metrics: metrics,
	}
}

// Size returns the number of slots.
func (p *StrategyPool) Size() int { return p.size }

// InFlight returns the number of evaluations currently holding a slot.
func (p *StrategyPool) InFlight() int64 { return p.inFlight.Load() }

// Evaluate runs every strategy in list concurrently against the same
// normalized texts and returns their verdicts in list order, regardless
// of completion order.
//
// With earlyCancel set, lower-priority strategies are cancelled once every
// strategy up to and including the first PASS has reported, and the
// returned verdicts end at that PASS.
//
// Evaluate returns ctx.Err() when the caller's context is done.
func (p *StrategyPool) Evaluate(
	ctx context.Context,
	list []ports.Strategy,
	submitted, expected string,
	cfg domain.ComparisonConfig,
	earlyCancel bool,
) ([]domain.StrategyVerdict, error) {
	if len(list) == 0 {
		return []domain.StrategyVerdict{}, ctx.Err()
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu       sync.Mutex
		verdicts = make([]domain.StrategyVerdict, len(list))
		reported = make([]bool, len(list))
		winner   = -1
	)

	var g errgroup.Group
	for i, s := range list {
		g.Go(func() error {
			v := p.run(runCtx, s, submitted, expected, cfg)

			mu.Lock()
			defer mu.Unlock()
			verdicts[i] = v
			reported[i] = true
			if earlyCancel && winner < 0 {
				if w := decided(verdicts, reported); w >= 0 {
					winner = w
					cancel()
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if winner >= 0 {
		return verdicts[:winner+1], nil
	}
	return verdicts, nil
}

// decided returns the index of the first PASS when every verdict before
// it has been reported, or -1.
func decided(verdicts []domain.StrategyVerdict, reported []bool) int {
	for i := range verdicts {
		if !reported[i] {
			return -1
		}
		if verdicts[i].Outcome == domain.OutcomePass {
			return i
		}
	}
	return -1
}

// run evaluates one strategy under the per-strategy timeout.
func (p *StrategyPool) run(
	ctx context.Context,
	s ports.Strategy,
	submitted, expected string,
	cfg domain.ComparisonConfig,
) domain.StrategyVerdict {
	mode := s.Mode()
	start := time.Now()

	// The timeout covers the wait for a slot as well as the evaluation.
	evalCtx, cancel := context.WithTimeout(ctx, cfg.StrategyTimeout)
	defer cancel()

	if err := p.sem.Acquire(evalCtx, 1); err != nil {
		v := p.stopped(ctx, evalCtx, mode, cfg)
		v.Mode = mode
		v.Elapsed = time.Since(start)
		return v
	}
	p.recordInFlight(p.inFlight.Add(1))

	done := make(chan domain.StrategyVerdict, 1)

	go func() {
		defer p.sem.Release(1)
		defer func() { p.recordInFlight(p.inFlight.Add(-1)) }()
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error("strategy panicked",
					"mode", mode, "panic", r, "error", ports.ErrStrategyPanic)
				done <- domain.Defer(mode, fmt.Sprintf("strategy panicked: %v", r))
			}
		}()
		done <- s.Evaluate(evalCtx, submitted, expected, cfg)
	}()

	var v domain.StrategyVerdict
	select {
	case v = <-done:
		if v.Outcome == domain.OutcomeDefer && evalCtx.Err() != nil {
			v = p.stopped(ctx, evalCtx, mode, cfg)
		}
	case <-evalCtx.Done():
		v = p.stopped(ctx, evalCtx, mode, cfg)
	}

	v.Mode = mode
	v.Elapsed = time.Since(start)
	return v
}

// stopped builds the verdict for an evaluation whose context ended,
// telling a timeout apart from cancellation.
func (p *StrategyPool) stopped(
	parent, evalCtx context.Context,
	mode domain.Mode,
	cfg domain.ComparisonConfig,
) domain.StrategyVerdict {
	if parent.Err() != nil || !errors.Is(evalCtx.Err(), context.DeadlineExceeded) {
		return domain.Defer(mode, ReasonCancelled)
	}

	p.logger.Warn("strategy timed out",
		"mode", mode, "timeout", cfg.StrategyTimeout, "error", ports.ErrTimeout)
	if p.metrics != nil {
		p.metrics.RecordCounter("strategy_timeouts_total", 1, map[string]string{"strategy": string(mode)})
	}
	return domain.Defer(mode, fmt.Sprintf("strategy timed out after %s", cfg.StrategyTimeout))
}

func (p *StrategyPool) recordInFlight(n int64) {
	if p.metrics != nil {
		p.metrics.RecordGauge("strategy_pool_in_flight", float64(n), nil)
	}
}
