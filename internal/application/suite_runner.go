package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ahrav/outcmp/internal/domain"
	"github.com/ahrav/outcmp/internal/ports"
)

// SuiteRunner grades every case of a suite against submissions read from
// a SubmissionSource.
type SuiteRunner struct {
	comparator  *Comparator
	source      ports.SubmissionSource
	concurrency int
	limiter     *rate.Limiter
	logger      *slog.Logger
}

// RunnerOption configures a SuiteRunner.
type RunnerOption func(*SuiteRunner)

// WithConcurrency bounds how many cases are graded at once. Values below
// one default to runtime.NumCPU().
func WithConcurrency(n int) RunnerOption {
	return func(r *SuiteRunner) { r.concurrency = n }
}

// WithRateLimit caps how many cases start per second. A non-positive rps
// disables the limit.
func WithRateLimit(rps float64, burst int) RunnerOption {
	return func(r *SuiteRunner) {
		if rps <= 0 {
			r.limiter = nil
			return
		}
		r.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

// WithRunnerLogger sets the structured logger.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *SuiteRunner) { r.logger = logger }
}

// NewSuiteRunner creates a runner that grades with comparator.
func NewSuiteRunner(comparator *Comparator, source ports.SubmissionSource, opts ...RunnerOption) (*SuiteRunner, error) {
	if comparator == nil {
		return nil, errors.Join(domain.ErrInvalidConfiguration, errors.New("comparator is required"))
	}
	if source == nil {
		return nil, errors.Join(domain.ErrInvalidConfiguration, errors.New("submission source is required"))
	}

	r := &SuiteRunner{comparator: comparator, source: source}
	for _, opt := range opts {
		opt(r)
	}
	if r.concurrency < 1 {
		r.concurrency = runtime.NumCPU()
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r, nil
}

// Run grades every case in suite and returns the report with cases in
// suite order. A case that cannot be graded, for example because its
// submission is missing, is reported as errored without stopping the run.
// Run only fails when ctx is done before every case has started and
// finished, including while waiting on the rate limit.
func (r *SuiteRunner) Run(ctx context.Context, suite *SuiteConfig) (domain.SuiteReport, error) {
	start := time.Now()
	outcomes := make([]domain.CaseOutcome, len(suite.Cases))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, c := range suite.Cases {
		g.Go(func() error {
			if r.limiter != nil {
				if err := r.limiter.Wait(gctx); err != nil {
					return fmt.Errorf("rate limit wait: %w", err)
				}
			}
			outcome, err := r.grade(gctx, suite.Defaults, c)
			if err != nil {
				return err
			}
			outcomes[i] = outcome
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.SuiteReport{}, ctxErr
		}
		return domain.SuiteReport{}, fmt.Errorf("suite %s: %w", suite.Name, err)
	}

	report := domain.NewSuiteReport(suite.Name, outcomes, time.Since(start))
	r.logger.Info("suite graded",
		"suite", suite.Name,
		"cases", report.Total(),
		"passed", report.Passed,
		"failed", report.Failed,
		"errored", report.Errored,
		"duration", report.Duration,
	)
	return report, nil
}

// grade compares one case. The returned error is reserved for context
// cancellation; every other problem becomes part of the outcome.
func (r *SuiteRunner) grade(ctx context.Context, defaults CaseDefaults, c CaseConfig) (domain.CaseOutcome, error) {
	outcome := domain.CaseOutcome{CaseID: c.ID}

	submitted, err := r.source.Submission(ctx, c.ID)
	if err != nil {
		if ctx.Err() != nil {
			return outcome, ctx.Err()
		}
		r.logger.Warn("case not graded", "case", c.ID, "error", err)
		outcome.Error = err.Error()
		return outcome, nil
	}

	var result domain.ComparisonResult
	if c.Expected != nil {
		result, err = r.comparator.Compare(ctx, c.Request(defaults, submitted))
	} else {
		_, config := c.Settings(defaults)
		result, err = r.comparator.CompareDigest(ctx, submitted, c.ExpectedSHA256, config)
	}
	if err != nil {
		if ctx.Err() != nil {
			return outcome, ctx.Err()
		}
		outcome.Error = err.Error()
		return outcome, nil
	}

	fingerprint, err := Fingerprint(result)
	if err != nil {
		outcome.Error = err.Error()
		return outcome, nil
	}

	outcome.Result = result.Record()
	outcome.Fingerprint = fingerprint
	return outcome, nil
}
