package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/hourbid/pkg/logger"
	"github.com/angelmondragon/hourbid/pkg/metrics"
)

const defaultInterval = time.Hour

// ServiceParams configure the cron service.
type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	Interval time.Duration
	// Align schedules cycles on wall-clock multiples of Interval, so an hourly
	// worker runs just after each full hour whatever time it started.
	Align bool
	// JobTimeout bounds each job; zero means no bound beyond the run context.
	JobTimeout time.Duration
}

// Service executes registered jobs once at startup and then on every
// interval boundary, guarded by a cluster-wide lock.
type Service struct {
	logg       *logger.Logger
	registry   *Registry
	lock       Lock
	metrics    *metrics.CronJobMetrics
	interval   time.Duration
	align      bool
	jobTimeout time.Duration
	now        func() time.Time
}

// NewService builds a cron service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.JobTimeout < 0 {
		return nil, fmt.Errorf("job timeout must not be negative")
	}
	lock := params.Lock
	if lock == nil {
		lock = NoopLock{}
	}
	registry := params.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Service{
		logg:       params.Logger,
		registry:   registry,
		lock:       lock,
		metrics:    params.Metrics,
		interval:   interval,
		align:      params.Align,
		jobTimeout: params.JobTimeout,
		now:        time.Now,
	}, nil
}

// Run executes a startup cycle and then loops until ctx is canceled. Cycle
// errors are logged; they never stop the loop.
func (s *Service) Run(ctx context.Context) error {
	s.cycle(ctx)

	timer := time.NewTimer(s.nextDelay(s.now()))
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron service stopping")
			return ctx.Err()
		case <-timer.C:
			s.cycle(ctx)
			timer.Reset(s.nextDelay(s.now()))
		}
	}
}

// RunOnce executes a single guarded cycle and returns the combined job errors.
func (s *Service) RunOnce(ctx context.Context) error {
	return s.runCycle(ctx)
}

func (s *Service) cycle(ctx context.Context) {
	if err := s.runCycle(ctx); err != nil {
		s.logg.Error(ctx, "scheduled run failed", err)
	}
}

// nextDelay is the wait until the next cycle. Aligned services wait for the
// next multiple of the interval since the Unix epoch.
func (s *Service) nextDelay(now time.Time) time.Duration {
	if !s.align {
		return s.interval
	}
	next := now.Truncate(s.interval).Add(s.interval)
	return next.Sub(now)
}

func (s *Service) runCycle(ctx context.Context) error {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		s.logg.Info(ctx, "cron lock held elsewhere, cycle skipped")
		return nil
	}
	defer func() {
		if relErr := s.lock.Release(context.WithoutCancel(ctx)); relErr != nil {
			s.logg.Error(ctx, "cron lock release failed", relErr)
		}
	}()

	s.logg.Info(s.logg.WithField(ctx, "jobs", s.registry.Names()), "scheduled run starting")
	var errs error
	for _, job := range s.registry.Jobs() {
		if err := s.runJob(ctx, job); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", job.Name(), err))
		}
	}
	s.logg.Info(s.logg.WithField(ctx, "failed_jobs", len(multierr.Errors(errs))), "scheduled run complete")
	return errs
}

func (s *Service) runJob(ctx context.Context, job Job) error {
	name := job.Name()
	jobCtx := s.logg.WithField(ctx, "job", name)
	if s.jobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(jobCtx, s.jobTimeout)
		defer cancel()
	}

	start := time.Now()
	err := job.Run(jobCtx)
	elapsed := time.Since(start)
	s.metrics.ObserveDuration(name, elapsed)

	jobCtx = s.logg.WithField(jobCtx, "duration_ms", elapsed.Milliseconds())
	if err != nil {
		s.metrics.IncFailure(name)
		s.logg.Error(jobCtx, "job failed", err)
		return err
	}
	s.metrics.IncSuccess(name)
	s.logg.Info(jobCtx, "job completed")
	return nil
}
