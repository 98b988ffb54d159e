package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/hourbid/pkg/logger"
	"github.com/angelmondragon/hourbid/pkg/metrics"
)

type fakeLock struct {
	acquired bool
	releases int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.acquired {
		return false, nil
	}
	f.acquired = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.acquired = false
	f.releases++
	return nil
}

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func TestServiceRunCycleRunsAllJobsEvenOnFailure(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "cron-test"})
	boom := errors.New("boom")
	success := &testJob{name: "success"}
	failure := &testJob{name: "fail", err: boom}
	trailing := &testJob{name: "trailing"}
	lock := &fakeLock{}
	service, err := NewService(ServiceParams{
		Logger:   logg,
		Registry: NewRegistry(success, failure, trailing),
		Lock:     lock,
		Interval: 0,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	err = service.RunOnce(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected failing job error, got %v", err)
	}
	for _, job := range []*testJob{success, failure, trailing} {
		if job.runs != 1 {
			t.Fatalf("expected %s job to run once, ran %d", job.name, job.runs)
		}
	}
	if lock.acquired || lock.releases != 1 {
		t.Fatalf("expected lock released once, got acquired=%v releases=%d", lock.acquired, lock.releases)
	}
}

func TestServiceRunCycleSkipsWhenLockHeld(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "cron-test"})
	job := &testJob{name: "hourly-bid"}
	service, err := NewService(ServiceParams{
		Logger:   logg,
		Registry: NewRegistry(job),
		Lock:     &fakeLock{acquired: true},
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	if err := service.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("expected job to be skipped, ran %d", job.runs)
	}
}

func TestServiceRecordsJobMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	service, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test"}),
		Registry: NewRegistry(&testJob{name: "hourly-bid"}, &testJob{name: "history-retention", err: errors.New("boom")}),
		Metrics:  metrics.NewCronJobMetrics(reg),
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	_ = service.RunOnce(context.Background())

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var successes, failures float64
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			switch mf.GetName() {
			case "hourbid_job_success_total":
				successes += m.GetCounter().GetValue()
			case "hourbid_job_failure_total":
				failures += m.GetCounter().GetValue()
			}
		}
	}
	if successes != 1 || failures != 1 {
		t.Fatalf("expected 1 success and 1 failure, got %v/%v", successes, failures)
	}
}

func TestServiceRunStopsOnCancel(t *testing.T) {
	job := &testJob{name: "hourly-bid"}
	service, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test"}),
		Registry: NewRegistry(job),
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := service.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
	if job.runs != 1 {
		t.Fatalf("expected the startup cycle to run once, ran %d", job.runs)
	}
}

func TestNewServiceRequiresLogger(t *testing.T) {
	if _, err := NewService(ServiceParams{}); err == nil {
		t.Fatal("expected missing logger error")
	}
}

func TestServiceNextDelay(t *testing.T) {
	now := time.Date(2026, 10, 19, 14, 20, 30, 0, time.UTC)
	cases := map[string]struct {
		params ServiceParams
		want   time.Duration
	}{
		"fixed":           {params: ServiceParams{Interval: time.Hour}, want: time.Hour},
		"aligned hourly":  {params: ServiceParams{Interval: time.Hour, Align: true}, want: 39*time.Minute + 30*time.Second},
		"aligned 15m":     {params: ServiceParams{Interval: 15 * time.Minute, Align: true}, want: 9*time.Minute + 30*time.Second},
		"default aligned": {params: ServiceParams{Align: true}, want: 39*time.Minute + 30*time.Second},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			tc.params.Logger = logger.New(logger.Options{ServiceName: "cron-test"})
			service, err := NewService(tc.params)
			if err != nil {
				t.Fatalf("construct service: %v", err)
			}
			if got := service.nextDelay(now); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

type deadlineJob struct {
	hadDeadline bool
}

func (j *deadlineJob) Name() string { return "deadline" }

func (j *deadlineJob) Run(ctx context.Context) error {
	_, j.hadDeadline = ctx.Deadline()
	return nil
}

func TestServiceAppliesJobTimeout(t *testing.T) {
	job := &deadlineJob{}
	service, err := NewService(ServiceParams{
		Logger:     logger.New(logger.Options{ServiceName: "cron-test"}),
		Registry:   NewRegistry(job),
		JobTimeout: time.Minute,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	if err := service.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if !job.hadDeadline {
		t.Fatal("expected job context to carry a deadline")
	}

	if _, err := NewService(ServiceParams{Logger: logger.New(logger.Options{ServiceName: "cron-test"}), JobTimeout: -time.Second}); err == nil {
		t.Fatal("expected negative timeout to be rejected")
	}
}
