package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/hourbid/api/controllers"
	"github.com/angelmondragon/hourbid/api/routes"
	"github.com/angelmondragon/hourbid/internal/app"
	"github.com/angelmondragon/hourbid/internal/cron"
	"github.com/angelmondragon/hourbid/pkg/config"
	pkgerrors "github.com/angelmondragon/hourbid/pkg/errors"
	"github.com/angelmondragon/hourbid/pkg/logger"
	"github.com/angelmondragon/hourbid/pkg/metrics"
)

const (
	serviceName     = "cron-worker"
	shutdownTimeout = 10 * time.Second
)

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(pkgerrors.ExitCode(err))
	}

	cfg.Service.Kind = serviceName

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	resources, err := app.Open(context.Background(), cfg, logg, registry)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap", err)
		os.Exit(pkgerrors.ExitCode(err))
	}
	defer func() {
		if err := resources.Close(); err != nil {
			logg.Error(context.Background(), "error closing resources", err)
		}
	}()

	jobs := cron.NewRegistry()
	bidJob, err := cron.NewHourlyBidJob(cron.HourlyBidJobParams{Logger: logg, Service: resources.Service})
	if err != nil {
		logg.Error(context.Background(), "failed to create hourly bid job", err)
		os.Exit(1)
	}
	jobs.Register(bidJob)

	if resources.History != nil && cfg.Cron.HistoryRetentionDays > 0 {
		retentionJob, err := cron.NewHistoryRetentionJob(cron.HistoryRetentionJobParams{
			Logger:     logg,
			DB:         resources.DB,
			Repository: resources.History,
			Retention:  cfg.Cron.HistoryRetentionDays,
		})
		if err != nil {
			logg.Error(context.Background(), "failed to create history retention job", err)
			os.Exit(1)
		}
		jobs.Register(retentionJob)
	}

	var lock cron.Lock = cron.NoopLock{}
	if resources.Redis != nil {
		lock, err = cron.NewRedisLock(resources.Redis, resources.Redis.LockKey(cron.HourlyBidJobName), cfg.Cron.LockTTL)
		if err != nil {
			logg.Error(context.Background(), "failed to create cron lock", err)
			os.Exit(1)
		}
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:     logg,
		Registry:   jobs,
		Lock:       lock,
		Metrics:    metrics.NewCronJobMetrics(registry),
		Interval:   cfg.Cron.Interval,
		Align:      cfg.Cron.Align,
		JobTimeout: cfg.Cron.JobTimeout,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	deps := map[string]controllers.Pinger{}
	if resources.DB != nil {
		deps["db"] = resources.DB
	}
	if resources.Redis != nil {
		deps["redis"] = resources.Redis
	}
	if resources.BigQuery != nil {
		deps["bigquery"] = resources.BigQuery
	}
	if resources.PubSub != nil {
		deps["pubsub"] = resources.PubSub
	}
	params := routes.RouterParams{
		Config:  cfg,
		Logger:  logg,
		Metrics: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Deps:    deps,
	}
	if resources.History != nil {
		params.History = resources.History
	}
	server := &http.Server{
		Addr:              cfg.Cron.MetricsAddr,
		Handler:           routes.NewRouter(params),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})

	go func() {
		logg.Info(logg.WithField(ctx, "addr", server.Addr), "ops server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "ops server stopped unexpectedly", err)
			stop()
		}
	}()

	logg.Info(ctx, "starting cron worker")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "ops server shutdown failed", err)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}
