package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/hourbid/internal/app"
	"github.com/angelmondragon/hourbid/internal/cron"
	"github.com/angelmondragon/hourbid/pkg/config"
	pkgerrors "github.com/angelmondragon/hourbid/pkg/errors"
	"github.com/angelmondragon/hourbid/pkg/logger"
)

const serviceName = "bidder"

// bidder performs one hourly bidding pass and exits. It is meant to be
// triggered by an external scheduler at the top of each hour.
func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	at := flag.String("at", "", "evaluate as if run at this RFC3339 time (defaults to now)")
	flag.Parse()

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})

	os.Exit(run(ctx, cfg, logg, *at))
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger, at string) int {
	now := time.Now()
	if at != "" {
		parsed, err := time.Parse(time.RFC3339, at)
		if err != nil {
			err = pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse -at")
			logg.Error(ctx, "invalid flag", err)
			return pkgerrors.ExitCode(err)
		}
		now = parsed
	}

	resources, err := app.Open(ctx, cfg, logg, prometheus.NewRegistry())
	if err != nil {
		logg.Error(ctx, "failed to bootstrap", err)
		return pkgerrors.ExitCode(err)
	}
	defer func() {
		if err := resources.Close(); err != nil {
			logg.Error(ctx, "error closing resources", err)
		}
	}()

	var (
		lock      cron.Lock = cron.NoopLock{}
		redisLock *cron.RedisLock
	)
	if resources.Redis != nil {
		redisLock, err = cron.NewRedisLock(resources.Redis, resources.Redis.LockKey(cron.HourlyBidJobName), cfg.Cron.LockTTL)
		if err != nil {
			logg.Error(ctx, "failed to create run lock", err)
			return pkgerrors.ExitCode(err)
		}
		lock = redisLock
	}

	locked, err := lock.Acquire(ctx)
	if err != nil {
		err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire run lock")
		logg.Error(ctx, "failed to acquire run lock", err)
		return pkgerrors.ExitCode(err)
	}
	if !locked {
		err := pkgerrors.New(pkgerrors.CodeConflict, "another bidding run is in progress")
		if redisLock != nil {
			if owner, ttl, herr := redisLock.Holder(ctx); herr == nil {
				ctx = logg.WithFields(ctx, map[string]any{"lock_owner": owner, "lock_ttl": ttl.String()})
			}
		}
		logg.Warn(ctx, err.Error())
		return pkgerrors.ExitCode(err)
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			logg.Error(ctx, "failed to release run lock", err)
		}
	}()

	summary, err := resources.Service.Run(ctx, now)
	if err != nil {
		logg.Error(logg.WithFields(ctx, map[string]any{
			"run_id":      summary.RunID,
			"campaigns":   summary.Campaigns,
			"adjustments": summary.Adjustments,
		}), "bidding run failed", err)
		return pkgerrors.ExitCode(err)
	}
	return 0
}
