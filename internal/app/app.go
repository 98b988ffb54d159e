// Package app opens the resources a bidding process needs and tears them
// down in reverse order.
package app

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/angelmondragon/hourbid/internal/ads"
	"github.com/angelmondragon/hourbid/internal/events"
	"github.com/angelmondragon/hourbid/internal/history"
	"github.com/angelmondragon/hourbid/internal/hourlybid"
	"github.com/angelmondragon/hourbid/internal/sheets"
	"github.com/angelmondragon/hourbid/pkg/bigquery"
	"github.com/angelmondragon/hourbid/pkg/config"
	"github.com/angelmondragon/hourbid/pkg/db"
	"github.com/angelmondragon/hourbid/pkg/logger"
	"github.com/angelmondragon/hourbid/pkg/metrics"
	"github.com/angelmondragon/hourbid/pkg/migrate"
	"github.com/angelmondragon/hourbid/pkg/pubsub"
	"github.com/angelmondragon/hourbid/pkg/redis"
)

// App holds the wired service and every optional backend that was enabled.
// Optional fields stay nil when their backend is not configured.
type App struct {
	Service  *hourlybid.Service
	Ads      *ads.Client
	Workbook *sheets.GoogleWorkbook
	DB       *db.Client
	History  *history.Repository
	BigQuery *bigquery.Client
	Redis    *redis.Client
	PubSub   *pubsub.Client

	closers []io.Closer
}

// Open connects to every configured backend and builds the bidding service.
// On failure everything opened so far is closed.
func Open(ctx context.Context, cfg *config.Config, logg *logger.Logger, reg prometheus.Registerer) (_ *App, err error) {
	a := &App{}
	defer func() {
		if err != nil {
			err = multierr.Append(err, a.Close())
		}
	}()

	a.Ads, err = ads.NewClient(ctx, cfg.Ads, logg)
	if err != nil {
		return nil, fmt.Errorf("ads client: %w", err)
	}

	a.Workbook, err = sheets.NewGoogleWorkbook(ctx, cfg.Bidding.SpreadsheetURL, cfg.Sheets, a.Ads.TokenSource(), logg)
	if err != nil {
		return nil, fmt.Errorf("sheets client: %w", err)
	}

	var recorders history.Fanout
	if cfg.DB.Enabled() {
		a.DB, err = db.New(ctx, cfg.DB, logg)
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		a.closers = append(a.closers, a.DB)
		if _, err = migrate.MaybeRun(ctx, cfg, logg, a.DB); err != nil {
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
		a.History, err = history.NewRepository(a.DB.DB())
		if err != nil {
			return nil, err
		}
		recorders = append(recorders, a.History)
	}

	if cfg.BigQuery.Enabled() {
		a.BigQuery, err = bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg)
		if err != nil {
			return nil, fmt.Errorf("bigquery: %w", err)
		}
		a.closers = append(a.closers, a.BigQuery)
		spec, err := history.AdjustmentsTable(cfg.BigQuery.AdjustmentsTable)
		if err != nil {
			return nil, err
		}
		if err := a.BigQuery.EnsureTable(ctx, spec); err != nil {
			return nil, fmt.Errorf("bigquery: %w", err)
		}
		sink, err := history.NewBigQuerySink(a.BigQuery, spec.Name)
		if err != nil {
			return nil, err
		}
		recorders = append(recorders, sink)
	}

	if cfg.Redis.Enabled() {
		a.Redis, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.closers = append(a.closers, a.Redis)
	}

	var notifier hourlybid.RunNotifier
	if cfg.PubSub.Enabled() {
		a.PubSub, err = pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			return nil, fmt.Errorf("pubsub: %w", err)
		}
		a.closers = append(a.closers, a.PubSub)
		notifier, err = events.NewRunPublisher(a.PubSub.RunsPublisher())
		if err != nil {
			return nil, err
		}
	}

	var recorder history.Recorder = history.Nop{}
	if len(recorders) > 0 {
		recorder = recorders
	}
	a.Service, err = hourlybid.NewService(hourlybid.ServiceParams{
		Logger:   logg,
		Platform: a.Ads,
		Workbook: a.Workbook,
		Config:   cfg.Bidding,
		Recorder: recorder,
		Metrics:  metrics.NewBiddingMetrics(reg),
		Notifier: notifier,
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Close releases the opened backends, newest first.
func (a *App) Close() error {
	var errs error
	for _, c := range slices.Backward(a.closers) {
		errs = multierr.Append(errs, c.Close())
	}
	a.closers = nil
	return errs
}
