package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/hourbid/pkg/logger"
)

const historyRetentionDays = 90

// txRunner executes a function inside a database transaction.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type HistoryRetentionJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository historyRetentionRepo
	Retention  int
}

type historyRetentionRepo interface {
	DeleteAppliedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

func NewHistoryRetentionJob(params HistoryRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("history repository required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = historyRetentionDays
	}
	return &historyRetentionJob{
		logg:      params.Logger,
		db:        params.DB,
		repo:      params.Repository,
		retention: retention,
		now:       time.Now,
	}, nil
}

type historyRetentionJob struct {
	logg      *logger.Logger
	db        txRunner
	repo      historyRetentionRepo
	retention int
	now       func() time.Time
}

func (j *historyRetentionJob) Name() string { return "history-retention" }

func (j *historyRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.retention) * 24 * time.Hour)
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.repo.DeleteAppliedBefore(ctx, tx, cutoff)
		if err != nil {
			return err
		}
		deleted = rows
		return nil
	})
	if err != nil {
		return fmt.Errorf("history retention: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retention,
		"rows_deleted":   deleted,
	})
	j.logg.Info(logCtx, "history retention cleanup complete")
	return nil
}
