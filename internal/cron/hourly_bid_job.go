package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/hourbid/internal/hourlybid"
	"github.com/angelmondragon/hourbid/pkg/logger"
)

// HourlyBidJobName also names the run lock shared with the one-shot binary.
const HourlyBidJobName = "hourly-bid"

type HourlyBidJobParams struct {
	Logger  *logger.Logger
	Service bidRunner
}

type bidRunner interface {
	Run(ctx context.Context, now time.Time) (hourlybid.Summary, error)
}

func NewHourlyBidJob(params HourlyBidJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Service == nil {
		return nil, fmt.Errorf("bidding service required")
	}
	return &hourlyBidJob{
		logg:    params.Logger,
		service: params.Service,
		now:     time.Now,
	}, nil
}

type hourlyBidJob struct {
	logg    *logger.Logger
	service bidRunner
	now     func() time.Time
}

func (j *hourlyBidJob) Name() string { return HourlyBidJobName }

func (j *hourlyBidJob) Run(ctx context.Context) error {
	summary, err := j.service.Run(ctx, j.now())
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"run_id":         summary.RunID,
		"campaigns":      summary.Campaigns,
		"skipped":        summary.Skipped,
		"sheets_created": summary.SheetsCreated,
		"adjustments":    summary.Adjustments,
	})
	if err != nil {
		return fmt.Errorf("hourly bid run: %w", err)
	}
	j.logg.Info(logCtx, "hourly bid job complete")
	return nil
}
