package hourlybid

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/hourbid/internal/ads"
	"github.com/angelmondragon/hourbid/internal/bidding"
	"github.com/angelmondragon/hourbid/internal/history"
	"github.com/angelmondragon/hourbid/internal/sheets"
	"github.com/angelmondragon/hourbid/pkg/config"
	"github.com/angelmondragon/hourbid/pkg/enums"
	pkgerrors "github.com/angelmondragon/hourbid/pkg/errors"
	"github.com/angelmondragon/hourbid/pkg/logger"
	"github.com/angelmondragon/hourbid/pkg/metrics"
)

// ServiceParams wires the dependencies of a bidding run.
type ServiceParams struct {
	Logger   *logger.Logger
	Platform ads.Platform
	Workbook sheets.Workbook
	Config   config.BiddingConfig
	Recorder history.Recorder
	Metrics  *metrics.BiddingMetrics
	Notifier RunNotifier
	NewRunID func() string
}

// RunNotifier is told about every finished run, successful or not.
type RunNotifier interface {
	NotifyRun(ctx context.Context, summary Summary, runErr error) error
}

// Service performs one hourly bidding pass over every selected campaign.
type Service struct {
	logg     *logger.Logger
	platform ads.Platform
	workbook sheets.Workbook
	cfg      config.BiddingConfig
	period   ads.DateRange
	bounds   bidding.Bounds
	recorder history.Recorder
	metrics  *metrics.BiddingMetrics
	notifier RunNotifier
	newRunID func() string
}

// Summary describes what a run did.
type Summary struct {
	RunID         string
	StartedAt     time.Time
	Campaigns     int
	Skipped       int
	SheetsCreated int
	Adjustments   int
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Platform == nil {
		return nil, fmt.Errorf("ad platform required")
	}
	if params.Workbook == nil {
		return nil, fmt.Errorf("workbook required")
	}
	period, err := ads.Preset(params.Config.DateRange)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "date range")
	}
	bounds := bidding.Bounds{Min: params.Config.MinBid, Max: params.Config.MaxBid}
	if bounds.Min <= 0 || bounds.Min > 1 || bounds.Max < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid bid bounds [%v, %v]", bounds.Min, bounds.Max))
	}
	recorder := params.Recorder
	if recorder == nil {
		recorder = history.Nop{}
	}
	newRunID := params.NewRunID
	if newRunID == nil {
		newRunID = uuid.NewString
	}
	return &Service{
		logg:     params.Logger,
		platform: params.Platform,
		workbook: params.Workbook,
		cfg:      params.Config,
		period:   period,
		bounds:   bounds,
		recorder: recorder,
		metrics:  params.Metrics,
		notifier: params.Notifier,
		newRunID: newRunID,
	}, nil
}

// Run executes one pass. now is converted to the account time zone once and
// drives both the window and the sheet timestamps. The first error aborts the
// run; the summary reports what happened up to that point. A failing notifier
// is logged and never fails the run.
func (s *Service) Run(ctx context.Context, now time.Time) (Summary, error) {
	summary := Summary{RunID: s.newRunID()}
	ctx = s.logg.WithRunID(ctx, summary.RunID)

	err := s.run(ctx, now, &summary)
	if s.notifier != nil {
		if nerr := s.notifier.NotifyRun(context.WithoutCancel(ctx), summary, err); nerr != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", nerr.Error()), "run notification failed")
		}
	}
	return summary, err
}

func (s *Service) run(ctx context.Context, now time.Time, summary *Summary) error {
	loc, err := s.platform.TimeZone(ctx)
	if err != nil {
		return fmt.Errorf("account time zone: %w", err)
	}
	now = now.In(loc)
	summary.StartedAt = now

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"now":       now.Format(time.RFC3339),
		"time_zone": loc.String(),
		"window":    fmt.Sprintf("%s %02d:00-%02d:00", now.Weekday(), now.Hour(), min(now.Hour()+bidding.WindowHours, 24)),
	}), "bidding run starting")

	for _, campaignType := range s.campaignTypes() {
		campaigns, err := s.platform.ListCampaigns(ctx, ads.CampaignFilter{Type: campaignType, Labels: s.cfg.CampaignLabels})
		if err != nil {
			return fmt.Errorf("list %s campaigns: %w", campaignType, err)
		}
		for _, campaign := range campaigns {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := s.processCampaign(ctx, campaign, now, summary); err != nil {
				return fmt.Errorf("campaign %q: %w", campaign.Name, err)
			}
		}
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"campaigns":      summary.Campaigns,
		"skipped":        summary.Skipped,
		"sheets_created": summary.SheetsCreated,
		"adjustments":    summary.Adjustments,
	}), "bidding run complete")
	return nil
}

func (s *Service) campaignTypes() []enums.CampaignType {
	var types []enums.CampaignType
	if s.cfg.IncludeSearch {
		types = append(types, enums.CampaignTypeSearch)
	}
	if s.cfg.IncludeShop {
		types = append(types, enums.CampaignTypeShopping)
	}
	return types
}

func (s *Service) processCampaign(ctx context.Context, campaign ads.Campaign, now time.Time, summary *Summary) error {
	ctx = s.logg.WithCampaign(ctx, campaign.ID, campaign.Name)

	sheet, created, err := sheets.EnsureSheet(ctx, s.workbook, campaign.Name, s.cfg.TemplateSheet)
	if err != nil {
		return err
	}
	if created {
		summary.SheetsCreated++
		s.metrics.IncSheetCreated()
		if s.cfg.Log {
			s.logg.Info(ctx, "new sheet created for "+campaign.Name)
		}
	}

	stats, err := s.platform.CampaignStats(ctx, campaign.ID, s.period)
	if err != nil {
		return err
	}
	cpa := stats.CPA()
	if reason, skip := s.skipReason(campaign, cpa); skip {
		summary.Skipped++
		s.metrics.IncCampaign(metrics.CampaignSkipped)
		s.logg.Debug(s.logg.WithFields(ctx, map[string]any{
			"reason":           reason,
			"bidding_strategy": string(campaign.BiddingStrategy),
		}), "campaign skipped")
		return nil
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"cpa":        cpa,
		"date_range": s.period.String(),
	}), "campaign selected")

	written, err := s.adjustCampaign(ctx, campaign, sheet, now, summary.RunID)
	if err != nil {
		return err
	}
	summary.Campaigns++
	summary.Adjustments += written
	s.metrics.IncCampaign(metrics.CampaignProcessed)
	return nil
}

// skipReason applies the campaign filter. Campaigns without a finite CPA are
// always skipped; strict mode also skips automated bidding strategies.
func (s *Service) skipReason(campaign ads.Campaign, cpa float64) (string, bool) {
	if !bidding.IsFinite(cpa) {
		return "no conversions in date range", true
	}
	if s.cfg.StrictManualBidding && !campaign.BiddingStrategy.IsManual() {
		return "automated bidding strategy", true
	}
	return "", false
}
