package hourlybid

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/hourbid/internal/ads"
	"github.com/angelmondragon/hourbid/internal/bidding"
	"github.com/angelmondragon/hourbid/internal/sheets"
	"github.com/angelmondragon/hourbid/pkg/db/models"
	"github.com/angelmondragon/hourbid/pkg/enums"
)

// adjustCampaign rewrites the campaign's ad schedule for the current window
// and returns the number of entries written.
func (s *Service) adjustCampaign(ctx context.Context, campaign ads.Campaign, sheet sheets.Sheet, now time.Time, runID string) (int, error) {
	start, end := bidding.TrailingYear(now)
	year := ads.Between(start, end)

	yearly, err := s.platform.CampaignStats(ctx, campaign.ID, year)
	if err != nil {
		return 0, err
	}
	campaignCPA := yearly.CPA()

	existing, err := s.platform.AdSchedules(ctx, campaign.ID)
	if err != nil {
		return 0, err
	}
	if err := s.platform.RemoveAdSchedules(ctx, existing); err != nil {
		return 0, err
	}

	rows, err := s.platform.HourlyReport(ctx, campaign.ID, year)
	if err != nil {
		return 0, err
	}

	var trend bidding.ConversionTrend
	if s.cfg.CompareTodayConversionRate {
		trend, err = s.conversionTrend(ctx, campaign.ID)
		if err != nil {
			return 0, err
		}
	}

	adjustments := capPerDay(bidding.Calculate(bidding.Input{
		CampaignCPA:          campaignCPA,
		AverageConversions:   bidding.AverageSlotConversions(yearly.Conversions),
		Rows:                 rows,
		Now:                  now,
		Trend:                trend,
		Bounds:               s.bounds,
		LenientWhenImproving: s.cfg.CompareTodayConversionRate,
	}))

	s.logg.Debug(s.logg.WithFields(ctx, map[string]any{
		"campaign_cpa_12m":   campaignCPA,
		"report_start":       start.Format(time.DateOnly),
		"report_end":         end.Format(time.DateOnly),
		"report_rows":        len(rows),
		"removed_schedules":  len(existing),
		"today_conv_rate":    trend.Today,
		"last_30d_conv_rate": trend.Last30Days,
		"window_adjustments": len(adjustments),
	}), "campaign report loaded")

	batch := sheets.NewBatch(sheet)
	records := make([]models.BidAdjustment, 0, len(adjustments))
	for _, adj := range adjustments {
		resource, err := s.platform.AddAdSchedule(ctx, campaign.ID, ads.AdSchedule{
			DayOfWeek:   adj.Slot.DayOfWeek,
			StartHour:   adj.Slot.Hour,
			EndHour:     adj.Slot.EndHour(),
			BidModifier: adj.Modifier,
		})
		if err != nil {
			return 0, err
		}
		batch.SetAdjustment(adj.Slot, adj.Modifier, now)
		s.metrics.ObserveAdjustment(string(adj.Rule), adj.Modifier)

		slotCtx := s.logg.WithFields(ctx, map[string]any{
			"rule":     string(adj.Rule),
			"modifier": adj.Modifier,
			"lenient":  adj.Lenient,
		})
		if adj.Lenient {
			s.logg.Info(slotCtx, "good conversion rate")
		}
		s.logg.Info(slotCtx, fmt.Sprintf("%s %d Bidmodifier: %d", adj.Slot.DayOfWeek.Title(), adj.Slot.Hour, bidding.LogPercent(adj.Modifier)))

		records = append(records, models.BidAdjustment{
			ID:           uuid.NewString(),
			RunID:        runID,
			CampaignID:   campaign.ID,
			CampaignName: campaign.Name,
			DayOfWeek:    string(adj.Slot.DayOfWeek),
			Hour:         adj.Slot.Hour,
			Modifier:     adj.Modifier,
			Rule:         string(adj.Rule),
			Lenient:      adj.Lenient,
			CampaignCPA:  finiteOrZero(campaignCPA),
			RowCPA:       finiteOrZero(adj.Row.CostPerConversion),
			ResourceName: resource,
			AppliedAt:    now.UTC(),
		})
	}

	if err := batch.Flush(ctx, s.workbook); err != nil {
		return 0, err
	}
	if err := s.recorder.Record(ctx, records); err != nil {
		return 0, fmt.Errorf("record history: %w", err)
	}
	return len(adjustments), nil
}

func (s *Service) conversionTrend(ctx context.Context, campaignID int64) (bidding.ConversionTrend, error) {
	today, err := s.platform.CampaignStats(ctx, campaignID, ads.Today)
	if err != nil {
		return bidding.ConversionTrend{}, err
	}
	last30, err := s.platform.CampaignStats(ctx, campaignID, ads.Last30Days)
	if err != nil {
		return bidding.ConversionTrend{}, err
	}
	return bidding.ConversionTrend{Today: today.ConversionRate(), Last30Days: last30.ConversionRate()}, nil
}

// capPerDay drops duplicate slots and keeps at most MaxSchedulesPerDay
// entries per weekday, in report order.
func capPerDay(adjustments []bidding.Adjustment) []bidding.Adjustment {
	seen := make(map[bidding.Slot]struct{}, len(adjustments))
	perDay := make(map[enums.DayOfWeek]int)
	out := adjustments[:0:0]
	for _, adj := range adjustments {
		if _, dup := seen[adj.Slot]; dup {
			continue
		}
		if perDay[adj.Slot.DayOfWeek] >= bidding.MaxSchedulesPerDay {
			continue
		}
		seen[adj.Slot] = struct{}{}
		perDay[adj.Slot.DayOfWeek]++
		out = append(out, adj)
	}
	return out
}

func finiteOrZero(v float64) float64 {
	if !bidding.IsFinite(v) {
		return 0
	}
	return v
}
