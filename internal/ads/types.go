package ads

import (
	"context"
	"time"

	"github.com/angelmondragon/hourbid/internal/bidding"
	"github.com/angelmondragon/hourbid/pkg/enums"
)

// Campaign is an enabled campaign eligible for hourly bidding.
type Campaign struct {
	ID              int64
	Name            string
	Type            enums.CampaignType
	BiddingStrategy enums.BiddingStrategyType
}

// Stats are aggregate campaign metrics over a date range.
type Stats struct {
	Cost        float64
	Conversions float64
	Clicks      float64
}

// CPA is cost per conversion; non-finite without conversions.
func (s Stats) CPA() float64 {
	return bidding.CPA(s.Cost, s.Conversions)
}

// ConversionRate is conversions per click, zero without clicks.
func (s Stats) ConversionRate() float64 {
	if s.Clicks == 0 {
		return 0
	}
	return s.Conversions / s.Clicks
}

// AdSchedule is a campaign-level day/hour targeting entry with a bid modifier.
type AdSchedule struct {
	ResourceName string
	DayOfWeek    enums.DayOfWeek
	StartHour    int
	EndHour      int
	BidModifier  float64
}

// CampaignFilter selects enabled campaigns of one channel type. An empty
// label list matches every campaign.
type CampaignFilter struct {
	Type   enums.CampaignType
	Labels []string
}

// Platform is the ad platform surface the bidder needs.
type Platform interface {
	TimeZone(ctx context.Context) (*time.Location, error)
	ListCampaigns(ctx context.Context, filter CampaignFilter) ([]Campaign, error)
	CampaignStats(ctx context.Context, campaignID int64, period DateRange) (Stats, error)
	HourlyReport(ctx context.Context, campaignID int64, period DateRange) ([]bidding.HourlyStatRow, error)
	AdSchedules(ctx context.Context, campaignID int64) ([]AdSchedule, error)
	RemoveAdSchedules(ctx context.Context, schedules []AdSchedule) error
	AddAdSchedule(ctx context.Context, campaignID int64, schedule AdSchedule) (string, error)
}
