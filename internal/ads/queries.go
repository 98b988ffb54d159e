package ads

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/angelmondragon/hourbid/internal/bidding"
	"github.com/angelmondragon/hourbid/pkg/enums"
	pkgerrors "github.com/angelmondragon/hourbid/pkg/errors"
)

const microsPerUnit = 1e6

// int64Value decodes the REST encoding of int64 fields, which arrive as
// JSON strings.
type int64Value int64

func (v *int64Value) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		*v = 0
		return nil
	}
	parsed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("parse int64 %q: %w", raw, err)
	}
	*v = int64Value(parsed)
	return nil
}

type searchRow struct {
	Customer          *customerRow          `json:"customer"`
	Campaign          *campaignRow          `json:"campaign"`
	Label             *labelRow             `json:"label"`
	Metrics           metricsRow            `json:"metrics"`
	Segments          segmentsRow           `json:"segments"`
	CampaignCriterion *campaignCriterionRow `json:"campaignCriterion"`
}

type customerRow struct {
	TimeZone string `json:"timeZone"`
}

type campaignRow struct {
	ResourceName           string     `json:"resourceName"`
	ID                     int64Value `json:"id"`
	Name                   string     `json:"name"`
	AdvertisingChannelType string     `json:"advertisingChannelType"`
	BiddingStrategyType    string     `json:"biddingStrategyType"`
}

type labelRow struct {
	ResourceName string `json:"resourceName"`
	Name         string `json:"name"`
}

type metricsRow struct {
	CostMicros            int64Value `json:"costMicros"`
	Conversions           float64    `json:"conversions"`
	Clicks                int64Value `json:"clicks"`
	CostPerConversion     float64    `json:"costPerConversion"`
	SearchImpressionShare *float64   `json:"searchImpressionShare"`
}

type segmentsRow struct {
	DayOfWeek string `json:"dayOfWeek"`
	Hour      int    `json:"hour"`
}

type campaignCriterionRow struct {
	ResourceName string  `json:"resourceName"`
	BidModifier  float64 `json:"bidModifier"`
	AdSchedule   *struct {
		DayOfWeek string `json:"dayOfWeek"`
		StartHour int    `json:"startHour"`
		EndHour   int    `json:"endHour"`
	} `json:"adSchedule"`
}

var _ json.Unmarshaler = (*int64Value)(nil)

// quote renders a GAQL string literal.
func quote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", `\'`) + "'"
}

func (c *Client) campaignResource(campaignID int64) string {
	return fmt.Sprintf("customers/%s/campaigns/%d", c.customerID, campaignID)
}

// labelResources resolves label names to resource names. Unknown names are
// dropped.
func (c *Client) labelResources(ctx context.Context, names []string) ([]string, error) {
	quoted := make([]string, 0, len(names))
	for _, name := range names {
		quoted = append(quoted, quote(name))
	}
	query := "SELECT label.resource_name, label.name FROM label WHERE label.name IN (" + strings.Join(quoted, ", ") + ")"
	rows, err := c.search(ctx, query)
	if err != nil {
		return nil, err
	}
	resources := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.Label != nil && row.Label.ResourceName != "" {
			resources = append(resources, row.Label.ResourceName)
		}
	}
	return resources, nil
}

// ListCampaigns returns enabled campaigns of the filter's channel type.
func (c *Client) ListCampaigns(ctx context.Context, filter CampaignFilter) ([]Campaign, error) {
	if !filter.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported campaign type %q", filter.Type))
	}
	conditions := []string{
		"campaign.status = 'ENABLED'",
		"campaign.advertising_channel_type = " + quote(string(filter.Type)),
	}
	if len(filter.Labels) > 0 {
		labels, err := c.labelResources(ctx, filter.Labels)
		if err != nil {
			return nil, err
		}
		if len(labels) == 0 {
			return nil, nil
		}
		quoted := make([]string, 0, len(labels))
		for _, label := range labels {
			quoted = append(quoted, quote(label))
		}
		conditions = append(conditions, "campaign.labels CONTAINS ANY ("+strings.Join(quoted, ", ")+")")
	}

	query := "SELECT campaign.id, campaign.name, campaign.advertising_channel_type, campaign.bidding_strategy_type FROM campaign WHERE " +
		strings.Join(conditions, " AND ") + " ORDER BY campaign.name"
	rows, err := c.search(ctx, query)
	if err != nil {
		return nil, err
	}

	campaigns := make([]Campaign, 0, len(rows))
	for _, row := range rows {
		if row.Campaign == nil {
			continue
		}
		campaigns = append(campaigns, Campaign{
			ID:              int64(row.Campaign.ID),
			Name:            row.Campaign.Name,
			Type:            enums.CampaignType(row.Campaign.AdvertisingChannelType),
			BiddingStrategy: enums.BiddingStrategyType(row.Campaign.BiddingStrategyType),
		})
	}
	return campaigns, nil
}

// CampaignStats sums cost, conversions and clicks for the period.
func (c *Client) CampaignStats(ctx context.Context, campaignID int64, period DateRange) (Stats, error) {
	query := fmt.Sprintf(
		"SELECT metrics.cost_micros, metrics.conversions, metrics.clicks FROM campaign WHERE campaign.id = %d AND %s",
		campaignID, period.Condition(),
	)
	rows, err := c.search(ctx, query)
	if err != nil {
		return Stats{}, err
	}
	var stats Stats
	for _, row := range rows {
		stats.Cost += float64(row.Metrics.CostMicros) / microsPerUnit
		stats.Conversions += row.Metrics.Conversions
		stats.Clicks += float64(row.Metrics.Clicks)
	}
	return stats, nil
}

// HourlyReport returns one row per (weekday, hour) bucket with activity in
// the period.
func (c *Client) HourlyReport(ctx context.Context, campaignID int64, period DateRange) ([]bidding.HourlyStatRow, error) {
	query := fmt.Sprintf(
		"SELECT segments.day_of_week, segments.hour, metrics.conversions, metrics.cost_micros, "+
			"metrics.cost_per_conversion, metrics.search_impression_share FROM campaign WHERE campaign.id = %d AND %s",
		campaignID, period.Condition(),
	)
	rows, err := c.search(ctx, query)
	if err != nil {
		return nil, err
	}

	out := make([]bidding.HourlyStatRow, 0, len(rows))
	for _, row := range rows {
		day, err := enums.ParseDayOfWeek(row.Segments.DayOfWeek)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "hourly report row")
		}
		share := math.NaN()
		if row.Metrics.SearchImpressionShare != nil {
			share = *row.Metrics.SearchImpressionShare * 100
		}
		out = append(out, bidding.HourlyStatRow{
			DayOfWeek:         day,
			Hour:              row.Segments.Hour,
			Conversions:       row.Metrics.Conversions,
			Cost:              float64(row.Metrics.CostMicros) / microsPerUnit,
			CostPerConversion: row.Metrics.CostPerConversion / microsPerUnit,
			ImpressionShare:   share,
		})
	}
	return out, nil
}

// AdSchedules lists the campaign's ad schedule criteria.
func (c *Client) AdSchedules(ctx context.Context, campaignID int64) ([]AdSchedule, error) {
	query := fmt.Sprintf(
		"SELECT campaign_criterion.resource_name, campaign_criterion.ad_schedule.day_of_week, "+
			"campaign_criterion.ad_schedule.start_hour, campaign_criterion.ad_schedule.end_hour, "+
			"campaign_criterion.bid_modifier FROM campaign_criterion "+
			"WHERE campaign.id = %d AND campaign_criterion.type = 'AD_SCHEDULE'",
		campaignID,
	)
	rows, err := c.search(ctx, query)
	if err != nil {
		return nil, err
	}
	schedules := make([]AdSchedule, 0, len(rows))
	for _, row := range rows {
		criterion := row.CampaignCriterion
		if criterion == nil || criterion.AdSchedule == nil {
			continue
		}
		schedules = append(schedules, AdSchedule{
			ResourceName: criterion.ResourceName,
			DayOfWeek:    enums.DayOfWeek(criterion.AdSchedule.DayOfWeek),
			StartHour:    criterion.AdSchedule.StartHour,
			EndHour:      criterion.AdSchedule.EndHour,
			BidModifier:  criterion.BidModifier,
		})
	}
	return schedules, nil
}

// RemoveAdSchedules deletes the given criteria in one mutate call.
func (c *Client) RemoveAdSchedules(ctx context.Context, schedules []AdSchedule) error {
	if len(schedules) == 0 {
		return nil
	}
	ops := make([]criterionOperation, 0, len(schedules))
	for _, schedule := range schedules {
		ops = append(ops, criterionOperation{Remove: schedule.ResourceName})
	}
	_, err := c.mutateCriteria(ctx, ops)
	return err
}

// AddAdSchedule creates one ad schedule entry and returns its resource name.
func (c *Client) AddAdSchedule(ctx context.Context, campaignID int64, schedule AdSchedule) (string, error) {
	if !schedule.DayOfWeek.IsValid() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid day of week %q", schedule.DayOfWeek))
	}
	if schedule.StartHour < 0 || schedule.EndHour > 24 || schedule.StartHour >= schedule.EndHour {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid schedule hours %d-%d", schedule.StartHour, schedule.EndHour))
	}
	resp, err := c.mutateCriteria(ctx, []criterionOperation{{
		Create: &criterionPayload{
			Campaign: c.campaignResource(campaignID),
			AdSchedule: adSchedulePayload{
				DayOfWeek:   string(schedule.DayOfWeek),
				StartHour:   schedule.StartHour,
				StartMinute: "ZERO",
				EndHour:     schedule.EndHour,
				EndMinute:   "ZERO",
			},
			BidModifier: schedule.BidModifier,
		},
	}})
	if err != nil {
		return "", err
	}
	if len(resp.Results) == 0 {
		return "", nil
	}
	return resp.Results[0].ResourceName, nil
}
