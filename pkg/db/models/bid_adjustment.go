package models

import "time"

// BidAdjustment is one ad schedule modifier written by a bidding run.
type BidAdjustment struct {
	ID           string    `gorm:"column:id;primaryKey" bigquery:"id"`
	RunID        string    `gorm:"column:run_id;not null;uniqueIndex:ux_bid_adjustments_slot,priority:1" bigquery:"run_id"`
	CampaignID   int64     `gorm:"column:campaign_id;not null;uniqueIndex:ux_bid_adjustments_slot,priority:2" bigquery:"campaign_id"`
	CampaignName string    `gorm:"column:campaign_name;not null" bigquery:"campaign_name"`
	DayOfWeek    string    `gorm:"column:day_of_week;not null;uniqueIndex:ux_bid_adjustments_slot,priority:3" bigquery:"day_of_week"`
	Hour         int       `gorm:"column:hour;not null;uniqueIndex:ux_bid_adjustments_slot,priority:4" bigquery:"hour"`
	Modifier     float64   `gorm:"column:modifier;not null" bigquery:"modifier"`
	Rule         string    `gorm:"column:rule;not null" bigquery:"rule"`
	Lenient      bool      `gorm:"column:lenient;not null;default:false" bigquery:"lenient"`
	CampaignCPA  float64   `gorm:"column:campaign_cpa;not null" bigquery:"campaign_cpa"`
	RowCPA       float64   `gorm:"column:row_cpa;not null" bigquery:"row_cpa"`
	ResourceName string    `gorm:"column:resource_name" bigquery:"resource_name"`
	AppliedAt    time.Time `gorm:"column:applied_at;not null" bigquery:"applied_at"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" bigquery:"-"`
}

func (BidAdjustment) TableName() string {
	return "bid_adjustments"
}
