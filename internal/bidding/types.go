package bidding

import (
	"fmt"
	"math"
	"time"

	"github.com/angelmondragon/hourbid/pkg/enums"
)

// SlotsPerWeek is the number of (weekday, hour) buckets in a week.
const SlotsPerWeek = 24 * 7

// MaxSchedulesPerDay is the platform limit on ad schedule entries per weekday.
const MaxSchedulesPerDay = 6

// HourlyStatRow is one (weekday, hour) bucket of the trailing-year report.
type HourlyStatRow struct {
	DayOfWeek         enums.DayOfWeek
	Hour              int
	Conversions       float64
	Cost              float64
	CostPerConversion float64
	AveragePosition   float64
	// ImpressionShare is a percentage in [0, 100]; NaN when the platform
	// did not report one.
	ImpressionShare float64
}

// Slot identifies a one-hour ad schedule window.
type Slot struct {
	DayOfWeek enums.DayOfWeek
	Hour      int
}

func (s Slot) String() string {
	return fmt.Sprintf("%s %d", s.DayOfWeek.Title(), s.Hour)
}

// EndHour is the exclusive end of the slot, 24 for the last hour of the day.
func (s Slot) EndHour() int {
	return s.Hour + 1
}

// Rule names the branch that produced a modifier.
type Rule string

const (
	RuleNoConversions   Rule = "no_conversions"
	RuleUnderperforming Rule = "underperforming"
	RuleOutperforming   Rule = "outperforming"
	RuleNeutral         Rule = "neutral"
)

// Bounds are the configured modifier limits.
type Bounds struct {
	Min float64
	Max float64
}

// DefaultBounds matches the shipped defaults (-25% / +30%).
var DefaultBounds = Bounds{Min: 0.75, Max: 1.3}

func (b Bounds) clampMin(modifier float64) float64 {
	if modifier < b.Min {
		return b.Min
	}
	return modifier
}

func (b Bounds) clampMax(modifier float64) float64 {
	if modifier > b.Max {
		return b.Max
	}
	return modifier
}

// ConversionTrend compares today's conversion rate with the trailing 30 days.
type ConversionTrend struct {
	Today      float64
	Last30Days float64
}

// Improving reports whether today converts better than the 30-day average.
func (c ConversionTrend) Improving() bool {
	return c.Today > c.Last30Days
}

// Input is everything the calculator needs for one campaign.
type Input struct {
	// CampaignCPA is the trailing-year cost per conversion.
	CampaignCPA float64
	// AverageConversions is the trailing-year conversions per weekly slot.
	AverageConversions float64
	Rows               []HourlyStatRow
	// Now is the run timestamp in the account time zone.
	Now    time.Time
	Trend  ConversionTrend
	Bounds Bounds
	// LenientWhenImproving halves penalties when the trend is improving.
	LenientWhenImproving bool
}

// Adjustment is a computed modifier for one slot.
type Adjustment struct {
	Slot     Slot
	Modifier float64
	Rule     Rule
	Lenient  bool
	Row      HourlyStatRow
}

// CPA divides cost by conversions. The result is +Inf or NaN when there are
// no conversions, matching how the platform reports it.
func CPA(cost, conversions float64) float64 {
	return cost / conversions
}

// IsFinite reports whether a CPA is usable for comparisons.
func IsFinite(value float64) bool {
	return !math.IsInf(value, 0) && !math.IsNaN(value)
}

// AverageSlotConversions spreads a period's conversions across the 168 weekly slots.
func AverageSlotConversions(conversions float64) float64 {
	return conversions / SlotsPerWeek
}
