package bidding

import (
	"time"

	"github.com/angelmondragon/hourbid/pkg/enums"
)

// WindowHours is how many hours, starting with the current one, a run
// schedules. Six keeps each weekday within the platform's schedule limit.
const WindowHours = MaxSchedulesPerDay

const (
	impressionShareHeadroom = 90.0
	averagePositionHeadroom = 1.5
)

// InWindow reports whether the slot is today's current hour or one of the
// following five.
func InWindow(slot Slot, now time.Time) bool {
	if slot.DayOfWeek != enums.DayOfWeekFromTime(now.Weekday()) {
		return false
	}
	hour := now.Hour()
	return slot.Hour > hour-1 && slot.Hour < hour+WindowHours
}

// Calculate returns one adjustment per report row inside the rolling window,
// in report order. Rows outside the window are ignored.
func Calculate(in Input) []Adjustment {
	var adjustments []Adjustment
	for _, row := range in.Rows {
		slot := Slot{DayOfWeek: row.DayOfWeek, Hour: row.Hour}
		if !InWindow(slot, in.Now) {
			continue
		}
		adjustments = append(adjustments, Evaluate(row, in))
	}
	return adjustments
}

// Evaluate computes the modifier for a single row regardless of the window.
func Evaluate(row HourlyStatRow, in Input) Adjustment {
	adj := Adjustment{
		Slot: Slot{DayOfWeek: row.DayOfWeek, Hour: row.Hour},
		Row:  row,
	}
	cpa := in.CampaignCPA

	switch {
	case row.Conversions == 0 && row.Cost > cpa:
		adj.Rule = RuleNoConversions
		adj.Modifier = in.Bounds.Min

	case row.Conversions > 0 && row.CostPerConversion > cpa:
		adj.Rule = RuleUnderperforming
		penalty := 1 - cpa/row.CostPerConversion
		if row.Conversions < in.AverageConversions/2 {
			penalty /= 2
		} else {
			penalty /= 4
		}
		modifier := in.Bounds.clampMin(1 - penalty)
		if in.LenientWhenImproving && in.Trend.Improving() {
			modifier = 1 - (1-modifier)/2
			adj.Lenient = true
		}
		adj.Modifier = modifier

	case row.CostPerConversion > 0 && row.CostPerConversion < cpa && IsFinite(cpa) && hasHeadroom(row):
		adj.Rule = RuleOutperforming
		adj.Modifier = in.Bounds.clampMax(cpa / row.CostPerConversion)

	default:
		adj.Rule = RuleNeutral
		adj.Modifier = 1
	}
	return adj
}

// hasHeadroom reports whether a cheap hour still has impressions or position
// to win. A missing impression share never counts as headroom.
func hasHeadroom(row HourlyStatRow) bool {
	return row.ImpressionShare < impressionShareHeadroom || row.AveragePosition > averagePositionHeadroom
}

// TrailingYear returns the inclusive report window: the first day of the month
// twelve months back through the last day of the previous month.
func TrailingYear(now time.Time) (start, end time.Time) {
	year, month, _ := now.Date()
	loc := now.Location()
	start = time.Date(year, month-12, 1, 0, 0, 0, 0, loc)
	end = time.Date(year, month, 0, 0, 0, 0, 0, loc)
	return start, end
}
