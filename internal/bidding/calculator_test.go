package bidding

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/hourbid/pkg/enums"
)

// Wednesday 14:10 in Amsterdam.
var wednesdayAfternoon = time.Date(2026, 10, 21, 14, 10, 0, 0, mustLocation("Europe/Amsterdam"))

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

func baseInput() Input {
	return Input{
		CampaignCPA:          20,
		AverageConversions:   4,
		Now:                  wednesdayAfternoon,
		Bounds:               DefaultBounds,
		LenientWhenImproving: true,
	}
}

func TestEvaluateRules(t *testing.T) {
	tests := []struct {
		name     string
		row      HourlyStatRow
		trend    ConversionTrend
		rule     Rule
		modifier float64
		lenient  bool
	}{
		{
			name:     "no conversions and cost above cpa",
			row:      HourlyStatRow{Conversions: 0, Cost: 25},
			rule:     RuleNoConversions,
			modifier: 0.75,
		},
		{
			name:     "no conversions and cost below cpa",
			row:      HourlyStatRow{Conversions: 0, Cost: 10},
			rule:     RuleNeutral,
			modifier: 1,
		},
		{
			name:     "underperforming low volume halves penalty",
			row:      HourlyStatRow{Conversions: 1, Cost: 25, CostPerConversion: 25},
			rule:     RuleUnderperforming,
			modifier: 0.9,
		},
		{
			name:     "underperforming high volume quarters penalty",
			row:      HourlyStatRow{Conversions: 3, Cost: 75, CostPerConversion: 25},
			rule:     RuleUnderperforming,
			modifier: 0.95,
		},
		{
			name:     "underperforming exactly half the average uses the lighter penalty",
			row:      HourlyStatRow{Conversions: 2, Cost: 50, CostPerConversion: 25},
			rule:     RuleUnderperforming,
			modifier: 0.95,
		},
		{
			name:     "underperforming clamps to min bid",
			row:      HourlyStatRow{Conversions: 1, Cost: 100, CostPerConversion: 100},
			rule:     RuleUnderperforming,
			modifier: 0.75,
		},
		{
			name:     "improving day halves the penalty again",
			row:      HourlyStatRow{Conversions: 1, Cost: 25, CostPerConversion: 25},
			trend:    ConversionTrend{Today: 0.08, Last30Days: 0.05},
			rule:     RuleUnderperforming,
			modifier: 0.95,
			lenient:  true,
		},
		{
			name:     "improving day softens a clamped penalty",
			row:      HourlyStatRow{Conversions: 1, Cost: 100, CostPerConversion: 100},
			trend:    ConversionTrend{Today: 0.08, Last30Days: 0.05},
			rule:     RuleUnderperforming,
			modifier: 0.875,
			lenient:  true,
		},
		{
			name:     "outperforming with impression share headroom",
			row:      HourlyStatRow{Conversions: 2, Cost: 32, CostPerConversion: 16, ImpressionShare: 80},
			rule:     RuleOutperforming,
			modifier: 1.25,
		},
		{
			name:     "outperforming clamps to max bid",
			row:      HourlyStatRow{Conversions: 4, Cost: 40, CostPerConversion: 10, ImpressionShare: 80},
			rule:     RuleOutperforming,
			modifier: 1.3,
		},
		{
			name:     "outperforming with position headroom only",
			row:      HourlyStatRow{Conversions: 2, Cost: 32, CostPerConversion: 16, ImpressionShare: 95, AveragePosition: 2.1},
			rule:     RuleOutperforming,
			modifier: 1.25,
		},
		{
			name:     "outperforming without headroom stays neutral",
			row:      HourlyStatRow{Conversions: 2, Cost: 32, CostPerConversion: 16, ImpressionShare: 95, AveragePosition: 1.2},
			rule:     RuleNeutral,
			modifier: 1,
		},
		{
			name:     "unknown impression share is not headroom",
			row:      HourlyStatRow{Conversions: 2, Cost: 32, CostPerConversion: 16, ImpressionShare: math.NaN()},
			rule:     RuleNeutral,
			modifier: 1,
		},
		{
			name:     "zero spend is neutral",
			row:      HourlyStatRow{},
			rule:     RuleNeutral,
			modifier: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := baseInput()
			in.Trend = tt.trend
			adj := Evaluate(tt.row, in)
			assert.Equal(t, tt.rule, adj.Rule)
			assert.InDelta(t, tt.modifier, adj.Modifier, 1e-9)
			assert.Equal(t, tt.lenient, adj.Lenient)
		})
	}
}

func TestEvaluateIgnoresTrendWhenLeniencyDisabled(t *testing.T) {
	in := baseInput()
	in.LenientWhenImproving = false
	in.Trend = ConversionTrend{Today: 0.5, Last30Days: 0.01}

	adj := Evaluate(HourlyStatRow{Conversions: 1, Cost: 25, CostPerConversion: 25}, in)
	assert.InDelta(t, 0.9, adj.Modifier, 1e-9)
	assert.False(t, adj.Lenient)
}

func TestEvaluateNonFiniteCampaignCPAIsNeutral(t *testing.T) {
	in := baseInput()
	in.CampaignCPA = math.Inf(1)

	adj := Evaluate(HourlyStatRow{Conversions: 0, Cost: 25}, in)
	assert.Equal(t, RuleNeutral, adj.Rule)
	assert.Equal(t, 1.0, adj.Modifier)
}

func TestModifiersStayWithinBounds(t *testing.T) {
	in := baseInput()
	for conversions := 0.0; conversions <= 10; conversions++ {
		for cost := 0.0; cost <= 400; cost += 7.5 {
			for _, share := range []float64{10, 89, 90, 100, math.NaN()} {
				row := HourlyStatRow{Conversions: conversions, Cost: cost, ImpressionShare: share}
				if conversions > 0 {
					row.CostPerConversion = cost / conversions
				}
				for _, trend := range []ConversionTrend{{}, {Today: 1, Last30Days: 0}} {
					in.Trend = trend
					adj := Evaluate(row, in)
					if adj.Rule == RuleNeutral {
						require.Equal(t, 1.0, adj.Modifier)
						continue
					}
					require.GreaterOrEqual(t, adj.Modifier, in.Bounds.Min, "row %+v", row)
					require.LessOrEqual(t, adj.Modifier, in.Bounds.Max, "row %+v", row)
				}
			}
		}
	}
}

func TestInWindow(t *testing.T) {
	tests := []struct {
		slot Slot
		want bool
	}{
		{slot: Slot{DayOfWeek: enums.Wednesday, Hour: 13}, want: false},
		{slot: Slot{DayOfWeek: enums.Wednesday, Hour: 14}, want: true},
		{slot: Slot{DayOfWeek: enums.Wednesday, Hour: 19}, want: true},
		{slot: Slot{DayOfWeek: enums.Wednesday, Hour: 20}, want: false},
		{slot: Slot{DayOfWeek: enums.Thursday, Hour: 14}, want: false},
	}
	for _, tt := range tests {
		if got := InWindow(tt.slot, wednesdayAfternoon); got != tt.want {
			t.Fatalf("InWindow(%s) = %v, want %v", tt.slot, got, tt.want)
		}
	}
}

func TestCalculateSchedulesAtMostSixSlotsPerDay(t *testing.T) {
	rows := fullWeek()
	monday := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	for day := 0; day < 7; day++ {
		for hour := 0; hour < 24; hour++ {
			in := baseInput()
			in.Rows = rows
			in.Now = monday.AddDate(0, 0, day).Add(time.Duration(hour)*time.Hour + 30*time.Minute)

			adjustments := Calculate(in)
			perDay := map[enums.DayOfWeek]int{}
			for _, adj := range adjustments {
				perDay[adj.Slot.DayOfWeek]++
				require.True(t, InWindow(adj.Slot, in.Now))
			}
			today := enums.DayOfWeekFromTime(in.Now.Weekday())
			require.Len(t, perDay, 1)
			require.LessOrEqual(t, perDay[today], MaxSchedulesPerDay)
			require.Equal(t, min(MaxSchedulesPerDay, 24-hour), perDay[today])
		}
	}
}

func TestCalculateKeepsReportOrder(t *testing.T) {
	in := baseInput()
	in.Rows = []HourlyStatRow{
		{DayOfWeek: enums.Wednesday, Hour: 16},
		{DayOfWeek: enums.Tuesday, Hour: 15},
		{DayOfWeek: enums.Wednesday, Hour: 14, Conversions: 0, Cost: 25},
	}

	adjustments := Calculate(in)
	require.Len(t, adjustments, 2)
	assert.Equal(t, 16, adjustments[0].Slot.Hour)
	assert.Equal(t, 14, adjustments[1].Slot.Hour)
	assert.Equal(t, 0.75, adjustments[1].Modifier)
}

func TestTrailingYear(t *testing.T) {
	tests := []struct {
		now   time.Time
		start time.Time
		end   time.Time
	}{
		{
			now:   time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC),
			start: time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC),
		},
		{
			now:   time.Date(2026, 1, 5, 23, 0, 0, 0, time.UTC),
			start: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			now:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
			start: time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		start, end := TrailingYear(tt.now)
		assert.True(t, start.Equal(tt.start), "start %s want %s", start, tt.start)
		assert.True(t, end.Equal(tt.end), "end %s want %s", end, tt.end)
	}
}

func TestCPA(t *testing.T) {
	assert.Equal(t, 20.0, CPA(200, 10))
	assert.False(t, IsFinite(CPA(200, 0)))
	assert.False(t, IsFinite(CPA(0, 0)))
	assert.InDelta(t, 1.0, AverageSlotConversions(168), 1e-12)
}

func fullWeek() []HourlyStatRow {
	rows := make([]HourlyStatRow, 0, SlotsPerWeek)
	for day := time.Sunday; day <= time.Saturday; day++ {
		for hour := 0; hour < 24; hour++ {
			rows = append(rows, HourlyStatRow{
				DayOfWeek:         enums.DayOfWeekFromTime(day),
				Hour:              hour,
				Conversions:       float64(hour % 3),
				Cost:              float64(10 + hour),
				CostPerConversion: float64(10+hour) / math.Max(float64(hour%3), 1),
				ImpressionShare:   70,
			})
		}
	}
	return rows
}
