package ads

import (
	"fmt"
	"strings"
	"time"
)

const gaqlDateLayout = "2006-01-02"

var presetRanges = map[string]struct{}{
	"TODAY":               {},
	"YESTERDAY":           {},
	"LAST_7_DAYS":         {},
	"LAST_14_DAYS":        {},
	"LAST_30_DAYS":        {},
	"LAST_BUSINESS_WEEK":  {},
	"LAST_WEEK_MON_SUN":   {},
	"LAST_WEEK_SUN_SAT":   {},
	"THIS_WEEK_MON_TODAY": {},
	"THIS_WEEK_SUN_TODAY": {},
	"THIS_MONTH":          {},
	"LAST_MONTH":          {},
}

// DateRange is either a named preset or an inclusive custom date span.
type DateRange struct {
	Preset string
	Start  time.Time
	End    time.Time
}

// Preset builds a named range such as LAST_30_DAYS.
func Preset(name string) (DateRange, error) {
	normalized := strings.ToUpper(strings.TrimSpace(name))
	if _, ok := presetRanges[normalized]; !ok {
		return DateRange{}, fmt.Errorf("unsupported date range %q", name)
	}
	return DateRange{Preset: normalized}, nil
}

// Between builds an inclusive custom range.
func Between(start, end time.Time) DateRange {
	return DateRange{Start: start, End: end}
}

// Today is the account-local current day.
var Today = DateRange{Preset: "TODAY"}

// Last30Days is the trailing 30-day window used for conversion-rate trends.
var Last30Days = DateRange{Preset: "LAST_30_DAYS"}

// Condition renders the GAQL date predicate.
func (d DateRange) Condition() string {
	if d.Preset != "" {
		return "segments.date DURING " + d.Preset
	}
	return fmt.Sprintf("segments.date BETWEEN '%s' AND '%s'", d.Start.Format(gaqlDateLayout), d.End.Format(gaqlDateLayout))
}

func (d DateRange) String() string {
	if d.Preset != "" {
		return d.Preset
	}
	return d.Start.Format(gaqlDateLayout) + ".." + d.End.Format(gaqlDateLayout)
}
