package sheets

import (
	"strconv"
	"time"

	"github.com/angelmondragon/hourbid/internal/bidding"
	"github.com/angelmondragon/hourbid/pkg/enums"
)

// weekdayColumns is indexed by time.Weekday; Sunday sits after Saturday.
var weekdayColumns = [7]string{"H", "B", "C", "D", "E", "F", "G"}

const (
	firstHourRow  = 3
	timestampRow  = 2
	timestampForm = "2006-01-02 15:04:05"
)

// Column returns the report column for a weekday.
func Column(day enums.DayOfWeek) string {
	weekday, ok := day.Weekday()
	if !ok {
		return ""
	}
	return weekdayColumns[weekday]
}

// CellFor returns the A1 cell of a slot: hour 14 on Wednesday is D17.
func CellFor(slot bidding.Slot) string {
	return Column(slot.DayOfWeek) + strconv.Itoa(slot.Hour+firstHourRow)
}

// TimestampCell returns the last-updated cell of a weekday column.
func TimestampCell(day enums.DayOfWeek) string {
	return Column(day) + strconv.Itoa(timestampRow)
}

// FormatTimestamp renders a run time the way the sheet parses dates.
func FormatTimestamp(t time.Time) string {
	return t.Format(timestampForm)
}
