package enums

import (
	"fmt"
	"strings"
	"time"
)

// DayOfWeek is the upper-case weekday name used by ad schedules.
type DayOfWeek string

const (
	Sunday    DayOfWeek = "SUNDAY"
	Monday    DayOfWeek = "MONDAY"
	Tuesday   DayOfWeek = "TUESDAY"
	Wednesday DayOfWeek = "WEDNESDAY"
	Thursday  DayOfWeek = "THURSDAY"
	Friday    DayOfWeek = "FRIDAY"
	Saturday  DayOfWeek = "SATURDAY"
)

// weekdays is indexed by time.Weekday (0 = Sunday).
var weekdays = [7]DayOfWeek{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// DayOfWeekFromTime returns the schedule day for the given weekday.
func DayOfWeekFromTime(day time.Weekday) DayOfWeek {
	return weekdays[int(day)%7]
}

// Weekday converts back to time.Weekday.
func (d DayOfWeek) Weekday() (time.Weekday, bool) {
	for i, candidate := range weekdays {
		if candidate == d {
			return time.Weekday(i), true
		}
	}
	return time.Sunday, false
}

// IsValid reports whether the value is one of the seven weekdays.
func (d DayOfWeek) IsValid() bool {
	_, ok := d.Weekday()
	return ok
}

// Title returns the report spelling, e.g. "Wednesday".
func (d DayOfWeek) Title() string {
	if !d.IsValid() {
		return string(d)
	}
	lower := strings.ToLower(string(d))
	return strings.ToUpper(lower[:1]) + lower[1:]
}

// ParseDayOfWeek accepts both "WEDNESDAY" and "Wednesday".
func ParseDayOfWeek(value string) (DayOfWeek, error) {
	candidate := DayOfWeek(strings.ToUpper(strings.TrimSpace(value)))
	if candidate.IsValid() {
		return candidate, nil
	}
	return "", fmt.Errorf("invalid day of week %q", value)
}
