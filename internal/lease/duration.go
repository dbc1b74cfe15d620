package lease

import (
	"strings"
	"time"

	"github.com/jinzhu/now"
)

// Unit is the period a lease duration is counted in.
type Unit string

const (
	Day   Unit = "day"
	Week  Unit = "week"
	Month Unit = "month"
	Year  Unit = "year"
)

const (
	DefaultDuration = 1
	DefaultUnit     = Month
)

const DateLayout = "2006-01-02"

// ParseUnit reports whether s names one of the known units.
func ParseUnit(s string) (Unit, bool) {
	u := Unit(strings.ToLower(strings.TrimSpace(s)))
	return u, u.Valid()
}

func (u Unit) Valid() bool {
	switch u {
	case Day, Week, Month, Year:
		return true
	}
	return false
}

// ComputeEndDate adds duration units to start. Month and year additions keep the
// day of month and clamp to the last day of the target month when it does not exist
// there. Any unit other than day, week or year is treated as month.
func ComputeEndDate(start time.Time, duration int, unit Unit) time.Time {
	start = DateOnly(start)
	switch unit {
	case Day:
		return start.AddDate(0, 0, duration)
	case Week:
		return start.AddDate(0, 0, duration*7)
	case Year:
		return addMonths(start, duration*12)
	default:
		return addMonths(start, duration)
	}
}

func addMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	if last := now.With(first).EndOfMonth().Day(); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

// DateOnly drops the clock part and pins the date to UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate accepts YYYY-MM-DD, or an RFC3339 timestamp from which only the date is kept.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return DateOnly(t), nil
}

// FormatDate renders a nullable date column, "" when unset.
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}

// DaysBetween counts whole calendar days from a to b (negative when b precedes a).
func DaysBetween(a, b time.Time) int {
	return int(DateOnly(b).Sub(DateOnly(a)).Hours() / 24)
}
