package utils

import (
	"fmt"
	"math"
	"time"

	"github.com/julianstephens/habitquest/internal/constants"
)

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(timezone)
}

// NowInTimezone returns the current time in the specified timezone.
func NowInTimezone(timezone string) (time.Time, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return time.Now().In(loc), nil
}

// GetTodayInTimezone returns today's civil date (YYYY-MM-DD) in the specified timezone.
func GetTodayInTimezone(timezone string) (string, error) {
	now, err := NowInTimezone(timezone)
	if err != nil {
		return "", err
	}
	return now.Format(constants.DateFormat), nil
}

// ValidateTimezone checks if the timezone name is valid.
func ValidateTimezone(timezone string) bool {
	if timezone == "" || timezone == "Local" {
		return true
	}
	_, err := time.LoadLocation(timezone)
	return err == nil
}

// CivilDate returns the calendar date of t in t's own location.
func CivilDate(t time.Time) string {
	return t.Format(constants.DateFormat)
}

// ParseDate parses a civil date string. The result is midnight UTC so that
// day arithmetic never crosses a DST transition.
func ParseDate(date string) (time.Time, error) {
	t, err := time.Parse(constants.DateFormat, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", date, err)
	}
	return t, nil
}

// ValidateDate checks that date is a well-formed civil date.
func ValidateDate(date string) bool {
	_, err := ParseDate(date)
	return err == nil
}

// AddDays shifts a civil date by n days.
func AddDays(date string, n int) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, n).Format(constants.DateFormat), nil
}

// DaysBetween returns end minus start in whole days. Negative when end is
// before start.
func DaysBetween(start, end string) (int, error) {
	s, err := ParseDate(start)
	if err != nil {
		return 0, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return 0, err
	}
	return int(e.Sub(s) / constants.Day), nil
}

// DateRange returns every civil date from start through end, inclusive.
// An empty slice is returned when end is before start.
func DateRange(start, end string) ([]string, error) {
	s, err := ParseDate(start)
	if err != nil {
		return nil, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return nil, err
	}
	if e.Before(s) {
		return []string{}, nil
	}

	days := make([]string, 0, int(e.Sub(s)/constants.Day)+1)
	for d := s; !d.After(e); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(constants.DateFormat))
	}
	return days, nil
}

// WeekStart returns the Monday of the ISO week containing date.
func WeekStart(date string) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset).Format(constants.DateFormat), nil
}

// MonthStart returns the first day of the calendar month containing date.
func MonthStart(date string) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).Format(constants.DateFormat), nil
}

// ElapsedDays is floor((to - from) / 24h) on instants. It can be negative.
func ElapsedDays(from, to time.Time) int {
	return int(math.Floor(float64(to.Sub(from)) / float64(constants.Day)))
}
