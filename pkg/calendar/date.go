package calendar

import (
	"fmt"
	"regexp"
	"time"
)

const DateLayout = "2006-01-02"

var dateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ParseDate parses a strict YYYY-MM-DD date as midnight UTC.
func ParseDate(date string) (time.Time, error) {
	if !dateRegex.MatchString(date) {
		return time.Time{}, fmt.Errorf("date %q must match YYYY-MM-DD", date)
	}
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return t, nil
}

func IsDate(date string) bool {
	_, err := ParseDate(date)
	return err == nil
}

// DateOf returns the calendar date of t as seen in loc.
func DateOf(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateLayout)
}

func AddDays(date string, days int) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, days).Format(DateLayout), nil
}

// Combine returns the instant at which time24 occurs on date in loc.
func Combine(date, time24 string, loc *time.Location) (time.Time, error) {
	d, err := ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	hour, minute, err := splitTime24(time24)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, loc), nil
}

// MonthDates lists every date of the given month in order.
func MonthDates(year int, month time.Month) ([]string, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("month %d out of range", month)
	}
	if year < 1900 || year > 2100 {
		return nil, fmt.Errorf("year %d out of range", year)
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	var dates []string
	for d := first; d.Month() == month; d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(DateLayout))
	}
	return dates, nil
}
