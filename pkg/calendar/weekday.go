package calendar

import (
	"fmt"
	"strings"
	"time"
)

// Weekday is an English day name. Day names, never numeric indices, cross
// every API and storage boundary.
type Weekday string

const (
	Sunday    Weekday = "Sunday"
	Monday    Weekday = "Monday"
	Tuesday   Weekday = "Tuesday"
	Wednesday Weekday = "Wednesday"
	Thursday  Weekday = "Thursday"
	Friday    Weekday = "Friday"
	Saturday  Weekday = "Saturday"
)

var Weekdays = []Weekday{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

func (w Weekday) String() string {
	return string(w)
}

func (w Weekday) Valid() bool {
	for _, d := range Weekdays {
		if d == w {
			return true
		}
	}
	return false
}

// ParseWeekday accepts a day name in any letter case.
func ParseWeekday(s string) (Weekday, error) {
	s = strings.TrimSpace(s)
	for _, d := range Weekdays {
		if strings.EqualFold(string(d), s) {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown weekday %q", s)
}

func WeekdayOf(t time.Time) Weekday {
	return Weekday(t.Weekday().String())
}

// WeekdayOfDate returns the day name of a YYYY-MM-DD date.
func WeekdayOfDate(date string) (Weekday, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return WeekdayOf(t), nil
}
