package calendar

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	labelLayout  = "3:04 PM"
	time24Layout = "15:04"
)

var time24Regex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ParseLabel converts a display label such as "9:00 AM", "09:00 am" or
// "9:00AM" into its 24-hour form "09:00".
func ParseLabel(label string) (string, error) {
	compact := strings.ToUpper(strings.Join(strings.Fields(label), ""))
	t, err := time.Parse("3:04PM", compact)
	if err != nil {
		return "", fmt.Errorf("invalid slot label %q", label)
	}
	return t.Format(time24Layout), nil
}

// FormatLabel renders a 24-hour "HH:mm" time as its canonical display label.
func FormatLabel(time24 string) (string, error) {
	t, err := parseTime24(time24)
	if err != nil {
		return "", err
	}
	return t.Format(labelLayout), nil
}

// NormalizeLabel rewrites any accepted label spelling into the canonical one,
// so "09:00 am" and "9:00 AM" are the same slot.
func NormalizeLabel(label string) (string, error) {
	time24, err := ParseLabel(label)
	if err != nil {
		return "", err
	}
	return FormatLabel(time24)
}

// NormalizeTime24 accepts "9:00" or "09:00" and returns "09:00".
func NormalizeTime24(s string) (string, error) {
	t, err := parseTime24(s)
	if err != nil {
		return "", err
	}
	return t.Format(time24Layout), nil
}

func IsTime24(s string) bool {
	return time24Regex.MatchString(s)
}

func parseTime24(s string) (time.Time, error) {
	t, err := time.Parse(time24Layout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid 24-hour time %q", s)
	}
	return t, nil
}

func splitTime24(s string) (int, int, error) {
	t, err := parseTime24(s)
	if err != nil {
		return 0, 0, err
	}
	return t.Hour(), t.Minute(), nil
}
