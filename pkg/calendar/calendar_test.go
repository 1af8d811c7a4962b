package calendar

import (
	"testing"
	"time"
)

func TestParseLabel(t *testing.T) {
	tests := []struct {
		label   string
		want    string
		wantErr bool
	}{
		{label: "9:00 AM", want: "09:00"},
		{label: "09:00 am", want: "09:00"},
		{label: "9:30AM", want: "09:30"},
		{label: "12:00 PM", want: "12:00"},
		{label: "12:15 AM", want: "00:15"},
		{label: "4:45 pm", want: "16:45"},
		{label: " 10:00   AM ", want: "10:00"},
		{label: "13:00 PM", wantErr: true},
		{label: "9 AM", wantErr: true},
		{label: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, err := ParseLabel(tt.label)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseLabel(%q) expected error, got %q", tt.label, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLabel(%q) unexpected error: %v", tt.label, err)
			}
			if got != tt.want {
				t.Errorf("ParseLabel(%q) = %q, want %q", tt.label, got, tt.want)
			}
		})
	}
}

func TestNormalizeLabel(t *testing.T) {
	for _, label := range []string{"09:00 am", "9:00 AM", "9:00am", "09:00 AM"} {
		got, err := NormalizeLabel(label)
		if err != nil {
			t.Fatalf("NormalizeLabel(%q) unexpected error: %v", label, err)
		}
		if got != "9:00 AM" {
			t.Errorf("NormalizeLabel(%q) = %q, want %q", label, got, "9:00 AM")
		}
	}
}

func TestFormatLabel(t *testing.T) {
	got, err := FormatLabel("14:05")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "2:05 PM" {
		t.Errorf("FormatLabel = %q, want %q", got, "2:05 PM")
	}
	if _, err := FormatLabel("25:00"); err == nil {
		t.Error("expected error for 25:00")
	}
}

func TestNormalizeTime24(t *testing.T) {
	got, err := NormalizeTime24("9:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "09:00" {
		t.Errorf("NormalizeTime24 = %q, want 09:00", got)
	}
	if !IsTime24(got) {
		t.Errorf("IsTime24(%q) = false", got)
	}
	if IsTime24("9:00") {
		t.Error("IsTime24 should require two-digit hours")
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		date    string
		wantErr bool
	}{
		{date: "2025-03-10"},
		{date: "2024-02-29"},
		{date: "2025-02-29", wantErr: true},
		{date: "2025-3-10", wantErr: true},
		{date: "10-03-2025", wantErr: true},
		{date: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			_, err := ParseDate(tt.date)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseDate(%q) error = %v, wantErr %v", tt.date, err, tt.wantErr)
			}
		})
	}
}

func TestWeekdayOfDate(t *testing.T) {
	tests := map[string]Weekday{
		"2025-03-10": Monday,
		"2025-03-13": Thursday,
		"2025-03-16": Sunday,
	}
	for date, want := range tests {
		got, err := WeekdayOfDate(date)
		if err != nil {
			t.Fatalf("WeekdayOfDate(%q) unexpected error: %v", date, err)
		}
		if got != want {
			t.Errorf("WeekdayOfDate(%q) = %s, want %s", date, got, want)
		}
	}
}

func TestParseWeekday(t *testing.T) {
	got, err := ParseWeekday("thursday")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != Thursday {
		t.Errorf("ParseWeekday = %s, want %s", got, Thursday)
	}
	if _, err := ParseWeekday("Thu"); err == nil {
		t.Error("expected error for abbreviated weekday")
	}
}

func TestCombine(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}

	got, err := Combine("2025-03-13", "09:30", loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2025, 3, 13, 4, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Combine = %v, want %v", got.UTC(), want)
	}
	if DateOf(got, loc) != "2025-03-13" {
		t.Errorf("DateOf = %s, want 2025-03-13", DateOf(got, loc))
	}
}

func TestMonthDates(t *testing.T) {
	dates, err := MonthDates(2024, time.February)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dates) != 29 {
		t.Fatalf("len = %d, want 29", len(dates))
	}
	if dates[0] != "2024-02-01" || dates[28] != "2024-02-29" {
		t.Errorf("unexpected bounds %s..%s", dates[0], dates[28])
	}
	if _, err := MonthDates(2024, 13); err == nil {
		t.Error("expected error for month 13")
	}
}

func TestAddDays(t *testing.T) {
	got, err := AddDays("2025-03-31", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "2025-04-01" {
		t.Errorf("AddDays = %s, want 2025-04-01", got)
	}
}
