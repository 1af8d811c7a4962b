package availability

import (
	"testing"
	"time"

	"vetslots/pkg/calendar"
	"vetslots/pkg/model"
)

func thursdayTemplate() *model.SlotTemplate {
	return &model.SlotTemplate{
		DoctorID: "doc-1",
		Weekday:  calendar.Thursday,
		Slots: []model.Slot{
			{ID: "s1", Time: "9:00 AM", Time24: "09:00", Active: true},
			{ID: "s2", Time: "9:30 AM", Time24: "09:30", Active: true},
			{ID: "s3", Time: "10:00 AM", Time24: "10:00", Active: false},
			{ID: "s4", Time: "10:30 AM", Time24: "10:30", Active: true},
		},
		ConsultationDurationMin: 30,
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func labels(slots []model.AvailableSlot) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.Time
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestResolve_TodayBoundary(t *testing.T) {
	now := time.Date(2025, 3, 13, 9, 1, 0, 0, time.UTC)
	r := NewResolver(time.UTC, fixedClock(now))

	got, err := r.Resolve(Input{Date: "2025-03-13", Template: thursdayTemplate()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"9:30 AM", "10:30 AM"}
	if !equal(labels(got), want) {
		t.Errorf("today slots = %v, want %v", labels(got), want)
	}

	got, err = r.Resolve(Input{Date: "2025-03-20", Template: thursdayTemplate()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want = []string{"9:00 AM", "9:30 AM", "10:30 AM"}
	if !equal(labels(got), want) {
		t.Errorf("future slots = %v, want %v", labels(got), want)
	}
}

func TestResolve_SlotStartingNowIsGone(t *testing.T) {
	now := time.Date(2025, 3, 13, 9, 0, 0, 0, time.UTC)
	r := NewResolver(time.UTC, fixedClock(now))

	got, _ := r.Resolve(Input{Date: "2025-03-13", Template: thursdayTemplate()})
	if len(got) == 0 || got[0].Time != "9:30 AM" {
		t.Errorf("slots = %v, want first 9:30 AM", labels(got))
	}
}

func TestResolve_PastDateIsEmpty(t *testing.T) {
	now := time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)
	r := NewResolver(time.UTC, fixedClock(now))

	got, err := r.Resolve(Input{Date: "2025-03-13", Template: thursdayTemplate()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("past date slots = %v, want none", labels(got))
	}
}

func TestResolve_BusinessTimezone(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	// 03:45 UTC is 09:15 in Kolkata, so 9:00 AM has passed there even though
	// the server clock reads early morning.
	now := time.Date(2025, 3, 13, 3, 45, 0, 0, time.UTC)
	r := NewResolver(loc, fixedClock(now))

	got, err := r.Resolve(Input{Date: "2025-03-13", Template: thursdayTemplate()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"9:30 AM", "10:30 AM"}
	if !equal(labels(got), want) {
		t.Errorf("slots = %v, want %v", labels(got), want)
	}
	wantStart := time.Date(2025, 3, 13, 4, 0, 0, 0, time.UTC)
	if !got[0].StartsAt.Equal(wantStart) {
		t.Errorf("StartsAt = %v, want %v", got[0].StartsAt.UTC(), wantStart)
	}
	if r.Today() != "2025-03-13" {
		t.Errorf("Today() = %s", r.Today())
	}
}

func TestResolve_OverrideScope(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	r := NewResolver(time.UTC, fixedClock(now))
	template := &model.SlotTemplate{
		DoctorID: "doc-1",
		Weekday:  calendar.Monday,
		Slots: []model.Slot{
			{Time: "9:00 AM", Time24: "09:00", Active: true},
			{Time: "10:00 AM", Time24: "10:00", Active: true},
		},
	}
	override := &model.Unavailability{
		DoctorID:     "doc-1",
		Date:         "2025-03-10",
		Weekday:      calendar.Monday,
		BlockedSlots: []string{"10:00 AM"},
	}

	blocked, _ := r.Resolve(Input{Date: "2025-03-10", Template: template, Override: override})
	if !equal(labels(blocked), []string{"9:00 AM"}) {
		t.Errorf("2025-03-10 slots = %v, want [9:00 AM]", labels(blocked))
	}

	// The override is fetched per date, so the next Monday has none.
	open, _ := r.Resolve(Input{Date: "2025-03-17", Template: template})
	if !equal(labels(open), []string{"9:00 AM", "10:00 AM"}) {
		t.Errorf("2025-03-17 slots = %v, want both", labels(open))
	}
}

func TestResolve_BookedFlags(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	r := NewResolver(time.UTC, fixedClock(now))

	booked := []*model.Appointment{
		{AppointmentTime: "9:00 AM", AppointmentTime24: "09:00", Status: model.StatusPending},
		{AppointmentTime: "09:30 am", Status: model.StatusAccepted},
		{AppointmentTime: "10:30 AM", AppointmentTime24: "10:30", Status: model.StatusCancelled, IsCanceled: 1},
	}

	got, err := r.Resolve(Input{Date: "2025-03-13", Template: thursdayTemplate(), Booked: booked})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	flags := map[string]bool{}
	for _, s := range got {
		flags[s.Time] = s.Booked
	}
	if !flags["9:00 AM"] || !flags["9:30 AM"] {
		t.Errorf("expected 9:00 and 9:30 booked, got %v", flags)
	}
	if flags["10:30 AM"] {
		t.Errorf("cancelled appointment must not hold 10:30 AM")
	}

	free := Bookable(got)
	if !equal(labels(free), []string{"10:30 AM"}) {
		t.Errorf("Bookable = %v, want [10:30 AM]", labels(free))
	}
}

func TestResolve_NoTemplate(t *testing.T) {
	r := NewResolver(time.UTC, time.Now)
	got, err := r.Resolve(Input{Date: "2025-03-13"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil list, got %#v", got)
	}
}

func TestResolve_InvalidDate(t *testing.T) {
	r := NewResolver(time.UTC, time.Now)
	if _, err := r.Resolve(Input{Date: "13/03/2025", Template: thursdayTemplate()}); err == nil {
		t.Error("expected error for malformed date")
	}
}
