// Package availability merges a doctor's weekday template, the date's
// unavailability override, the booked ledger rows and the business clock
// into the slots a client can still pick.
package availability

import (
	"fmt"
	"time"

	"vetslots/pkg/calendar"
	"vetslots/pkg/model"
)

type Resolver struct {
	loc *time.Location
	now func() time.Time
}

func NewResolver(loc *time.Location, now func() time.Time) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Resolver{loc: loc, now: now}
}

type Input struct {
	Date     string
	Template *model.SlotTemplate
	Override *model.Unavailability
	// Booked holds the non-cancelled ledger rows for the doctor and date.
	Booked []*model.Appointment
}

func (r *Resolver) Location() *time.Location {
	return r.loc
}

func (r *Resolver) Now() time.Time {
	return r.now().In(r.loc)
}

func (r *Resolver) Today() string {
	return calendar.DateOf(r.now(), r.loc)
}

// Instant is the moment time24 starts on date in the business timezone.
func (r *Resolver) Instant(date, time24 string) (time.Time, error) {
	return calendar.Combine(date, time24, r.loc)
}

// Resolve returns the active, unblocked slots that have not started yet, in
// template order, each flagged with whether a ledger row already holds it.
// A missing template yields an empty list.
func (r *Resolver) Resolve(in Input) ([]model.AvailableSlot, error) {
	if _, err := calendar.ParseDate(in.Date); err != nil {
		return nil, err
	}
	if in.Template == nil {
		return []model.AvailableSlot{}, nil
	}

	booked := make(map[string]bool, len(in.Booked))
	for _, appt := range in.Booked {
		if appt == nil || appt.Status == model.StatusCancelled || appt.IsCanceled == 1 {
			continue
		}
		if key := appointmentTime24(appt); key != "" {
			booked[key] = true
		}
	}

	now := r.now()
	result := make([]model.AvailableSlot, 0, len(in.Template.Slots))
	for _, slot := range in.Template.Slots {
		if !slot.Active {
			continue
		}

		label, time24, err := canonicalSlot(slot)
		if err != nil {
			return nil, fmt.Errorf("template %s/%s: %w", in.Template.DoctorID, in.Template.Weekday, err)
		}
		if in.Override.Blocks(label) {
			continue
		}

		startsAt, err := calendar.Combine(in.Date, time24, r.loc)
		if err != nil {
			return nil, err
		}
		if !startsAt.After(now) {
			continue
		}

		result = append(result, model.AvailableSlot{
			ID:       slot.ID,
			Time:     label,
			Time24:   time24,
			Booked:   booked[time24],
			StartsAt: startsAt,
		})
	}
	return result, nil
}

// Bookable keeps only the slots nobody holds.
func Bookable(slots []model.AvailableSlot) []model.AvailableSlot {
	free := make([]model.AvailableSlot, 0, len(slots))
	for _, s := range slots {
		if !s.Booked {
			free = append(free, s)
		}
	}
	return free
}

func canonicalSlot(slot model.Slot) (string, string, error) {
	time24 := slot.Time24
	if time24 == "" {
		parsed, err := calendar.ParseLabel(slot.Time)
		if err != nil {
			return "", "", err
		}
		time24 = parsed
	}
	label, err := calendar.FormatLabel(time24)
	if err != nil {
		return "", "", err
	}
	return label, time24, nil
}

func appointmentTime24(appt *model.Appointment) string {
	if appt.AppointmentTime24 != "" {
		return appt.AppointmentTime24
	}
	time24, err := calendar.ParseLabel(appt.AppointmentTime)
	if err != nil {
		return ""
	}
	return time24
}
