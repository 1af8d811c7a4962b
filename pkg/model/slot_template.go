package model

import (
	"time"

	"vetslots/pkg/calendar"
)

// Slot is one bookable time inside a weekday template. ID is assigned when the
// template is saved and survives re-saves as long as Time24 is unchanged.
type Slot struct {
	ID     string `json:"id" bson:"id"`
	Time   string `json:"time" bson:"time"`
	Time24 string `json:"time24" bson:"time24"`
	Active bool   `json:"active" bson:"active"`
}

type SlotTemplate struct {
	ID                      string           `json:"id,omitempty" bson:"_id,omitempty"`
	DoctorID                string           `json:"doctor_id" bson:"doctor_id"`
	Weekday                 calendar.Weekday `json:"weekday" bson:"weekday"`
	Slots                   []Slot           `json:"slots" bson:"slots"`
	ConsultationDurationMin int              `json:"consultation_duration_min" bson:"consultation_duration_min"`
	CreatedAt               time.Time        `json:"created_at" bson:"created_at"`
	UpdatedAt               time.Time        `json:"updated_at" bson:"updated_at"`
}

// Unavailability blocks slot labels for one exact date. Other dates sharing
// the weekday are unaffected.
type Unavailability struct {
	ID           string           `json:"id,omitempty" bson:"_id,omitempty"`
	DoctorID     string           `json:"doctor_id" bson:"doctor_id"`
	Date         string           `json:"date" bson:"date"`
	Weekday      calendar.Weekday `json:"weekday" bson:"weekday"`
	BlockedSlots []string         `json:"blocked_slots" bson:"blocked_slots"`
	UpdatedAt    time.Time        `json:"updated_at" bson:"updated_at"`
}

func (u *Unavailability) Blocks(label string) bool {
	if u == nil {
		return false
	}
	for _, b := range u.BlockedSlots {
		if b == label {
			return true
		}
	}
	return false
}

type SlotInput struct {
	Time   string `json:"time" validate:"required,slot_label"`
	Active *bool  `json:"active,omitempty"`
}

type SaveTemplateRequest struct {
	Slots                   []SlotInput `json:"slots" validate:"required,min=1,max=96,unique=Time,dive"`
	ConsultationDurationMin int         `json:"consultation_duration_min" validate:"required,min=5,max=480"`
	UnavailableSlots        []string    `json:"unavailable_slots,omitempty" validate:"omitempty,max=96,dive,slot_label"`
	Date                    string      `json:"date,omitempty" validate:"omitempty,date_ymd"`
}

// SaveTemplateResult reports which documents were actually written.
type SaveTemplateResult struct {
	Template            *SlotTemplate   `json:"template"`
	TemplateWritten     bool            `json:"template_written"`
	UnavailabilityWrote bool            `json:"unavailability_written"`
	Unavailability      *Unavailability `json:"unavailability,omitempty"`
}

// AvailableSlot is a resolved slot for one date.
type AvailableSlot struct {
	ID       string    `json:"id"`
	Time     string    `json:"time"`
	Time24   string    `json:"time24"`
	Booked   bool      `json:"booked"`
	StartsAt time.Time `json:"starts_at"`
}

type DayAvailability struct {
	Date      string `json:"date"`
	Weekday   string `json:"weekday"`
	Available int    `json:"available"`
}

type MonthlyAvailability struct {
	DoctorID string            `json:"doctor_id"`
	Year     int               `json:"year"`
	Month    int               `json:"month"`
	Days     []DayAvailability `json:"days"`
}
