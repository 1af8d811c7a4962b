// Package events announces appointment lifecycle changes on Kafka. The ledger
// is the source of truth, so a failed publish is logged and never fails the
// write that caused it.
package events

import (
	"context"
	"time"

	"vetslots/pkg/kafka"
	"vetslots/pkg/logger"
	"vetslots/pkg/middleware"
	"vetslots/pkg/model"
)

type EventType string

const (
	AppointmentBooked      EventType = "appointment.booked"
	AppointmentCancelled   EventType = "appointment.cancelled"
	AppointmentRescheduled EventType = "appointment.rescheduled"
	AppointmentExpired     EventType = "appointment.expired"
)

const (
	SchemaVersion = "1"
	Source        = "vetslots-appointments"
)

type AppointmentEvent struct {
	Type            EventType               `json:"type"`
	AppointmentID   string                  `json:"appointment_id"`
	HospitalID      string                  `json:"hospital_id"`
	DoctorID        string                  `json:"doctor_id"`
	OwnerID         string                  `json:"owner_id"`
	PetID           string                  `json:"pet_id"`
	TokenNumber     string                  `json:"token_number"`
	Channel         model.BookingChannel    `json:"channel"`
	AppointmentDate string                  `json:"appointment_date"`
	AppointmentTime string                  `json:"appointment_time"`
	Status          model.AppointmentStatus `json:"status"`
	CancelReason    string                  `json:"cancel_reason,omitempty"`
	OccurredAt      time.Time               `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, eventType EventType, appt *model.Appointment)
}

// MessagePublisher is the part of kafka.Producer the publisher needs.
type MessagePublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type kafkaPublisher struct {
	producer MessagePublisher
	log      *logger.Logger
	now      func() time.Time
}

func NewKafkaPublisher(producer MessagePublisher, log *logger.Logger) Publisher {
	return &kafkaPublisher{
		producer: producer,
		log:      log.With("component", "appointment-events"),
		now:      time.Now,
	}
}

func (p *kafkaPublisher) Publish(ctx context.Context, eventType EventType, appt *model.Appointment) {
	if appt == nil {
		return
	}
	occurredAt := p.now().UTC()
	event := NewAppointmentEvent(eventType, appt, occurredAt)

	msg, err := kafka.NewMessage().
		WithKey(appt.ID).
		WithValue(event).
		WithEventType(string(eventType)).
		WithCorrelationID(middleware.RequestIDFrom(ctx)).
		WithSchemaVersion(SchemaVersion).
		WithSource(Source).
		WithTimestamp(occurredAt).
		Build()
	if err != nil {
		p.log.Error("Failed to build appointment event", "type", eventType, "appointment_id", appt.ID, "error", err)
		return
	}

	if err := p.producer.Publish(context.WithoutCancel(ctx), msg); err != nil {
		p.log.Warn("Failed to publish appointment event", "type", eventType, "appointment_id", appt.ID, "error", err)
	}
}

func NewAppointmentEvent(eventType EventType, appt *model.Appointment, occurredAt time.Time) AppointmentEvent {
	return AppointmentEvent{
		Type:            eventType,
		AppointmentID:   appt.ID,
		HospitalID:      appt.HospitalID,
		DoctorID:        appt.DoctorID,
		OwnerID:         appt.OwnerID,
		PetID:           appt.PetID,
		TokenNumber:     appt.TokenNumber,
		Channel:         appt.Channel,
		AppointmentDate: appt.AppointmentDate,
		AppointmentTime: appt.AppointmentTime,
		Status:          appt.Status,
		CancelReason:    appt.CancelReason,
		OccurredAt:      occurredAt,
	}
}

type noopPublisher struct{}

// NewNoopPublisher is used when Kafka is disabled.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, EventType, *model.Appointment) {}
