package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"vetslots/pkg/kafka"
	"vetslots/pkg/logger"
	"vetslots/pkg/middleware"
	"vetslots/pkg/model"
)

type recordingProducer struct {
	msgs []kafka.Message
	err  error
}

func (p *recordingProducer) Publish(ctx context.Context, msg kafka.Message) error {
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func TestKafkaPublisher_Publish(t *testing.T) {
	producer := &recordingProducer{}
	pub := NewKafkaPublisher(producer, logger.Discard()).(*kafkaPublisher)
	pub.now = func() time.Time { return time.Date(2025, 3, 13, 8, 0, 0, 0, time.UTC) }

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-42")
	appt := &model.Appointment{
		ID:              "65f1a2b3c4d5e6f708192a3b",
		DoctorID:        "doc-1",
		TokenNumber:     "XX001-2025-03-13",
		AppointmentDate: "2025-03-13",
		AppointmentTime: "9:00 AM",
		Status:          model.StatusPending,
	}
	pub.Publish(ctx, AppointmentBooked, appt)

	if len(producer.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(producer.msgs))
	}
	msg := producer.msgs[0]
	if msg.Key != appt.ID {
		t.Errorf("key = %s, want %s", msg.Key, appt.ID)
	}
	if msg.GetEventType() != string(AppointmentBooked) {
		t.Errorf("event type = %s", msg.GetEventType())
	}
	if msg.GetCorrelationID() != "req-42" {
		t.Errorf("correlation id = %s, want req-42", msg.GetCorrelationID())
	}
	if msg.GetEventID() == "" {
		t.Error("event id should be generated")
	}

	var event AppointmentEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if event.TokenNumber != "XX001-2025-03-13" || event.Status != model.StatusPending {
		t.Errorf("unexpected event %+v", event)
	}
}

func TestKafkaPublisher_FailureIsSwallowed(t *testing.T) {
	producer := &recordingProducer{err: errors.New("broker down")}
	pub := NewKafkaPublisher(producer, logger.Discard())

	pub.Publish(context.Background(), AppointmentCancelled, &model.Appointment{ID: "a1"})
	pub.Publish(context.Background(), AppointmentCancelled, nil)
}
