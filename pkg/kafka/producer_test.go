package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
)

type recordingWriter struct {
	mu     sync.Mutex
	err    error
	msgs   []kafka.Message
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestProducer_Publish(t *testing.T) {
	writer := &recordingWriter{}
	p := &Producer{writer: writer, topic: "appointments.events"}

	var seen []string
	p.Use(func(ctx context.Context, msg Message, next func(context.Context, Message) error) error {
		seen = append(seen, msg.Topic)
		return next(ctx, msg)
	})

	msg, err := NewMessage().
		WithKey("appt-1").
		WithValue(map[string]string{"status": "pending"}).
		WithEventType("appointment.booked").
		Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	if err := p.Publish(context.Background(), msg); err != nil {
		t.Fatalf("Publish() error: %v", err)
	}
	if len(writer.msgs) != 1 {
		t.Fatalf("wrote %d messages, want 1", len(writer.msgs))
	}
	if string(writer.msgs[0].Key) != "appt-1" {
		t.Errorf("key = %s", writer.msgs[0].Key)
	}
	if header(writer.msgs[0], HeaderEventType) != "appointment.booked" {
		t.Errorf("missing event type header")
	}
	if header(writer.msgs[0], HeaderEventID) == "" {
		t.Errorf("missing event id header")
	}
	if len(seen) != 1 || seen[0] != "appointments.events" {
		t.Errorf("middleware saw %v", seen)
	}
}

func TestProducer_PublishValidation(t *testing.T) {
	p := &Producer{writer: &recordingWriter{}, topic: "t"}

	if err := p.Publish(context.Background(), Message{Value: []byte("{}")}); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("err = %v, want ErrEmptyKey", err)
	}
	if err := p.Publish(context.Background(), Message{Key: "k"}); !errors.Is(err, ErrEmptyValue) {
		t.Errorf("err = %v, want ErrEmptyValue", err)
	}

	_ = p.Close()
	if err := p.Publish(context.Background(), Message{Key: "k", Value: []byte("{}")}); !errors.Is(err, ErrProducerClosed) {
		t.Errorf("err = %v, want ErrProducerClosed", err)
	}
}

func TestProducer_FailedWriteGoesToDLQ(t *testing.T) {
	writeErr := errors.New("leader not available")
	dlq := &recordingWriter{}
	p := &Producer{
		writer:    &recordingWriter{err: writeErr},
		dlqWriter: dlq,
		topic:     "appointments.events",
		dlqTopic:  "appointments.events.dlq",
	}

	msg, _ := NewMessage().WithKey("appt-1").WithValue("x").Build()
	err := p.Publish(context.Background(), msg)
	if !errors.Is(err, writeErr) {
		t.Fatalf("err = %v, want original write error", err)
	}
	if len(dlq.msgs) != 1 {
		t.Fatalf("dlq got %d messages, want 1", len(dlq.msgs))
	}
	if header(dlq.msgs[0], HeaderOriginalTopic) != "appointments.events" {
		t.Errorf("dlq message missing original topic")
	}
	if _, ok := msg.Headers[HeaderDLQError]; ok {
		t.Errorf("dlq headers must not leak into the caller's message")
	}
}

func TestMessageBuilder_EncodeError(t *testing.T) {
	_, err := NewMessage().WithKey("k").WithValue(make(chan int)).Build()
	if err == nil {
		t.Fatal("expected encode error")
	}
}
