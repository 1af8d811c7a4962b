package errors

import "errors"

var (
	ErrNotFound = errors.New("appointment not found")

	ErrInvalidID = errors.New("invalid appointment ID format")

	// ErrAlreadyCancelled means a cancel matched no live appointment.
	ErrAlreadyCancelled = errors.New("appointment already cancelled")

	// ErrSlotTaken means the partial unique index on (doctor_id,
	// appointment_date, appointment_time24) rejected the write.
	ErrSlotTaken = errors.New("appointment slot already taken")
)
