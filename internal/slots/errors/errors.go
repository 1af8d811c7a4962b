package errors

import "errors"

var (
	ErrTemplateNotFound = errors.New("slot template not found")

	ErrUnavailabilityNotFound = errors.New("unavailability override not found")
)
