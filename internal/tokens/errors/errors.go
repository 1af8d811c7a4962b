package errors

import "errors"

var (
	// ErrCounterRace is returned when two first increments of the same key
	// both tried to insert the counter document. Retrying hits the winner's
	// document and increments it.
	ErrCounterRace = errors.New("token counter upsert raced")

	ErrInvalidDate = errors.New("invalid appointment date")
)
