package errors

import "errors"

var (
	ErrHospitalNotFound = errors.New("hospital not found")

	ErrPetNotFound = errors.New("pet not found")

	ErrInvalidID = errors.New("invalid ID format")
)
