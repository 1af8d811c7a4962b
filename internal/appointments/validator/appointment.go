package validator

import (
	"slices"

	"vetslots/pkg/logger"
	"vetslots/pkg/model"
	"vetslots/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type AppointmentValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewAppointmentValidator(log *logger.Logger) *AppointmentValidator {
	v := validation.New(log)
	log.Debug("Appointment validator initialized successfully")

	return &AppointmentValidator{
		validate: v,
		logger:   log,
	}
}

func (v *AppointmentValidator) ValidateBooking(req *model.BookingRequest) error {
	return validation.Struct(v.validate, req)
}

// ValidateEmergencyBooking also restricts the caller-chosen status: an
// emergency booking cannot be created already cancelled.
func (v *AppointmentValidator) ValidateEmergencyBooking(req *model.BookingRequest) error {
	if err := validation.Struct(v.validate, req); err != nil {
		return err
	}
	if req.Status == model.StatusCancelled {
		return validation.ValidationErrors{{Field: "status", Message: "an appointment cannot be booked as cancelled"}}
	}
	return nil
}

func (v *AppointmentValidator) ValidateReschedule(req *model.RescheduleRequest) error {
	return validation.Struct(v.validate, req)
}

func (v *AppointmentValidator) ValidateCancel(req *model.CancelRequest) error {
	return validation.Struct(v.validate, req)
}

func (v *AppointmentValidator) ValidateID(id string) error {
	if err := v.validate.Var(id, "required,mongodb"); err != nil {
		return validation.ValidationErrors{{Field: "id", Message: "id must be a 24 character hex ObjectID"}}
	}
	return nil
}

func (v *AppointmentValidator) ValidateListQuery(callerID string, role model.ListRole, bucket model.Bucket) error {
	var errs validation.ValidationErrors
	if callerID == "" {
		errs = append(errs, validation.ValidationError{Field: "caller_id", Message: "caller identity is required"})
	}
	switch role {
	case model.RoleOwner, model.RoleDoctor, model.RoleHospital:
	default:
		errs = append(errs, validation.ValidationError{Field: "role", Message: "role must be one of owner, doctor, hospital"})
	}
	if bucket != "" && !slices.Contains(model.Buckets, bucket) {
		errs = append(errs, validation.ValidationError{Field: "bucket", Message: "bucket must be one of upcoming, pending, past, cancel"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

