package validator

import (
	"vetslots/pkg/calendar"
	"vetslots/pkg/logger"
	"vetslots/pkg/model"
	"vetslots/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type SlotTemplateValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewSlotTemplateValidator(log *logger.Logger) *SlotTemplateValidator {
	v := validation.New(log)
	log.Debug("Slot template validator initialized successfully")

	return &SlotTemplateValidator{
		validate: v,
		logger:   log,
	}
}

func (v *SlotTemplateValidator) ValidateDoctorID(doctorID string) error {
	return v.field("doctor_id", doctorID, "required,uuid", "doctor_id must be a 36 character UUID")
}

func (v *SlotTemplateValidator) ValidateDate(date string) error {
	return v.field("date", date, "required,date_ymd", "date must be a date in YYYY-MM-DD format")
}

func (v *SlotTemplateValidator) ValidateWeekday(weekday string) (calendar.Weekday, error) {
	if err := v.field("weekday", weekday, "required,weekday", "weekday must be an English day name"); err != nil {
		return "", err
	}
	return calendar.ParseWeekday(weekday)
}

func (v *SlotTemplateValidator) ValidateSaveRequest(req *model.SaveTemplateRequest) error {
	if err := validation.Struct(v.validate, req); err != nil {
		return err
	}
	if len(req.UnavailableSlots) > 0 && req.Date == "" {
		return validation.ValidationErrors{{
			Field:   "date",
			Message: "date is required when unavailable_slots are given",
		}}
	}
	return nil
}

func (v *SlotTemplateValidator) field(name, value, tag, message string) error {
	if err := v.validate.Var(value, tag); err != nil {
		return validation.ValidationErrors{{Field: name, Message: message}}
	}
	return nil
}
