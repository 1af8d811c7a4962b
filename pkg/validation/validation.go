package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"vetslots/pkg/calendar"
	"vetslots/pkg/logger"
	"vetslots/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// Details flattens the errors into a field -> message map for API responses.
func (v ValidationErrors) Details() map[string]any {
	details := make(map[string]any, len(v))
	for _, err := range v {
		details[err.Field] = err.Message
	}
	return details
}

var customTags = map[string]validator.Func{
	"date_ymd":           validateDate,
	"slot_label":         validateSlotLabel,
	"weekday":            validateWeekday,
	"appointment_status": validateAppointmentStatus,
}

// New returns a validator with the scheduling tags registered. Field names in
// errors use the json tag so they match the request body.
func New(log *logger.Logger) *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	for tag, fn := range customTags {
		if err := v.RegisterValidation(tag, fn); err != nil {
			log.Fatal(fmt.Sprintf("Failed to register '%s' validator", tag),
				"error", err,
			)
		}
	}
	return v
}

// Struct validates s and converts validator errors into ValidationErrors.
func Struct(v *validator.Validate, s any) error {
	if err := v.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return Translate(validationErrs)
		}
		return err
	}
	return nil
}

func Translate(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		case "uuid":
			message = fmt.Sprintf("%s must be a 36 character UUID", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "unique":
			message = fmt.Sprintf("%s must not contain duplicates", err.Field())
		case "url":
			message = fmt.Sprintf("%s must be a valid URL", err.Field())
		case "date_ymd":
			message = fmt.Sprintf("%s must be a date in YYYY-MM-DD format", err.Field())
		case "slot_label":
			message = fmt.Sprintf("%s must be a time like 9:00 AM", err.Field())
		case "weekday":
			message = fmt.Sprintf("%s must be an English day name", err.Field())
		case "appointment_status":
			message = fmt.Sprintf("%s is not a known appointment status", err.Field())
		}

		// Namespace is "Struct.field[0].sub"; drop the struct name.
		field := err.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   field,
			Message: message,
		})
	}

	return validationErrors
}

func validateDate(fl validator.FieldLevel) bool {
	return calendar.IsDate(fl.Field().String())
}

func validateSlotLabel(fl validator.FieldLevel) bool {
	_, err := calendar.ParseLabel(fl.Field().String())
	return err == nil
}

func validateWeekday(fl validator.FieldLevel) bool {
	_, err := calendar.ParseWeekday(fl.Field().String())
	return err == nil
}

func validateAppointmentStatus(fl validator.FieldLevel) bool {
	return model.AppointmentStatus(fl.Field().String()).Valid()
}
