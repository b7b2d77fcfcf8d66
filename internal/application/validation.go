package application

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/c4sa/Unido-sub000/internal/scheduler"
)

// inputValidator checks struct tags on service inputs and reports failures
// as *ValidationError keyed by the field's json name.
type inputValidator struct {
	validate *validator.Validate
}

func newInputValidator() *inputValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	// Registration only fails on empty tags or nil funcs.
	_ = v.RegisterValidation("date", validateDate)
	_ = v.RegisterValidation("clock", validateClock)
	return &inputValidator{validate: v}
}

func validateDate(fl validator.FieldLevel) bool {
	_, err := scheduler.ParseDate(fl.Field().String(), time.UTC)
	return err == nil
}

func validateClock(fl validator.FieldLevel) bool {
	_, err := scheduler.ParseClock(fl.Field().String())
	return err == nil
}

func (v *inputValidator) Struct(input any) error {
	err := v.validate.Struct(input)
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return translateValidationErrors(validationErrs)
	}
	return err
}

func translateValidationErrors(errs validator.ValidationErrors) *ValidationError {
	vErr := &ValidationError{}
	for _, err := range errs {
		field := err.Field()
		var message string
		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", field)
		case "min":
			message = fmt.Sprintf("%s must be at least %s", field, err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", field, err.Param())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", field, err.Param())
		case "date":
			message = fmt.Sprintf("%s must be a date in YYYY-MM-DD form", field)
		case "clock":
			message = fmt.Sprintf("%s must be a time in HH:mm form", field)
		default:
			message = fmt.Sprintf("%s is invalid", field)
		}
		vErr.add(field, message)
	}
	return vErr
}

// checkDuration reports whether minutes is one of the allowed meeting lengths.
func checkDuration(minutes int, allowed []int) *ValidationError {
	if minutes <= 0 {
		return newValidationError("duration", "duration must be positive")
	}
	if len(allowed) == 0 {
		return nil
	}
	for _, candidate := range allowed {
		if candidate == minutes {
			return nil
		}
	}
	parts := make([]string, len(allowed))
	for i, candidate := range allowed {
		parts[i] = fmt.Sprint(candidate)
	}
	return newValidationError("duration", "duration must be one of: "+strings.Join(parts, ", "))
}

// checkSlotMultiple reports whether minutes covers a whole number of grid slots.
func checkSlotMultiple(minutes int, slot time.Duration) *ValidationError {
	if minutes <= 0 {
		return newValidationError("duration", "duration must be positive")
	}
	if slot <= 0 {
		return nil
	}
	if time.Duration(minutes)*time.Minute%slot != 0 {
		return newValidationError("duration", fmt.Sprintf("duration must be a multiple of %d minutes", int(slot/time.Minute)))
	}
	return nil
}
