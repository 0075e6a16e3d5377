package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"clinicbook/pkg/logger"
	"clinicbook/pkg/model"

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

const (
	clockLayout = "15:04"
	dateLayout  = "2006-01-02"
)

type ScheduleValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewScheduleValidator(log *logger.Logger) *ScheduleValidator {
	v := validator.New()

	if err := v.RegisterValidation("clock", validateClock); err != nil {
		log.Fatal("Failed to register 'clock' validator", "error", err)
	}
	if err := v.RegisterValidation("datestamp", validateDatestamp); err != nil {
		log.Fatal("Failed to register 'datestamp' validator", "error", err)
	}

	log.Info("Schedule validator initialized successfully")

	return &ScheduleValidator{
		validate: v,
		logger:   log,
	}
}

func validateClock(fl validator.FieldLevel) bool {
	value := strings.TrimSpace(fl.Field().String())
	if len(value) != 5 {
		return false
	}
	_, err := time.Parse(clockLayout, value)
	return err == nil
}

func validateDatestamp(fl validator.FieldLevel) bool {
	value := strings.TrimSpace(fl.Field().String())
	if len(value) != 10 {
		return false
	}
	_, err := time.Parse(dateLayout, value)
	return err == nil
}

func (v *ScheduleValidator) Validate(sc *model.Schedule) error {
	if err := v.validate.Struct(sc); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

// ValidateWindow enforces the business rules on an availability window,
// in order: end after start, date not in the past, today's windows must
// start later than now, window inside the working day. The first
// violated rule is returned.
func (v *ScheduleValidator) ValidateWindow(sc *model.Schedule, now time.Time, dayStart, dayEnd string) error {
	if sc.EndTime <= sc.StartTime {
		return ValidationError{Field: "end_time", Message: "end_time must be after start_time"}
	}

	today := now.Format(dateLayout)
	if sc.Date < today {
		return ValidationError{Field: "date", Message: "date cannot be in the past"}
	}

	if sc.Date == today && sc.StartTime <= now.Format(clockLayout) {
		return ValidationError{Field: "start_time", Message: "start_time must be later than the current time"}
	}

	if sc.StartTime < dayStart || sc.EndTime > dayEnd {
		return ValidationError{
			Field:   "start_time",
			Message: fmt.Sprintf("schedule must fall within working hours (%s-%s)", dayStart, dayEnd),
		}
	}

	return nil
}

func (v *ScheduleValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "clock":
			message = fmt.Sprintf("%s must be in HH:MM 24-hour format", err.Field())
		case "datestamp":
			message = fmt.Sprintf("%s must be in YYYY-MM-DD format", err.Field())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid object ID", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
