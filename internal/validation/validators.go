package validation

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/benvon/napoleon/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New(validator.WithRequiredStructEnabled())

	// Report json field names so API errors match the request body
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// Register custom validators for enums
	if err := Validate.RegisterValidation("priority", validatePriority); err != nil {
		panic(fmt.Sprintf("failed to register priority validator: %v", err))
	}
	if err := Validate.RegisterValidation("goal", validateGoal); err != nil {
		panic(fmt.Sprintf("failed to register goal validator: %v", err))
	}
	if err := Validate.RegisterValidation("task_type", validateTaskType); err != nil {
		panic(fmt.Sprintf("failed to register task_type validator: %v", err))
	}
	if err := Validate.RegisterValidation("calendar_date", validateCalendarDate); err != nil {
		panic(fmt.Sprintf("failed to register calendar_date validator: %v", err))
	}
}

func validatePriority(fl validator.FieldLevel) bool {
	switch models.Priority(fl.Field().String()) {
	case models.PriorityLow, models.PriorityMedium, models.PriorityHigh:
		return true
	default:
		return false
	}
}

func validateGoal(fl validator.FieldLevel) bool {
	switch models.Goal(fl.Field().String()) {
	case models.GoalCareer, models.GoalHealth, models.GoalLearning, models.GoalHobbies:
		return true
	default:
		return false
	}
}

func validateTaskType(fl validator.FieldLevel) bool {
	switch models.TaskType(fl.Field().String()) {
	case models.TaskTypeDeepWork, models.TaskTypeAdmin, models.TaskTypeMeeting, models.TaskTypePhysical:
		return true
	default:
		return false
	}
}

// validateCalendarDate accepts strict YYYY-MM-DD dates only
func validateCalendarDate(fl validator.FieldLevel) bool {
	return ValidateDate(fl.Field().String()) == nil
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	// Trim whitespace
	text = strings.TrimSpace(text)

	// Remove control characters except newline and tab
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateDate validates a YYYY-MM-DD calendar date
func ValidateDate(value string) error {
	if err := Validate.Var(value, "required,datetime=2006-01-02"); err != nil {
		return fmt.Errorf("%w: date %q must be YYYY-MM-DD", models.ErrInvalidInput, value)
	}
	return nil
}
