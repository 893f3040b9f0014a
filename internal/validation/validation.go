package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents a user-correctable input error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidationError reports whether err is or wraps a ValidationError
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

var validate = validator.New()

// Struct validates a request payload using its `validate` tags and converts the
// first failing field into a ValidationError
func Struct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return ValidationError{Field: "request", Message: err.Error()}
	}

	fe := fieldErrs[0]
	field := lowerFirst(fe.Field())
	switch fe.Tag() {
	case "required":
		return ValidationError{Field: field, Message: field + " is required"}
	case "min":
		return ValidationError{Field: field, Message: fmt.Sprintf("%s must be at least %s", field, fe.Param())}
	case "max":
		return ValidationError{Field: field, Message: fmt.Sprintf("%s must be at most %s", field, fe.Param())}
	case "oneof":
		return ValidationError{Field: field, Message: fmt.Sprintf("%s must be one of: %s", field, fe.Param())}
	default:
		return ValidationError{Field: field, Message: fmt.Sprintf("%s is invalid", field)}
	}
}

// ValidateTranslation checks that a learner translation is not blank
func ValidateTranslation(translation string) error {
	if strings.TrimSpace(translation) == "" {
		return ValidationError{Field: "translation", Message: "translation is required"}
	}
	return nil
}

// ValidateTitle checks if a passage title is valid
func ValidateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ValidationError{Field: "title", Message: "title is required"}
	}
	if len(title) > 200 {
		return ValidationError{Field: "title", Message: "title must be at most 200 characters"}
	}
	return nil
}

// ValidateSentenceIndex checks that index addresses one of count sentences
func ValidateSentenceIndex(index, count int) error {
	if index < 0 || index >= count {
		return ValidationError{
			Field:   "index",
			Message: fmt.Sprintf("sentence index %d out of range [0, %d)", index, count),
		}
	}
	return nil
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
