package utils

import (
	"fmt"
	"strings"

	pkgerrors "ideabox/pkg/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateStruct validates a struct based on its validation tags. Failures come
// back as one ValidationFailed error with a message list per field.
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return pkgerrors.NewValidationError(err.Error())
	}

	verrs := pkgerrors.NewValidationErrors()
	for _, e := range validationErrors {
		verrs.Add(lowerFirst(e.Field()), formatFieldError(e))
	}
	return verrs.AsError()
}

// formatFieldError formats a single field validation error
func formatFieldError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", e.Param())
	case "uuid", "uuid4":
		return "must be a UUID"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", e.Param())
	case "dive":
		return "contains invalid values"
	default:
		return "is invalid"
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
