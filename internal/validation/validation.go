package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "eventgraph/pkg/app_errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Struct validates an input struct and converts failures into a
// VALIDATION_ERROR carrying per-field detail.
func Struct(input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.ErrInvalidInput
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldName(fe)] = message(fe)
	}
	return apperrors.Validation("Invalid input", fields)
}

func fieldName(fe validator.FieldError) string {
	return strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("cannot exceed %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
