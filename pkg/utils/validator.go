package utils

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func ValidateStruct(data interface{}) map[string]string {
	err := validate.Struct(data)
	if err == nil {
		return nil
	}

	errs := make(map[string]string)
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, fe := range validationErrors {
			errs[fe.Field()] = getErrorMessage(fe)
		}
	}

	return errs
}

// converts validator errors to human-readable messages
func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "This field is required"
	case "required_if":
		return "This field is required for this decision"
	case "email":
		return "Invalid email format"
	case "min":
		return fmt.Sprintf("Minimum length is %s", err.Param())
	case "max":
		return fmt.Sprintf("Maximum length is %s", err.Param())
	case "oneof":
		options := strings.ReplaceAll(err.Param(), " ", ", ")
		return fmt.Sprintf("Must be one of: %s", options)
	case "uuid", "uuid4":
		return "Must be a valid UUID"
	case "datetime":
		return fmt.Sprintf("Must be a date in format %s", err.Param())
	default:
		return fmt.Sprintf("Invalid %s field", err.Field())
	}
}

// formats validation errors map into single string
func FormatValidationErrors(errs map[string]string) string {
	msgs := make([]string, 0, len(errs))
	for field, msg := range errs {
		msgs = append(msgs, fmt.Sprintf("%s: %s", field, msg))
	}
	sort.Strings(msgs)
	return strings.Join(msgs, "; ")
}
