package utils

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateStruct runs the validator tags on an input struct and returns
// field-level failures shaped for the error envelope, or nil when valid.
func ValidateStruct(s interface{}) []FieldError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrors []FieldError
	for _, fe := range err.(validator.ValidationErrors) {
		field := strings.ToLower(fe.Field())
		var message string
		switch fe.Tag() {
		case "required":
			message = field + " is required"
		case "min":
			message = field + " must be at least " + fe.Param() + " characters"
		case "max":
			message = field + " must be at most " + fe.Param() + " characters"
		case "email":
			message = field + " must be a valid email"
		case "len":
			message = field + " must be exactly " + fe.Param() + " characters"
		case "oneof":
			message = field + " must be one of: " + fe.Param()
		case "gte":
			message = field + " must be at least " + fe.Param()
		case "lte":
			message = field + " must be at most " + fe.Param()
		default:
			message = field + " is invalid"
		}
		fieldErrors = append(fieldErrors, FieldError{Field: field, Message: message})
	}
	return fieldErrors
}
