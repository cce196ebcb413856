package models

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"servicehub/errs"
)

var validate = validator.New()

// Validate checks v against its struct tags and returns a NotValid error that
// lists every failing field.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errs.NotValidf("%v", err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field(), fieldMessage(fe)))
	}
	sort.Strings(msgs)
	return errs.NotValidf("%s", strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		return fmt.Sprintf("Minimum is %s", fe.Param())
	case "max":
		return fmt.Sprintf("Maximum is %s", fe.Param())
	case "gte":
		return fmt.Sprintf("Must be at least %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("Invalid %s field", fe.Field())
	}
}
