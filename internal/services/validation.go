package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"shoppingtop/internal/apperror"

	"github.com/go-playground/validator/v10"
)

// newValidator returns a validator that reports fields by their JSON name,
// which is also the form field name.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return strings.ToLower(f.Name)
		}
		return name
	})
	return v
}

// validationError converts validator output into joined apperror validation
// errors, one per field. Other errors are returned unchanged.
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	errs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, apperror.ValidationFailed(fe.Field(), fieldMessage(fe)))
	}
	return errors.Join(errs...)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters (it has %d).", fe.Param(), len([]rune(fmt.Sprint(fe.Value()))))
	case "min":
		return fmt.Sprintf("Ensure this value has at least %s characters (it has %d).", fe.Param(), len([]rune(fmt.Sprint(fe.Value()))))
	case "datetime":
		return "Enter a valid date."
	default:
		return fmt.Sprintf("Field '%s' failed on the '%s' tag", fe.Field(), fe.Tag())
	}
}
