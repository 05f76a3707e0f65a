// Package validate runs go-playground/validator struct tags and turns the result
// into the application's field-keyed validation error.
//
// WHY A WRAPPER?
// validator.ValidationErrors speaks in Go terms: struct field names ("Name"),
// tags ("required") and params ("50"). API clients speak in wire terms: the
// JSON member name ("name") and a sentence they can show to a user. This
// package is the one place that translates between the two, so every handler
// and the config loader produce the same shape:
//
//	{"name": ["The name field is required."]}
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/cityinfo/internal/apperror"
)

var (
	instance *validator.Validate
	once     sync.Once
)

// Validator returns the shared validator. validator.Validate caches struct
// metadata and is safe for concurrent use, so one instance serves the process.
func Validator() *validator.Validate {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())

		// Report fields by their wire name: json first, then mapstructure
		// (config structs), then the Go name.
		instance.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "mapstructure"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return f.Name
		})
	})
	return instance
}

// Struct validates s. It returns nil when every rule passes and an
// *apperror.AppError wrapping apperror.ErrValidation otherwise.
func Struct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		// InvalidValidationError: s was nil or not a struct. A programming error.
		return fmt.Errorf("validate: %w", err)
	}

	fields := make(map[string][]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		key := fieldKey(fe)
		fields[key] = append(fields[key], Message(fe))
	}
	return apperror.Validation(fields)
}

// fieldKey is the namespace without the root struct, e.g. "auth.secret" for a
// nested config field or "name" for a top-level DTO field.
func fieldKey(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

// Message renders one failed rule as a sentence.
func Message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", field)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("The field %s must be a string with a maximum length of %s.", field, fe.Param())
		}
		return fmt.Sprintf("The field %s must be at most %s.", field, fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("The field %s must be a string with a minimum length of %s.", field, fe.Param())
		}
		return fmt.Sprintf("The field %s must be at least %s.", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("The field %s must be one of [%s].", field, fe.Param())
	case "gt":
		return fmt.Sprintf("The field %s must be greater than %s.", field, fe.Param())
	case "email":
		return fmt.Sprintf("The field %s must be a valid e-mail address.", field)
	default:
		return fmt.Sprintf("The field %s is invalid (%s).", field, fe.Tag())
	}
}
