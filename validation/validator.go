// Package validation adapts struct-tag validation to the AppError taxonomy.
// Handlers run it on bound request bodies before handing off to the service,
// so shape errors surface with the same codes the service itself uses.
package validation

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/cinematch/authkit/errors"
	"github.com/cinematch/authkit/password"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// getValidator returns the singleton validator instance.
func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Report fields by their json names.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return strings.ToLower(fld.Name)
			}
			return name
		})

		// strongpw mirrors the service's strength policy so a tagged field
		// fails fast at the edge with the same rules.
		_ = validate.RegisterValidation("strongpw", func(fl validator.FieldLevel) bool {
			return len(password.CheckStrength(fl.Field().String())) == 0
		})
	})
	return validate
}

// Validate checks s against its `validate` struct tags. The first failure is
// mapped onto the AppError taxonomy: a missing required field becomes a
// MISSING_FIELD error, a failed strongpw tag becomes WEAK_PASSWORD with the
// enumerated rules, anything else a generic validation error.
func Validate(s any) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok || len(validationErrors) == 0 {
		return errors.Validation("validation failed")
	}

	first := validationErrors[0]
	switch first.Tag() {
	case "required":
		return errors.MissingField(first.Field())
	case "strongpw":
		return errors.WeakPassword(password.CheckStrength(first.Value().(string)))
	default:
		return errors.Validation(first.Field() + " is invalid")
	}
}
