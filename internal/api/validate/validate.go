// Package validate checks decoded request bodies against their struct tags.
package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mycelian/nurture-tracker/internal/model"
)

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	_ = val.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return val
}

// Struct validates s and returns a model.ErrValidation describing the first failure.
func Struct(s interface{}) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := lowerFirst(fe.Field())
		switch fe.Tag() {
		case "required", "notblank":
			return fmt.Errorf("%w: %s is required", model.ErrValidation, field)
		case "oneof":
			return fmt.Errorf("%w: %s must be one of [%s]", model.ErrValidation, field, fe.Param())
		case "min", "gte":
			return fmt.Errorf("%w: %s must be at least %s", model.ErrValidation, field, fe.Param())
		case "max", "lte":
			return fmt.Errorf("%w: %s must be at most %s", model.ErrValidation, field, fe.Param())
		case "email":
			return fmt.Errorf("%w: %s must be a valid email", model.ErrValidation, field)
		default:
			return fmt.Errorf("%w: %s failed %s", model.ErrValidation, field, fe.Tag())
		}
	}
	return fmt.Errorf("%w: %v", model.ErrValidation, err)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
