package domain

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/qs-lzh/spotlight/internal/service"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// validateStruct runs the struct's validate tags and reports the first
// failing field as a service.ErrValidation.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return service.Invalid("%v", err)
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return service.Invalid("%s is required", fe.Field())
	case "email":
		return service.Invalid("invalid email address")
	case "url", "http_url":
		return service.Invalid("%s must be a valid URL", fe.Field())
	case "max":
		return service.Invalid("%s must be at most %s characters", fe.Field(), fe.Param())
	case "min":
		return service.Invalid("%s must be at least %s characters", fe.Field(), fe.Param())
	default:
		return service.Invalid("%s is invalid", fe.Field())
	}
}
