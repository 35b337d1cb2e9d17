// Package validator
package validator

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Validator interface {
	Validate(data any) map[string]string
}

type DefaultValidator struct {
	validate *validator.Validate
}

func NewValidator() Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &DefaultValidator{validate: v}
}

func (v *DefaultValidator) Validate(data any) map[string]string {
	err := v.validate.Struct(data)
	if err == nil {
		return map[string]string{}
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{
			"_error": "invalid payload",
		}
	}

	errors := make(map[string]string)

	for _, e := range validationErrors {
		errors[e.Field()] = messageFor(e)
	}

	return errors
}

var messages = map[string]func(validator.FieldError) string{
	"required": func(e validator.FieldError) string {
		return fmt.Sprintf("%s is required", e.Field())
	},
	"min": func(e validator.FieldError) string {
		return fmt.Sprintf("%s must be at least %s characters", e.Field(), e.Param())
	},
	"gte": func(e validator.FieldError) string {
		return fmt.Sprintf("%s must be at least %s", e.Field(), e.Param())
	},
	"datetime": func(e validator.FieldError) string {
		return fmt.Sprintf("%s must be a date (YYYY-MM-DD)", e.Field())
	},
	"oneof": func(e validator.FieldError) string {
		return fmt.Sprintf("%s must be one of: %s", e.Field(), strings.ReplaceAll(e.Param(), " ", ", "))
	},
}

func messageFor(e validator.FieldError) string {
	if msg, ok := messages[e.Tag()]; ok {
		return msg(e)
	}

	return fmt.Sprintf("%s is invalid", e.Field())
}
