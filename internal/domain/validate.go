package domain

import (
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func checkString(field, value string) error {
	if err := validate.Var(value, "required"); err != nil {
		return &ValidationError{Field: field, Reason: "cannot be empty"}
	}
	return nil
}

func checkDate(field string, value time.Time) error {
	if value.IsZero() {
		return &ValidationError{Field: field, Reason: "cannot be null"}
	}
	return nil
}

func checkNonNegative(field string, value int) error {
	if err := validate.Var(value, "gte=0"); err != nil {
		return &ValidationError{Field: field, Reason: "cannot be negative"}
	}
	return nil
}
