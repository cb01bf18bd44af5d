package manager

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidationError - пустое обязательное поле, обнаруженное до любого запроса
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

type credentialsForm struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

type taskForm struct {
	Title string `validate:"required"`
}

func validateForm(form interface{}, message string) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return &ValidationError{Field: strings.ToLower(fieldErrs[0].Field()), Message: message}
	}
	return &ValidationError{Message: message}
}
