package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const (
	PasswordMinLength = 8
	PasswordMaxLength = 20
)

type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()

	// Messages name fields the way clients send them.
	v.RegisterTagNameFunc(jsonFieldName)
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return IsStrongPassword(fl.Field().String())
	})

	return &Validator{validate: v}
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return strings.ToLower(fld.Name)
	default:
		return name
	}
}

// IsStrongPassword accepts 8 to 20 characters with at least one letter and
// one digit.
func IsStrongPassword(password string) bool {
	n := len([]rune(password))
	if n < PasswordMinLength || n > PasswordMaxLength {
		return false
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}

// Validate checks i against its validate tags and joins every failure into a
// single *ValidationError.
func (v *Validator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, describe(fe))
	}
	return &ValidationError{Message: strings.Join(messages, "; ")}
}

var tagMessages = map[string]string{
	"required": "%s is required",
	"min":      "%s must have at least %s elements or characters",
	"max":      "%s must have at most %s elements or characters",
	"gte":      "%s must be greater than or equal to %s",
	"lte":      "%s must be less than or equal to %s",
	"dive":     "%s contains an invalid entry",
}

func describe(fe validator.FieldError) string {
	if fe.Tag() == "password" {
		return fmt.Sprintf("%s must be %d-%d characters with at least one letter and one digit",
			fe.Field(), PasswordMinLength, PasswordMaxLength)
	}
	if format, ok := tagMessages[fe.Tag()]; ok {
		if strings.Count(format, "%s") == 2 {
			return fmt.Sprintf(format, fe.Field(), fe.Param())
		}
		return fmt.Sprintf(format, fe.Field())
	}
	return fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
}

// ValidationError lets the HTTP layer tell bad input apart from other failures.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
