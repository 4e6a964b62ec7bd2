package service

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/classora/classora-api/pkg/errors"
)

var (
	nicPattern   = regexp.MustCompile(`^(\d{9}[vV]|\d{12})$`)
	phonePattern = regexp.MustCompile(`^\d{10}$`)
)

// NewValidator builds the shared validator with the domain formats
// registered and field names taken from json tags.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("nic", func(fl validator.FieldLevel) bool {
		return nicPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("phone10", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	return v
}

// validationError translates validator failures into the per-field error
// envelope. Non-validator errors pass through wrapped as internal.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		fields[field] = append(fields[field], fieldMessage(fe))
	}
	return appErrors.Validation(fields)
}

func fieldMessage(fe validator.FieldError) string {
	label := fieldLabel(fe.Field())
	switch fe.Tag() {
	case "required":
		return label + " is required!"
	case "email":
		return label + " must be a valid email address!"
	case "nic":
		return "NIC number must be in the format 123456789V or 200012345678"
	case "phone10":
		return "Contact Number must be exactly 10 digits"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters!", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s!", label, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters!", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s!", label, fe.Param())
	case "gt":
		return label + " must be greater than " + fe.Param() + "!"
	case "gte":
		return label + " must be at least " + fe.Param() + "!"
	case "oneof":
		return label + " is invalid!"
	case "uuid":
		return label + " must be a valid identifier!"
	default:
		return label + " is invalid!"
	}
}

// fieldLabel turns a json field name into the human label used in
// validation messages, e.g. "first_name" becomes "First Name".
func fieldLabel(field string) string {
	parts := strings.Split(field, "_")
	for i, part := range parts {
		if part == "" {
			continue
		}
		if part == "nic" {
			parts[i] = "NIC"
			continue
		}
		if part == "id" {
			parts[i] = "ID"
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, " ")
}
