package service

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/unclebandit/customer-directory/internal/errors"
	"github.com/unclebandit/customer-directory/internal/model"
)

var phoneChars = regexp.MustCompile(`^[0-9+\- ]+$`)

// NewValidator returns a validator that reports fields by their JSON name and
// knows the phone number character class.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("phonechars", func(fl validator.FieldLevel) bool {
		return phoneChars.MatchString(fl.Field().String())
	})
	return v
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "phonechars":
		return "may only contain digits, '+', '-' and spaces"
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return "must be <= " + fe.Param()
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return "must be >= " + fe.Param()
	}
	return "failed " + fe.Tag()
}

// toValidationErr converts validator output into a ValidationFailure. field
// overrides the reported name for single-value checks.
func toValidationErr(err error, field string) error {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	fields := make(map[string]string, len(ves))
	for _, fe := range ves {
		name := field
		if name == "" {
			name = fe.Field()
		}
		if _, seen := fields[name]; !seen {
			fields[name] = describe(fe)
		}
	}
	return appErrors.NewValidation(fields)
}

func normalizeCustomerInput(in model.CustomerInput) model.CustomerInput {
	in.NationalID = strings.TrimSpace(in.NationalID)
	in.GivenName = strings.TrimSpace(in.GivenName)
	in.FamilyName = strings.TrimSpace(in.FamilyName)
	in.Email = strings.TrimSpace(in.Email)
	in.CustomerTypeCode = strings.TrimSpace(in.CustomerTypeCode)
	if in.Phones != nil {
		numbers := make([]string, len(*in.Phones))
		for i, n := range *in.Phones {
			numbers[i] = strings.TrimSpace(n)
		}
		in.Phones = &numbers
	}
	return in
}

func normalizeCustomerTypeInput(in model.CustomerTypeInput) model.CustomerTypeInput {
	in.Code = strings.TrimSpace(in.Code)
	in.Description = strings.TrimSpace(in.Description)
	return in
}
