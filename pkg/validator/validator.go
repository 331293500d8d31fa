package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]

		// ignore unexported or explicitly ignored
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = validate.RegisterValidation("nonspace_gt", validateNonSpaceGreaterThan)
	_ = validate.RegisterValidation("singleword", validateSingleWord)
}

// Validate runs struct-level validation using go-playground/validator tags.
//
// Custom tags:
//   - nonspace_gt=N: the string has more than N characters once whitespace is removed
//   - singleword: the string is one token with no whitespace anywhere
func Validate(s any) error {
	return validate.Struct(s)
}

// FormatValidationErrors converts validator.ValidationErrors into a map of
// field name → human-readable message.
func FormatValidationErrors(err error) map[string]string {
	errs := make(map[string]string)
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return errs
	}
	for _, e := range ve {
		errs[e.Field()] = formatFieldError(e)
	}
	return errs
}

// NonSpaceLen counts the runes of s that are not whitespace.
func NonSpaceLen(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

func validateNonSpaceGreaterThan(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return NonSpaceLen(fl.Field().String()) > limit
}

func validateSingleWord(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return s != "" && !strings.ContainsFunc(s, unicode.IsSpace)
}

func formatFieldError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return fmt.Sprintf("Minimum length is %s", e.Param())
	case "max":
		return fmt.Sprintf("Maximum length is %s", e.Param())
	case "nonspace_gt":
		return fmt.Sprintf("Must contain more than %s non-space characters", e.Param())
	case "singleword":
		return "Must be a single word without spaces"
	case "gte":
		return fmt.Sprintf("Must be greater than or equal to %s", e.Param())
	case "lte":
		return fmt.Sprintf("Must be less than or equal to %s", e.Param())
	default:
		return fmt.Sprintf("Validation failed on '%s'", e.Tag())
	}
}
