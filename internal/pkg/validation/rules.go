package validation

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	xerrors "panel-service/internal/pkg/errors"

	"github.com/go-playground/validator/v10"
)

// RequiredString checks presence, printable UTF-8 text and maximum length (in characters).
func RequiredString(errs xerrors.ValidationErrors, field, value string, max int) bool {
	if strings.TrimSpace(value) == "" {
		errs.Add(field, fmt.Sprintf("The %s field is required.", field))
		return false
	}
	if !utf8.ValidString(value) || strings.IndexFunc(value, unicode.IsControl) >= 0 {
		errs.Add(field, fmt.Sprintf("The %s contains invalid characters.", field))
		return false
	}
	if max > 0 && utf8.RuneCountInString(value) > max {
		errs.Add(field, fmt.Sprintf("The %s may not be greater than %d characters.", field, max))
		return false
	}
	return true
}

// IntAtLeast checks that v is present, an integer, and >= min. It returns the
// parsed value and whether the field passed.
func IntAtLeast(errs xerrors.ValidationErrors, field string, v Int, min int64) (int64, bool) {
	if !v.Present {
		errs.Add(field, fmt.Sprintf("The %s field is required.", field))
		return 0, false
	}
	n, err := v.Value()
	if err != nil {
		errs.Add(field, fmt.Sprintf("The %s must be an integer.", field))
		return 0, false
	}
	if n < min {
		errs.Add(field, fmt.Sprintf("The %s must be at least %d.", field, min))
		return n, false
	}
	return n, true
}

// Taken reports a uniqueness failure on field.
func Taken(errs xerrors.ValidationErrors, field string) {
	errs.Add(field, fmt.Sprintf("The %s has already been taken.", field))
}

var validate = validator.New()

// Email checks presence, address syntax and maximum length.
func Email(errs xerrors.ValidationErrors, field, value string, max int) bool {
	if !RequiredString(errs, field, value, max) {
		return false
	}
	if err := validate.Var(value, "email"); err != nil {
		errs.Add(field, fmt.Sprintf("The %s must be a valid email address.", field))
		return false
	}
	return true
}

// OneOf checks that value is one of allowed.
func OneOf(errs xerrors.ValidationErrors, field, value string, allowed ...string) bool {
	if slices.Contains(allowed, value) {
		return true
	}
	errs.Add(field, fmt.Sprintf("The selected %s is invalid.", field))
	return false
}

// Password checks presence, minimum length and the confirmation copy.
func Password(errs xerrors.ValidationErrors, field, value, confirmation string, min int) bool {
	switch {
	case value == "":
		errs.Add(field, fmt.Sprintf("The %s field is required.", field))
	case utf8.RuneCountInString(value) < min:
		errs.Add(field, fmt.Sprintf("The %s must be at least %d characters.", field, min))
	case value != confirmation:
		errs.Add(field, fmt.Sprintf("The %s confirmation does not match.", field))
	default:
		return true
	}
	return false
}
