package model

import (
	"errors"
	"strconv"
)

// ErrValidation is matched by every *ValidationError through errors.Is,
// so callers that only need the error kind do not have to unwrap details.
var ErrValidation = errors.New("validation error")

// ValidationError reports a threat model that cannot be rendered:
// a required field is missing or empty, or an enum value is unknown.
// Field is a path such as "controls[2].status".
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid threat model: " + e.Reason
	}
	return "invalid threat model: " + e.Field + ": " + e.Reason
}

// Is makes errors.Is(err, ErrValidation) true for any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// IsValidationError reports whether err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// indexedField builds "name[i].field" paths for validation messages.
func indexedField(name string, i int, field string) string {
	path := name + "[" + strconv.Itoa(i) + "]"
	if field != "" {
		path += "." + field
	}
	return path
}

func quote(s string) string {
	return strconv.Quote(s)
}
