package admin

import (
	"errors"
	"fmt"
)

// ErrCommandNotFound is returned when no handler is registered for the requested command.
var ErrCommandNotFound = errors.New("command not found")

// ErrValidatorReqDataFormat is returned when an admin request is not in the expected format.
// For example, if the input is a JSON number, but the command expects a map, type conversion
// of the input will fail.
var ErrValidatorReqDataFormat = NewInvalidAdminReqErrorf("invalid request format")

// InvalidAdminReqError indicates that an admin request has failed validation, and
// the request will not be processed. Validators should return this error for malformed data.
type InvalidAdminReqError struct {
	Err error
}

func NewInvalidAdminReqErrorf(msg string, args ...any) InvalidAdminReqError {
	return InvalidAdminReqError{
		Err: fmt.Errorf(msg, args...),
	}
}

// NewInvalidAdminReqParameterError returns an InvalidAdminReqError indicating that
// a field of the request has an invalid value.
func NewInvalidAdminReqParameterError(field string, msg string, actualVal any) InvalidAdminReqError {
	return NewInvalidAdminReqErrorf("invalid value for '%s': %s. Got: %v", field, msg, actualVal)
}

// NewInvalidAdminReqFormatError returns an InvalidAdminReqError indicating that the data
// field of the request does not have the expected type.
func NewInvalidAdminReqFormatError(expected string) InvalidAdminReqError {
	return NewInvalidAdminReqErrorf("%v: %s", ErrValidatorReqDataFormat, expected)
}

func IsInvalidAdminParameterError(err error) bool {
	var target InvalidAdminReqError
	return errors.As(err, &target)
}

func (err InvalidAdminReqError) Error() string {
	return err.Err.Error()
}

func (err InvalidAdminReqError) Unwrap() error {
	return err.Err
}
