package config

import (
	"errors"
	"fmt"
)

// InvalidConfigError indicates that the configuration could not be decoded or holds invalid values.
type InvalidConfigError struct {
	err error
}

func NewInvalidConfigError(err error) InvalidConfigError {
	return InvalidConfigError{err: err}
}

func (e InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %v", e.err)
}

func (e InvalidConfigError) Unwrap() error {
	return e.err
}

// IsInvalidConfigError returns true if err is an InvalidConfigError.
func IsInvalidConfigError(err error) bool {
	var target InvalidConfigError
	return errors.As(err, &target)
}
