package descriptor

import (
	"errors"
	"fmt"
)

// ErrMalformedConfiguration is matched by every MalformedConfigurationError
// through errors.Is.
var ErrMalformedConfiguration = errors.New("malformed configuration")

// MalformedConfigurationError is returned when a descriptor is missing a
// required field, carries an unknown key, or holds a value of the wrong type.
type MalformedConfigurationError struct {
	// Field is the offending key, dotted for nested keys (e.g. "frameworkOptions.slow").
	// Empty when the document as a whole could not be decoded.
	Field string

	// Reason is a short human readable explanation.
	Reason string

	// Err is the underlying decode error, if any.
	Err error
}

func (e *MalformedConfigurationError) Error() string {
	msg := ErrMalformedConfiguration.Error()
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Field)
	}
	if e.Reason != "" {
		msg = fmt.Sprintf("%s %s", msg, e.Reason)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Is reports whether target is ErrMalformedConfiguration.
func (e *MalformedConfigurationError) Is(target error) bool {
	return target == ErrMalformedConfiguration
}

// Unwrap returns the underlying decode error.
func (e *MalformedConfigurationError) Unwrap() error {
	return e.Err
}

func malformed(field, reason string) error {
	return &MalformedConfigurationError{Field: field, Reason: reason}
}
