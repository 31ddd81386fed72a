package runner

import (
	"errors"
	"fmt"
)

// ErrAssumptionViolated is returned (or wrapped) by a test body whose
// preconditions do not hold. The test is reported as skipped, not failed.
var ErrAssumptionViolated = errors.New("assumption violated")

// Failure pairs a description with the error that caused it to fail
type Failure struct {
	Description *Description
	Err         error
}

// NewFailure creates a failure for the given description
func NewFailure(d *Description, err error) Failure {
	return Failure{Description: d, Err: err}
}

// Message returns the error text, or an empty string
func (f Failure) Message() string {
	if f.Err == nil {
		return ""
	}
	return f.Err.Error()
}

// String implements fmt.Stringer
func (f Failure) String() string {
	name := "<unknown>"
	if f.Description != nil {
		name = f.Description.DisplayName()
	}
	return fmt.Sprintf("%s: %s", name, f.Message())
}
