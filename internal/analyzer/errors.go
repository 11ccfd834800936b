package analyzer

import (
	"errors"
	"fmt"
)

// ErrModelInvocation matches every error caused by the model backend.
var ErrModelInvocation = errors.New("model invocation failed")

// ModelError wraps a failed model call.
type ModelError struct {
	Model string
	Err   error
}

func (e *ModelError) Error() string {
	if e.Model == "" {
		return fmt.Sprintf("%s: %v", ErrModelInvocation, e.Err)
	}
	return fmt.Sprintf("%s (%s): %v", ErrModelInvocation, e.Model, e.Err)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrModelInvocation) true for every ModelError.
func (e *ModelError) Is(target error) bool {
	return target == ErrModelInvocation
}
