package throttle

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidConfig matches every *ConfigurationError through errors.Is.
	ErrInvalidConfig = errors.New("throttle: invalid configuration")

	// ErrStopped is returned by Invoke once Stop has been called.
	ErrStopped = errors.New("throttle: stopped")
)

// ConfigurationError reports an invalid argument or option given to New.
type ConfigurationError struct {
	Field  string // Field is the name of the offending parameter
	Value  any    // Value is the rejected value
	Reason string // Reason describes the constraint that was violated
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("throttle: invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidConfig) hold for any ConfigurationError.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// PanicError carries a panic recovered from a trailing run.
type PanicError struct {
	Value any    // Value is the value passed to panic
	Stack []byte // Stack is the goroutine stack at the time of the panic
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("throttle: trailing invocation panicked: %v", e.Value)
}
