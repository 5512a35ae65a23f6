package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrAllocation       = errors.New("allocation failed")
	ErrUnknownScenario  = errors.New("unknown scenario")
	ErrUnsupportedInput = errors.New("unsupported input")
	ErrSinkUnavailable  = errors.New("sink unavailable")
	ErrTimeout          = errors.New("operation timed out")
	ErrNotFound         = errors.New("not found")
)

const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitUsage       = 2
	ExitAllocation  = 3
	ExitUnavailable = 4
)

type AppError struct {
	Err      error
	Message  string
	ExitCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, exitCode int, message string) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  message,
		ExitCode: exitCode,
	}
}

func Newf(sentinel error, exitCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  fmt.Sprintf(format, args...),
		ExitCode: exitCode,
	}
}

// Is and As re-export the standard library helpers so callers importing this
// package under the name "errors" keep access to them.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }

func Join(errs ...error) error { return errors.Join(errs...) }

func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.ExitCode
	}

	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrUnknownScenario), errors.Is(err, ErrUnsupportedInput):
		return ExitUsage
	case errors.Is(err, ErrAllocation):
		return ExitAllocation
	case errors.Is(err, ErrSinkUnavailable), errors.Is(err, ErrTimeout):
		return ExitUnavailable
	default:
		return ExitFailure
	}
}
