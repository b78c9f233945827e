package errors

import (
	"errors"
	"fmt"
)

var (
	ErrDataLoad        = errors.New("data load failed")
	ErrEmptyCorpus     = errors.New("corpus is empty")
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrModelInference  = errors.New("model inference failed")
	ErrAugmentation    = errors.New("augmentation failed")
	ErrQueryProcessing = errors.New("query processing failed")
)

// Exit codes reported by the process. Startup failures are the only
// conditions that terminate with a non-zero code; per-query errors are
// recovered inside the session loop.
const (
	ExitOK            = 0
	ExitGeneric       = 1
	ExitDataLoad      = 2
	ExitInvalidConfig = 2
	ExitEmptyCorpus   = 3
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

func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.ExitCode
	}

	switch {
	case errors.Is(err, ErrEmptyCorpus):
		return ExitEmptyCorpus
	case errors.Is(err, ErrDataLoad), errors.Is(err, ErrInvalidConfig):
		return ExitDataLoad
	default:
		return ExitGeneric
	}
}
