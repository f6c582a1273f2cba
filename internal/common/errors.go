package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")

	// ErrDuplicateProcessor is returned when registering a processor for a
	// document type that already has one. Registry state is left unchanged.
	ErrDuplicateProcessor = errors.New("processor already registered for document type")

	// ErrUnknownMethod marks an extraction method outside the closed enum.
	// This is a programmer error and is never swallowed.
	ErrUnknownMethod = errors.New("unknown extraction method")

	// ErrNoExtraction means every attempted extraction method failed to
	// produce validatable data. It is an absence signal, not a transport fault.
	ErrNoExtraction = errors.New("no extraction method produced validatable data")

	// ErrNoPartials is returned by Merge when there is nothing to combine.
	ErrNoPartials = errors.New("no partial results to merge")

	// ErrWrongDocumentType is returned when data of another processor's model
	// is handed to a processor.
	ErrWrongDocumentType = errors.New("data does not match processor document type")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
