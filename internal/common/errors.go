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

// Is lets errors.Is match an AppError against the sentinel for its code.
func (e *AppError) Is(target error) bool {
	switch e.Code {
	case CodeConfig:
		return target == ErrConfiguration
	case CodeExternalService:
		return target == ErrExternalService
	case CodeDataShape:
		return target == ErrDataShape
	}
	return false
}

const (
	CodeConfig          = "CONFIG_ERROR"
	CodeExternalService = "EXTERNAL_SERVICE_ERROR"
	CodeDataShape       = "DATA_SHAPE_ERROR"
)

// Common application errors
var (
	ErrConfiguration   = errors.New("configuration error")
	ErrExternalService = errors.New("external service error")
	ErrDataShape       = errors.New("data shape error")
	ErrInvalidInput    = errors.New("invalid input")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewConfigurationError reports missing or invalid settings, raised before any I/O.
func NewConfigurationError(message string, cause error) *AppError {
	return NewAppError(CodeConfig, message, cause)
}

// NewExternalServiceError wraps a failure of the analysis service or the LLM.
func NewExternalServiceError(service string, cause error) *AppError {
	return NewAppError(CodeExternalService, service+" call failed", cause)
}

// NewDataShapeError reports analysis output that contradicts itself, e.g. a cell outside its table.
func NewDataShapeError(message string) *AppError {
	return NewAppError(CodeDataShape, message, nil)
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
