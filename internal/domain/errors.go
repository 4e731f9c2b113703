package domain

import (
	"errors"
	"fmt"
)

// Common domain errors
var (
	// Session errors
	ErrSessionNotFound    = errors.New("session not found")
	ErrGenerationNotFound = errors.New("generation not found")
	ErrStaleGeneration    = errors.New("generation was modified since it was read")

	// Completion provider errors
	ErrProviderFailed      = errors.New("completion provider request failed")
	ErrProviderUnavailable = errors.New("completion provider unavailable")

	// Validation errors
	ErrInvalidID    = errors.New("invalid ID format")
	ErrEmptyContent = errors.New("content cannot be empty")
	ErrInvalidInput = errors.New("invalid input")
)

// DomainError wraps a domain error with additional context
type DomainError struct {
	Err     error
	Message string
	Code    string
}

func (e *DomainError) Error() string {
	if e.Message != "" {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func NewDomainError(err error, message string) *DomainError {
	return &DomainError{
		Err:     err,
		Message: message,
	}
}

func NewDomainErrorWithCode(err error, message, code string) *DomainError {
	return &DomainError{
		Err:     err,
		Message: message,
		Code:    code,
	}
}

// ProviderError marks cause as a completion provider failure while keeping
// the original error reachable through errors.Is / errors.As.
func ProviderError(op string, cause error) error {
	if cause == nil {
		return nil
	}
	if errors.Is(cause, ErrProviderFailed) {
		return cause
	}
	return NewDomainErrorWithCode(fmt.Errorf("%w: %w", ErrProviderFailed, cause), op, "provider_error")
}
