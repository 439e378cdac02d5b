// Package core holds the error taxonomy shared by every session type.
package core

import (
	"errors"
	"fmt"
)

// ErrorType classifies failures from the model service and local devices.
type ErrorType string

const (
	// ErrInvalidRequest means the request was malformed or rejected.
	ErrInvalidRequest ErrorType = "invalid_request"
	// ErrAuthentication means the credential was missing or rejected.
	ErrAuthentication ErrorType = "authentication"
	// ErrPermission means the credential lacks access, or a local device
	// permission (microphone) was denied.
	ErrPermission ErrorType = "permission"
	// ErrNotFound means the model or resource does not exist.
	ErrNotFound ErrorType = "not_found"
	// ErrRateLimit means quota was exhausted or requests were throttled.
	ErrRateLimit ErrorType = "rate_limit"
	// ErrAPI means the service failed internally.
	ErrAPI ErrorType = "api"
	// ErrOverloaded means the service is temporarily unavailable.
	ErrOverloaded ErrorType = "overloaded"
	// ErrDevice means a local audio device failed.
	ErrDevice ErrorType = "device"
)

// Error is the canonical error for model-service and device failures.
type Error struct {
	Type       ErrorType
	Message    string
	Code       string
	HTTPStatus int
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func NewInvalidRequestError(message string) *Error {
	return &Error{Type: ErrInvalidRequest, Message: message}
}

func NewAuthenticationError(message string) *Error {
	return &Error{Type: ErrAuthentication, Message: message}
}

func NewPermissionError(message string) *Error {
	return &Error{Type: ErrPermission, Message: message}
}

func NewNotFoundError(message string) *Error {
	return &Error{Type: ErrNotFound, Message: message}
}

func NewRateLimitError(message string) *Error {
	return &Error{Type: ErrRateLimit, Message: message}
}

func NewAPIError(message string) *Error {
	return &Error{Type: ErrAPI, Message: message}
}

func NewOverloadedError(message string) *Error {
	return &Error{Type: ErrOverloaded, Message: message}
}

func NewDeviceError(message string) *Error {
	return &Error{Type: ErrDevice, Message: message}
}

// IsRetryable reports whether err is transient and safe to retry.
// Permission and device failures are terminal and must never be retried
// automatically.
func IsRetryable(err error) bool {
	var ce *Error
	if !errors.As(err, &ce) {
		return false
	}
	switch ce.Type {
	case ErrRateLimit, ErrOverloaded, ErrAPI:
		return true
	}
	return false
}

// IsRateLimit reports whether err is a quota or throttling failure.
func IsRateLimit(err error) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Type == ErrRateLimit
}
