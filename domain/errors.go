package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeUnavailable marks a store failure or timeout. Callers may retry.
	ErrCodeUnavailable ErrorCode = "UNAVAILABLE"
	ErrCodeInternal    ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Unavailable wraps a store failure as a retryable I/O error.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	var dErr *Error
	if errors.As(err, &dErr) {
		return err
	}
	return WrapError(ErrCodeUnavailable, op, err)
}

// Common domain errors.
var (
	ErrProjectNotFound      = NewError(ErrCodeNotFound, "project not found")
	ErrInvitationNotFound   = NewError(ErrCodeNotFound, "invitation not found")
	ErrNotificationNotFound = NewError(ErrCodeNotFound, "notification not found")

	ErrDuplicatePendingInvitation = NewError(ErrCodeConflict, "already invited")
	ErrInvitationAlreadyResponded = NewError(ErrCodeConflict, "already responded to")
	ErrMembershipExists           = NewError(ErrCodeConflict, "membership already exists")
	ErrNotificationExists         = NewError(ErrCodeConflict, "notification already emitted")

	ErrInvalidEmail   = NewError(ErrCodeInvalid, "invalid email address")
	ErrInvalidRole    = NewError(ErrCodeInvalid, "invalid role")
	ErrInvalidRange   = NewError(ErrCodeInvalid, "invalid date range")
	ErrInvalidPair    = NewError(ErrCodeInvalid, "synergy requires two distinct users")
	ErrInvalidPayload = NewError(ErrCodeInvalid, "invalid payload")

	ErrUnauthorized = NewError(ErrCodeUnauthorized, "unauthorized")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}
