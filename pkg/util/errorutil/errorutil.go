package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// Error codes surfaced to API clients. The subscription codes double as
// the markers the client SDK scans for.
const (
	CodeValidationFailed        = "VALIDATION_FAILED"
	CodeNotFound                = "NOT_FOUND"
	CodeUnauthorized            = "UNAUTHORIZED"
	CodeForbidden               = "FORBIDDEN"
	CodeConflict                = "CONFLICT"
	CodeInternal                = "INTERNAL_ERROR"
	CodeAuthenticationRequired  = "AUTHENTICATION_REQUIRED"
	CodeUserNotFound            = "USER_NOT_FOUND"
	CodeSubscriptionRequired    = "SUBSCRIPTION_REQUIRED"
	CodeSubscriptionCheckFailed = "SUBSCRIPTION_CHECK_FAILED"
)

// Messages with a fixed wire contract.
const (
	MsgAuthenticationRequired  = "Authentication required"
	MsgUserNotFound            = "User not found"
	MsgSubscriptionRequired    = "Active subscription required"
	MsgSubscriptionCheckFailed = "Failed to verify subscription"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewAuthenticationRequired is returned when no caller identity is present.
func NewAuthenticationRequired() error {
	return NewDomainError(CodeAuthenticationRequired, MsgAuthenticationRequired, http.StatusUnauthorized, nil)
}

// NewUserNotFound is returned when the identity does not match a user.
func NewUserNotFound() error {
	return NewDomainError(CodeUserNotFound, MsgUserNotFound, http.StatusUnauthorized, nil)
}

// NewSubscriptionRequired is returned when the caller's subscription is not active.
func NewSubscriptionRequired() error {
	return NewDomainError(CodeSubscriptionRequired, MsgSubscriptionRequired, http.StatusForbidden, nil)
}

// NewSubscriptionCheckFailed wraps an unexpected failure while verifying a subscription.
func NewSubscriptionCheckFailed(err error) error {
	return &DomainError{
		Code:       CodeSubscriptionCheckFailed,
		Message:    MsgSubscriptionCheckFailed,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// IsNotFound reports whether err signals a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if IsNotFound(err) {
		return &DomainError{
			Code:       CodeNotFound,
			Message:    "resource not found",
			HTTPStatus: http.StatusNotFound,
			Err:        err,
		}
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
