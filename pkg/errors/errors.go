package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for the credential/session core and the CRUD surface.
var (
	// Login failures are deliberately generic so callers cannot tell which
	// of username/password was wrong.
	ErrAuthenticationFailed = New("AUTH_FAILED", http.StatusUnauthorized, "invalid username or password")

	ErrDuplicateUsername = New("DUPLICATE_USERNAME", http.StatusBadRequest, "username already exists")
	ErrDuplicateEmail    = New("DUPLICATE_EMAIL", http.StatusBadRequest, "email already exists")

	ErrInvalidAccessToken     = New("INVALID_ACCESS_TOKEN", http.StatusBadRequest, "invalid access token")
	ErrExpiredAccessToken     = New("EXPIRED_ACCESS_TOKEN", http.StatusBadRequest, "expired access token")
	ErrUnsupportedAccessToken = New("UNSUPPORTED_ACCESS_TOKEN", http.StatusBadRequest, "unsupported access token")
	ErrEmptyTokenClaims       = New("EMPTY_TOKEN_CLAIMS", http.StatusBadRequest, "access token claims are empty")

	ErrRefreshTokenNotFound = New("REFRESH_TOKEN_NOT_FOUND", http.StatusNotFound, "refresh token not found")
	ErrRefreshTokenExpired  = New("REFRESH_TOKEN_EXPIRED", http.StatusForbidden, "refresh token expired")

	ErrAccessDenied = New("ACCESS_DENIED", http.StatusForbidden, "you are not allowed to do that")
	ErrUnauthorized = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrNotFound     = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrConflict     = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation   = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal     = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")

	// ErrCacheMiss signals the caller should fall through to the database.
	ErrCacheMiss = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Is reports whether err carries the same code as target.
func Is(err error, target *Error) bool {
	if err == nil || target == nil {
		return false
	}
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == target.Code
}
