package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Payphone-Digital/auth-service/pkg/circuit"
)

// Kind is the category a caller can react to. Anything that is not a
// DomainError is an infrastructure failure.
type Kind string

const (
	KindValidation   Kind = "VALIDATION"
	KindConflict     Kind = "CONFLICT"
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindForbidden    Kind = "FORBIDDEN"
	KindNotFound     Kind = "NOT_FOUND"
)

// DomainError represents a domain-specific error with a kind, a reason code and message
type DomainError struct {
	Kind    Kind
	Code    string
	Message string
	Details map[string]string // per-field messages for validation errors
	Err     error             // underlying error for wrapping
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is and errors.As
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches on reason code so wrapped copies still compare equal to the predefined errors.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(kind Kind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error with domain error context
func WrapError(domainErr *DomainError, err error) *DomainError {
	return &DomainError{
		Kind:    domainErr.Kind,
		Code:    domainErr.Code,
		Message: domainErr.Message,
		Details: domainErr.Details,
		Err:     err,
	}
}

// WithDetails returns a copy of domainErr carrying per-field messages.
func WithDetails(domainErr *DomainError, details map[string]string) *DomainError {
	return &DomainError{
		Kind:    domainErr.Kind,
		Code:    domainErr.Code,
		Message: domainErr.Message,
		Details: details,
		Err:     domainErr.Err,
	}
}

// Predefined domain errors
var (
	// Validation errors
	ErrInvalidInput = NewDomainError(KindValidation, "INVALID_INPUT", "validation error")

	// Conflict errors
	ErrUsernameExists     = NewDomainError(KindConflict, "USERNAME_EXISTS", "username already exists")
	ErrEmailExists        = NewDomainError(KindConflict, "EMAIL_EXISTS", "email already registered")
	ErrAlreadyProvisioned = NewDomainError(KindConflict, "ALREADY_PROVISIONED", "an active admin already exists")

	// Authentication errors
	ErrUnauthorized       = NewDomainError(KindUnauthorized, "UNAUTHORIZED", "unauthorized")
	ErrInvalidCredentials = NewDomainError(KindUnauthorized, "INVALID_CREDENTIALS", "invalid username or password")
	ErrAccountInactive    = NewDomainError(KindUnauthorized, "ACCOUNT_INACTIVE", "user not found or deactivated")
	ErrIncorrectPassword  = NewDomainError(KindUnauthorized, "INCORRECT_PASSWORD", "current password is incorrect")

	// Token errors
	ErrTokenExpired      = NewDomainError(KindUnauthorized, "TOKEN_EXPIRED", "token has expired")
	ErrTokenBadSignature = NewDomainError(KindUnauthorized, "TOKEN_BAD_SIGNATURE", "token signature is invalid")
	ErrTokenMalformed    = NewDomainError(KindUnauthorized, "TOKEN_MALFORMED", "token is malformed")
	ErrTokenWrongType    = NewDomainError(KindUnauthorized, "TOKEN_WRONG_TYPE", "wrong token type")
	ErrTokenRevoked      = NewDomainError(KindUnauthorized, "TOKEN_REVOKED", "token has been revoked")

	// Authorization errors
	ErrLastAdmin     = NewDomainError(KindForbidden, "LAST_ADMIN", "operation would leave no active admin")
	ErrSelfDeletion  = NewDomainError(KindForbidden, "SELF_DELETION", "users cannot delete themselves")
	ErrAdminRequired = NewDomainError(KindForbidden, "ADMIN_REQUIRED", "admin access required")

	// Lookup errors
	ErrUserNotFound = NewDomainError(KindNotFound, "USER_NOT_FOUND", "user not found")
)

// IsDomainError checks if an error is a domain error
func IsDomainError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr)
}

// GetDomainError extracts the domain error from an error
func GetDomainError(err error) *DomainError {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// IsKind reports whether err is a domain error of the given kind.
func IsKind(err error, kind Kind) bool {
	domainErr := GetDomainError(err)
	return domainErr != nil && domainErr.Kind == kind
}

// ToHTTPStatus maps domain errors to HTTP status codes
// This should only be used in the handler/presentation layer
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return kindToHTTPStatus(domainErr.Kind)
	}

	if errors.Is(err, circuit.ErrCircuitOpen) || errors.Is(err, circuit.ErrTooManyRequests) {
		return http.StatusServiceUnavailable
	}

	// Default to internal server error for unknown errors
	return http.StatusInternalServerError
}

func kindToHTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// GetErrorMessage safely extracts error message
func GetErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}

	return err.Error()
}
