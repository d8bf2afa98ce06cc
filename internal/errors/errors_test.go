package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/Payphone-Digital/auth-service/pkg/circuit"
)

func TestToHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", ErrInvalidInput, http.StatusBadRequest},
		{"conflict", ErrUsernameExists, http.StatusConflict},
		{"unauthorized", ErrTokenRevoked, http.StatusUnauthorized},
		{"forbidden", ErrLastAdmin, http.StatusForbidden},
		{"not found", ErrUserNotFound, http.StatusNotFound},
		{"wrapped domain", fmt.Errorf("refresh: %w", ErrTokenWrongType), http.StatusUnauthorized},
		{"circuit open", fmt.Errorf("revocation: %w", circuit.ErrCircuitOpen), http.StatusServiceUnavailable},
		{"infrastructure", errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToHTTPStatus(tt.err); got != tt.want {
				t.Errorf("ToHTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDomainError_IsMatchesByCode(t *testing.T) {
	cause := errors.New("duplicate key")
	wrapped := WrapError(ErrEmailExists, cause)

	if !errors.Is(wrapped, ErrEmailExists) {
		t.Error("wrapped error should match ErrEmailExists")
	}
	if errors.Is(wrapped, ErrUsernameExists) {
		t.Error("wrapped error must not match a different code")
	}
	if !errors.Is(wrapped, cause) {
		t.Error("wrapped error should unwrap to its cause")
	}
}

func TestWithDetails(t *testing.T) {
	err := WithDetails(ErrInvalidInput, map[string]string{"username": "too short"})

	if ErrInvalidInput.Details != nil {
		t.Fatal("WithDetails must not mutate the predefined error")
	}
	got := GetDomainError(fmt.Errorf("register: %w", err))
	if got == nil || got.Details["username"] != "too short" {
		t.Errorf("details not preserved: %+v", got)
	}
	if !IsKind(err, KindValidation) {
		t.Error("expected validation kind")
	}
}

func TestGetErrorMessage(t *testing.T) {
	if got := GetErrorMessage(ErrSelfDeletion); got != "users cannot delete themselves" {
		t.Errorf("unexpected message %q", got)
	}
	if got := GetErrorMessage(errors.New("raw")); got != "raw" {
		t.Errorf("unexpected message %q", got)
	}
	if IsDomainError(errors.New("raw")) {
		t.Error("plain error is not a domain error")
	}
}

func TestHTTPResponse(t *testing.T) {
	status, body := HTTPResponse(WithDetails(ErrInvalidInput, map[string]string{"email": "bad"}))
	if status != http.StatusBadRequest {
		t.Errorf("status = %d", status)
	}
	if body["error"] != "INVALID_INPUT" || body["details"] == nil {
		t.Errorf("unexpected body %v", body)
	}

	status, body = HTTPResponse(errors.New("pq: password authentication failed"))
	if status != http.StatusInternalServerError {
		t.Errorf("status = %d", status)
	}
	if body["message"] != "Internal server error" {
		t.Errorf("infrastructure detail leaked: %v", body)
	}

	status, _ = HTTPResponse(circuit.ErrCircuitOpen)
	if status != http.StatusServiceUnavailable {
		t.Errorf("status = %d", status)
	}
}
