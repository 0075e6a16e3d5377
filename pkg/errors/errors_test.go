package errors

import (
	"errors"
	"net/http"
	"testing"
)

func TestConstructors_StatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"not found", NotFound("Schedule"), CodeNotFound, http.StatusNotFound},
		{"field validation", FieldValidation("appointment_time", "slot is not available"), CodeValidation, http.StatusBadRequest},
		{"validation", Validation("invalid payload", nil), CodeValidation, http.StatusUnprocessableEntity},
		{"conflict", Conflict("slot already booked"), CodeConflict, http.StatusConflict},
		{"forbidden", Forbidden("not your appointment"), CodeForbidden, http.StatusForbidden},
		{"unauthorized", Unauthorized("missing token"), CodeUnauthorized, http.StatusUnauthorized},
		{"invalid input", InvalidInput("bad id"), CodeInvalidInput, http.StatusBadRequest},
		{"internal", Internal("boom", errors.New("cause")), CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", tt.err.Code, tt.wantCode)
			}
			if tt.err.StatusCode() != tt.wantStatus {
				t.Errorf("status = %d, want %d", tt.err.StatusCode(), tt.wantStatus)
			}
		})
	}
}

func TestFieldValidation_Details(t *testing.T) {
	err := FieldValidation("doctor", "schedule does not belong to this doctor")
	if err.Details["field"] != "doctor" {
		t.Errorf("details field = %v, want doctor", err.Details["field"])
	}
}

func TestAsAppError_WrapsUnknown(t *testing.T) {
	plain := errors.New("driver exploded")
	appErr := AsAppError(plain)
	if appErr.Code != CodeInternal {
		t.Errorf("code = %s, want %s", appErr.Code, CodeInternal)
	}
	if !errors.Is(appErr, plain) {
		t.Error("expected wrapped error to unwrap to the original")
	}
}

func TestAsAppError_PassesThrough(t *testing.T) {
	orig := Conflict("taken")
	if got := AsAppError(orig); got != orig {
		t.Error("expected the same *AppError instance back")
	}
}
