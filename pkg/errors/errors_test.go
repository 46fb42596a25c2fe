package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	err := NewInvalidInputError("missing user id")
	want := "INVALID_INPUT: missing user id"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestAppError_ErrorWithCause(t *testing.T) {
	cause := errors.New("store offline")
	err := NewInternalError("registration failed", cause)
	want := "INTERNAL_ERROR: registration failed (caused by: store offline)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, cause) {
		t.Error("expected wrapped cause to survive errors.Is")
	}
}

func TestAppError_HTTPStatus(t *testing.T) {
	tests := []struct {
		err  *AppError
		code ErrorCode
		want int
	}{
		{NewInvalidInputError("bad"), ErrCodeInvalidInput, http.StatusBadRequest},
		{NewUnauthorizedError("denied"), ErrCodeUnauthorized, http.StatusUnauthorized},
		{NewConflictError("taken"), ErrCodeConflict, http.StatusConflict},
		{NewInternalError("broken", nil), ErrCodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if tt.err.Code != tt.code {
			t.Errorf("Code = %v, want %v", tt.err.Code, tt.code)
		}
		if tt.err.HTTPStatus != tt.want {
			t.Errorf("HTTPStatus = %d, want %d", tt.err.HTTPStatus, tt.want)
		}
	}
}

func TestAppError_WithContext(t *testing.T) {
	err := NewInvalidInputError("bad room id").WithContext("room_id", "room_x")
	if err.Context["room_id"] != "room_x" {
		t.Errorf("Context[room_id] = %v, want room_x", err.Context["room_id"])
	}
}

func TestGetAppError(t *testing.T) {
	appErr := NewUnauthorizedError("bad token")

	if got := GetAppError(appErr); got != appErr {
		t.Error("expected direct AppError to be returned")
	}

	wrapped := fmt.Errorf("handler: %w", appErr)
	if got := GetAppError(wrapped); got != appErr {
		t.Error("expected AppError to be found through the chain")
	}

	if got := GetAppError(errors.New("plain")); got != nil {
		t.Errorf("expected nil for non-AppError, got %v", got)
	}

	if got := GetAppError(nil); got != nil {
		t.Errorf("expected nil for nil error, got %v", got)
	}
}
