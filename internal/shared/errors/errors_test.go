package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError(t *testing.T) {
	t.Run("Error returns message", func(t *testing.T) {
		err := &AppError{
			Code:    "TEST_ERROR",
			Message: "test error message",
		}
		assert.Equal(t, "test error message", err.Error())
	})

	t.Run("Error includes wrapped error", func(t *testing.T) {
		wrapped := errors.New("wrapped error")
		err := &AppError{
			Code:    "TEST_ERROR",
			Message: "test error message",
			Err:     wrapped,
		}
		assert.Contains(t, err.Error(), "test error message")
		assert.Contains(t, err.Error(), "wrapped error")
	})

	t.Run("Unwrap returns wrapped error", func(t *testing.T) {
		wrapped := errors.New("wrapped error")
		err := &AppError{
			Code:    "TEST_ERROR",
			Message: "test message",
			Err:     wrapped,
		}
		assert.Equal(t, wrapped, err.Unwrap())
	})
}

func TestNew(t *testing.T) {
	err := New(KindConflict, "team_full", "team is full")

	assert.Equal(t, "team_full", err.Code)
	assert.Equal(t, KindConflict, err.Kind)
	assert.Equal(t, http.StatusConflict, err.StatusCode)
	assert.True(t, errors.Is(err, ErrConflict))
}

func TestAppError_Is(t *testing.T) {
	sentinel := New(KindNotFound, "team_not_found", "team not found")

	t.Run("matches wrapped copy by code", func(t *testing.T) {
		wrapped := fmt.Errorf("load team: %w", sentinel.Wrap(errors.New("record not found")))
		assert.True(t, errors.Is(wrapped, sentinel))
	})

	t.Run("does not match different code", func(t *testing.T) {
		other := New(KindNotFound, "task_not_found", "task not found")
		assert.False(t, errors.Is(other, sentinel))
	})
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", New(KindValidation, "bad", "bad"), KindValidation},
		{"wrapped external", fmt.Errorf("x: %w", New(KindExternalService, "down", "down")), KindExternalService},
		{"plain error", errors.New("boom"), KindInternal},
		{"nil-kind app error", &AppError{Code: "X"}, KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(New(KindExternalService, "eligibility_unavailable", "down")))
	assert.False(t, IsRetryable(New(KindConflict, "team_full", "full")))
	assert.False(t, IsRetryable(errors.New("boom")))
}

func TestStatusForKind(t *testing.T) {
	assert.Equal(t, http.StatusUnprocessableEntity, StatusForKind(KindValidation))
	assert.Equal(t, http.StatusConflict, StatusForKind(KindConflict))
	assert.Equal(t, http.StatusNotFound, StatusForKind(KindNotFound))
	assert.Equal(t, http.StatusForbidden, StatusForKind(KindPermission))
	assert.Equal(t, http.StatusServiceUnavailable, StatusForKind(KindExternalService))
	assert.Equal(t, http.StatusInternalServerError, StatusForKind(KindInternal))
}

func TestToResponse(t *testing.T) {
	err := New(KindConflict, "not_submitted", "task is not submitted")
	resp := err.ToResponse()

	assert.Equal(t, "not_submitted", resp.Error.Code)
	assert.Equal(t, KindConflict, resp.Error.Kind)
	assert.Equal(t, "task is not submitted", resp.Error.Message)
	assert.False(t, resp.Error.Retryable)

	unavailable := New(KindExternalService, "eligibility_unavailable", "eligibility service is unavailable").Wrap(errors.New("dial tcp"))
	assert.True(t, unavailable.ToResponse().Error.Retryable)
}
