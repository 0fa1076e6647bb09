package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_StatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want int
	}{
		{"validation", NewValidationError("days"), http.StatusBadRequest},
		{"plan not found", NewMealPlanNotFoundError("p-1"), http.StatusNotFound},
		{"client not found", NewClientNotFoundError("c-1"), http.StatusNotFound},
		{"generation failed", NewPlanGenerationError("TIME_OUT", nil), http.StatusBadGateway},
		{"retries exhausted", NewRetriesExhaustedError("recipes", 6, nil), http.StatusServiceUnavailable},
		{"database", NewDatabaseError("save plan", stderrors.New("disk full")), http.StatusInternalServerError},
		{"unknown ref", NewUnknownOriginalRefError("uri", nil), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.StatusCode())
		})
	}
}

func TestIs_FollowsWrappedErrors(t *testing.T) {
	appErr := NewPlanGenerationError("ERROR", nil)
	wrapped := fmt.Errorf("generate plan: %w", appErr)

	assert.True(t, Is(wrapped, CodePlanGenerationFailed))
	assert.False(t, Is(wrapped, CodeNotFound))
	assert.Equal(t, CodePlanGenerationFailed, GetCode(wrapped))
	assert.Equal(t, CodeInternal, GetCode(stderrors.New("plain")))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, "ignored"))

	original := NewClientNotFoundError("c-9")
	assert.Same(t, original, Wrap(fmt.Errorf("lookup: %w", original), "ignored"))

	cause := stderrors.New("boom")
	wrapped := Wrap(cause, "resolve recipes")
	require.NotNil(t, wrapped)
	assert.Equal(t, CodeInternal, wrapped.Code)
	assert.Equal(t, "resolve recipes", wrapped.Message)
	assert.ErrorIs(t, wrapped, cause)
}

func TestAppError_ErrorAndMetadata(t *testing.T) {
	err := NewRetriesExhaustedError("planner", 6, stderrors.New("429"))

	assert.Equal(t, "RETRIES_EXHAUSTED: Remote service unavailable (planner failed after 6 attempts)", err.Error())
	assert.Equal(t, "planner", err.Metadata["service"])
	assert.Equal(t, 6, err.Metadata["attempts"])
	assert.NotEmpty(t, err.StackTrace)
}

func TestNewValidationErrors(t *testing.T) {
	err := NewValidationErrors([]ValidationError{
		{Field: "Days", Tag: "max", Message: "Days must be at most 14"},
		{Field: "Timezone", Tag: "required", Message: "Timezone is required"},
	})

	assert.Equal(t, CodeValidationFailed, err.Code)
	assert.Equal(t, "Days must be at most 14; Timezone is required", err.Details)

	resp := ToErrorResponse(err, "req-1")
	assert.Equal(t, "req-1", resp.Error.RequestID)
	assert.Equal(t, CodeValidationFailed, resp.Error.Code)
	assert.NotEmpty(t, resp.Error.Timestamp)
}
