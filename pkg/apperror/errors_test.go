package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without wrapped error",
			appErr:   New("WEBHOOK_001", "Invalid payload", http.StatusBadRequest),
			expected: "[WEBHOOK_001] Invalid payload",
		},
		{
			name:     "with wrapped error",
			appErr:   Wrap("SYS_001", "DB error", http.StatusInternalServerError, fmt.Errorf("connection refused")),
			expected: "[SYS_001] DB error: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appErr.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := Wrap("SYS_001", "wrapped", http.StatusInternalServerError, inner)

	assert.True(t, errors.Is(appErr, inner))
}

func TestAppError_IsNilUnwrap(t *testing.T) {
	appErr := New("WEBHOOK_001", "test", http.StatusBadRequest)
	assert.Nil(t, appErr.Unwrap())
}

func TestWebhookErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"InvalidPayload", ErrInvalidPayload(), "WEBHOOK_001", 400},
		{"MissingSignature", ErrMissingSignature(), "WEBHOOK_002", 401},
		{"InvalidSignature", ErrInvalidSignature(), "WEBHOOK_003", 401},
		{"ProcessingFailure", ErrProcessingFailure(fmt.Errorf("boom")), "WEBHOOK_004", 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestWebhookErrorMessages(t *testing.T) {
	assert.Equal(t, "Invalid payload", ErrInvalidPayload().Message)
	assert.Equal(t, "Missing signature header", ErrMissingSignature().Message)
	assert.Equal(t, "Invalid signature", ErrInvalidSignature().Message)
}

func TestProcessingFailurePassesMessageThrough(t *testing.T) {
	err := ErrProcessingFailure(fmt.Errorf("handler blew up"))
	assert.Equal(t, "handler blew up", err.Message)
}

func TestMessageErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"UnknownMessageType", ErrUnknownMessageType("sticker"), "MSG_001", 422},
		{"SendFailure", ErrSendFailure(fmt.Errorf("502")), "MSG_002", 502},
		{"NotFound", ErrNotFound("Instance"), "MSG_003", 404},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestUnknownMessageTypeMentionsType(t *testing.T) {
	err := ErrUnknownMessageType("sticker")
	assert.Contains(t, err.Message, "sticker")
}

func TestQueueAndRateErrors(t *testing.T) {
	inner := fmt.Errorf("redis: connection refused")
	qErr := ErrEnqueueFailure(inner)
	assert.Equal(t, "QUEUE_001", qErr.Code)
	assert.Equal(t, 503, qErr.HTTPStatus)
	assert.True(t, errors.Is(qErr, inner))

	rErr := ErrRateLimitExceeded()
	assert.Equal(t, "RATE_001", rErr.Code)
	assert.Equal(t, 429, rErr.HTTPStatus)
}

func TestSystemErrors(t *testing.T) {
	inner := fmt.Errorf("pg: connection closed")
	dbErr := ErrDatabaseError(inner)
	assert.Equal(t, "SYS_001", dbErr.Code)
	assert.Equal(t, 500, dbErr.HTTPStatus)
	assert.True(t, errors.Is(dbErr, inner))

	cfgErr := ErrConfiguration("queue connection \"kafka\" is not supported")
	assert.Equal(t, "SYS_002", cfgErr.Code)
	assert.Equal(t, 500, cfgErr.HTTPStatus)
}

func TestNotFoundEntity(t *testing.T) {
	err := ErrNotFound("Instance")
	assert.Contains(t, err.Message, "Instance")
	assert.Equal(t, "MSG_003", err.Code)
}
