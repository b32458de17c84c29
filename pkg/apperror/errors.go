package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Webhook intake (WEBHOOK) ----

func ErrInvalidPayload() *AppError {
	return New("WEBHOOK_001", "Invalid payload", http.StatusBadRequest)
}

func ErrMissingSignature() *AppError {
	return New("WEBHOOK_002", "Missing signature header", http.StatusUnauthorized)
}

func ErrInvalidSignature() *AppError {
	return New("WEBHOOK_003", "Invalid signature", http.StatusUnauthorized)
}

// ErrProcessingFailure surfaces the underlying error text as the response
// message so callers see what actually broke.
func ErrProcessingFailure(err error) *AppError {
	return Wrap("WEBHOOK_004", err.Error(), http.StatusInternalServerError, err)
}

// ---- Outbound messaging (MSG) ----

func ErrUnknownMessageType(messageType string) *AppError {
	return New("MSG_001", fmt.Sprintf("Unrecognized message type: %s", messageType), http.StatusUnprocessableEntity)
}

func ErrSendFailure(err error) *AppError {
	return Wrap("MSG_002", "Message delivery failed", http.StatusBadGateway, err)
}

func ErrNotFound(entity string) *AppError {
	return New("MSG_003", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ---- Queue (QUEUE) ----

func ErrEnqueueFailure(err error) *AppError {
	return Wrap("QUEUE_001", "Failed to enqueue job", http.StatusServiceUnavailable, err)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

func ErrConfiguration(message string) *AppError {
	return New("SYS_002", message, http.StatusInternalServerError)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a WEBHOOK_001-style validation error with a custom message.
func Validation(message string) *AppError {
	return New("WEBHOOK_001", message, http.StatusBadRequest)
}
