package response

import (
	"errors"
	"net/http"

	"github.com/lynkbyte/evolution-bridge/pkg/apperror"

	"github.com/gin-gonic/gin"
)

// Envelope is the wire format shared by every endpoint:
// {"status": "success"|"error", "message": "...", "data": {...}?}.
type Envelope struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Success sends a success envelope with the given HTTP status.
func Success(c *gin.Context, status int, message string) {
	c.JSON(status, Envelope{Status: StatusSuccess, Message: message})
}

// SuccessData sends a success envelope carrying a data payload.
func SuccessData(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Envelope{Status: StatusSuccess, Message: message, Data: data})
}

// Fail sends an error envelope with the given HTTP status.
func Fail(c *gin.Context, status int, message string) {
	c.JSON(status, Envelope{Status: StatusError, Message: message})
}

// Error maps err to an error envelope. *apperror.AppError values carry their
// own HTTP status and client message; anything else is a processing failure
// whose text is passed through with a 500, matching the webhook contract.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		Fail(c, appErr.HTTPStatus, appErr.Message)
		return
	}

	Fail(c, http.StatusInternalServerError, err.Error())
}
