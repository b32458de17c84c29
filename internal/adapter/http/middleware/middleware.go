package middleware

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/lynkbyte/evolution-bridge/internal/core/ports"
	"github.com/lynkbyte/evolution-bridge/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// SignatureGuard verifies the HMAC signature of an inbound webhook over the
// raw request body. The body is restored afterwards so downstream handlers
// can still bind it. Rejections map to the verifier's own error (401).
func SignatureGuard(verifier ports.WebhookVerifier, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				response.Fail(c, http.StatusRequestEntityTooLarge, "Request body too large")
			} else {
				response.Fail(c, http.StatusBadRequest, "cannot read request body")
			}
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewBuffer(body))

		if err := verifier.Verify(body, c.Request.Header); err != nil {
			log.Warn().Err(err).
				Str("path", c.Request.URL.Path).
				Str("client_ip", c.ClientIP()).
				Msg("webhook signature rejected")
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequestLogger creates a middleware that logs every HTTP request.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		event := log.Info()
		if status >= http.StatusInternalServerError {
			event = log.Error()
		} else if status >= http.StatusBadRequest {
			event = log.Warn()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Msg("http request")
	}
}

// Recovery creates a panic recovery middleware.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("path", c.Request.URL.Path).Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, response.Envelope{
					Status:  response.StatusError,
					Message: "Internal server error",
				})
			}
		}()
		c.Next()
	}
}
