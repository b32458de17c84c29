package handler

import (
	"net/http"

	"github.com/lynkbyte/evolution-bridge/internal/core/ports"

	"github.com/gin-gonic/gin"
)

// HealthCheck reports dependency health for GET /health. Any failing
// dependency degrades the response to 503.
func HealthCheck(checkers ...ports.HealthChecker) gin.HandlerFunc {
	type dependency struct {
		Status string `json:"status"`
		Error  string `json:"error,omitempty"`
	}

	return func(c *gin.Context) {
		out := make(map[string]dependency, len(checkers))
		degraded := false

		for _, checker := range checkers {
			if err := checker.Ping(c.Request.Context()); err != nil {
				out[checker.Name()] = dependency{Status: "unhealthy", Error: err.Error()}
				degraded = true
				continue
			}
			out[checker.Name()] = dependency{Status: "healthy"}
		}

		status, code := "healthy", http.StatusOK
		if degraded {
			status, code = "degraded", http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status":       status,
			"dependencies": out,
		})
	}
}
