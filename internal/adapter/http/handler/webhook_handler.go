package handler

import (
	"net/http"
	"time"

	"github.com/lynkbyte/evolution-bridge/internal/adapter/http/dto"
	"github.com/lynkbyte/evolution-bridge/internal/core/ports"
	"github.com/lynkbyte/evolution-bridge/pkg/apperror"
	"github.com/lynkbyte/evolution-bridge/pkg/response"

	"github.com/gin-gonic/gin"
)

// WebhookHandler receives Evolution API webhook callbacks.
type WebhookHandler struct {
	webhookSvc ports.WebhookService
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(webhookSvc ports.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhookSvc: webhookSvc}
}

// Receive handles POST {webhook.path} and POST {webhook.path}/:instance.
// The optional :instance segment is a hint for payloads that do not name
// their own instance.
func (h *WebhookHandler) Receive(c *gin.Context) {
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		response.Error(c, apperror.ErrInvalidPayload())
		return
	}

	outcome, err := h.webhookSvc.Dispatch(c.Request.Context(), raw, c.Param("instance"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, string(outcome))
}

// Health handles GET {webhook.path}/health. Liveness only; the deep
// dependency check lives at /health.
func (h *WebhookHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, dto.WebhookHealthResponse{
		Status:    "ok",
		Service:   "evolution-api-webhook",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
