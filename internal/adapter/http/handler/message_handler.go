package handler

import (
	"net/http"

	"github.com/lynkbyte/evolution-bridge/internal/adapter/http/dto"
	"github.com/lynkbyte/evolution-bridge/internal/core/ports"
	"github.com/lynkbyte/evolution-bridge/pkg/apperror"
	"github.com/lynkbyte/evolution-bridge/pkg/response"

	"github.com/gin-gonic/gin"
)

// MessageHandler exposes the outbound send API.
type MessageHandler struct {
	messageSvc ports.MessageService
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(messageSvc ports.MessageService) *MessageHandler {
	return &MessageHandler{messageSvc: messageSvc}
}

// Send handles POST /api/messages.
func (h *MessageHandler) Send(c *gin.Context) {
	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	queued, err := h.messageSvc.Dispatch(c.Request.Context(), req.ToDomain())
	if err != nil {
		response.Error(c, err)
		return
	}

	if queued {
		response.Success(c, http.StatusAccepted, "Message queued")
		return
	}
	response.Success(c, http.StatusOK, "Message sent")
}
