package dto

import (
	"github.com/lynkbyte/evolution-bridge/internal/core/domain"
)

// SendMessageRequest is the request body for the outbound message endpoint.
// Type is validated downstream so unknown types surface as a send
// configuration error rather than a generic binding failure.
type SendMessageRequest struct {
	Instance   string         `json:"instance" binding:"omitempty,safe_id"`
	Type       string         `json:"type" binding:"required"`
	Message    map[string]any `json:"message" binding:"required"`
	Connection string         `json:"connection,omitempty" binding:"omitempty,safe_id"`
}

// ToDomain converts the request into the domain send model.
func (r SendMessageRequest) ToDomain() domain.OutboundMessage {
	return domain.OutboundMessage{
		InstanceName: r.Instance,
		Type:         domain.MessageType(r.Type),
		Message:      r.Message,
		Connection:   r.Connection,
	}
}

// WebhookHealthResponse is the liveness probe body for the webhook receiver.
type WebhookHealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
}
