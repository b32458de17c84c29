package service

import (
	"context"
	"fmt"
	"time"

	"github.com/lynkbyte/evolution-bridge/internal/core/domain"
	"github.com/lynkbyte/evolution-bridge/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ConnectionUpdateHandler keeps the local instance cache in sync with
// connection.update events pushed by the server.
func ConnectionUpdateHandler(repo ports.InstanceRepository, log zerolog.Logger) ports.WebhookHandlerFunc {
	return func(ctx context.Context, payload domain.WebhookPayload) error {
		if payload.InstanceName == "" {
			return nil
		}

		state := nestedString(payload.Data, "state")
		if state == "" {
			return nil
		}

		instance := &domain.Instance{
			ID:              uuid.New(),
			Name:            payload.InstanceName,
			ConnectionState: domain.ConnectionState(state),
			SyncedAt:        time.Now().UTC(),
		}
		if _, err := repo.Upsert(ctx, instance); err != nil {
			return fmt.Errorf("updating instance state: %w", err)
		}

		log.Info().
			Str("instance", payload.InstanceName).
			Str("state", state).
			Msg("instance connection state updated")

		return nil
	}
}

// MessagesUpsertHandler logs inbound message arrivals.
func MessagesUpsertHandler(log zerolog.Logger) ports.WebhookHandlerFunc {
	return func(_ context.Context, payload domain.WebhookPayload) error {
		inner, _ := payload.Data["data"].(map[string]any)
		key, _ := inner["key"].(map[string]any)
		remoteJID, _ := key["remoteJid"].(string)
		fromMe, _ := key["fromMe"].(bool)
		pushName, _ := inner["pushName"].(string)

		log.Info().
			Str("instance", payload.InstanceName).
			Str("remote_jid", remoteJID).
			Bool("from_me", fromMe).
			Str("push_name", pushName).
			Msg("inbound message received")

		return nil
	}
}

// QRCodeUpdatedHandler logs QR code refreshes. The code itself is never
// logged.
func QRCodeUpdatedHandler(log zerolog.Logger) ports.WebhookHandlerFunc {
	return func(_ context.Context, payload domain.WebhookPayload) error {
		log.Info().
			Str("instance", payload.InstanceName).
			Msg("instance QR code refreshed, pairing required")
		return nil
	}
}

// nestedString reads data["data"][key] as a string, tolerating any missing
// level.
func nestedString(data map[string]any, key string) string {
	inner, _ := data["data"].(map[string]any)
	if inner == nil {
		return ""
	}
	s, _ := inner[key].(string)
	return s
}
