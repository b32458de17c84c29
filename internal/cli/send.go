package cli

import (
	"encoding/json"
	"fmt"

	"github.com/lynkbyte/evolution-bridge/internal/adapter/storage/postgres"
	redisStore "github.com/lynkbyte/evolution-bridge/internal/adapter/storage/redis"
	"github.com/lynkbyte/evolution-bridge/internal/core/domain"

	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func newSendCmd() *cobra.Command {
	var (
		instance string
		msgType  string
		to       string
		text     string
		rawJSON  string
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send an outbound WhatsApp message",
		Example: `  evobridge send --to 5511999999999 --text "deploy finished"
  evobridge send --type media --json '{"number":"5511999999999","mediatype":"image","media":"https://example.com/a.png"}'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			log := logQuiet()

			body := map[string]any{}
			if rawJSON != "" {
				if err := json.Unmarshal([]byte(rawJSON), &body); err != nil {
					return fmt.Errorf("parsing --json body: %w", err)
				}
			}
			if to != "" {
				body["number"] = to
			}
			if text != "" {
				body["text"] = text
			}

			msg := domain.OutboundMessage{
				InstanceName: instance,
				Type:         domain.MessageType(msgType),
				Message:      body,
				Connection:   connName,
			}

			ctx := cmd.Context()

			pool, err := postgres.NewPool(ctx, cfg.Database, log)
			if err != nil {
				return fmt.Errorf("connecting to PostgreSQL: %w", err)
			}
			defer pool.Close()

			var rdb *goredis.Client
			if cfg.Queue.Connection != "sync" {
				rdb, err = redisStore.NewClient(ctx, cfg.Redis, log)
				if err != nil {
					return fmt.Errorf("connecting to Redis: %w", err)
				}
				defer rdb.Close()
			}

			core := buildCore(cfg, pool, rdb, log)

			queued, err := core.message.Dispatch(ctx, msg)
			if err != nil {
				return err
			}

			if queued {
				cmd.Println("Message queued")
			} else {
				cmd.Println("Message sent")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&instance, "instance", "", "instance to send from (default: evolution.instance)")
	cmd.Flags().StringVar(&msgType, "type", "text", "message type: text, media, audio or location")
	cmd.Flags().StringVar(&to, "to", "", "recipient number")
	cmd.Flags().StringVar(&text, "text", "", "text content for text messages")
	cmd.Flags().StringVar(&rawJSON, "json", "", "raw Evolution API message body as JSON")
	return cmd
}
