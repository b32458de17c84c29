package cli

import (
	"fmt"
	"time"

	"github.com/lynkbyte/evolution-bridge/internal/adapter/storage/postgres"
	"github.com/lynkbyte/evolution-bridge/internal/core/ports"
	"github.com/lynkbyte/evolution-bridge/internal/service"

	"github.com/spf13/cobra"
)

func newPruneCmd() *cobra.Command {
	var (
		days     int
		messages bool
		webhooks bool
		all      bool
		dryRun   bool
	)

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete aged message logs, failed messages and webhook events",
		RunE: func(cmd *cobra.Command, args []string) error {
			if days <= 0 {
				return fmt.Errorf("--days must be positive")
			}

			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			log := logQuiet()

			pool, err := postgres.NewPool(cmd.Context(), cfg.Database, log)
			if err != nil {
				return fmt.Errorf("connecting to PostgreSQL: %w", err)
			}
			defer pool.Close()

			svc := service.NewMaintenanceService(
				postgres.NewMessageLogRepo(pool),
				postgres.NewFailedMessageRepo(pool),
				postgres.NewWebhookEventRepo(pool),
				nil, // prune never re-dispatches messages
				log,
			)

			if all {
				messages, webhooks = true, true
			}

			result, err := svc.Prune(cmd.Context(), ports.PruneOptions{
				OlderThan: time.Duration(days) * 24 * time.Hour,
				Messages:  messages,
				Webhooks:  webhooks,
				DryRun:    dryRun,
			})
			if err != nil {
				return err
			}

			verb := "Deleted"
			if dryRun {
				verb = "Would delete"
			}
			cmd.Printf("%s %d message logs, %d failed messages, %d webhook events (older than %dd)\n",
				verb, result.MessageLogs, result.FailedMessages, result.WebhookEvents, days)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "age threshold in days")
	cmd.Flags().BoolVar(&messages, "messages", false, "prune message logs and failed messages")
	cmd.Flags().BoolVar(&webhooks, "webhooks", false, "prune webhook events")
	cmd.Flags().BoolVar(&all, "all", false, "prune everything (same as neither flag)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "count rows without deleting")
	return cmd
}
