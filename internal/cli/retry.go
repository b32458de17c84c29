package cli

import (
	"fmt"

	"github.com/lynkbyte/evolution-bridge/internal/adapter/storage/postgres"
	redisStore "github.com/lynkbyte/evolution-bridge/internal/adapter/storage/redis"
	"github.com/lynkbyte/evolution-bridge/internal/core/ports"
	"github.com/lynkbyte/evolution-bridge/internal/service"

	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func newRetryCmd() *cobra.Command {
	var (
		instance   string
		maxRetries int
		limit      int
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "retry",
		Short: "Re-dispatch failed messages that still have attempt budget",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			log := logQuiet()

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

			svc := service.NewMaintenanceService(
				postgres.NewMessageLogRepo(pool),
				postgres.NewFailedMessageRepo(pool),
				postgres.NewWebhookEventRepo(pool),
				core.message,
				log,
			)

			if maxRetries <= 0 {
				maxRetries = cfg.Queue.MaxTries
			}

			result, err := svc.Retry(ctx, ports.RetryOptions{
				InstanceName: instance,
				MaxRetries:   maxRetries,
				Limit:        limit,
				DryRun:       dryRun,
			})
			if err != nil {
				return err
			}

			if dryRun {
				cmd.Printf("Found %d failed messages eligible for retry\n", result.Scanned)
			} else {
				cmd.Printf("Re-dispatched %d of %d scanned failed messages\n", result.Enqueued, result.Scanned)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&instance, "instance", "", "only retry messages for this instance")
	cmd.Flags().IntVar(&maxRetries, "max-retries", 0, "cap on stored retry counts (default: queue.max_tries)")
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum records to scan (0 = no limit)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list candidates without re-dispatching")
	return cmd
}
