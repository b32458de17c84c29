package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/lynkbyte/evolution-bridge/internal/adapter/storage/postgres"
	redisStore "github.com/lynkbyte/evolution-bridge/internal/adapter/storage/redis"
	"github.com/lynkbyte/evolution-bridge/internal/core/domain"
	"github.com/lynkbyte/evolution-bridge/internal/service"

	"github.com/spf13/cobra"
)

func newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the queue worker processing webhook and message jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Queue.Connection == "sync" {
				return fmt.Errorf("queue.connection is %q, nothing for a worker to consume", cfg.Queue.Connection)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			pool, err := postgres.NewPool(ctx, cfg.Database, log)
			if err != nil {
				return fmt.Errorf("connecting to PostgreSQL: %w", err)
			}
			defer pool.Close()

			rdb, err := redisStore.NewClient(ctx, cfg.Redis, log)
			if err != nil {
				return fmt.Errorf("connecting to Redis: %w", err)
			}
			defer rdb.Close()

			core := buildCore(cfg, pool, rdb, log)

			w := service.NewWorker(
				core.queue,
				core.queue,
				cfg.Queue.Backoff,
				cfg.Queue.PollInterval,
				core.metrics,
				log,
			)
			w.Register(domain.JobKindWebhookProcess, core.webhook.RunJob)
			w.Register(domain.JobKindMessageSend, core.message.RunJob)

			log.Info().
				Str("queue", cfg.Queue.Queue).
				Int("max_tries", cfg.Queue.MaxTries).
				Msg("Starting queue worker")

			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}
