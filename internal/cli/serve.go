package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpHandler "github.com/lynkbyte/evolution-bridge/internal/adapter/http/handler"
	"github.com/lynkbyte/evolution-bridge/internal/adapter/storage/postgres"
	redisStore "github.com/lynkbyte/evolution-bridge/internal/adapter/storage/redis"
	"github.com/lynkbyte/evolution-bridge/internal/core/ports"
	"github.com/lynkbyte/evolution-bridge/internal/service"

	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook receiver and send API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}

			log.Info().
				Str("mode", cfg.Server.Mode).
				Int("port", cfg.Server.Port).
				Msg("Starting Evolution Bridge")

			ctx := cmd.Context()

			pool, err := postgres.NewPool(ctx, cfg.Database, log)
			if err != nil {
				return fmt.Errorf("connecting to PostgreSQL: %w", err)
			}
			defer pool.Close()

			// Redis only matters when something here uses it.
			var rdb *goredis.Client
			if cfg.Queue.Connection != "sync" || cfg.Webhook.RateLimit > 0 {
				rdb, err = redisStore.NewClient(ctx, cfg.Redis, log)
				if err != nil {
					return fmt.Errorf("connecting to Redis: %w", err)
				}
				defer rdb.Close()
			}

			core := buildCore(cfg, pool, rdb, log)

			checkers := []ports.HealthChecker{postgres.NewHealthCheck(pool)}
			var rateLimitStore *redisStore.RateLimitStore
			if rdb != nil {
				checkers = append(checkers, redisStore.NewHealthCheck(rdb))
				if cfg.Webhook.RateLimit > 0 {
					rateLimitStore = redisStore.NewRateLimitStore(rdb)
				}
			}

			router := httpHandler.SetupRouter(httpHandler.RouterDeps{
				WebhookSvc:      core.webhook,
				MessageSvc:      core.message,
				Verifier:        service.NewHMACVerifier(cfg.Webhook.VerifySignature, cfg.Webhook.Secret, log),
				WebhookPath:     cfg.Webhook.Path,
				RateLimitStore:  rateLimitStore,
				RateLimit:       cfg.Webhook.RateLimit,
				HealthCheckers:  checkers,
				MetricsGatherer: core.registry,
				Mode:            cfg.Server.Mode,
				Logger:          log,
			})

			addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
			srv := &http.Server{
				Addr:    addr,
				Handler: router,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("addr", addr).Str("webhook_path", cfg.Webhook.Path).Msg("HTTP server listening")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return fmt.Errorf("http server: %w", err)
			case <-quit:
			}
			log.Info().Msg("Shutting down server...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Server forced to shutdown")
			}

			log.Info().Msg("Server exited")
			return nil
		},
	}
}
