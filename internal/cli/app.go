package cli

import (
	"fmt"
	"sync"

	"github.com/lynkbyte/evolution-bridge/config"
	"github.com/lynkbyte/evolution-bridge/internal/adapter/evolution"
	"github.com/lynkbyte/evolution-bridge/internal/adapter/storage/postgres"
	redisStore "github.com/lynkbyte/evolution-bridge/internal/adapter/storage/redis"
	"github.com/lynkbyte/evolution-bridge/internal/core/domain"
	"github.com/lynkbyte/evolution-bridge/internal/core/ports"
	"github.com/lynkbyte/evolution-bridge/internal/metrics"
	"github.com/lynkbyte/evolution-bridge/internal/service"
	"github.com/lynkbyte/evolution-bridge/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// loadConfig reads the config honoring the --config flag.
func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, logger.New(cfg.Log.Level, cfg.Log.Pretty), nil
}

// logQuiet returns a logger that only surfaces errors, for commands whose
// primary output goes to stdout.
func logQuiet() zerolog.Logger {
	return logger.New("error", false)
}

// newResolver caches one Evolution client per named server connection. The
// empty name resolves to the primary server.
func newResolver(cfg *config.Config, log zerolog.Logger) service.ClientResolver {
	var mu sync.Mutex
	clients := make(map[string]ports.EvolutionClient)

	return func(connection string) (ports.EvolutionClient, error) {
		mu.Lock()
		defer mu.Unlock()

		if c, ok := clients[connection]; ok {
			return c, nil
		}

		server, err := cfg.Evolution.Server(connection)
		if err != nil {
			return nil, err
		}
		if server.BaseURL == "" {
			return nil, fmt.Errorf("evolution.base_url is not configured")
		}

		c := evolution.NewClient(server.BaseURL, server.APIKey, cfg.Evolution.Timeout, log)
		clients[connection] = c
		return c, nil
	}
}

// selectedClient resolves the --connection flag to a concrete client.
func selectedClient(cfg *config.Config, log zerolog.Logger) (ports.EvolutionClient, error) {
	return newResolver(cfg, log)(connName)
}

// core bundles the services shared by the serve and worker commands.
type core struct {
	webhook  *service.WebhookServiceImpl
	message  *service.MessageServiceImpl
	queue    *redisStore.Queue // nil when queue.connection is "sync"
	metrics  *metrics.Metrics
	registry *prometheus.Registry
}

// buildCore wires repositories, queue and services from configuration.
// rdb may be nil when queue.connection is "sync".
func buildCore(cfg *config.Config, pool postgres.Pool, rdb *goredis.Client, log zerolog.Logger) *core {
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	instanceRepo := postgres.NewInstanceRepo(pool)
	eventRepo := postgres.NewWebhookEventRepo(pool)
	logRepo := postgres.NewMessageLogRepo(pool)
	failedRepo := postgres.NewFailedMessageRepo(pool)

	var queue *redisStore.Queue
	if cfg.Queue.Connection != "sync" && rdb != nil {
		queue = redisStore.NewQueue(rdb, cfg.Queue.Queue, log)
	}

	// The interfaces must stay truly nil when queueing is off; a typed nil
	// would defeat the services' nil checks.
	var messageQueue, webhookQueue ports.JobQueue
	if queue != nil {
		messageQueue = queue
		if cfg.Webhook.Queue {
			webhookQueue = queue
		}
	}

	webhookSvc := service.NewWebhookService(webhookQueue, cfg.Queue.Queue, cfg.Queue.MaxTries, m, log)
	webhookSvc.RegisterObserver(service.NewPersistenceObserver(eventRepo, log))
	webhookSvc.RegisterHandler(domain.EventConnectionUpdate, service.ConnectionUpdateHandler(instanceRepo, log))
	webhookSvc.RegisterHandler(domain.EventMessagesUpsert, service.MessagesUpsertHandler(log))
	webhookSvc.RegisterHandler(domain.EventQRCodeUpdated, service.QRCodeUpdatedHandler(log))

	messageSvc := service.NewMessageService(
		newResolver(cfg, log),
		messageQueue,
		cfg.Queue.Queue,
		cfg.Queue.MaxTries,
		cfg.Evolution.Instance,
		logRepo,
		failedRepo,
		log,
	)
	messageSvc.RegisterNotifier(service.NewMetricsNotifier(m))

	return &core{
		webhook:  webhookSvc,
		message:  messageSvc,
		queue:    queue,
		metrics:  m,
		registry: registry,
	}
}
