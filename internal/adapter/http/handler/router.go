package handler

import (
	"github.com/lynkbyte/evolution-bridge/internal/adapter/http/middleware"
	redisStore "github.com/lynkbyte/evolution-bridge/internal/adapter/storage/redis"
	"github.com/lynkbyte/evolution-bridge/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	WebhookSvc      ports.WebhookService
	MessageSvc      ports.MessageService
	Verifier        ports.WebhookVerifier
	WebhookPath     string                     // base path of the receiver, e.g. /webhook/evolution
	RateLimitStore  *redisStore.RateLimitStore // nil = rate limiting disabled
	RateLimit       int                        // webhook requests per minute per instance/IP; 0 = disabled
	HealthCheckers  []ports.HealthChecker
	MetricsGatherer prometheus.Gatherer // nil = /metrics disabled
	Mode            string              // gin mode; empty = release
	Logger          zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	mode := deps.Mode
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Deep health check verifying PostgreSQL and Redis
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	if deps.MetricsGatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.MetricsGatherer, promhttp.HandlerOpts{})))
	}

	// Helper: return webhook rate limiter middleware if configured, else noop.
	rl := func(c *gin.Context) { c.Next() }
	if deps.RateLimitStore != nil && deps.RateLimit > 0 {
		rl = middleware.RateLimiter(deps.RateLimitStore, deps.RateLimit, deps.Logger)
	}

	// Webhook receiver
	webhookHandler := NewWebhookHandler(deps.WebhookSvc)
	guard := middleware.SignatureGuard(deps.Verifier, deps.Logger)

	path := deps.WebhookPath
	if path == "" {
		path = "/webhook/evolution"
	}
	webhook := r.Group(path)
	{
		webhook.GET("/health", webhookHandler.Health)
		webhook.POST("", rl, guard, webhookHandler.Receive)
		webhook.POST("/:instance", rl, guard, webhookHandler.Receive)
	}

	// Outbound send API
	messageHandler := NewMessageHandler(deps.MessageSvc)
	api := r.Group("/api")
	{
		api.POST("/messages", messageHandler.Send)
	}

	return r
}
