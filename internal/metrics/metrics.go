package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments exposed on /metrics.
type Metrics struct {
	WebhooksReceived *prometheus.CounterVec
	WebhooksFailed   *prometheus.CounterVec
	QueueFallbacks   prometheus.Counter
	MessagesSent     *prometheus.CounterVec
	MessagesFailed   *prometheus.CounterVec
	JobsProcessed    *prometheus.CounterVec
}

// New registers all instruments against reg and returns them.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		WebhooksReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "evobridge_webhooks_received_total",
			Help: "Webhooks accepted for processing, by event name.",
		}, []string{"event"}),
		WebhooksFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "evobridge_webhooks_failed_total",
			Help: "Webhook processing failures, by event name.",
		}, []string{"event"}),
		QueueFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "evobridge_webhook_queue_fallbacks_total",
			Help: "Webhooks processed synchronously because enqueueing failed.",
		}),
		MessagesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "evobridge_messages_sent_total",
			Help: "Outbound messages confirmed by the Evolution API.",
		}, []string{"instance", "message_type"}),
		MessagesFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "evobridge_messages_failed_total",
			Help: "Outbound message attempts that failed.",
		}, []string{"instance", "message_type"}),
		JobsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "evobridge_jobs_processed_total",
			Help: "Queue jobs handled by the worker, by kind and result.",
		}, []string{"kind", "result"}),
	}
}
