package service

import (
	"context"

	"github.com/lynkbyte/evolution-bridge/internal/core/domain"
	"github.com/lynkbyte/evolution-bridge/internal/metrics"
)

// MetricsNotifier counts message attempt outcomes.
type MetricsNotifier struct {
	metrics *metrics.Metrics
}

// NewMetricsNotifier creates a notifier backed by the given instruments.
func NewMetricsNotifier(m *metrics.Metrics) *MetricsNotifier {
	return &MetricsNotifier{metrics: m}
}

// MessageSent implements ports.MessageNotifier.
func (n *MetricsNotifier) MessageSent(_ context.Context, msg domain.OutboundMessage, _ map[string]any) {
	n.metrics.MessagesSent.WithLabelValues(msg.InstanceName, string(msg.Type)).Inc()
}

// MessageFailed implements ports.MessageNotifier.
func (n *MetricsNotifier) MessageFailed(_ context.Context, msg domain.OutboundMessage, _ error, _ int, _ bool) {
	n.metrics.MessagesFailed.WithLabelValues(msg.InstanceName, string(msg.Type)).Inc()
}
