package ports

import (
	"context"
	"net/http"
	"time"

	"github.com/lynkbyte/evolution-bridge/internal/core/domain"
)

// WebhookVerifier authenticates inbound webhook requests against the
// configured HMAC secret. A nil return means the request is allowed.
type WebhookVerifier interface {
	Verify(rawBody []byte, header http.Header) error
}

// WebhookOutcome is the dispatch result relayed to the caller verbatim.
type WebhookOutcome string

const (
	OutcomeQueued    WebhookOutcome = "Webhook queued"
	OutcomeProcessed WebhookOutcome = "Webhook processed"
)

// WebhookHandlerFunc handles one named webhook event.
type WebhookHandlerFunc func(ctx context.Context, payload domain.WebhookPayload) error

// WebhookObserver is notified once for every processed webhook.
type WebhookObserver interface {
	WebhookReceived(ctx context.Context, payload domain.WebhookPayload)
}

// WebhookService normalizes, dispatches and processes inbound webhooks.
type WebhookService interface {
	// Dispatch merges the URL instance hint, validates the payload and
	// either queues it or processes it synchronously.
	Dispatch(ctx context.Context, raw map[string]any, instanceHint string) (WebhookOutcome, error)
	// Process notifies observers and routes the payload to its event handler.
	Process(ctx context.Context, payload domain.WebhookPayload) error
	// RunJob executes a queued webhook.process envelope.
	RunJob(ctx context.Context, job domain.Job) error
}

// MessageService sends outbound messages, inline or through the queue.
type MessageService interface {
	// Dispatch submits a message. queued reports whether it was handed to
	// an async queue (true) or executed inline (false).
	Dispatch(ctx context.Context, msg domain.OutboundMessage) (queued bool, err error)
	// RunJob executes a queued message.send envelope.
	RunJob(ctx context.Context, job domain.Job) error
}

// MessageNotifier observes send attempt outcomes.
type MessageNotifier interface {
	MessageSent(ctx context.Context, msg domain.OutboundMessage, response map[string]any)
	MessageFailed(ctx context.Context, msg domain.OutboundMessage, sendErr error, attempt int, terminal bool)
}

// EvolutionClient is the outbound REST surface of the Evolution API server.
type EvolutionClient interface {
	SendText(ctx context.Context, instance string, body map[string]any) (map[string]any, error)
	SendMedia(ctx context.Context, instance string, body map[string]any) (map[string]any, error)
	SendAudio(ctx context.Context, instance string, body map[string]any) (map[string]any, error)
	SendLocation(ctx context.Context, instance string, body map[string]any) (map[string]any, error)
	FetchInstances(ctx context.Context) ([]InstanceInfo, error)
	ConnectInstance(ctx context.Context, instance string) (*ConnectResult, error)
	DisconnectInstance(ctx context.Context, instance string) error
	ConnectionState(ctx context.Context, instance string) (domain.ConnectionState, error)
	ServerInfo(ctx context.Context) (*ServerInfo, error)
}

// InstanceInfo is an instance as reported by the Evolution API server.
type InstanceInfo struct {
	Name            string
	ConnectionState domain.ConnectionState
	OwnerJID        string
	ProfileName     string
}

// ConnectResult carries the pairing material returned by a connect request.
type ConnectResult struct {
	PairingCode string
	QRCode      string
	Count       int
}

// ServerInfo is the Evolution API server's root status document.
type ServerInfo struct {
	Status  int
	Message string
	Version string
}

// InstanceService reconciles instances between the API server and the
// local cache table.
type InstanceService interface {
	List(ctx context.Context) ([]InstanceInfo, error)
	Sync(ctx context.Context) (*SyncResult, error)
	Connect(ctx context.Context, name string) (*ConnectResult, error)
	Disconnect(ctx context.Context, name string) error
}

// SyncResult summarizes one reconciliation pass.
type SyncResult struct {
	Fetched int
	Created int
	Updated int
}

// MaintenanceService backs the prune and retry commands.
type MaintenanceService interface {
	Prune(ctx context.Context, opts PruneOptions) (*PruneResult, error)
	Retry(ctx context.Context, opts RetryOptions) (*RetryResult, error)
}

// PruneOptions selects which aged rows to delete.
type PruneOptions struct {
	OlderThan time.Duration
	Messages  bool
	Webhooks  bool
	DryRun    bool
}

// PruneResult reports affected row counts per table.
type PruneResult struct {
	MessageLogs    int64
	FailedMessages int64
	WebhookEvents  int64
}

// RetryOptions selects which failed messages to re-enqueue.
type RetryOptions struct {
	InstanceName string
	MaxRetries   int
	Limit        int
	DryRun       bool
}

// RetryResult reports how many records were re-submitted.
type RetryResult struct {
	Scanned  int
	Enqueued int
}
