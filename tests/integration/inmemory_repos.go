package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/lynkbyte/evolution-bridge/internal/core/domain"
	"github.com/lynkbyte/evolution-bridge/internal/core/ports"

	"github.com/google/uuid"
)

// --- In-Memory Webhook Event Repo ---

type inMemoryWebhookEventRepo struct {
	mu     sync.RWMutex
	events []domain.WebhookEvent
}

func newInMemoryWebhookEventRepo() *inMemoryWebhookEventRepo {
	return &inMemoryWebhookEventRepo{}
}

func (r *inMemoryWebhookEventRepo) Create(ctx context.Context, event *domain.WebhookEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return nil
}

func (r *inMemoryWebhookEventRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []domain.WebhookEvent
	var deleted int64
	for _, e := range r.events {
		if e.ReceivedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	r.events = kept
	return deleted, nil
}

func (r *inMemoryWebhookEventRepo) CountOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var count int64
	for _, e := range r.events {
		if e.ReceivedAt.Before(cutoff) {
			count++
		}
	}
	return count, nil
}

func (r *inMemoryWebhookEventRepo) all() []domain.WebhookEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.WebhookEvent, len(r.events))
	copy(out, r.events)
	return out
}

// --- In-Memory Message Log Repo ---

type inMemoryMessageLogRepo struct {
	mu   sync.RWMutex
	logs []domain.MessageLog
}

func newInMemoryMessageLogRepo() *inMemoryMessageLogRepo {
	return &inMemoryMessageLogRepo{}
}

func (r *inMemoryMessageLogRepo) Create(ctx context.Context, log *domain.MessageLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, *log)
	return nil
}

func (r *inMemoryMessageLogRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []domain.MessageLog
	var deleted int64
	for _, l := range r.logs {
		if l.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, l)
	}
	r.logs = kept
	return deleted, nil
}

func (r *inMemoryMessageLogRepo) CountOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var count int64
	for _, l := range r.logs {
		if l.CreatedAt.Before(cutoff) {
			count++
		}
	}
	return count, nil
}

func (r *inMemoryMessageLogRepo) all() []domain.MessageLog {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.MessageLog, len(r.logs))
	copy(out, r.logs)
	return out
}

func (r *inMemoryMessageLogRepo) byStatus(status domain.MessageStatus) []domain.MessageLog {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.MessageLog
	for _, l := range r.logs {
		if l.Status == status {
			out = append(out, l)
		}
	}
	return out
}

// --- In-Memory Failed Message Repo ---

// inMemoryFailedMessageRepo mirrors the postgres upsert keyed on message
// content: the first failure inserts, later ones bump the retry counter.
type inMemoryFailedMessageRepo struct {
	mu      sync.RWMutex
	records map[string]*domain.FailedMessage
}

func newInMemoryFailedMessageRepo() *inMemoryFailedMessageRepo {
	return &inMemoryFailedMessageRepo{records: make(map[string]*domain.FailedMessage)}
}

func contentKey(fm *domain.FailedMessage) string {
	return fmt.Sprintf("%s|%s|%s|%s", fm.InstanceName, fm.Recipient, fm.MessageType, fm.Payload)
}

func (r *inMemoryFailedMessageRepo) RecordFailure(ctx context.Context, fm *domain.FailedMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.records[contentKey(fm)]; ok {
		existing.RetryCount++
		existing.LastError = fm.LastError
		existing.UpdatedAt = fm.UpdatedAt
		return nil
	}
	cp := *fm
	r.records[contentKey(fm)] = &cp
	return nil
}

func (r *inMemoryFailedMessageRepo) DeleteByContent(ctx context.Context, fm *domain.FailedMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, contentKey(fm))
	return nil
}

func (r *inMemoryFailedMessageRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.FailedMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, fm := range r.records {
		if fm.ID == id {
			cp := *fm
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryFailedMessageRepo) List(ctx context.Context, params ports.FailedMessageListParams) ([]domain.FailedMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.FailedMessage
	for _, fm := range r.records {
		if fm.RetryCount >= params.MaxRetries {
			continue
		}
		if params.InstanceName != "" && fm.InstanceName != params.InstanceName {
			continue
		}
		result = append(result, *fm)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	if params.Limit > 0 && len(result) > params.Limit {
		result = result[:params.Limit]
	}
	return result, nil
}

func (r *inMemoryFailedMessageRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for key, fm := range r.records {
		if fm.CreatedAt.Before(cutoff) {
			delete(r.records, key)
			deleted++
		}
	}
	return deleted, nil
}

func (r *inMemoryFailedMessageRepo) CountOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var count int64
	for _, fm := range r.records {
		if fm.CreatedAt.Before(cutoff) {
			count++
		}
	}
	return count, nil
}

func (r *inMemoryFailedMessageRepo) seed(fm domain.FailedMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := fm
	r.records[contentKey(&cp)] = &cp
}

func (r *inMemoryFailedMessageRepo) all() []domain.FailedMessage {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.FailedMessage, 0, len(r.records))
	for _, fm := range r.records {
		out = append(out, *fm)
	}
	return out
}

// --- In-Memory Instance Repo ---

type inMemoryInstanceRepo struct {
	mu        sync.RWMutex
	instances map[string]*domain.Instance
}

func newInMemoryInstanceRepo() *inMemoryInstanceRepo {
	return &inMemoryInstanceRepo{instances: make(map[string]*domain.Instance)}
}

func (r *inMemoryInstanceRepo) Upsert(ctx context.Context, instance *domain.Instance) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.instances[instance.Name]
	if ok {
		existing.ConnectionState = instance.ConnectionState
		existing.OwnerJID = instance.OwnerJID
		existing.ProfileName = instance.ProfileName
		existing.SyncedAt = instance.SyncedAt
		return false, nil
	}
	cp := *instance
	r.instances[instance.Name] = &cp
	return true, nil
}

func (r *inMemoryInstanceRepo) GetByName(ctx context.Context, name string) (*domain.Instance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.instances[name]
	if !ok {
		return nil, nil
	}
	cp := *inst
	return &cp, nil
}

func (r *inMemoryInstanceRepo) List(ctx context.Context) ([]domain.Instance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Instance, 0, len(r.instances))
	for _, inst := range r.instances {
		out = append(out, *inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// --- Fake Evolution API Client ---

type sentMessage struct {
	Endpoint string
	Instance string
	Body     map[string]any
}

// fakeEvolutionAPI implements ports.EvolutionClient. Sends can be primed to
// fail a number of times before succeeding again, which drives the retry
// scenarios.
type fakeEvolutionAPI struct {
	mu       sync.Mutex
	failures int
	sent     []sentMessage
}

var _ ports.EvolutionClient = (*fakeEvolutionAPI)(nil)

func (f *fakeEvolutionAPI) failNext(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = n
}

func (f *fakeEvolutionAPI) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeEvolutionAPI) sentMessages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentMessage, len(f.sent))
	copy(out, f.sent)
	return out
}

func (f *fakeEvolutionAPI) send(endpoint, instance string, body map[string]any) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return nil, fmt.Errorf("evolution api returned status 500: simulated outage")
	}
	f.sent = append(f.sent, sentMessage{Endpoint: endpoint, Instance: instance, Body: body})
	return map[string]any{
		"key":    map[string]any{"id": fmt.Sprintf("MSG-%d", len(f.sent))},
		"status": "PENDING",
	}, nil
}

func (f *fakeEvolutionAPI) SendText(ctx context.Context, instance string, body map[string]any) (map[string]any, error) {
	return f.send("sendText", instance, body)
}

func (f *fakeEvolutionAPI) SendMedia(ctx context.Context, instance string, body map[string]any) (map[string]any, error) {
	return f.send("sendMedia", instance, body)
}

func (f *fakeEvolutionAPI) SendAudio(ctx context.Context, instance string, body map[string]any) (map[string]any, error) {
	return f.send("sendWhatsAppAudio", instance, body)
}

func (f *fakeEvolutionAPI) SendLocation(ctx context.Context, instance string, body map[string]any) (map[string]any, error) {
	return f.send("sendLocation", instance, body)
}

func (f *fakeEvolutionAPI) FetchInstances(ctx context.Context) ([]ports.InstanceInfo, error) {
	return []ports.InstanceInfo{
		{Name: "support", ConnectionState: domain.ConnectionStateOpen},
		{Name: "sales", ConnectionState: domain.ConnectionStateClosed},
	}, nil
}

func (f *fakeEvolutionAPI) ConnectInstance(ctx context.Context, instance string) (*ports.ConnectResult, error) {
	return &ports.ConnectResult{PairingCode: "TEST-CODE", Count: 1}, nil
}

func (f *fakeEvolutionAPI) DisconnectInstance(ctx context.Context, instance string) error {
	return nil
}

func (f *fakeEvolutionAPI) ConnectionState(ctx context.Context, instance string) (domain.ConnectionState, error) {
	return domain.ConnectionStateOpen, nil
}

func (f *fakeEvolutionAPI) ServerInfo(ctx context.Context) (*ports.ServerInfo, error) {
	return &ports.ServerInfo{Status: 200, Message: "Welcome to the Evolution API", Version: "2.1.1"}, nil
}
