package service

import (
	"context"
	"fmt"
	"time"

	"github.com/lynkbyte/evolution-bridge/internal/core/domain"
	"github.com/lynkbyte/evolution-bridge/internal/core/ports"

	"github.com/google/uuid"
)

// fakeQueue implements ports.JobQueue and ports.JobConsumer in memory.
type fakeQueue struct {
	jobs       []domain.Job
	delayed    []delayedJob
	enqueueErr error
	delayedErr error
	dequeueErr error
	acked      []string
}

type delayedJob struct {
	job   domain.Job
	delay time.Duration
}

func (q *fakeQueue) Enqueue(_ context.Context, job domain.Job) error {
	if q.enqueueErr != nil {
		return q.enqueueErr
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *fakeQueue) EnqueueDelayed(_ context.Context, job domain.Job, delay time.Duration) error {
	if q.delayedErr != nil {
		return q.delayedErr
	}
	q.delayed = append(q.delayed, delayedJob{job: job, delay: delay})
	return nil
}

func (q *fakeQueue) Dequeue(_ context.Context) (*domain.Job, error) {
	if q.dequeueErr != nil {
		return nil, q.dequeueErr
	}
	if len(q.jobs) == 0 {
		return nil, nil
	}
	job := q.jobs[0]
	q.jobs = q.jobs[1:]
	return &job, nil
}

func (q *fakeQueue) Ack(_ context.Context, job domain.Job) error {
	q.acked = append(q.acked, job.ID)
	return nil
}

// sendCall captures one Evolution API send invocation.
type sendCall struct {
	endpoint string
	instance string
	body     map[string]any
}

// fakeEvolutionClient implements ports.EvolutionClient.
type fakeEvolutionClient struct {
	calls         []sendCall
	sendErr       error
	response      map[string]any
	instances     []ports.InstanceInfo
	fetchErr      error
	connectResult *ports.ConnectResult
	connectErr    error
	disconnectErr error
	state         domain.ConnectionState
	serverInfo    *ports.ServerInfo
	serverErr     error
}

func (c *fakeEvolutionClient) send(endpoint, instance string, body map[string]any) (map[string]any, error) {
	c.calls = append(c.calls, sendCall{endpoint: endpoint, instance: instance, body: body})
	if c.sendErr != nil {
		return nil, c.sendErr
	}
	if c.response != nil {
		return c.response, nil
	}
	return map[string]any{"status": "PENDING"}, nil
}

func (c *fakeEvolutionClient) SendText(_ context.Context, instance string, body map[string]any) (map[string]any, error) {
	return c.send("sendText", instance, body)
}

func (c *fakeEvolutionClient) SendMedia(_ context.Context, instance string, body map[string]any) (map[string]any, error) {
	return c.send("sendMedia", instance, body)
}

func (c *fakeEvolutionClient) SendAudio(_ context.Context, instance string, body map[string]any) (map[string]any, error) {
	return c.send("sendWhatsAppAudio", instance, body)
}

func (c *fakeEvolutionClient) SendLocation(_ context.Context, instance string, body map[string]any) (map[string]any, error) {
	return c.send("sendLocation", instance, body)
}

func (c *fakeEvolutionClient) FetchInstances(_ context.Context) ([]ports.InstanceInfo, error) {
	if c.fetchErr != nil {
		return nil, c.fetchErr
	}
	return c.instances, nil
}

func (c *fakeEvolutionClient) ConnectInstance(_ context.Context, _ string) (*ports.ConnectResult, error) {
	if c.connectErr != nil {
		return nil, c.connectErr
	}
	if c.connectResult != nil {
		return c.connectResult, nil
	}
	return &ports.ConnectResult{}, nil
}

func (c *fakeEvolutionClient) DisconnectInstance(_ context.Context, _ string) error {
	return c.disconnectErr
}

func (c *fakeEvolutionClient) ConnectionState(_ context.Context, _ string) (domain.ConnectionState, error) {
	return c.state, nil
}

func (c *fakeEvolutionClient) ServerInfo(_ context.Context) (*ports.ServerInfo, error) {
	if c.serverErr != nil {
		return nil, c.serverErr
	}
	return c.serverInfo, nil
}

// fakeMessageLogRepo implements ports.MessageLogRepository.
type fakeMessageLogRepo struct {
	entries   []domain.MessageLog
	createErr error
	deleted   int64
	counted   int64
}

func (r *fakeMessageLogRepo) Create(_ context.Context, entry *domain.MessageLog) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeMessageLogRepo) DeleteOlderThan(_ context.Context, _ time.Time) (int64, error) {
	return r.deleted, nil
}

func (r *fakeMessageLogRepo) CountOlderThan(_ context.Context, _ time.Time) (int64, error) {
	return r.counted, nil
}

// fakeFailedRepo implements ports.FailedMessageRepository with the same
// content-keyed upsert semantics as the Postgres implementation.
type fakeFailedRepo struct {
	records    map[string]*domain.FailedMessage
	recordErr  error
	deleteErr  error
	listResult []domain.FailedMessage
	listErr    error
	listParams []ports.FailedMessageListParams
	deleted    int64
	counted    int64
}

func newFakeFailedRepo() *fakeFailedRepo {
	return &fakeFailedRepo{records: make(map[string]*domain.FailedMessage)}
}

func contentKey(fm *domain.FailedMessage) string {
	return fmt.Sprintf("%s|%s|%s|%s", fm.InstanceName, fm.Recipient, fm.MessageType, fm.Payload)
}

func (r *fakeFailedRepo) RecordFailure(_ context.Context, fm *domain.FailedMessage) error {
	if r.recordErr != nil {
		return r.recordErr
	}
	key := contentKey(fm)
	if existing, ok := r.records[key]; ok {
		existing.RetryCount++
		existing.LastError = fm.LastError
		existing.UpdatedAt = fm.UpdatedAt
		return nil
	}
	clone := *fm
	r.records[key] = &clone
	return nil
}

func (r *fakeFailedRepo) DeleteByContent(_ context.Context, fm *domain.FailedMessage) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	delete(r.records, contentKey(fm))
	return nil
}

func (r *fakeFailedRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.FailedMessage, error) {
	for _, fm := range r.records {
		if fm.ID == id {
			return fm, nil
		}
	}
	return nil, nil
}

func (r *fakeFailedRepo) List(_ context.Context, params ports.FailedMessageListParams) ([]domain.FailedMessage, error) {
	r.listParams = append(r.listParams, params)
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.listResult, nil
}

func (r *fakeFailedRepo) DeleteOlderThan(_ context.Context, _ time.Time) (int64, error) {
	return r.deleted, nil
}

func (r *fakeFailedRepo) CountOlderThan(_ context.Context, _ time.Time) (int64, error) {
	return r.counted, nil
}

// fakeEventRepo implements ports.WebhookEventRepository.
type fakeEventRepo struct {
	events    []domain.WebhookEvent
	createErr error
	deleted   int64
	counted   int64
	countErr  error
}

func (r *fakeEventRepo) Create(_ context.Context, event *domain.WebhookEvent) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.events = append(r.events, *event)
	return nil
}

func (r *fakeEventRepo) DeleteOlderThan(_ context.Context, _ time.Time) (int64, error) {
	return r.deleted, nil
}

func (r *fakeEventRepo) CountOlderThan(_ context.Context, _ time.Time) (int64, error) {
	if r.countErr != nil {
		return 0, r.countErr
	}
	return r.counted, nil
}

// fakeInstanceRepo implements ports.InstanceRepository.
type fakeInstanceRepo struct {
	upserts   []domain.Instance
	created   map[string]bool // name -> Upsert returns created
	upsertErr error
	instances []domain.Instance
}

func (r *fakeInstanceRepo) Upsert(_ context.Context, instance *domain.Instance) (bool, error) {
	if r.upsertErr != nil {
		return false, r.upsertErr
	}
	r.upserts = append(r.upserts, *instance)
	return r.created[instance.Name], nil
}

func (r *fakeInstanceRepo) GetByName(_ context.Context, name string) (*domain.Instance, error) {
	for _, inst := range r.instances {
		if inst.Name == name {
			return &inst, nil
		}
	}
	return nil, nil
}

func (r *fakeInstanceRepo) List(_ context.Context) ([]domain.Instance, error) {
	return r.instances, nil
}

// fakeNotifier implements ports.MessageNotifier.
type fakeNotifier struct {
	sent   []domain.OutboundMessage
	failed []failedNotification
}

type failedNotification struct {
	msg      domain.OutboundMessage
	err      error
	attempt  int
	terminal bool
}

func (n *fakeNotifier) MessageSent(_ context.Context, msg domain.OutboundMessage, _ map[string]any) {
	n.sent = append(n.sent, msg)
}

func (n *fakeNotifier) MessageFailed(_ context.Context, msg domain.OutboundMessage, err error, attempt int, terminal bool) {
	n.failed = append(n.failed, failedNotification{msg: msg, err: err, attempt: attempt, terminal: terminal})
}

// fakeObserver implements ports.WebhookObserver.
type fakeObserver struct {
	received []domain.WebhookPayload
}

func (o *fakeObserver) WebhookReceived(_ context.Context, payload domain.WebhookPayload) {
	o.received = append(o.received, payload)
}

// fakeMessageService implements ports.MessageService.
type fakeMessageService struct {
	dispatched  []domain.OutboundMessage
	dispatchErr error
	queued      bool
}

func (s *fakeMessageService) Dispatch(_ context.Context, msg domain.OutboundMessage) (bool, error) {
	if s.dispatchErr != nil {
		return false, s.dispatchErr
	}
	s.dispatched = append(s.dispatched, msg)
	return s.queued, nil
}

func (s *fakeMessageService) RunJob(_ context.Context, _ domain.Job) error {
	return nil
}
