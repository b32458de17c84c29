package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lynkbyte/evolution-bridge/internal/core/domain"
	"github.com/lynkbyte/evolution-bridge/internal/core/ports"
	"github.com/lynkbyte/evolution-bridge/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ClientResolver returns the Evolution client for a named server
// connection. Empty name resolves to the primary server.
type ClientResolver func(connection string) (ports.EvolutionClient, error)

// MessageServiceImpl implements ports.MessageService.
//
// With a queue configured, Dispatch enqueues a message.send job and the
// worker drives delivery attempts through RunJob. Without one, Dispatch
// runs a single attempt inline and the caller gets the send error directly.
type MessageServiceImpl struct {
	resolve         ClientResolver
	queue           ports.JobQueue // nil sends inline
	queueName       string
	maxTries        int
	defaultInstance string
	logRepo         ports.MessageLogRepository
	failedRepo      ports.FailedMessageRepository
	notifiers       []ports.MessageNotifier
	log             zerolog.Logger
}

// NewMessageService creates a MessageServiceImpl.
func NewMessageService(
	resolve ClientResolver,
	queue ports.JobQueue,
	queueName string,
	maxTries int,
	defaultInstance string,
	logRepo ports.MessageLogRepository,
	failedRepo ports.FailedMessageRepository,
	log zerolog.Logger,
) *MessageServiceImpl {
	return &MessageServiceImpl{
		resolve:         resolve,
		queue:           queue,
		queueName:       queueName,
		maxTries:        maxTries,
		defaultInstance: defaultInstance,
		logRepo:         logRepo,
		failedRepo:      failedRepo,
		log:             log,
	}
}

// RegisterNotifier adds a notifier informed of every attempt outcome.
func (s *MessageServiceImpl) RegisterNotifier(n ports.MessageNotifier) {
	s.notifiers = append(s.notifiers, n)
}

// Dispatch validates the message and submits it for delivery.
func (s *MessageServiceImpl) Dispatch(ctx context.Context, msg domain.OutboundMessage) (bool, error) {
	if msg.InstanceName == "" {
		msg.InstanceName = s.defaultInstance
	}
	if err := validateMessage(msg); err != nil {
		return false, err
	}

	if s.queue == nil {
		// Inline mode gets exactly one attempt; its failure is terminal.
		job, err := domain.NewJob(domain.JobKindMessageSend, s.queueName, msg, 1)
		if err != nil {
			return false, apperror.InternalError(fmt.Errorf("building job: %w", err))
		}
		return false, s.RunJob(ctx, job)
	}

	job, err := domain.NewJob(domain.JobKindMessageSend, s.queueName, msg, s.maxTries)
	if err != nil {
		return false, apperror.InternalError(fmt.Errorf("building job: %w", err))
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		return false, apperror.ErrEnqueueFailure(err)
	}

	s.log.Info().
		Str("job_id", job.ID).
		Str("instance", msg.InstanceName).
		Str("message_type", string(msg.Type)).
		Str("recipient", msg.Recipient()).
		Msg("message queued")

	return true, nil
}

// RunJob executes one delivery attempt for a message.send envelope.
func (s *MessageServiceImpl) RunJob(ctx context.Context, job domain.Job) error {
	var msg domain.OutboundMessage
	if err := json.Unmarshal(job.Payload, &msg); err != nil {
		return fmt.Errorf("%w: decoding message payload: %v", ErrUnretryable, err)
	}

	// Unknown type is a configuration problem; retrying cannot fix it.
	if !msg.Type.Valid() {
		cfgErr := apperror.ErrUnknownMessageType(string(msg.Type))
		s.recordFailure(ctx, msg, cfgErr, job.Attempt, true)
		return fmt.Errorf("%w: %v", ErrUnretryable, cfgErr)
	}

	client, err := s.resolve(msg.Connection)
	if err != nil {
		cfgErr := apperror.ErrConfiguration(err.Error())
		s.recordFailure(ctx, msg, cfgErr, job.Attempt, true)
		return fmt.Errorf("%w: %v", ErrUnretryable, cfgErr)
	}

	response, sendErr := send(ctx, client, msg)
	if sendErr != nil {
		s.recordFailure(ctx, msg, sendErr, job.Attempt, job.LastAttempt())
		return apperror.ErrSendFailure(sendErr)
	}

	s.recordSuccess(ctx, msg, response, job.Attempt)
	return nil
}

func send(ctx context.Context, client ports.EvolutionClient, msg domain.OutboundMessage) (map[string]any, error) {
	switch msg.Type {
	case domain.MessageTypeText:
		return client.SendText(ctx, msg.InstanceName, msg.Message)
	case domain.MessageTypeMedia:
		return client.SendMedia(ctx, msg.InstanceName, msg.Message)
	case domain.MessageTypeAudio:
		return client.SendAudio(ctx, msg.InstanceName, msg.Message)
	case domain.MessageTypeLocation:
		return client.SendLocation(ctx, msg.InstanceName, msg.Message)
	default:
		return nil, apperror.ErrUnknownMessageType(string(msg.Type))
	}
}

func (s *MessageServiceImpl) recordSuccess(ctx context.Context, msg domain.OutboundMessage, response map[string]any, attempt int) {
	for _, n := range s.notifiers {
		n.MessageSent(ctx, msg, response)
	}

	responseJSON, err := json.Marshal(response)
	if err != nil {
		s.log.Warn().Err(err).Msg("marshaling send response for log")
		responseJSON = []byte("{}")
	}
	responseStr := string(responseJSON)

	entry := &domain.MessageLog{
		ID:           uuid.New(),
		InstanceName: msg.InstanceName,
		Recipient:    msg.Recipient(),
		MessageType:  msg.Type,
		Status:       domain.MessageStatusSent,
		Payload:      payloadJSON(msg),
		Response:     &responseStr,
		Attempt:      attempt,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.logRepo.Create(ctx, entry); err != nil {
		s.log.Warn().Err(err).Msg("writing message log")
	}

	// A success clears any failure record accumulated by earlier attempts.
	if err := s.failedRepo.DeleteByContent(ctx, s.failedRecord(msg, nil)); err != nil {
		s.log.Warn().Err(err).Msg("clearing failed message record")
	}

	s.log.Info().
		Str("instance", msg.InstanceName).
		Str("message_type", string(msg.Type)).
		Str("recipient", msg.Recipient()).
		Int("attempt", attempt).
		Msg("message sent")
}

func (s *MessageServiceImpl) recordFailure(ctx context.Context, msg domain.OutboundMessage, sendErr error, attempt int, terminal bool) {
	for _, n := range s.notifiers {
		n.MessageFailed(ctx, msg, sendErr, attempt, terminal)
	}

	status := domain.MessageStatusFailed
	if terminal {
		status = domain.MessageStatusExhausted
	}
	errStr := sendErr.Error()

	entry := &domain.MessageLog{
		ID:           uuid.New(),
		InstanceName: msg.InstanceName,
		Recipient:    msg.Recipient(),
		MessageType:  msg.Type,
		Status:       status,
		Payload:      payloadJSON(msg),
		LastError:    &errStr,
		Attempt:      attempt,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.logRepo.Create(ctx, entry); err != nil {
		s.log.Warn().Err(err).Msg("writing message log")
	}

	if err := s.failedRepo.RecordFailure(ctx, s.failedRecord(msg, sendErr)); err != nil {
		s.log.Warn().Err(err).Msg("recording failed message")
	}

	s.log.Error().Err(sendErr).
		Str("instance", msg.InstanceName).
		Str("message_type", string(msg.Type)).
		Str("recipient", msg.Recipient()).
		Int("attempt", attempt).
		Bool("terminal", terminal).
		Msg("message failed")
}

// failedRecord builds the content-keyed failure row for msg.
func (s *MessageServiceImpl) failedRecord(msg domain.OutboundMessage, sendErr error) *domain.FailedMessage {
	now := time.Now().UTC()
	fm := &domain.FailedMessage{
		ID:           uuid.New(),
		InstanceName: msg.InstanceName,
		Recipient:    msg.Recipient(),
		MessageType:  msg.Type,
		Payload:      payloadJSON(msg),
		RetryCount:   0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if sendErr != nil {
		fm.LastError = sendErr.Error()
	}
	return fm
}

// payloadJSON canonicalizes the message body. Map keys marshal in sorted
// order, so identical content always yields identical JSON.
func payloadJSON(msg domain.OutboundMessage) string {
	data, err := json.Marshal(msg.Message)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func validateMessage(msg domain.OutboundMessage) error {
	if !msg.Type.Valid() {
		return apperror.ErrUnknownMessageType(string(msg.Type))
	}
	if msg.InstanceName == "" {
		return apperror.Validation("instance is required")
	}
	if msg.Recipient() == "" {
		return apperror.Validation("number is required")
	}
	return nil
}
