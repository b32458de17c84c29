package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/lynkbyte/evolution-bridge/internal/core/domain"
	"github.com/lynkbyte/evolution-bridge/internal/core/ports"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFailedMessage() *domain.FailedMessage {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.FailedMessage{
		ID:           uuid.New(),
		InstanceName: "main",
		Recipient:    "5511999999999",
		MessageType:  domain.MessageTypeText,
		Payload:      `{"number":"5511999999999","text":"hello"}`,
		RetryCount:   0,
		LastError:    "evolution api: 502",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func failedMessageColumns() []string {
	return []string{"id", "instance_name", "recipient", "message_type", "payload",
		"retry_count", "last_error", "created_at", "updated_at"}
}

func failedMessageRow(fm *domain.FailedMessage) *pgxmock.Rows {
	return pgxmock.NewRows(failedMessageColumns()).AddRow(
		fm.ID, fm.InstanceName, fm.Recipient, fm.MessageType,
		fm.Payload, fm.RetryCount, fm.LastError, fm.CreatedAt, fm.UpdatedAt,
	)
}

func TestFailedMessageRepo_RecordFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewFailedMessageRepo(mock)
	fm := newTestFailedMessage()

	mock.ExpectExec("INSERT INTO failed_messages").
		WithArgs(
			fm.ID, fm.InstanceName, fm.Recipient, fm.MessageType,
			fm.Payload, fm.RetryCount, fm.LastError, fm.CreatedAt, fm.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.RecordFailure(context.Background(), fm)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFailedMessageRepo_DeleteByContent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewFailedMessageRepo(mock)
	fm := newTestFailedMessage()

	mock.ExpectExec("DELETE FROM failed_messages").
		WithArgs(fm.InstanceName, fm.Recipient, fm.MessageType, fm.Payload).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err = repo.DeleteByContent(context.Background(), fm)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFailedMessageRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewFailedMessageRepo(mock)
	fm := newTestFailedMessage()

	mock.ExpectQuery("SELECT .+ FROM failed_messages WHERE id").
		WithArgs(fm.ID).
		WillReturnRows(failedMessageRow(fm))

	result, err := repo.GetByID(context.Background(), fm.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, fm.ID, result.ID)
	assert.Equal(t, fm.Recipient, result.Recipient)
	assert.Equal(t, fm.Payload, result.Payload)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFailedMessageRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewFailedMessageRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM failed_messages WHERE id").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(failedMessageColumns()))

	result, err := repo.GetByID(context.Background(), uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFailedMessageRepo_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewFailedMessageRepo(mock)
	fm := newTestFailedMessage()

	mock.ExpectQuery("SELECT .+ FROM failed_messages WHERE retry_count").
		WithArgs(3, "main", 10).
		WillReturnRows(failedMessageRow(fm))

	result, err := repo.List(context.Background(), ports.FailedMessageListParams{
		InstanceName: "main",
		MaxRetries:   3,
		Limit:        10,
	})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, fm.ID, result[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFailedMessageRepo_List_NoInstanceFilter(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewFailedMessageRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM failed_messages WHERE retry_count").
		WithArgs(3).
		WillReturnRows(pgxmock.NewRows(failedMessageColumns()))

	result, err := repo.List(context.Background(), ports.FailedMessageListParams{MaxRetries: 3})
	require.NoError(t, err)
	assert.Empty(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFailedMessageRepo_DeleteOlderThan(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewFailedMessageRepo(mock)
	cutoff := time.Now().AddDate(0, 0, -30)

	mock.ExpectExec("DELETE FROM failed_messages WHERE created_at").
		WithArgs(cutoff).
		WillReturnResult(pgxmock.NewResult("DELETE", 4))

	deleted, err := repo.DeleteOlderThan(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(4), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFailedMessageRepo_CountOlderThan(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewFailedMessageRepo(mock)
	cutoff := time.Now().AddDate(0, 0, -30)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(cutoff).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(7)))

	count, err := repo.CountOlderThan(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
