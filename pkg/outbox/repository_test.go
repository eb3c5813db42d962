package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/servicehub-backend/pkg/db/models"
	"github.com/angelmondragon/servicehub-backend/pkg/enums"
	"github.com/google/uuid"
)

func newOutboxDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, conn.Exec(`CREATE TABLE outbox_events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload BLOB NOT NULL,
		created_at DATETIME NOT NULL,
		published_at DATETIME,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT
	)`).Error)
	require.NoError(t, conn.Exec(`CREATE TABLE outbox_dlq (
		id TEXT PRIMARY KEY,
		event_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload_json BLOB NOT NULL,
		error_reason TEXT NOT NULL,
		error_message TEXT,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		failed_at DATETIME NOT NULL,
		created_at DATETIME NOT NULL
	)`).Error)
	return conn
}

func insertEvent(t *testing.T, db *gorm.DB, repo *Repository, createdAt time.Time) models.OutboxEvent {
	t.Helper()
	event := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventNotificationRequested,
		AggregateType: enums.AggregateBooking,
		AggregateID:   uuid.New(),
		Payload:       []byte(`{"data":{}}`),
		CreatedAt:     createdAt,
	}
	require.NoError(t, repo.Insert(db, event))
	return event
}

func TestRepositoryDispatchLifecycle(t *testing.T) {
	db := newOutboxDB(t)
	repo := NewRepository(db)
	base := time.Now().UTC().Add(-time.Hour)

	first := insertEvent(t, db, repo, base)
	second := insertEvent(t, db, repo, base.Add(time.Minute))

	rows, err := repo.FetchForDispatch(db, 10, 3)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, first.ID, rows[0].ID)

	require.NoError(t, repo.MarkPublishedTx(db, first.ID))
	require.NoError(t, repo.MarkFailedTx(db, second.ID, errors.New("smtp down")))

	rows, err = repo.FetchForDispatch(db, 10, 3)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].AttemptCount)
	require.NotNil(t, rows[0].LastError)
	assert.Equal(t, "smtp down", *rows[0].LastError)

	require.NoError(t, repo.MarkTerminalTx(db, second.ID, errors.New("bad address"), 3))
	rows, err = repo.FetchForDispatch(db, 10, 3)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRepositoryDeletePublishedBefore(t *testing.T) {
	db := newOutboxDB(t)
	repo := NewRepository(db)
	old := time.Now().UTC().Add(-40 * 24 * time.Hour)

	published := insertEvent(t, db, repo, old)
	dead := insertEvent(t, db, repo, old)
	pending := insertEvent(t, db, repo, old)
	fresh := insertEvent(t, db, repo, time.Now().UTC())

	require.NoError(t, db.Model(&models.OutboxEvent{}).Where("id = ?", published.ID).Update("published_at", old.Add(time.Minute)).Error)
	require.NoError(t, repo.MarkTerminalTx(db, dead.ID, errors.New("gone"), 5))
	require.NoError(t, repo.MarkPublishedTx(db, fresh.ID))

	cutoff := time.Now().UTC().Add(-30 * 24 * time.Hour)
	deleted, err := repo.DeletePublishedBefore(context.Background(), db, cutoff, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	var remaining []models.OutboxEvent
	require.NoError(t, db.Order("created_at ASC").Find(&remaining).Error)
	ids := []uuid.UUID{}
	for _, row := range remaining {
		ids = append(ids, row.ID)
	}
	assert.ElementsMatch(t, []uuid.UUID{pending.ID, fresh.ID}, ids)
}

func TestDLQRepositoryTruncatesMessage(t *testing.T) {
	db := newOutboxDB(t)
	dlq := NewDLQRepository(db)
	long := make([]byte, maxDLQErrorLen+50)
	for i := range long {
		long[i] = 'x'
	}
	msg := string(long)

	require.NoError(t, dlq.InsertTx(db, models.OutboxDLQ{
		EventID:       uuid.New(),
		EventType:     enums.EventRewardRedeemed,
		AggregateType: enums.AggregateRedemption,
		AggregateID:   uuid.New(),
		Payload:       []byte(`{}`),
		ErrorReason:   enums.OutboxDLQReasonNonRetryable,
		ErrorMessage:  &msg,
	}))

	rows, err := dlq.List(context.Background(), DLQFilter{Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].ErrorMessage)
	assert.Len(t, *rows[0].ErrorMessage, maxDLQErrorLen)
}
