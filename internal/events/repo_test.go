package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stockplace/stockplace-backend/pkg/db/models"
)

func setupEventsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:events_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS webhook_events (
  id TEXT PRIMARY KEY,
  event_id TEXT NOT NULL UNIQUE,
  event_type TEXT NOT NULL,
  payload BLOB NOT NULL,
  received_at DATETIME NOT NULL,
  processed_at DATETIME,
  attempts INTEGER NOT NULL DEFAULT 0,
  last_error TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)

	return db
}

func newStoredEvent(eventID string, receivedAt time.Time) *models.WebhookEvent {
	return &models.WebhookEvent{
		ID:         uuid.New(),
		EventID:    eventID,
		EventType:  "checkout.session.completed",
		Payload:    []byte(`{"id":"` + eventID + `"}`),
		ReceivedAt: receivedAt,
	}
}

func TestInsertIsIdempotentByEventID(t *testing.T) {
	db := setupEventsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	created, err := repo.Insert(ctx, newStoredEvent("evt_1", now))
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Insert(ctx, newStoredEvent("evt_1", now.Add(time.Minute)))
	require.NoError(t, err)
	assert.False(t, created)

	stored, err := repo.GetByEventID(ctx, "evt_1")
	require.NoError(t, err)
	assert.WithinDuration(t, now, stored.ReceivedAt, time.Second)
}

func TestMarkProcessedClearsLastError(t *testing.T) {
	db := setupEventsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	_, err := repo.Insert(ctx, newStoredEvent("evt_2", time.Now().UTC()))
	require.NoError(t, err)

	require.NoError(t, repo.MarkFailed(ctx, "evt_2", "stock exhausted"))
	require.NoError(t, repo.MarkFailed(ctx, "evt_2", "stock exhausted"))

	stored, err := repo.GetByEventID(ctx, "evt_2")
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Attempts)
	require.NotNil(t, stored.LastError)
	assert.Equal(t, "stock exhausted", *stored.LastError)

	processedAt := time.Now().UTC()
	require.NoError(t, repo.MarkProcessed(ctx, "evt_2", processedAt))

	stored, err = repo.GetByEventID(ctx, "evt_2")
	require.NoError(t, err)
	require.NotNil(t, stored.ProcessedAt)
	assert.Nil(t, stored.LastError)
	assert.Equal(t, 2, stored.Attempts)
}

func TestListUnprocessedHonorsAttemptCapAndOrder(t *testing.T) {
	db := setupEventsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	_, err := repo.Insert(ctx, newStoredEvent("evt_old", base))
	require.NoError(t, err)
	_, err = repo.Insert(ctx, newStoredEvent("evt_new", base.Add(30*time.Minute)))
	require.NoError(t, err)
	_, err = repo.Insert(ctx, newStoredEvent("evt_done", base.Add(10*time.Minute)))
	require.NoError(t, err)
	_, err = repo.Insert(ctx, newStoredEvent("evt_exhausted", base.Add(5*time.Minute)))
	require.NoError(t, err)

	require.NoError(t, repo.MarkProcessed(ctx, "evt_done", time.Now().UTC()))
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.MarkFailed(ctx, "evt_exhausted", "boom"))
	}

	pending, err := repo.ListUnprocessed(ctx, 5, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "evt_old", pending[0].EventID)
	assert.Equal(t, "evt_new", pending[1].EventID)
}
