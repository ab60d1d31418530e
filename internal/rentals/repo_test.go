package rentals

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

func setupRentalsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:rentals_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS rentals (
  id TEXT PRIMARY KEY,
  renter_id TEXT NOT NULL,
  storage_space_id TEXT NOT NULL,
  space_amount INTEGER NOT NULL,
  start_date DATETIME NOT NULL,
  end_date DATETIME NOT NULL,
  active INTEGER NOT NULL DEFAULT 0,
  reserved INTEGER NOT NULL DEFAULT 1,
  released INTEGER NOT NULL DEFAULT 0,
  stripe_session_id TEXT UNIQUE,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)

	return db
}

func seedRental(t *testing.T, repo Repository, start, end time.Time, reserved bool) *models.Rental {
	t.Helper()
	sessionID := "cs_" + uuid.NewString()
	rental := &models.Rental{
		ID:              uuid.New(),
		RenterID:        uuid.New(),
		StorageSpaceID:  uuid.New(),
		SpaceAmount:     10,
		StartDate:       start,
		EndDate:         end,
		Active:          !reserved,
		Reserved:        reserved,
		StripeSessionID: &sessionID,
	}
	require.NoError(t, repo.Create(context.Background(), rental))
	return rental
}

func TestActivateDueFlipsReservedRentals(t *testing.T) {
	db := setupRentalsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	due := seedRental(t, repo, now.Add(-24*time.Hour), now.Add(72*time.Hour), true)
	future := seedRental(t, repo, now.Add(48*time.Hour), now.Add(96*time.Hour), true)

	count, err := repo.ActivateDue(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	stored, err := repo.GetByID(ctx, due.ID)
	require.NoError(t, err)
	assert.True(t, stored.Active)
	assert.False(t, stored.Reserved)

	stored, err = repo.GetByID(ctx, future.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)
	assert.True(t, stored.Reserved)
}

func TestListExpiredSkipsReleasedRows(t *testing.T) {
	db := setupRentalsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	expired := seedRental(t, repo, now.Add(-96*time.Hour), now.Add(-time.Hour), false)
	seedRental(t, repo, now.Add(-24*time.Hour), now.Add(24*time.Hour), false)

	rows, err := repo.ListExpired(ctx, now)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, expired.ID, rows[0].ID)

	require.NoError(t, repo.MarkReleased(ctx, expired.ID))

	rows, err = repo.ListExpired(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, rows)

	stored, err := repo.GetByID(ctx, expired.ID)
	require.NoError(t, err)
	assert.True(t, stored.Released)
	assert.False(t, stored.Active)
}

func TestGetByStripeSessionID(t *testing.T) {
	db := setupRentalsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	rental := seedRental(t, repo, now, now.Add(24*time.Hour), true)

	stored, err := repo.GetByStripeSessionID(ctx, *rental.StripeSessionID)
	require.NoError(t, err)
	assert.Equal(t, rental.ID, stored.ID)

	_, err = repo.GetByStripeSessionID(ctx, "cs_missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
