package rentals

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stockplace/stockplace-backend/internal/ledger"
	"github.com/stockplace/stockplace-backend/internal/storagespaces"
	pkgdb "github.com/stockplace/stockplace-backend/pkg/db"
	"github.com/stockplace/stockplace-backend/pkg/db/models"
	pkgerrors "github.com/stockplace/stockplace-backend/pkg/errors"
	"github.com/stockplace/stockplace-backend/pkg/logger"
)

func setupFulfillmentTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:rental_svc_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	// id columns have no primary key here because the service relies on the
	// database default for id generation, which sqlite does not provide.
	schema := []string{`
CREATE TABLE IF NOT EXISTS storage_spaces (
  id TEXT,
  owner_id TEXT NOT NULL,
  name TEXT NOT NULL UNIQUE,
  description TEXT,
  address TEXT NOT NULL,
  total_surface INTEGER NOT NULL,
  available_surface INTEGER NOT NULL,
  rented_surface INTEGER NOT NULL DEFAULT 0,
  price_cents_per_day INTEGER NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS rentals (
  id TEXT,
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
);`, `
CREATE TABLE IF NOT EXISTS transactions (
  id TEXT,
  stripe_transaction_id TEXT NOT NULL UNIQUE,
  buyer_id TEXT,
  seller_id TEXT NOT NULL,
  amount_cents INTEGER NOT NULL,
  currency TEXT NOT NULL,
  status TEXT NOT NULL,
  type TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`}
	for _, stmt := range schema {
		require.NoError(t, db.Exec(stmt).Error)
	}

	return db
}

func newFulfillmentService(t *testing.T, db *gorm.DB) (Service, storagespaces.Repository, ledger.Service) {
	t.Helper()

	spacesRepo := storagespaces.NewRepository(db)
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(db))
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		Repo:   NewRepository(db),
		Spaces: spacesRepo,
		Ledger: ledgerSvc,
		Tx:     pkgdb.FromConn(db),
		Logger: logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	require.NoError(t, err)
	return svc, spacesRepo, ledgerSvc
}

func seedFulfillmentSpace(t *testing.T, repo storagespaces.Repository, surface int) *models.StorageSpace {
	t.Helper()
	space := &models.StorageSpace{
		ID:               uuid.New(),
		OwnerID:          uuid.New(),
		Name:             "warehouse-" + uuid.NewString(),
		Address:          "3 Rue des Entrepots",
		TotalSurface:     surface,
		AvailableSurface: surface,
		PriceCentsPerDay: 200,
		IsActive:         true,
	}
	require.NoError(t, repo.Create(context.Background(), space))
	return space
}

func TestFulfillSessionCreatesRentalOnce(t *testing.T) {
	db := setupFulfillmentTestDB(t)
	svc, spacesRepo, ledgerSvc := newFulfillmentService(t, db)
	ctx := context.Background()
	now := time.Now().UTC()

	space := seedFulfillmentSpace(t, spacesRepo, 100)
	input := FulfillSessionInput{
		SessionID:      "cs_test_rental",
		RenterID:       uuid.New(),
		StorageSpaceID: space.ID,
		SpaceAmount:    40,
		StartDate:      now.Add(-time.Hour),
		EndDate:        now.Add(30 * 24 * time.Hour),
		AmountCents:    120000,
		Currency:       "eur",
		Now:            now,
	}

	require.NoError(t, svc.FulfillSession(ctx, input))

	// delivered twice: the replay must not double-book the surface
	require.NoError(t, svc.FulfillSession(ctx, input))

	stored, err := spacesRepo.GetByID(ctx, space.ID)
	require.NoError(t, err)
	assert.Equal(t, 60, stored.AvailableSurface)
	assert.Equal(t, 40, stored.RentedSurface)

	var rentalCount int64
	require.NoError(t, db.Model(&models.Rental{}).Count(&rentalCount).Error)
	assert.Equal(t, int64(1), rentalCount)

	exists, err := ledgerSvc.Exists(ctx, "cs_test_rental")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestFulfillSessionStartsReservedWhenInFuture(t *testing.T) {
	db := setupFulfillmentTestDB(t)
	svc, spacesRepo, _ := newFulfillmentService(t, db)
	ctx := context.Background()
	now := time.Now().UTC()

	space := seedFulfillmentSpace(t, spacesRepo, 50)
	require.NoError(t, svc.FulfillSession(ctx, FulfillSessionInput{
		SessionID:      "cs_future",
		RenterID:       uuid.New(),
		StorageSpaceID: space.ID,
		SpaceAmount:    10,
		StartDate:      now.Add(72 * time.Hour),
		EndDate:        now.Add(30 * 24 * time.Hour),
		AmountCents:    50000,
		Currency:       "eur",
		Now:            now,
	}))

	var rental models.Rental
	require.NoError(t, db.Where("stripe_session_id = ?", "cs_future").First(&rental).Error)
	assert.False(t, rental.Active)
	assert.True(t, rental.Reserved)
}

func TestFulfillSessionRollsBackWhenCapacityExhausted(t *testing.T) {
	db := setupFulfillmentTestDB(t)
	svc, spacesRepo, ledgerSvc := newFulfillmentService(t, db)
	ctx := context.Background()
	now := time.Now().UTC()

	space := seedFulfillmentSpace(t, spacesRepo, 20)
	err := svc.FulfillSession(ctx, FulfillSessionInput{
		SessionID:      "cs_too_big",
		RenterID:       uuid.New(),
		StorageSpaceID: space.ID,
		SpaceAmount:    21,
		StartDate:      now,
		EndDate:        now.Add(24 * time.Hour),
		AmountCents:    9000,
		Currency:       "eur",
		Now:            now,
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientCapacity))

	// the ledger write must roll back with the reservation
	exists, lerr := ledgerSvc.Exists(ctx, "cs_too_big")
	require.NoError(t, lerr)
	assert.False(t, exists)

	var rentalCount int64
	require.NoError(t, db.Model(&models.Rental{}).Count(&rentalCount).Error)
	assert.Equal(t, int64(0), rentalCount)
}

func TestReleaseExpiredReturnsSurface(t *testing.T) {
	db := setupFulfillmentTestDB(t)
	svc, spacesRepo, _ := newFulfillmentService(t, db)
	ctx := context.Background()
	now := time.Now().UTC()

	space := seedFulfillmentSpace(t, spacesRepo, 80)
	require.NoError(t, svc.FulfillSession(ctx, FulfillSessionInput{
		SessionID:      "cs_expiring",
		RenterID:       uuid.New(),
		StorageSpaceID: space.ID,
		SpaceAmount:    30,
		StartDate:      now.Add(-48 * time.Hour),
		EndDate:        now.Add(-time.Hour),
		AmountCents:    60000,
		Currency:       "eur",
		Now:            now.Add(-48 * time.Hour),
	}))

	released, err := svc.ReleaseExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, released)

	stored, err := spacesRepo.GetByID(ctx, space.ID)
	require.NoError(t, err)
	assert.Equal(t, 80, stored.AvailableSurface)
	assert.Equal(t, 0, stored.RentedSurface)

	// a second sweep finds nothing to release
	released, err = svc.ReleaseExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 0, released)
}
