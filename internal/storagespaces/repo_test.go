package storagespaces

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stockplace/stockplace-backend/pkg/db/models"
	pkgerrors "github.com/stockplace/stockplace-backend/pkg/errors"
)

func setupStorageSpacesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:spaces_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS storage_spaces (
  id TEXT PRIMARY KEY,
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
);`
	require.NoError(t, db.Exec(schema).Error)

	return db
}

func seedSpace(t *testing.T, repo Repository, name string, available int) *models.StorageSpace {
	t.Helper()
	space := &models.StorageSpace{
		ID:               uuid.New(),
		OwnerID:          uuid.New(),
		Name:             name,
		Address:          "12 Quai des Docks",
		TotalSurface:     available,
		AvailableSurface: available,
		PriceCentsPerDay: 150,
		IsActive:         true,
	}
	require.NoError(t, repo.Create(context.Background(), space))
	return space
}

func TestReserveSurfaceDecrementsAtomically(t *testing.T) {
	db := setupStorageSpacesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	space := seedSpace(t, repo, "dock-a", 100)

	require.NoError(t, repo.ReserveSurface(ctx, space.ID, 60))

	stored, err := repo.GetByID(ctx, space.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, stored.AvailableSurface)
	assert.Equal(t, 60, stored.RentedSurface)
}

func TestReserveSurfaceRejectsOverCapacity(t *testing.T) {
	db := setupStorageSpacesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	space := seedSpace(t, repo, "dock-b", 30)

	err := repo.ReserveSurface(ctx, space.ID, 31)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientCapacity))

	stored, err := repo.GetByID(ctx, space.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, stored.AvailableSurface)
	assert.Equal(t, 0, stored.RentedSurface)
}

func TestReserveSurfaceAdmitsOneOfTwoConcurrentRentals(t *testing.T) {
	db := setupStorageSpacesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	// serialize at the pool so both goroutines hit the same connection
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	space := seedSpace(t, repo, "dock-race", 10)

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- repo.ReserveSurface(ctx, space.ID, 6)
		}()
	}
	wg.Wait()
	close(results)

	var admitted, rejected int
	for err := range results {
		if err == nil {
			admitted++
			continue
		}
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientCapacity))
		rejected++
	}
	assert.Equal(t, 1, admitted)
	assert.Equal(t, 1, rejected)

	stored, err := repo.GetByID(ctx, space.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stored.AvailableSurface)
	assert.Equal(t, 6, stored.RentedSurface)
	assert.Equal(t, stored.TotalSurface, stored.AvailableSurface+stored.RentedSurface)
}

func TestReleaseSurfaceGuardsRentedFloor(t *testing.T) {
	db := setupStorageSpacesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	space := seedSpace(t, repo, "dock-c", 50)
	require.NoError(t, repo.ReserveSurface(ctx, space.ID, 20))

	err := repo.ReleaseSurface(ctx, space.ID, 25)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	require.NoError(t, repo.ReleaseSurface(ctx, space.ID, 20))

	stored, err := repo.GetByID(ctx, space.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, stored.AvailableSurface)
	assert.Equal(t, 0, stored.RentedSurface)
}

func TestListFiltersFullSpaces(t *testing.T) {
	db := setupStorageSpacesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seedSpace(t, repo, "dock-d", 10)
	full := seedSpace(t, repo, "dock-e", 10)
	require.NoError(t, repo.ReserveSurface(ctx, full.ID, 10))

	all, err := repo.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	available, err := repo.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, "dock-d", available[0].Name)
}
