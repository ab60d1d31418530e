package orders

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
	"github.com/stockplace/stockplace-backend/pkg/enums"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:orders_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := []string{`
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  order_number INTEGER NOT NULL UNIQUE,
  buyer_id TEXT NOT NULL,
  seller_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  storage_space_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price_cents INTEGER NOT NULL,
  total_price_cents INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'to_collect',
  stripe_session_id TEXT NOT NULL UNIQUE,
  collected_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS order_counters (
  id INTEGER PRIMARY KEY,
  value INTEGER NOT NULL
);`, `
INSERT INTO order_counters (id, value) VALUES (1, 0);`}
	for _, stmt := range schema {
		require.NoError(t, db.Exec(stmt).Error)
	}

	return db
}

func seedOrder(t *testing.T, repo Repository, orderNumber int64) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:              uuid.New(),
		OrderNumber:     orderNumber,
		BuyerID:         uuid.New(),
		SellerID:        uuid.New(),
		ProductID:       uuid.New(),
		StorageSpaceID:  uuid.New(),
		Quantity:        2,
		UnitPriceCents:  500,
		TotalPriceCents: 1000,
		Status:          enums.OrderStatusToCollect,
		StripeSessionID: "cs_" + uuid.NewString(),
	}
	require.NoError(t, repo.Create(context.Background(), order))
	return order
}

func TestNextOrderNumberIsDense(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	first, err := repo.NextOrderNumber(ctx)
	require.NoError(t, err)
	second, err := repo.NextOrderNumber(ctx)
	require.NoError(t, err)
	third, err := repo.NextOrderNumber(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(2), second)
	assert.Equal(t, int64(3), third)
}

func TestMarkCollectedIsFinal(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := seedOrder(t, repo, 1)
	collectedAt := time.Now().UTC()

	require.NoError(t, repo.MarkCollected(ctx, order.ID, collectedAt))

	stored, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCollected, stored.Status)
	require.NotNil(t, stored.CollectedAt)

	// a second collect attempt matches no rows and changes nothing
	require.NoError(t, repo.MarkCollected(ctx, order.ID, collectedAt.Add(time.Hour)))
	stored, err = repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, collectedAt, *stored.CollectedAt, time.Second)
}

func TestListBySellerAndBuyer(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	first := seedOrder(t, repo, 1)
	seedOrder(t, repo, 2)

	bySeller, err := repo.ListBySellerID(ctx, first.SellerID)
	require.NoError(t, err)
	require.Len(t, bySeller, 1)
	assert.Equal(t, first.ID, bySeller[0].ID)

	byBuyer, err := repo.ListByBuyerID(ctx, first.BuyerID)
	require.NoError(t, err)
	require.Len(t, byBuyer, 1)
	assert.Equal(t, first.ID, byBuyer[0].ID)
}
