package orders

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stockplace/stockplace-backend/internal/ledger"
	"github.com/stockplace/stockplace-backend/internal/products"
	"github.com/stockplace/stockplace-backend/internal/storagespaces"
	pkgdb "github.com/stockplace/stockplace-backend/pkg/db"
	"github.com/stockplace/stockplace-backend/pkg/db/models"
	"github.com/stockplace/stockplace-backend/pkg/enums"
	pkgerrors "github.com/stockplace/stockplace-backend/pkg/errors"
	"github.com/stockplace/stockplace-backend/pkg/logger"
)

func setupOrderFulfillmentTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:order_svc_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
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
CREATE TABLE IF NOT EXISTS products (
  id TEXT,
  supplier_id TEXT NOT NULL,
  rental_id TEXT NOT NULL,
  product_name TEXT NOT NULL UNIQUE,
  description TEXT,
  stock_quantity INTEGER NOT NULL,
  price_cents INTEGER NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT,
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
INSERT INTO order_counters (id, value) VALUES (1, 0);`, `
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

func newOrderFulfillmentService(t *testing.T, db *gorm.DB) (Service, products.Repository, ledger.Service) {
	t.Helper()

	productsRepo := products.NewRepository(db)
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(db))
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		Repo:     NewRepository(db),
		Products: productsRepo,
		Spaces:   storagespaces.NewRepository(db),
		Ledger:   ledgerSvc,
		Tx:       pkgdb.FromConn(db),
		Logger:   logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	require.NoError(t, err)
	return svc, productsRepo, ledgerSvc
}

func seedFulfillmentSpace(t *testing.T, db *gorm.DB) *models.StorageSpace {
	t.Helper()
	space := &models.StorageSpace{
		ID:               uuid.New(),
		OwnerID:          uuid.New(),
		Name:             "space-" + uuid.NewString(),
		Address:          "2 Quai des Stocks",
		TotalSurface:     100,
		AvailableSurface: 60,
		RentedSurface:    40,
		PriceCentsPerDay: 500,
		IsActive:         true,
	}
	require.NoError(t, storagespaces.NewRepository(db).Create(context.Background(), space))
	return space
}

func seedFulfillmentProduct(t *testing.T, repo products.Repository, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:            uuid.New(),
		SupplierID:    uuid.New(),
		RentalID:      uuid.New(),
		ProductName:   "product-" + uuid.NewString(),
		StockQuantity: stock,
		PriceCents:    750,
		IsActive:      true,
	}
	require.NoError(t, repo.Create(context.Background(), product))
	return product
}

func TestFulfillSessionCreatesOrderOnce(t *testing.T) {
	db := setupOrderFulfillmentTestDB(t)
	svc, productsRepo, _ := newOrderFulfillmentService(t, db)
	ctx := context.Background()

	product := seedFulfillmentProduct(t, productsRepo, 10)
	space := seedFulfillmentSpace(t, db)
	input := FulfillSessionInput{
		SessionID:      "cs_test_order",
		BuyerID:        uuid.New(),
		SellerID:       product.SupplierID,
		ProductID:      product.ID,
		StorageSpaceID: space.ID,
		Quantity:       4,
		UnitPriceCents: 750,
		AmountCents:    3000,
		Currency:       "eur",
	}

	require.NoError(t, svc.FulfillSession(ctx, input))

	// delivered twice: the replay must not double-decrement the stock
	require.NoError(t, svc.FulfillSession(ctx, input))

	stored, err := productsRepo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, stored.StockQuantity)

	var orders []models.Order
	require.NoError(t, db.Find(&orders).Error)
	require.Len(t, orders, 1)
	assert.Equal(t, int64(1), orders[0].OrderNumber)
	assert.Equal(t, 3000, orders[0].TotalPriceCents)
	assert.Equal(t, space.ID, orders[0].StorageSpaceID)
	assert.Equal(t, enums.OrderStatusToCollect, orders[0].Status)
}

func TestFulfillSessionAssignsSequentialOrderNumbers(t *testing.T) {
	db := setupOrderFulfillmentTestDB(t)
	svc, productsRepo, _ := newOrderFulfillmentService(t, db)
	ctx := context.Background()

	product := seedFulfillmentProduct(t, productsRepo, 10)
	space := seedFulfillmentSpace(t, db)
	for i, session := range []string{"cs_one", "cs_two", "cs_three"} {
		require.NoError(t, svc.FulfillSession(ctx, FulfillSessionInput{
			SessionID:      session,
			BuyerID:        uuid.New(),
			SellerID:       product.SupplierID,
			ProductID:      product.ID,
			StorageSpaceID: space.ID,
			Quantity:       1,
			UnitPriceCents: 750,
			AmountCents:    750,
			Currency:       "eur",
		}), "session %d", i)
	}

	var orders []models.Order
	require.NoError(t, db.Order("order_number ASC").Find(&orders).Error)
	require.Len(t, orders, 3)
	for i, order := range orders {
		assert.Equal(t, int64(i+1), order.OrderNumber)
	}
}

func TestFulfillSessionRollsBackWhenStockExhausted(t *testing.T) {
	db := setupOrderFulfillmentTestDB(t)
	svc, productsRepo, ledgerSvc := newOrderFulfillmentService(t, db)
	ctx := context.Background()

	product := seedFulfillmentProduct(t, productsRepo, 3)
	space := seedFulfillmentSpace(t, db)
	err := svc.FulfillSession(ctx, FulfillSessionInput{
		SessionID:      "cs_oversell",
		BuyerID:        uuid.New(),
		SellerID:       product.SupplierID,
		ProductID:      product.ID,
		StorageSpaceID: space.ID,
		Quantity:       4,
		UnitPriceCents: 750,
		AmountCents:    3000,
		Currency:       "eur",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))

	// nothing commits: no order, no ledger entry, stock untouched
	var orderCount int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orderCount).Error)
	assert.Equal(t, int64(0), orderCount)

	exists, err := ledgerSvc.Exists(ctx, "cs_oversell")
	require.NoError(t, err)
	assert.False(t, exists)

	stored, err := productsRepo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.StockQuantity)
}

func TestFulfillSessionRejectsUnknownStorageSpace(t *testing.T) {
	db := setupOrderFulfillmentTestDB(t)
	svc, productsRepo, ledgerSvc := newOrderFulfillmentService(t, db)
	ctx := context.Background()

	product := seedFulfillmentProduct(t, productsRepo, 5)
	err := svc.FulfillSession(ctx, FulfillSessionInput{
		SessionID:      "cs_ghost_space",
		BuyerID:        uuid.New(),
		SellerID:       product.SupplierID,
		ProductID:      product.ID,
		StorageSpaceID: uuid.New(),
		Quantity:       2,
		UnitPriceCents: 750,
		AmountCents:    1500,
		Currency:       "eur",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	var orderCount int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orderCount).Error)
	assert.Equal(t, int64(0), orderCount)

	exists, err := ledgerSvc.Exists(ctx, "cs_ghost_space")
	require.NoError(t, err)
	assert.False(t, exists)

	stored, err := productsRepo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.StockQuantity)
}
