package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stockplace/stockplace-backend/pkg/db/models"
	"github.com/stockplace/stockplace-backend/pkg/enums"
)

func setupLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:ledger_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS transactions (
  id TEXT PRIMARY KEY,
  stripe_transaction_id TEXT NOT NULL UNIQUE,
  buyer_id TEXT,
  seller_id TEXT NOT NULL,
  amount_cents INTEGER NOT NULL,
  currency TEXT NOT NULL,
  status TEXT NOT NULL,
  type TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)

	return db
}

func newLedgerRow(stripeID string, sellerID uuid.UUID) *models.Transaction {
	buyerID := uuid.New()
	return &models.Transaction{
		ID:                  uuid.New(),
		StripeTransactionID: stripeID,
		BuyerID:             &buyerID,
		SellerID:            sellerID,
		AmountCents:         2500,
		Currency:            "eur",
		Status:              enums.TransactionStatusSucceeded,
		Type:                enums.TransactionTypePurchase,
	}
}

func TestInsertIgnoresReplayedStripeID(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	sellerID := uuid.New()

	created, err := repo.Insert(ctx, newLedgerRow("cs_test_1", sellerID))
	require.NoError(t, err)
	assert.True(t, created)

	replay := newLedgerRow("cs_test_1", sellerID)
	replay.AmountCents = 99999
	created, err = repo.Insert(ctx, replay)
	require.NoError(t, err)
	assert.False(t, created)

	stored, err := repo.GetByStripeTransactionID(ctx, "cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, int64(2500), stored.AmountCents)
}

func TestExistsByStripeTransactionID(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	exists, err := repo.ExistsByStripeTransactionID(ctx, "cs_missing")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = repo.Insert(ctx, newLedgerRow("cs_test_2", uuid.New()))
	require.NoError(t, err)

	exists, err = repo.ExistsByStripeTransactionID(ctx, "cs_test_2")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUpdateStatus(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	row := newLedgerRow("po_test_1", uuid.New())
	row.Type = enums.TransactionTypePayout
	row.Status = enums.TransactionStatusPending
	_, err := repo.Insert(ctx, row)
	require.NoError(t, err)

	require.NoError(t, repo.UpdateStatus(ctx, "po_test_1", enums.TransactionStatusFailed))

	stored, err := repo.GetByStripeTransactionID(ctx, "po_test_1")
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionStatusFailed, stored.Status)
}

func TestListBySellerOrdersNewestFirst(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	sellerID := uuid.New()

	_, err := repo.Insert(ctx, newLedgerRow("cs_a", sellerID))
	require.NoError(t, err)
	_, err = repo.Insert(ctx, newLedgerRow("cs_b", sellerID))
	require.NoError(t, err)
	_, err = repo.Insert(ctx, newLedgerRow("cs_other", uuid.New()))
	require.NoError(t, err)

	rows, err := repo.ListBySellerID(ctx, sellerID)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, sellerID, row.SellerID)
	}
}
