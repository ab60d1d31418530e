package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stockplace/stockplace-backend/pkg/db/models"
	"github.com/stockplace/stockplace-backend/pkg/enums"
)

// Repository manages persistence for ledger transactions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, transaction *models.Transaction) (bool, error)
	GetByStripeTransactionID(ctx context.Context, stripeTransactionID string) (*models.Transaction, error)
	ExistsByStripeTransactionID(ctx context.Context, stripeTransactionID string) (bool, error)
	UpdateStatus(ctx context.Context, stripeTransactionID string, status enums.TransactionStatus) error
	ListBySellerID(ctx context.Context, sellerID uuid.UUID) ([]models.Transaction, error)
	ListAll(ctx context.Context, limit int) ([]models.Transaction, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Insert stores the transaction and reports whether the row was newly
// created. Replays of a known stripe transaction ID are ignored.
func (r *repository) Insert(ctx context.Context, transaction *models.Transaction) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "stripe_transaction_id"}},
			DoNothing: true,
		}).
		Create(transaction)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) GetByStripeTransactionID(ctx context.Context, stripeTransactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := r.db.WithContext(ctx).
		Where("stripe_transaction_id = ?", stripeTransactionID).
		First(&transaction).Error; err != nil {
		return nil, err
	}
	return &transaction, nil
}

func (r *repository) ExistsByStripeTransactionID(ctx context.Context, stripeTransactionID string) (bool, error) {
	_, err := r.GetByStripeTransactionID(ctx, stripeTransactionID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, err
}

func (r *repository) UpdateStatus(ctx context.Context, stripeTransactionID string, status enums.TransactionStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("stripe_transaction_id = ?", stripeTransactionID).
		Update("status", status).Error
}

func (r *repository) ListBySellerID(ctx context.Context, sellerID uuid.UUID) ([]models.Transaction, error) {
	var transactions []models.Transaction
	if err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Find(&transactions).Error; err != nil {
		return nil, err
	}
	return transactions, nil
}

func (r *repository) ListAll(ctx context.Context, limit int) ([]models.Transaction, error) {
	var transactions []models.Transaction
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&transactions).Error; err != nil {
		return nil, err
	}
	return transactions, nil
}
