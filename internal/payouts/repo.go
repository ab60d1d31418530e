package payouts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stockplace/stockplace-backend/pkg/db/models"
)

// Repository manages persistence for seller payouts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Upsert(ctx context.Context, payout *models.Payout) error
	GetByStripePayoutID(ctx context.Context, stripePayoutID string) (*models.Payout, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]models.Payout, error)
	ListAll(ctx context.Context, limit int) ([]models.Payout, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a payout repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Upsert writes the payout keyed by its provider ID. Later events for the
// same payout overwrite the mutable columns so created, paid, and failed
// notifications can land in any order.
func (r *repository) Upsert(ctx context.Context, payout *models.Payout) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "stripe_payout_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"status",
				"amount_cents",
				"currency",
				"arrival_date",
				"failure_message",
				"user_id",
				"updated_at",
			}),
		}).
		Create(payout).Error
}

func (r *repository) GetByStripePayoutID(ctx context.Context, stripePayoutID string) (*models.Payout, error) {
	var payout models.Payout
	if err := r.db.WithContext(ctx).
		Where("stripe_payout_id = ?", stripePayoutID).
		First(&payout).Error; err != nil {
		return nil, err
	}
	return &payout, nil
}

func (r *repository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]models.Payout, error) {
	var list []models.Payout
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repository) ListAll(ctx context.Context, limit int) ([]models.Payout, error) {
	var list []models.Payout
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
