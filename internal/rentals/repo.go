package rentals

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockplace/stockplace-backend/pkg/db/models"
)

// Repository manages persistence for rentals.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, rental *models.Rental) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Rental, error)
	GetByStripeSessionID(ctx context.Context, sessionID string) (*models.Rental, error)
	ListByRenterID(ctx context.Context, renterID uuid.UUID) ([]models.Rental, error)
	ListByStorageSpaceID(ctx context.Context, storageSpaceID uuid.UUID) ([]models.Rental, error)
	ExistsForRenterAndSpace(ctx context.Context, renterID, storageSpaceID uuid.UUID) (bool, error)
	ActivateDue(ctx context.Context, now time.Time) (int64, error)
	ListExpired(ctx context.Context, now time.Time) ([]models.Rental, error)
	MarkReleased(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a rental repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, rental *models.Rental) error {
	return r.db.WithContext(ctx).Create(rental).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Rental, error) {
	var rental models.Rental
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&rental).Error; err != nil {
		return nil, err
	}
	return &rental, nil
}

func (r *repository) GetByStripeSessionID(ctx context.Context, sessionID string) (*models.Rental, error) {
	var rental models.Rental
	if err := r.db.WithContext(ctx).
		Where("stripe_session_id = ?", sessionID).
		First(&rental).Error; err != nil {
		return nil, err
	}
	return &rental, nil
}

func (r *repository) ListByRenterID(ctx context.Context, renterID uuid.UUID) ([]models.Rental, error) {
	var rentals []models.Rental
	if err := r.db.WithContext(ctx).
		Where("renter_id = ?", renterID).
		Order("created_at DESC").
		Find(&rentals).Error; err != nil {
		return nil, err
	}
	return rentals, nil
}

func (r *repository) ListByStorageSpaceID(ctx context.Context, storageSpaceID uuid.UUID) ([]models.Rental, error) {
	var rentals []models.Rental
	if err := r.db.WithContext(ctx).
		Where("storage_space_id = ?", storageSpaceID).
		Order("created_at DESC").
		Find(&rentals).Error; err != nil {
		return nil, err
	}
	return rentals, nil
}

// ExistsForRenterAndSpace reports whether the renter already holds a live
// rental in the space.
func (r *repository) ExistsForRenterAndSpace(ctx context.Context, renterID, storageSpaceID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Rental{}).
		Where("renter_id = ? AND storage_space_id = ? AND released = ?", renterID, storageSpaceID, false).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ActivateDue flips reserved rentals whose start date has arrived.
func (r *repository) ActivateDue(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Rental{}).
		Where("reserved = ? AND released = ? AND start_date <= ?", true, false, now).
		Updates(map[string]any{
			"reserved": false,
			"active":   true,
		})
	return res.RowsAffected, res.Error
}

func (r *repository) ListExpired(ctx context.Context, now time.Time) ([]models.Rental, error) {
	var rentals []models.Rental
	if err := r.db.WithContext(ctx).
		Where("released = ? AND end_date < ?", false, now).
		Find(&rentals).Error; err != nil {
		return nil, err
	}
	return rentals, nil
}

func (r *repository) MarkReleased(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Rental{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"active":   false,
			"reserved": false,
			"released": true,
		}).Error
}
