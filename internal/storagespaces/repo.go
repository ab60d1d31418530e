package storagespaces

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockplace/stockplace-backend/pkg/db/models"
	pkgerrors "github.com/stockplace/stockplace-backend/pkg/errors"
)

// Repository manages persistence for storage space listings.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, space *models.StorageSpace) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.StorageSpace, error)
	List(ctx context.Context, onlyAvailable bool) ([]models.StorageSpace, error)
	ListByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]models.StorageSpace, error)
	Update(ctx context.Context, space *models.StorageSpace) error
	ReserveSurface(ctx context.Context, id uuid.UUID, amount int) error
	ReleaseSurface(ctx context.Context, id uuid.UUID, amount int) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a storage space repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, space *models.StorageSpace) error {
	return r.db.WithContext(ctx).Create(space).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.StorageSpace, error) {
	var space models.StorageSpace
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&space).Error; err != nil {
		return nil, err
	}
	return &space, nil
}

func (r *repository) List(ctx context.Context, onlyAvailable bool) ([]models.StorageSpace, error) {
	var spaces []models.StorageSpace
	query := r.db.WithContext(ctx).Where("is_active = ?", true)
	if onlyAvailable {
		query = query.Where("available_surface > 0")
	}
	if err := query.Order("created_at DESC").Find(&spaces).Error; err != nil {
		return nil, err
	}
	return spaces, nil
}

func (r *repository) ListByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]models.StorageSpace, error) {
	var spaces []models.StorageSpace
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&spaces).Error; err != nil {
		return nil, err
	}
	return spaces, nil
}

func (r *repository) Update(ctx context.Context, space *models.StorageSpace) error {
	return r.db.WithContext(ctx).Save(space).Error
}

// ReserveSurface moves surface from available to rented. The WHERE guard keeps
// the counters from going negative under concurrent reservations; a miss
// surfaces as an insufficient capacity error.
func (r *repository) ReserveSurface(ctx context.Context, id uuid.UUID, amount int) error {
	if amount <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "surface amount must be positive")
	}

	res := r.db.WithContext(ctx).Exec(`
		UPDATE storage_spaces
		SET available_surface = available_surface - ?,
			rented_surface = rented_surface + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND available_surface >= ?
	`, amount, amount, id, amount)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "reserve surface")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeInsufficientCapacity, "not enough available surface")
	}
	return nil
}

// ReleaseSurface returns rented surface back to the available pool.
func (r *repository) ReleaseSurface(ctx context.Context, id uuid.UUID, amount int) error {
	if amount <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "surface amount must be positive")
	}

	res := r.db.WithContext(ctx).Exec(`
		UPDATE storage_spaces
		SET available_surface = available_surface + ?,
			rented_surface = rented_surface - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND rented_surface >= ?
	`, amount, amount, id, amount)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "release surface")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "rented surface below release amount")
	}
	return nil
}
