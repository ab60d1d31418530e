package admin

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockplace/stockplace-backend/pkg/db/models"
	"github.com/stockplace/stockplace-backend/pkg/pagination"
)

// Repository exposes the cross-entity queries the admin surface needs.
type Repository interface {
	Counts(ctx context.Context) (EntityCounts, error)
	ListUsers(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) (int64, error)
	DeleteStorageSpace(ctx context.Context, id uuid.UUID) (int64, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) (int64, error)
}

// EntityCounts aggregates row counts for the dashboard.
type EntityCounts struct {
	Users         int64 `json:"users"`
	StorageSpaces int64 `json:"storage_spaces"`
	ActiveRentals int64 `json:"active_rentals"`
	Products      int64 `json:"products"`
	Orders        int64 `json:"orders"`
	Transactions  int64 `json:"transactions"`
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an admin repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Counts(ctx context.Context) (EntityCounts, error) {
	var counts EntityCounts
	type target struct {
		model any
		dest  *int64
		where []any
	}
	targets := []target{
		{model: &models.User{}, dest: &counts.Users},
		{model: &models.StorageSpace{}, dest: &counts.StorageSpaces},
		{model: &models.Rental{}, dest: &counts.ActiveRentals, where: []any{"active = ?", true}},
		{model: &models.Product{}, dest: &counts.Products},
		{model: &models.Order{}, dest: &counts.Orders},
		{model: &models.Transaction{}, dest: &counts.Transactions},
	}
	for _, tgt := range targets {
		query := r.db.WithContext(ctx).Model(tgt.model)
		if len(tgt.where) > 0 {
			query = query.Where(tgt.where[0], tgt.where[1:]...)
		}
		if err := query.Count(tgt.dest).Error; err != nil {
			return EntityCounts{}, err
		}
	}
	return counts, nil
}

func (r *repository) ListUsers(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.User, error) {
	var list []models.User
	query := r.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repository) DeleteUser(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.User{})
	return res.RowsAffected, res.Error
}

func (r *repository) DeleteStorageSpace(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.StorageSpace{})
	return res.RowsAffected, res.Error
}

func (r *repository) DeleteProduct(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})
	return res.RowsAffected, res.Error
}
