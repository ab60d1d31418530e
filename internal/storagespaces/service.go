package storagespaces

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	pkgdb "github.com/stockplace/stockplace-backend/pkg/db"
	"github.com/stockplace/stockplace-backend/pkg/db/models"
	pkgerrors "github.com/stockplace/stockplace-backend/pkg/errors"
)

// Service defines storage space listing operations for lessors.
type Service interface {
	Create(ctx context.Context, input CreateStorageSpaceInput) (*models.StorageSpace, error)
	Get(ctx context.Context, id uuid.UUID) (*models.StorageSpace, error)
	List(ctx context.Context, onlyAvailable bool) ([]models.StorageSpace, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.StorageSpace, error)
	Update(ctx context.Context, input UpdateStorageSpaceInput) (*models.StorageSpace, error)
}

// CreateStorageSpaceInput captures the fields for a new listing.
type CreateStorageSpaceInput struct {
	OwnerID          uuid.UUID
	Name             string
	Description      *string
	Address          string
	TotalSurface     int
	PriceCentsPerDay int
}

// UpdateStorageSpaceInput captures owner-editable listing fields.
type UpdateStorageSpaceInput struct {
	ID               uuid.UUID
	OwnerID          uuid.UUID
	Description      *string
	PriceCentsPerDay *int
	IsActive         *bool
}

type service struct {
	repo Repository
}

// NewService wires a storage space service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("storage space repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateStorageSpaceInput) (*models.StorageSpace, error) {
	if input.OwnerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if strings.TrimSpace(input.Address) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address is required")
	}
	if input.TotalSurface <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total surface must be positive")
	}
	if input.PriceCentsPerDay <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}

	space := &models.StorageSpace{
		OwnerID:          input.OwnerID,
		Name:             strings.TrimSpace(input.Name),
		Description:      input.Description,
		Address:          strings.TrimSpace(input.Address),
		TotalSurface:     input.TotalSurface,
		AvailableSurface: input.TotalSurface,
		RentedSurface:    0,
		PriceCentsPerDay: input.PriceCentsPerDay,
		IsActive:         true,
	}

	if err := s.repo.Create(ctx, space); err != nil {
		if pkgdb.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "storage space name already taken")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create storage space")
	}
	return space, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.StorageSpace, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "storage space id is required")
	}
	space, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "storage space not found")
	}
	return space, nil
}

func (s *service) List(ctx context.Context, onlyAvailable bool) ([]models.StorageSpace, error) {
	return s.repo.List(ctx, onlyAvailable)
}

func (s *service) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.StorageSpace, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}
	return s.repo.ListByOwnerID(ctx, ownerID)
}

func (s *service) Update(ctx context.Context, input UpdateStorageSpaceInput) (*models.StorageSpace, error) {
	space, err := s.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if space.OwnerID != input.OwnerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "storage space belongs to another lessor")
	}

	if input.Description != nil {
		space.Description = input.Description
	}
	if input.PriceCentsPerDay != nil {
		if *input.PriceCentsPerDay <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		space.PriceCentsPerDay = *input.PriceCentsPerDay
	}
	if input.IsActive != nil {
		space.IsActive = *input.IsActive
	}

	if err := s.repo.Update(ctx, space); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update storage space")
	}
	return space, nil
}
