package products

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	pkgdb "github.com/stockplace/stockplace-backend/pkg/db"
	"github.com/stockplace/stockplace-backend/pkg/db/models"
	pkgerrors "github.com/stockplace/stockplace-backend/pkg/errors"
)

// RentalChecker reports whether a rental can hold supplier stock.
type RentalChecker interface {
	IsUsable(ctx context.Context, rentalID, supplierID uuid.UUID) error
}

// Service defines product listing operations for suppliers.
type Service interface {
	Create(ctx context.Context, input CreateProductInput) (*models.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, onlyInStock bool) ([]models.Product, error)
	ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]models.Product, error)
	Update(ctx context.Context, input UpdateProductInput) (*models.Product, error)
}

// CreateProductInput captures the fields for a new listing.
type CreateProductInput struct {
	SupplierID    uuid.UUID
	RentalID      uuid.UUID
	ProductName   string
	Description   *string
	StockQuantity int
	PriceCents    int
}

// UpdateProductInput captures supplier-editable listing fields.
type UpdateProductInput struct {
	ID            uuid.UUID
	SupplierID    uuid.UUID
	Description   *string
	StockQuantity *int
	PriceCents    *int
	IsActive      *bool
}

type service struct {
	repo    Repository
	rentals RentalChecker
}

// NewService wires a product service with the provided dependencies.
func NewService(repo Repository, rentals RentalChecker) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if rentals == nil {
		return nil, fmt.Errorf("rental checker required")
	}
	return &service{repo: repo, rentals: rentals}, nil
}

func (s *service) Create(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	if input.SupplierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier id is required")
	}
	if input.RentalID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rental id is required")
	}
	if strings.TrimSpace(input.ProductName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if input.StockQuantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock quantity cannot be negative")
	}
	if input.PriceCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}

	if err := s.rentals.IsUsable(ctx, input.RentalID, input.SupplierID); err != nil {
		return nil, err
	}

	product := &models.Product{
		SupplierID:    input.SupplierID,
		RentalID:      input.RentalID,
		ProductName:   strings.TrimSpace(input.ProductName),
		Description:   input.Description,
		StockQuantity: input.StockQuantity,
		PriceCents:    input.PriceCents,
		IsActive:      true,
	}

	if err := s.repo.Create(ctx, product); err != nil {
		if pkgdb.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "product name already taken")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return product, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
	}
	return product, nil
}

func (s *service) List(ctx context.Context, onlyInStock bool) ([]models.Product, error) {
	return s.repo.List(ctx, onlyInStock)
}

func (s *service) ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]models.Product, error) {
	if supplierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier id is required")
	}
	return s.repo.ListBySupplierID(ctx, supplierID)
}

func (s *service) Update(ctx context.Context, input UpdateProductInput) (*models.Product, error) {
	product, err := s.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if product.SupplierID != input.SupplierID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "product belongs to another supplier")
	}

	if input.Description != nil {
		product.Description = input.Description
	}
	if input.StockQuantity != nil {
		if *input.StockQuantity < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock quantity cannot be negative")
		}
		product.StockQuantity = *input.StockQuantity
	}
	if input.PriceCents != nil {
		if *input.PriceCents <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		product.PriceCents = *input.PriceCents
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return product, nil
}
