package rentals

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/stockplace/stockplace-backend/pkg/errors"
)

// UsageChecker verifies a rental can hold supplier stock.
type UsageChecker struct {
	repo Repository
}

// NewUsageChecker builds a checker backed by the rental repository.
func NewUsageChecker(repo Repository) (*UsageChecker, error) {
	if repo == nil {
		return nil, fmt.Errorf("rentals repository required")
	}
	return &UsageChecker{repo: repo}, nil
}

// IsUsable returns nil when the rental belongs to the supplier and has not
// been released yet.
func (c *UsageChecker) IsUsable(ctx context.Context, rentalID, supplierID uuid.UUID) error {
	if rentalID == uuid.Nil || supplierID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "rental and supplier ids are required")
	}

	rental, err := c.repo.GetByID(ctx, rentalID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "rental not found")
	}
	if rental.RenterID != supplierID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "rental belongs to another user")
	}
	if rental.Released {
		return pkgerrors.New(pkgerrors.CodeConflict, "rental has ended")
	}
	return nil
}
