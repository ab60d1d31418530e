package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockplace/stockplace-backend/internal/ledger"
	"github.com/stockplace/stockplace-backend/internal/products"
	"github.com/stockplace/stockplace-backend/internal/storagespaces"
	"github.com/stockplace/stockplace-backend/pkg/db/models"
	"github.com/stockplace/stockplace-backend/pkg/enums"
	pkgerrors "github.com/stockplace/stockplace-backend/pkg/errors"
	"github.com/stockplace/stockplace-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines order fulfillment and collection operations.
type Service interface {
	FulfillSession(ctx context.Context, input FulfillSessionInput) error
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Order, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Order, error)
	MarkCollected(ctx context.Context, orderID, sellerID uuid.UUID) error
}

// FulfillSessionInput carries the verified checkout session data for a purchase.
type FulfillSessionInput struct {
	SessionID      string
	BuyerID        uuid.UUID
	SellerID       uuid.UUID
	ProductID      uuid.UUID
	StorageSpaceID uuid.UUID
	Quantity       int
	UnitPriceCents int
	AmountCents    int64
	Currency       string
}

// ServiceParams carries the dependencies for NewService.
type ServiceParams struct {
	Repo     Repository
	Products products.Repository
	Spaces   storagespaces.Repository
	Ledger   ledger.Service
	Tx       txRunner
	Logger   *logger.Logger
}

type service struct {
	repo     Repository
	products products.Repository
	spaces   storagespaces.Repository
	ledger   ledger.Service
	tx       txRunner
	logg     *logger.Logger
}

// NewService builds an order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if params.Spaces == nil {
		return nil, fmt.Errorf("storage spaces repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     params.Repo,
		products: params.Products,
		spaces:   params.Spaces,
		ledger:   params.Ledger,
		tx:       params.Tx,
		logg:     params.Logger,
	}, nil
}

// FulfillSession decrements stock, allocates an order number, creates the
// order, and records the ledger entry inside one transaction. The stock
// check runs before anything is persisted, and the ledger insert doubles as
// the idempotency barrier for replayed sessions.
func (s *service) FulfillSession(ctx context.Context, input FulfillSessionInput) error {
	if err := validateFulfillInput(input); err != nil {
		return err
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.spaces.WithTx(tx).GetByID(ctx, input.StorageSpaceID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "storage space not found")
		}

		buyerID := input.BuyerID
		_, created, err := s.ledger.WithTx(tx).Record(ctx, ledger.RecordTransactionInput{
			StripeTransactionID: input.SessionID,
			BuyerID:             &buyerID,
			SellerID:            input.SellerID,
			AmountCents:         input.AmountCents,
			Currency:            input.Currency,
			Status:              enums.TransactionStatusSucceeded,
			Type:                enums.TransactionTypePurchase,
		})
		if err != nil {
			return err
		}
		if !created {
			s.logg.Info(ctx, "order session already settled, skipping")
			return nil
		}

		// stock comes off the shelf before the order row exists
		if err := s.products.WithTx(tx).DecrementStock(ctx, input.ProductID, input.Quantity); err != nil {
			return err
		}

		orderNumber, err := s.repo.WithTx(tx).NextOrderNumber(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate order number")
		}

		order := &models.Order{
			OrderNumber:     orderNumber,
			BuyerID:         input.BuyerID,
			SellerID:        input.SellerID,
			ProductID:       input.ProductID,
			StorageSpaceID:  input.StorageSpaceID,
			Quantity:        input.Quantity,
			UnitPriceCents:  input.UnitPriceCents,
			TotalPriceCents: input.UnitPriceCents * input.Quantity,
			Status:          enums.OrderStatusToCollect,
			StripeSessionID: input.SessionID,
		}
		return s.repo.WithTx(tx).Create(ctx, order)
	})
}

func validateFulfillInput(input FulfillSessionInput) error {
	if strings.TrimSpace(input.SessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if input.BuyerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	if input.SellerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "seller id is required")
	}
	if input.ProductID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.StorageSpaceID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "storage space id is required")
	}
	if input.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.UnitPriceCents <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit price must be positive")
	}
	if input.AmountCents <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order not found")
	}
	return order, nil
}

func (s *service) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Order, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	return s.repo.ListByBuyerID(ctx, buyerID)
}

func (s *service) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Order, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id is required")
	}
	return s.repo.ListBySellerID(ctx, sellerID)
}

// MarkCollected records that the seller handed the goods over.
func (s *service) MarkCollected(ctx context.Context, orderID, sellerID uuid.UUID) error {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if order.SellerID != sellerID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another seller")
	}
	if order.Status == enums.OrderStatusCollected {
		return pkgerrors.New(pkgerrors.CodeConflict, "order already collected")
	}
	return s.repo.MarkCollected(ctx, orderID, time.Now().UTC())
}
