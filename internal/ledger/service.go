package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockplace/stockplace-backend/pkg/db/models"
	"github.com/stockplace/stockplace-backend/pkg/enums"
)

// Service defines operations that record money movement.
type Service interface {
	Record(ctx context.Context, input RecordTransactionInput) (*models.Transaction, bool, error)
	Exists(ctx context.Context, stripeTransactionID string) (bool, error)
	UpdateStatus(ctx context.Context, stripeTransactionID string, status enums.TransactionStatus) error
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Transaction, error)
	List(ctx context.Context, limit int) ([]models.Transaction, error)
	WithTx(tx *gorm.DB) Service
}

// RecordTransactionInput captures the immutable data a ledger entry requires.
type RecordTransactionInput struct {
	StripeTransactionID string
	BuyerID             *uuid.UUID
	SellerID            uuid.UUID
	AmountCents         int64
	Currency            string
	Status              enums.TransactionStatus
	Type                enums.TransactionType
}

type service struct {
	repo Repository
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	if tx == nil {
		return s
	}
	return &service{repo: s.repo.WithTx(tx)}
}

// Record writes the ledger entry. The boolean result reports whether the
// entry was newly created; a false result means the provider transaction was
// already settled and the caller should treat the write as a no-op.
func (s *service) Record(ctx context.Context, input RecordTransactionInput) (*models.Transaction, bool, error) {
	if strings.TrimSpace(input.StripeTransactionID) == "" {
		return nil, false, fmt.Errorf("stripe transaction id is required")
	}
	if input.SellerID == uuid.Nil {
		return nil, false, fmt.Errorf("seller id is required")
	}
	if input.AmountCents <= 0 {
		return nil, false, fmt.Errorf("amount must be positive")
	}
	if strings.TrimSpace(input.Currency) == "" {
		return nil, false, fmt.Errorf("currency is required")
	}
	if !input.Status.IsValid() {
		return nil, false, fmt.Errorf("invalid transaction status %q", input.Status)
	}
	if !input.Type.IsValid() {
		return nil, false, fmt.Errorf("invalid transaction type %q", input.Type)
	}

	transaction := &models.Transaction{
		StripeTransactionID: input.StripeTransactionID,
		BuyerID:             input.BuyerID,
		SellerID:            input.SellerID,
		AmountCents:         input.AmountCents,
		Currency:            strings.ToLower(input.Currency),
		Status:              input.Status,
		Type:                input.Type,
	}

	created, err := s.repo.Insert(ctx, transaction)
	if err != nil {
		return nil, false, err
	}
	if !created {
		existing, err := s.repo.GetByStripeTransactionID(ctx, input.StripeTransactionID)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	return transaction, true, nil
}

func (s *service) Exists(ctx context.Context, stripeTransactionID string) (bool, error) {
	if strings.TrimSpace(stripeTransactionID) == "" {
		return false, fmt.Errorf("stripe transaction id is required")
	}
	return s.repo.ExistsByStripeTransactionID(ctx, stripeTransactionID)
}

func (s *service) UpdateStatus(ctx context.Context, stripeTransactionID string, status enums.TransactionStatus) error {
	if strings.TrimSpace(stripeTransactionID) == "" {
		return fmt.Errorf("stripe transaction id is required")
	}
	if !status.IsValid() {
		return fmt.Errorf("invalid transaction status %q", status)
	}
	return s.repo.UpdateStatus(ctx, stripeTransactionID, status)
}

func (s *service) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Transaction, error) {
	if sellerID == uuid.Nil {
		return nil, fmt.Errorf("seller id is required")
	}
	return s.repo.ListBySellerID(ctx, sellerID)
}

func (s *service) List(ctx context.Context, limit int) ([]models.Transaction, error) {
	return s.repo.ListAll(ctx, limit)
}
