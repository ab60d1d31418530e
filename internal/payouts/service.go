package payouts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockplace/stockplace-backend/internal/ledger"
	"github.com/stockplace/stockplace-backend/internal/users"
	"github.com/stockplace/stockplace-backend/pkg/db/models"
	"github.com/stockplace/stockplace-backend/pkg/enums"
	pkgerrors "github.com/stockplace/stockplace-backend/pkg/errors"
	"github.com/stockplace/stockplace-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines payout tracking operations.
type Service interface {
	HandlePayoutEvent(ctx context.Context, input PayoutEventInput) error
	Get(ctx context.Context, stripePayoutID string) (*models.Payout, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Payout, error)
	List(ctx context.Context, limit int) ([]models.Payout, error)
}

// PayoutEventInput carries the provider payout data for created, paid, and
// failed notifications alike.
type PayoutEventInput struct {
	StripePayoutID  string
	StripeAccountID string
	AmountCents     int64
	Currency        string
	StripeStatus    string
	ArrivalDate     *time.Time
	FailureMessage  *string
}

// ServiceParams carries the dependencies for NewService.
type ServiceParams struct {
	Repo   Repository
	Users  users.Service
	Ledger ledger.Service
	Tx     txRunner
	Logger *logger.Logger
}

type service struct {
	repo   Repository
	users  users.Service
	ledger ledger.Service
	tx     txRunner
	logg   *logger.Logger
}

// NewService builds a payout service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("payouts repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users service required")
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
		repo:   params.Repo,
		users:  params.Users,
		ledger: params.Ledger,
		tx:     params.Tx,
		logg:   params.Logger,
	}, nil
}

// HandlePayoutEvent upserts the payout row and keeps the payout ledger entry
// in step with it. When the connected account does not resolve to a known
// user the payout is still stored for later reconciliation, but no ledger
// entry is written.
func (s *service) HandlePayoutEvent(ctx context.Context, input PayoutEventInput) error {
	if err := validatePayoutInput(input); err != nil {
		return err
	}

	status := enums.PayoutStatusFromStripe(input.StripeStatus)

	user, err := s.users.ResolveStripeAccount(ctx, input.StripeAccountID)
	if err != nil {
		return err
	}

	var userID *uuid.UUID
	if user != nil {
		id := user.ID
		userID = &id
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		// A created notification can land after paid or failed. Terminal
		// statuses never move back to pending.
		existing, err := s.repo.WithTx(tx).GetByStripePayoutID(ctx, input.StripePayoutID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if existing != nil && status == enums.PayoutStatusPending && existing.Status != enums.PayoutStatusPending {
			status = existing.Status
		}
		if existing != nil && input.ArrivalDate == nil {
			input.ArrivalDate = existing.ArrivalDate
		}
		if existing != nil && input.FailureMessage == nil {
			input.FailureMessage = existing.FailureMessage
		}

		payout := &models.Payout{
			StripePayoutID:  input.StripePayoutID,
			StripeAccountID: input.StripeAccountID,
			UserID:          userID,
			AmountCents:     input.AmountCents,
			Currency:        strings.ToLower(input.Currency),
			Status:          status,
			ArrivalDate:     input.ArrivalDate,
			FailureMessage:  input.FailureMessage,
		}
		if err := s.repo.WithTx(tx).Upsert(ctx, payout); err != nil {
			return err
		}

		if user == nil {
			actx := s.logg.WithField(ctx, "stripe_account_id", input.StripeAccountID)
			s.logg.Warn(actx, "payout for unknown connected account, ledger entry skipped")
			return nil
		}

		txStatus := transactionStatusFor(status)
		_, created, err := s.ledger.WithTx(tx).Record(ctx, ledger.RecordTransactionInput{
			StripeTransactionID: input.StripePayoutID,
			SellerID:            user.ID,
			AmountCents:         input.AmountCents,
			Currency:            input.Currency,
			Status:              txStatus,
			Type:                enums.TransactionTypePayout,
		})
		if err != nil {
			return err
		}
		if !created {
			return s.ledger.WithTx(tx).UpdateStatus(ctx, input.StripePayoutID, txStatus)
		}
		return nil
	})
}

func validatePayoutInput(input PayoutEventInput) error {
	if strings.TrimSpace(input.StripePayoutID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe payout id is required")
	}
	if strings.TrimSpace(input.StripeAccountID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe account id is required")
	}
	if input.AmountCents <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if strings.TrimSpace(input.Currency) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "currency is required")
	}
	return nil
}

func transactionStatusFor(status enums.PayoutStatus) enums.TransactionStatus {
	switch status {
	case enums.PayoutStatusPaid:
		return enums.TransactionStatusSucceeded
	case enums.PayoutStatusFailed:
		return enums.TransactionStatusFailed
	default:
		return enums.TransactionStatusPending
	}
}

func (s *service) Get(ctx context.Context, stripePayoutID string) (*models.Payout, error) {
	if strings.TrimSpace(stripePayoutID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stripe payout id is required")
	}
	payout, err := s.repo.GetByStripePayoutID(ctx, stripePayoutID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "payout not found")
	}
	return payout, nil
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Payout, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return s.repo.ListByUserID(ctx, userID)
}

func (s *service) List(ctx context.Context, limit int) ([]models.Payout, error) {
	return s.repo.ListAll(ctx, limit)
}
