package rentals

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockplace/stockplace-backend/internal/ledger"
	"github.com/stockplace/stockplace-backend/internal/storagespaces"
	"github.com/stockplace/stockplace-backend/pkg/db/models"
	"github.com/stockplace/stockplace-backend/pkg/enums"
	pkgerrors "github.com/stockplace/stockplace-backend/pkg/errors"
	"github.com/stockplace/stockplace-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines rental lifecycle operations.
type Service interface {
	FulfillSession(ctx context.Context, input FulfillSessionInput) error
	Get(ctx context.Context, id uuid.UUID) (*models.Rental, error)
	ListByRenter(ctx context.Context, renterID uuid.UUID) ([]models.Rental, error)
	ListByStorageSpace(ctx context.Context, storageSpaceID uuid.UUID) ([]models.Rental, error)
	ActivateDue(ctx context.Context, now time.Time) (int64, error)
	ReleaseExpired(ctx context.Context, now time.Time) (int, error)
}

// FulfillSessionInput carries the verified checkout session data for a rental.
type FulfillSessionInput struct {
	SessionID      string
	RenterID       uuid.UUID
	StorageSpaceID uuid.UUID
	SpaceAmount    int
	StartDate      time.Time
	EndDate        time.Time
	AmountCents    int64
	Currency       string
	Now            time.Time
}

// ServiceParams carries the dependencies for NewService.
type ServiceParams struct {
	Repo   Repository
	Spaces storagespaces.Repository
	Ledger ledger.Service
	Tx     txRunner
	Logger *logger.Logger
}

type service struct {
	repo   Repository
	spaces storagespaces.Repository
	ledger ledger.Service
	tx     txRunner
	logg   *logger.Logger
}

// NewService builds a rental service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("rentals repository required")
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
		repo:   params.Repo,
		spaces: params.Spaces,
		ledger: params.Ledger,
		tx:     params.Tx,
		logg:   params.Logger,
	}, nil
}

// FulfillSession reserves the surface, creates the rental, and records the
// ledger entry inside one transaction. The ledger insert doubles as the
// idempotency barrier: a replayed session commits nothing new.
func (s *service) FulfillSession(ctx context.Context, input FulfillSessionInput) error {
	if err := validateFulfillInput(input); err != nil {
		return err
	}

	now := input.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		space, err := s.spaces.WithTx(tx).GetByID(ctx, input.StorageSpaceID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "storage space not found")
		}

		buyerID := input.RenterID
		_, created, err := s.ledger.WithTx(tx).Record(ctx, ledger.RecordTransactionInput{
			StripeTransactionID: input.SessionID,
			BuyerID:             &buyerID,
			SellerID:            space.OwnerID,
			AmountCents:         input.AmountCents,
			Currency:            input.Currency,
			Status:              enums.TransactionStatusSucceeded,
			Type:                enums.TransactionTypeRental,
		})
		if err != nil {
			return err
		}
		if !created {
			s.logg.Info(ctx, "rental session already settled, skipping")
			return nil
		}

		if err := s.spaces.WithTx(tx).ReserveSurface(ctx, input.StorageSpaceID, input.SpaceAmount); err != nil {
			return err
		}

		active := startsOnOrBefore(input.StartDate, now)
		sessionID := input.SessionID
		rental := &models.Rental{
			RenterID:        input.RenterID,
			StorageSpaceID:  input.StorageSpaceID,
			SpaceAmount:     input.SpaceAmount,
			StartDate:       input.StartDate,
			EndDate:         input.EndDate,
			Active:          active,
			Reserved:        !active,
			StripeSessionID: &sessionID,
		}
		return s.repo.WithTx(tx).Create(ctx, rental)
	})
}

func validateFulfillInput(input FulfillSessionInput) error {
	if strings.TrimSpace(input.SessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if input.RenterID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "renter id is required")
	}
	if input.StorageSpaceID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "storage space id is required")
	}
	if input.SpaceAmount <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "space amount must be positive")
	}
	if input.StartDate.IsZero() || input.EndDate.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "rental period is required")
	}
	if !input.EndDate.After(input.StartDate) {
		return pkgerrors.New(pkgerrors.CodeValidation, "end date must follow start date")
	}
	if input.AmountCents <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	return nil
}

func startsOnOrBefore(startDate, now time.Time) bool {
	y1, m1, d1 := startDate.UTC().Date()
	y2, m2, d2 := now.UTC().Date()
	start := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	today := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return !start.After(today)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Rental, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rental id is required")
	}
	rental, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "rental not found")
	}
	return rental, nil
}

func (s *service) ListByRenter(ctx context.Context, renterID uuid.UUID) ([]models.Rental, error) {
	if renterID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "renter id is required")
	}
	return s.repo.ListByRenterID(ctx, renterID)
}

func (s *service) ListByStorageSpace(ctx context.Context, storageSpaceID uuid.UUID) ([]models.Rental, error) {
	if storageSpaceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "storage space id is required")
	}
	return s.repo.ListByStorageSpaceID(ctx, storageSpaceID)
}

// ActivateDue flips reserved rentals whose start date has arrived.
func (s *service) ActivateDue(ctx context.Context, now time.Time) (int64, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	return s.repo.ActivateDue(ctx, now)
}

// ReleaseExpired returns the surface of ended rentals to their spaces. Each
// rental is released in its own transaction so one bad row does not block
// the rest.
func (s *service) ReleaseExpired(ctx context.Context, now time.Time) (int, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}

	expired, err := s.repo.ListExpired(ctx, now)
	if err != nil {
		return 0, err
	}

	released := 0
	for _, rental := range expired {
		rental := rental
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			if err := s.repo.WithTx(tx).MarkReleased(ctx, rental.ID); err != nil {
				return err
			}
			return s.spaces.WithTx(tx).ReleaseSurface(ctx, rental.StorageSpaceID, rental.SpaceAmount)
		})
		if err != nil {
			rctx := s.logg.WithField(ctx, "rental_id", rental.ID.String())
			s.logg.Error(rctx, "releasing expired rental failed", err)
			continue
		}
		released++
	}
	return released, nil
}
