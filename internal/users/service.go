package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	pkgdb "github.com/stockplace/stockplace-backend/pkg/db"
	"github.com/stockplace/stockplace-backend/pkg/db/models"
	"github.com/stockplace/stockplace-backend/pkg/enums"
	pkgerrors "github.com/stockplace/stockplace-backend/pkg/errors"
)

// Service defines user account operations.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ResolveStripeAccount(ctx context.Context, stripeAccountID string) (*models.User, error)
	CompleteStripeOnboarding(ctx context.Context, stripeAccountID string) (bool, error)
	UpdateProfile(ctx context.Context, input UpdateProfileInput) (*models.User, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID) error
}

// RegisterInput captures the fields for a new account. PasswordHash must
// already be encoded by the caller.
type RegisterInput struct {
	Email           string
	PasswordHash    string
	FirstName       string
	LastName        string
	Phone           *string
	Role            enums.UserRole
	DeliveryDays    []string
	StripeAccountID *string
}

// UpdateProfileInput captures user-editable profile fields.
type UpdateProfileInput struct {
	ID           uuid.UUID
	Phone        *string
	DeliveryDays []string
}

type service struct {
	repo Repository
}

// NewService wires a user service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if input.PasswordHash == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password hash is required")
	}
	if strings.TrimSpace(input.FirstName) == "" || strings.TrimSpace(input.LastName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "first and last name are required")
	}
	if !input.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid user role")
	}

	user := &models.User{
		Email:           email,
		PasswordHash:    input.PasswordHash,
		FirstName:       strings.TrimSpace(input.FirstName),
		LastName:        strings.TrimSpace(input.LastName),
		Phone:           input.Phone,
		Role:            input.Role,
		DeliveryDays:    pq.StringArray(input.DeliveryDays),
		StripeAccountID: input.StripeAccountID,
		IsActive:        true,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if pkgdb.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}
	return user, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "user not found")
	}
	return user, nil
}

func (s *service) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "user not found")
	}
	return user, nil
}

// ResolveStripeAccount returns the user owning the connected account, or nil
// when no user carries it.
func (s *service) ResolveStripeAccount(ctx context.Context, stripeAccountID string) (*models.User, error) {
	if strings.TrimSpace(stripeAccountID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stripe account id is required")
	}
	user, err := s.repo.GetByStripeAccountID(ctx, stripeAccountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// CompleteStripeOnboarding marks the connected account as ready to receive
// payouts. The boolean result reports whether any user matched.
func (s *service) CompleteStripeOnboarding(ctx context.Context, stripeAccountID string) (bool, error) {
	if strings.TrimSpace(stripeAccountID) == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "stripe account id is required")
	}
	matched, err := s.repo.SetStripeOnboarding(ctx, stripeAccountID, true)
	if err != nil {
		return false, err
	}
	return matched > 0, nil
}

func (s *service) UpdateProfile(ctx context.Context, input UpdateProfileInput) (*models.User, error) {
	user, err := s.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Phone != nil {
		user.Phone = input.Phone
	}
	if input.DeliveryDays != nil {
		user.DeliveryDays = pq.StringArray(input.DeliveryDays)
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user")
	}
	return user, nil
}

func (s *service) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return s.repo.TouchLastLogin(ctx, id, time.Now().UTC())
}
