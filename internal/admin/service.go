package admin

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/stockplace/stockplace-backend/internal/ledger"
	"github.com/stockplace/stockplace-backend/internal/users"
	"github.com/stockplace/stockplace-backend/pkg/db/models"
	pkgerrors "github.com/stockplace/stockplace-backend/pkg/errors"
	"github.com/stockplace/stockplace-backend/pkg/logger"
	"github.com/stockplace/stockplace-backend/pkg/pagination"
)

const recentTransactionsLimit = 20

// Service defines the admin dashboard operations.
type Service interface {
	Dashboard(ctx context.Context) (*DashboardSummary, error)
	ListUsers(ctx context.Context, params pagination.Params) (*UserPage, error)
	DeleteEntity(ctx context.Context, entityType string, id uuid.UUID) error
	UpdateUser(ctx context.Context, input users.UpdateProfileInput) (*users.UserDTO, error)
}

// UserPage is one page of accounts plus the cursor for the next one.
type UserPage struct {
	Users      []*users.UserDTO `json:"users"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// DashboardSummary aggregates marketplace activity for the admin view.
type DashboardSummary struct {
	Counts             EntityCounts         `json:"counts"`
	RecentTransactions []models.Transaction `json:"recent_transactions"`
}

// ServiceParams carries the dependencies for NewService.
type ServiceParams struct {
	Repo   Repository
	Users  users.Service
	Ledger ledger.Service
	Logger *logger.Logger
}

type service struct {
	repo   Repository
	users  users.Service
	ledger ledger.Service
	logg   *logger.Logger
}

// NewService builds an admin service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("admin repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users service required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:   params.Repo,
		users:  params.Users,
		ledger: params.Ledger,
		logg:   params.Logger,
	}, nil
}

func (s *service) Dashboard(ctx context.Context) (*DashboardSummary, error) {
	counts, err := s.repo.Counts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count entities")
	}
	recent, err := s.ledger.List(ctx, recentTransactionsLimit)
	if err != nil {
		return nil, err
	}
	return &DashboardSummary{
		Counts:             counts,
		RecentTransactions: recent,
	}, nil
}

func (s *service) ListUsers(ctx context.Context, params pagination.Params) (*UserPage, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	list, err := s.repo.ListUsers(ctx, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}

	page := &UserPage{Users: make([]*users.UserDTO, 0, len(list))}
	if len(list) > limit {
		list = list[:limit]
		last := list[len(list)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	for i := range list {
		page.Users = append(page.Users, users.FromModel(&list[i]))
	}
	return page, nil
}

// DeleteEntity removes one row of the named type. Ledger transactions and
// orders are immutable records and cannot be deleted here.
func (s *service) DeleteEntity(ctx context.Context, entityType string, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "entity id is required")
	}

	var (
		affected int64
		err      error
	)
	switch strings.ToLower(strings.TrimSpace(entityType)) {
	case "user":
		affected, err = s.repo.DeleteUser(ctx, id)
	case "storage_space":
		affected, err = s.repo.DeleteStorageSpace(ctx, id)
	case "product":
		affected, err = s.repo.DeleteProduct(ctx, id)
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown entity type "+entityType)
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete "+entityType)
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, entityType+" not found")
	}

	s.logg.Info(s.logg.WithField(ctx, "entity_id", id.String()), "admin deleted "+entityType)
	return nil
}

func (s *service) UpdateUser(ctx context.Context, input users.UpdateProfileInput) (*users.UserDTO, error) {
	user, err := s.users.UpdateProfile(ctx, input)
	if err != nil {
		return nil, err
	}
	return users.FromModel(user), nil
}
