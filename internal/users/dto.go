package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/stockplace/stockplace-backend/pkg/db/models"
	"github.com/stockplace/stockplace-backend/pkg/enums"
)

// UserDTO is the outward-facing user shape. Password hashes and provider
// identifiers stay internal.
type UserDTO struct {
	ID                        uuid.UUID      `json:"id"`
	Email                     string         `json:"email"`
	FirstName                 string         `json:"first_name"`
	LastName                  string         `json:"last_name"`
	Phone                     *string        `json:"phone,omitempty"`
	Role                      enums.UserRole `json:"role"`
	DeliveryDays              []string       `json:"delivery_days,omitempty"`
	StripeOnboardingCompleted bool           `json:"stripe_onboarding_completed"`
	IsActive                  bool           `json:"is_active"`
	LastLoginAt               *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt                 time.Time      `json:"created_at"`
}

// FromModel maps a stored user onto its DTO.
func FromModel(user *models.User) *UserDTO {
	if user == nil {
		return nil
	}
	return &UserDTO{
		ID:                        user.ID,
		Email:                     user.Email,
		FirstName:                 user.FirstName,
		LastName:                  user.LastName,
		Phone:                     user.Phone,
		Role:                      user.Role,
		DeliveryDays:              user.DeliveryDays,
		StripeOnboardingCompleted: user.StripeOnboardingCompleted,
		IsActive:                  user.IsActive,
		LastLoginAt:               user.LastLoginAt,
		CreatedAt:                 user.CreatedAt,
	}
}
