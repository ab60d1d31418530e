package auth

import (
	"github.com/stockplace/stockplace-backend/internal/users"
)

// RegisterRequest captures the fields accepted by the register endpoint.
type RegisterRequest struct {
	Email        string   `json:"email" validate:"required,email"`
	Password     string   `json:"password" validate:"required,min=8"`
	FirstName    string   `json:"first_name" validate:"required"`
	LastName     string   `json:"last_name" validate:"required"`
	Phone        *string  `json:"phone,omitempty"`
	Role         string   `json:"role" validate:"required"`
	DeliveryDays []string `json:"delivery_days,omitempty"`
}

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse contains the token and user produced by a successful login
// or registration.
type AuthResponse struct {
	AccessToken string         `json:"access_token"`
	User        *users.UserDTO `json:"user"`
}
