package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/stockplace/stockplace-backend/pkg/enums"
)

// Payout mirrors a provider payout toward a seller's connected account.
// Rows are upserted by StripePayoutID so created/paid/failed events can
// arrive in any order.
type Payout struct {
	ID              uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StripePayoutID  string             `gorm:"column:stripe_payout_id;not null;uniqueIndex"`
	StripeAccountID string             `gorm:"column:stripe_account_id;not null"`
	UserID          *uuid.UUID         `gorm:"column:user_id;type:uuid"`
	AmountCents     int64              `gorm:"column:amount_cents;not null"`
	Currency        string             `gorm:"column:currency;not null"`
	Status          enums.PayoutStatus `gorm:"column:status;type:text;not null"`
	ArrivalDate     *time.Time         `gorm:"column:arrival_date"`
	FailureMessage  *string            `gorm:"column:failure_message"`
	User            *User              `gorm:"foreignKey:UserID"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
