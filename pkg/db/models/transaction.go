package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/stockplace/stockplace-backend/pkg/enums"
)

// Transaction is the ledger record for money movement through the platform.
// StripeTransactionID carries the checkout session or payout identifier and is
// unique, which makes ledger writes safe to replay.
type Transaction struct {
	ID                  uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StripeTransactionID string                  `gorm:"column:stripe_transaction_id;not null;uniqueIndex"`
	BuyerID             *uuid.UUID              `gorm:"column:buyer_id;type:uuid"`
	SellerID            uuid.UUID               `gorm:"column:seller_id;type:uuid;not null"`
	AmountCents         int64                   `gorm:"column:amount_cents;not null"`
	Currency            string                  `gorm:"column:currency;not null"`
	Status              enums.TransactionStatus `gorm:"column:status;type:text;not null"`
	Type                enums.TransactionType   `gorm:"column:type;type:text;not null"`
	Buyer               *User                   `gorm:"foreignKey:BuyerID"`
	Seller              *User                   `gorm:"foreignKey:SellerID"`
	CreatedAt           time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
