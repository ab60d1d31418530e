package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/stockplace/stockplace-backend/pkg/enums"
)

// Order represents a fulfilled product purchase awaiting collection.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber     int64             `gorm:"column:order_number;not null;uniqueIndex"`
	BuyerID         uuid.UUID         `gorm:"column:buyer_id;type:uuid;not null"`
	SellerID        uuid.UUID         `gorm:"column:seller_id;type:uuid;not null"`
	ProductID       uuid.UUID         `gorm:"column:product_id;type:uuid;not null"`
	StorageSpaceID  uuid.UUID         `gorm:"column:storage_space_id;type:uuid;not null"`
	Quantity        int               `gorm:"column:quantity;not null"`
	UnitPriceCents  int               `gorm:"column:unit_price_cents;not null"`
	TotalPriceCents int               `gorm:"column:total_price_cents;not null"`
	Status          enums.OrderStatus `gorm:"column:status;type:text;not null;default:to_collect"`
	StripeSessionID string            `gorm:"column:stripe_session_id;not null;uniqueIndex"`
	Buyer           *User             `gorm:"foreignKey:BuyerID"`
	Seller          *User             `gorm:"foreignKey:SellerID"`
	Product         *Product          `gorm:"foreignKey:ProductID"`
	StorageSpace    *StorageSpace     `gorm:"foreignKey:StorageSpaceID"`
	CollectedAt     *time.Time        `gorm:"column:collected_at"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderCounter backs deterministic order number allocation. A single row is
// incremented inside the fulfillment transaction.
type OrderCounter struct {
	ID    int   `gorm:"column:id;primaryKey"`
	Value int64 `gorm:"column:value;not null"`
}
