package models

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a supplier listing stored inside a rented space.
type Product struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SupplierID    uuid.UUID `gorm:"column:supplier_id;type:uuid;not null"`
	RentalID      uuid.UUID `gorm:"column:rental_id;type:uuid;not null"`
	ProductName   string    `gorm:"column:product_name;type:text;not null;uniqueIndex"`
	Description   *string   `gorm:"column:description"`
	StockQuantity int       `gorm:"column:stock_quantity;not null"`
	PriceCents    int       `gorm:"column:price_cents;not null"`
	IsActive      bool      `gorm:"column:is_active;not null;default:true"`
	Supplier      *User     `gorm:"foreignKey:SupplierID"`
	Rental        *Rental   `gorm:"foreignKey:RentalID"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
