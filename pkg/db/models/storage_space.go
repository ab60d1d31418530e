package models

import (
	"time"

	"github.com/google/uuid"
)

// StorageSpace represents a lessor's rentable surface listing.
// Surfaces are tracked in whole square meters; the available and rented
// counters always sum to the total.
type StorageSpace struct {
	ID               uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID          uuid.UUID `gorm:"column:owner_id;type:uuid;not null"`
	Name             string    `gorm:"column:name;type:text;not null;uniqueIndex"`
	Description      *string   `gorm:"column:description"`
	Address          string    `gorm:"column:address;not null"`
	TotalSurface     int       `gorm:"column:total_surface;not null"`
	AvailableSurface int       `gorm:"column:available_surface;not null"`
	RentedSurface    int       `gorm:"column:rented_surface;not null;default:0"`
	PriceCentsPerDay int       `gorm:"column:price_cents_per_day;not null"`
	IsActive         bool      `gorm:"column:is_active;not null;default:true"`
	Owner            *User     `gorm:"foreignKey:OwnerID"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
