package models

import (
	"time"

	"github.com/google/uuid"
)

// Rental represents a renter's hold on part of a storage space.
// A rental is reserved until its start date, active between start and end,
// and released once the end date passes.
type Rental struct {
	ID              uuid.UUID     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RenterID        uuid.UUID     `gorm:"column:renter_id;type:uuid;not null"`
	StorageSpaceID  uuid.UUID     `gorm:"column:storage_space_id;type:uuid;not null"`
	SpaceAmount     int           `gorm:"column:space_amount;not null"`
	StartDate       time.Time     `gorm:"column:start_date;not null"`
	EndDate         time.Time     `gorm:"column:end_date;not null"`
	Active          bool          `gorm:"column:active;not null;default:false"`
	Reserved        bool          `gorm:"column:reserved;not null;default:true"`
	Released        bool          `gorm:"column:released;not null;default:false"`
	StripeSessionID *string       `gorm:"column:stripe_session_id;uniqueIndex"`
	Renter          *User         `gorm:"foreignKey:RenterID"`
	StorageSpace    *StorageSpace `gorm:"foreignKey:StorageSpaceID"`
	CreatedAt       time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}
