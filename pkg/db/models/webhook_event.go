package models

import (
	"time"

	"github.com/google/uuid"
)

// WebhookEvent persists every signature-verified provider event before any
// side effect runs. ProcessedAt stays nil until dispatch succeeds so the
// replay sweep can pick the row back up.
type WebhookEvent struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventID     string     `gorm:"column:event_id;not null;uniqueIndex"`
	EventType   string     `gorm:"column:event_type;not null"`
	Payload     []byte     `gorm:"column:payload;type:jsonb;not null"`
	ReceivedAt  time.Time  `gorm:"column:received_at;not null"`
	ProcessedAt *time.Time `gorm:"column:processed_at"`
	Attempts    int        `gorm:"column:attempts;not null;default:0"`
	LastError   *string    `gorm:"column:last_error"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
