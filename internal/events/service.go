package events

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/stockplace/stockplace-backend/pkg/db/models"
)

// Service defines the durable event log operations.
type Service interface {
	Record(ctx context.Context, input RecordEventInput) (*models.WebhookEvent, bool, error)
	MarkProcessed(ctx context.Context, eventID string, processedAt time.Time) error
	MarkFailed(ctx context.Context, eventID string, cause error) error
	ListUnprocessed(ctx context.Context, maxAttempts, limit int) ([]models.WebhookEvent, error)
	WithTx(tx *gorm.DB) Service
}

// RecordEventInput captures a signature-verified provider event.
type RecordEventInput struct {
	EventID    string
	EventType  string
	Payload    []byte
	ReceivedAt time.Time
}

type service struct {
	repo Repository
}

// NewService wires an event service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("events repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	if tx == nil {
		return s
	}
	return &service{repo: s.repo.WithTx(tx)}
}

// Record persists the event before any side effect runs. The boolean result
// reports whether this delivery was the first one for the event ID.
func (s *service) Record(ctx context.Context, input RecordEventInput) (*models.WebhookEvent, bool, error) {
	eventID := strings.TrimSpace(input.EventID)
	if eventID == "" {
		return nil, false, fmt.Errorf("event id is required")
	}
	if strings.TrimSpace(input.EventType) == "" {
		return nil, false, fmt.Errorf("event type is required")
	}
	if len(input.Payload) == 0 {
		return nil, false, fmt.Errorf("event payload is required")
	}

	receivedAt := input.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now().UTC()
	}

	event := &models.WebhookEvent{
		EventID:    eventID,
		EventType:  input.EventType,
		Payload:    input.Payload,
		ReceivedAt: receivedAt,
	}

	created, err := s.repo.Insert(ctx, event)
	if err != nil {
		return nil, false, err
	}
	if !created {
		existing, err := s.repo.GetByEventID(ctx, eventID)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	return event, true, nil
}

func (s *service) MarkProcessed(ctx context.Context, eventID string, processedAt time.Time) error {
	if strings.TrimSpace(eventID) == "" {
		return fmt.Errorf("event id is required")
	}
	if processedAt.IsZero() {
		processedAt = time.Now().UTC()
	}
	return s.repo.MarkProcessed(ctx, eventID, processedAt)
}

func (s *service) MarkFailed(ctx context.Context, eventID string, cause error) error {
	if strings.TrimSpace(eventID) == "" {
		return fmt.Errorf("event id is required")
	}
	message := "unknown failure"
	if cause != nil {
		message = cause.Error()
	}
	return s.repo.MarkFailed(ctx, eventID, message)
}

func (s *service) ListUnprocessed(ctx context.Context, maxAttempts, limit int) ([]models.WebhookEvent, error) {
	return s.repo.ListUnprocessed(ctx, maxAttempts, limit)
}
