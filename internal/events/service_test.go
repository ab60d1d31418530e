package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/stockplace/stockplace-backend/pkg/db/models"
)

type stubRepo struct {
	inserted  []*models.WebhookEvent
	created   bool
	existing  *models.WebhookEvent
	failedID  string
	failedMsg string
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Insert(ctx context.Context, event *models.WebhookEvent) (bool, error) {
	s.inserted = append(s.inserted, event)
	return s.created, nil
}

func (s *stubRepo) GetByEventID(ctx context.Context, eventID string) (*models.WebhookEvent, error) {
	if s.existing == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.existing, nil
}

func (s *stubRepo) MarkProcessed(ctx context.Context, eventID string, processedAt time.Time) error {
	return nil
}

func (s *stubRepo) MarkFailed(ctx context.Context, eventID string, cause string) error {
	s.failedID = eventID
	s.failedMsg = cause
	return nil
}

func (s *stubRepo) ListUnprocessed(ctx context.Context, maxAttempts, limit int) ([]models.WebhookEvent, error) {
	return nil, nil
}

func TestRecordRejectsIncompleteInput(t *testing.T) {
	svc, err := NewService(&stubRepo{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	cases := []RecordEventInput{
		{EventType: "payout.paid", Payload: []byte("{}")},
		{EventID: "evt_1", Payload: []byte("{}")},
		{EventID: "evt_1", EventType: "payout.paid"},
	}
	for _, input := range cases {
		if _, _, err := svc.Record(context.Background(), input); err == nil {
			t.Fatalf("expected validation error for %+v", input)
		}
	}
}

func TestRecordReturnsFirstDeliveryFlag(t *testing.T) {
	repo := &stubRepo{created: true}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	event, first, err := svc.Record(context.Background(), RecordEventInput{
		EventID:   "evt_1",
		EventType: "checkout.session.completed",
		Payload:   []byte(`{"id":"evt_1"}`),
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if !first {
		t.Fatal("expected first delivery flag")
	}
	if event.ReceivedAt.IsZero() {
		t.Fatal("expected received_at to be stamped")
	}
}

func TestRecordDuplicateReturnsStoredRow(t *testing.T) {
	stored := &models.WebhookEvent{EventID: "evt_1", EventType: "payout.failed"}
	repo := &stubRepo{created: false, existing: stored}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	event, first, err := svc.Record(context.Background(), RecordEventInput{
		EventID:   "evt_1",
		EventType: "payout.failed",
		Payload:   []byte("{}"),
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if first {
		t.Fatal("expected duplicate delivery to be flagged")
	}
	if event != stored {
		t.Fatal("expected the stored row to be returned")
	}
}

func TestMarkFailedDefaultsMessage(t *testing.T) {
	repo := &stubRepo{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if err := svc.MarkFailed(context.Background(), "evt_1", errors.New("ledger write failed")); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if repo.failedMsg != "ledger write failed" {
		t.Fatalf("unexpected message %q", repo.failedMsg)
	}

	if err := svc.MarkFailed(context.Background(), "evt_1", nil); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if repo.failedMsg != "unknown failure" {
		t.Fatalf("unexpected fallback message %q", repo.failedMsg)
	}
}
