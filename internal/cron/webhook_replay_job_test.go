package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/stockplace/stockplace-backend/pkg/db/models"
)

type stubUnprocessedLister struct {
	events []models.WebhookEvent
	err    error
}

func (s *stubUnprocessedLister) ListUnprocessed(ctx context.Context, maxAttempts, limit int) ([]models.WebhookEvent, error) {
	return s.events, s.err
}

type stubEventReplayer struct {
	failFor  map[string]error
	replayed []string
}

func (s *stubEventReplayer) Replay(ctx context.Context, stored *models.WebhookEvent) error {
	if err, ok := s.failFor[stored.EventID]; ok {
		return err
	}
	s.replayed = append(s.replayed, stored.EventID)
	return nil
}

func TestWebhookReplayJobContinuesPastFailures(t *testing.T) {
	lister := &stubUnprocessedLister{events: []models.WebhookEvent{
		{EventID: "evt_a"},
		{EventID: "evt_b"},
		{EventID: "evt_c"},
	}}
	replayer := &stubEventReplayer{failFor: map[string]error{"evt_b": errors.New("still failing")}}

	job, err := NewWebhookReplayJob(WebhookReplayJobParams{
		Logger:   testLogger(),
		Events:   lister,
		Webhooks: replayer,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}

	runErr := job.Run(context.Background())
	if runErr == nil {
		t.Fatal("expected combined error for the failed replay")
	}
	if len(replayer.replayed) != 2 {
		t.Fatalf("expected 2 replayed events, got %d", len(replayer.replayed))
	}
	if replayer.replayed[0] != "evt_a" || replayer.replayed[1] != "evt_c" {
		t.Fatalf("unexpected replay order: %v", replayer.replayed)
	}
}

func TestWebhookReplayJobNoPendingIsQuiet(t *testing.T) {
	job, err := NewWebhookReplayJob(WebhookReplayJobParams{
		Logger:   testLogger(),
		Events:   &stubUnprocessedLister{},
		Webhooks: &stubEventReplayer{},
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run with no pending events: %v", err)
	}
}
