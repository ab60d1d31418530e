package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/stockplace/stockplace-backend/pkg/db/models"
	"github.com/stockplace/stockplace-backend/pkg/logger"
)

type unprocessedLister interface {
	ListUnprocessed(ctx context.Context, maxAttempts, limit int) ([]models.WebhookEvent, error)
}

type eventReplayer interface {
	Replay(ctx context.Context, stored *models.WebhookEvent) error
}

// WebhookReplayJobParams configures the reconciliation sweep.
type WebhookReplayJobParams struct {
	Logger      *logger.Logger
	Events      unprocessedLister
	Webhooks    eventReplayer
	MaxAttempts int
	BatchSize   int
	Interval    time.Duration
}

type webhookReplayJob struct {
	logg        *logger.Logger
	events      unprocessedLister
	webhooks    eventReplayer
	maxAttempts int
	batchSize   int
	interval    time.Duration
}

// NewWebhookReplayJob constructs the sweep that re-dispatches events whose
// side effects have not landed yet. Replays lean on the ledger barrier, so
// an event that half-succeeded before commits nothing twice.
func NewWebhookReplayJob(params WebhookReplayJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Events == nil {
		return nil, fmt.Errorf("events service required")
	}
	if params.Webhooks == nil {
		return nil, fmt.Errorf("webhook service required")
	}
	maxAttempts := params.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}
	interval := params.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &webhookReplayJob{
		logg:        params.Logger,
		events:      params.Events,
		webhooks:    params.Webhooks,
		maxAttempts: maxAttempts,
		batchSize:   batchSize,
		interval:    interval,
	}, nil
}

func (j *webhookReplayJob) Name() string { return "webhook-replay" }

func (j *webhookReplayJob) Interval() time.Duration { return j.interval }

func (j *webhookReplayJob) Run(ctx context.Context) error {
	pending, err := j.events.ListUnprocessed(ctx, j.maxAttempts, j.batchSize)
	if err != nil {
		return fmt.Errorf("list unprocessed events: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	var errs error
	replayed := 0
	for i := range pending {
		stored := pending[i]
		ectx := j.logg.WithEventID(ctx, stored.EventID)
		if err := j.webhooks.Replay(ectx, &stored); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("replay %s: %w", stored.EventID, err))
			continue
		}
		replayed++
	}

	j.logg.Info(ctx, fmt.Sprintf("replayed %d of %d pending events", replayed, len(pending)))
	return errs
}
