package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/stockplace/stockplace-backend/pkg/logger"
)

type rentalActivator interface {
	ActivateDue(ctx context.Context, now time.Time) (int64, error)
}

// RentalActivationJobParams configures the scheduled rental activation.
type RentalActivationJobParams struct {
	Logger   *logger.Logger
	Rentals  rentalActivator
	Interval time.Duration
}

type rentalActivationJob struct {
	logg     *logger.Logger
	rentals  rentalActivator
	interval time.Duration
	now      func() time.Time
}

// NewRentalActivationJob constructs the job that flips reserved rentals to
// active once their start date arrives.
func NewRentalActivationJob(params RentalActivationJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Rentals == nil {
		return nil, fmt.Errorf("rentals service required")
	}
	interval := params.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	return &rentalActivationJob{
		logg:     params.Logger,
		rentals:  params.Rentals,
		interval: interval,
		now:      time.Now,
	}, nil
}

func (j *rentalActivationJob) Name() string { return "rental-activation" }

func (j *rentalActivationJob) Interval() time.Duration { return j.interval }

func (j *rentalActivationJob) Run(ctx context.Context) error {
	activated, err := j.rentals.ActivateDue(ctx, j.now().UTC())
	if err != nil {
		return fmt.Errorf("activate due rentals: %w", err)
	}
	if activated > 0 {
		j.logg.Info(ctx, fmt.Sprintf("activated %d rentals", activated))
	}
	return nil
}
