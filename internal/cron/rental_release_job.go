package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/stockplace/stockplace-backend/pkg/logger"
)

type rentalReleaser interface {
	ReleaseExpired(ctx context.Context, now time.Time) (int, error)
}

// RentalReleaseJobParams configures the scheduled surface release.
type RentalReleaseJobParams struct {
	Logger   *logger.Logger
	Rentals  rentalReleaser
	Interval time.Duration
}

type rentalReleaseJob struct {
	logg     *logger.Logger
	rentals  rentalReleaser
	interval time.Duration
	now      func() time.Time
}

// NewRentalReleaseJob constructs the job that returns the surface of ended
// rentals to their storage spaces.
func NewRentalReleaseJob(params RentalReleaseJobParams) (Job, error) {
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
	return &rentalReleaseJob{
		logg:     params.Logger,
		rentals:  params.Rentals,
		interval: interval,
		now:      time.Now,
	}, nil
}

func (j *rentalReleaseJob) Name() string { return "rental-release" }

func (j *rentalReleaseJob) Interval() time.Duration { return j.interval }

func (j *rentalReleaseJob) Run(ctx context.Context) error {
	released, err := j.rentals.ReleaseExpired(ctx, j.now().UTC())
	if err != nil {
		return fmt.Errorf("release expired rentals: %w", err)
	}
	if released > 0 {
		j.logg.Info(ctx, fmt.Sprintf("released %d expired rentals", released))
	}
	return nil
}
