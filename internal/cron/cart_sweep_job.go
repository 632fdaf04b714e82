package cron

import (
	"context"
	"fmt"
	"time"
)

const defaultCartRetentionDays = 30

type emptyCartSweeper interface {
	DeleteEmptyBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type CartSweepJobParams struct {
	Repository    emptyCartSweeper
	RetentionDays int
}

type cartSweepJob struct {
	repo      emptyCartSweeper
	retention time.Duration
	now       func() time.Time
}

// NewCartSweepJob removes carts that have been empty since before the
// retention window.
func NewCartSweepJob(params CartSweepJobParams) (Job, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	days := params.RetentionDays
	if days <= 0 {
		days = defaultCartRetentionDays
	}
	return &cartSweepJob{
		repo:      params.Repository,
		retention: time.Duration(days) * 24 * time.Hour,
		now:       time.Now,
	}, nil
}

func (j *cartSweepJob) Name() string { return "empty-cart-sweep" }

func (j *cartSweepJob) Run(ctx context.Context) (int64, error) {
	deleted, err := j.repo.DeleteEmptyBefore(ctx, j.now().UTC().Add(-j.retention))
	if err != nil {
		return 0, fmt.Errorf("cart sweep: %w", err)
	}
	return deleted, nil
}
