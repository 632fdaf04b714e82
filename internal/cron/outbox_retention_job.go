package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

const defaultOutboxRetentionDays = 14

type outboxPruner interface {
	PruneBefore(tx *gorm.DB, cutoff time.Time, maxAttempts int) (int64, error)
}

type OutboxRetentionJobParams struct {
	DB            txRunner
	Repository    outboxPruner
	RetentionDays int
	// MaxAttempts matches the publisher; unpublished rows at this count are dead.
	MaxAttempts int
}

type outboxRetentionJob struct {
	db          txRunner
	repo        outboxPruner
	retention   time.Duration
	maxAttempts int
	now         func() time.Time
}

func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	days := params.RetentionDays
	if days <= 0 {
		days = defaultOutboxRetentionDays
	}
	return &outboxRetentionJob{
		db:          params.DB,
		repo:        params.Repository,
		retention:   time.Duration(days) * 24 * time.Hour,
		maxAttempts: params.MaxAttempts,
		now:         time.Now,
	}, nil
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

func (j *outboxRetentionJob) Run(ctx context.Context) (int64, error) {
	cutoff := j.now().UTC().Add(-j.retention)
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.repo.PruneBefore(tx, cutoff, j.maxAttempts)
		deleted = rows
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("outbox retention: %w", err)
	}
	return deleted, nil
}
