package cron

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/testutil"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
)

func TestOutboxRetentionJobUsesCutoff(t *testing.T) {
	now := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	repo := &fakeOutboxPruner{deleted: 7}
	jobIface, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		DB:          passthroughTx{},
		Repository:  repo,
		MaxAttempts: 10,
	})
	require.NoError(t, err)
	job := jobIface.(*outboxRetentionJob)
	job.now = func() time.Time { return now }

	deleted, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), deleted)
	assert.Equal(t, now.Add(-defaultOutboxRetentionDays*24*time.Hour), repo.cutoff)
	assert.Equal(t, 10, repo.maxAttempts)
}

func TestOutboxRetentionJobPropagatesError(t *testing.T) {
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		DB:         passthroughTx{},
		Repository: &fakeOutboxPruner{err: errors.New("boom")},
	})
	require.NoError(t, err)

	_, err = job.Run(context.Background())
	assert.Error(t, err)
}

func TestOutboxRetentionJobPrunesOnlyFinishedRows(t *testing.T) {
	client, db := testutil.OpenClient(t)
	old := time.Now().UTC().Add(-30 * 24 * time.Hour)
	recent := time.Now().UTC().Add(-time.Hour)

	oldPublished := insertOutboxRow(t, db, old, &old, 0)
	recentPublished := insertOutboxRow(t, db, recent, &recent, 0)
	oldPending := insertOutboxRow(t, db, old, nil, 2)
	oldDead := insertOutboxRow(t, db, old, nil, 10)

	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		DB:            client,
		Repository:    outbox.NewRepository(db),
		RetentionDays: 7,
		MaxAttempts:   10,
	})
	require.NoError(t, err)

	deleted, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	var remaining []uuid.UUID
	require.NoError(t, db.Model(&models.OutboxEvent{}).Order("created_at").Pluck("id", &remaining).Error)
	assert.ElementsMatch(t, []uuid.UUID{recentPublished, oldPending}, remaining)
	assert.NotContains(t, remaining, oldPublished)
	assert.NotContains(t, remaining, oldDead)
}

func insertOutboxRow(t *testing.T, db *gorm.DB, createdAt time.Time, publishedAt *time.Time, attempts int) uuid.UUID {
	t.Helper()
	row := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   "1",
		Payload:       json.RawMessage(`{}`),
		CreatedAt:     createdAt,
		PublishedAt:   publishedAt,
		AttemptCount:  attempts,
	}
	require.NoError(t, db.Create(&row).Error)
	return row.ID
}

type fakeOutboxPruner struct {
	cutoff      time.Time
	maxAttempts int
	deleted     int64
	err         error
}

func (f *fakeOutboxPruner) PruneBefore(_ *gorm.DB, cutoff time.Time, maxAttempts int) (int64, error) {
	f.cutoff = cutoff
	f.maxAttempts = maxAttempts
	return f.deleted, f.err
}

type passthroughTx struct{}

func (passthroughTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}
