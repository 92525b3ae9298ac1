//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/guttosm/label-print-service/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func archivedJob(id, batchID string, status model.JobStatus) *model.PrintJob {
	created := time.Now().UTC().Truncate(time.Millisecond)
	started := created.Add(time.Second)
	completed := started.Add(3 * time.Second)
	return &model.PrintJob{
		ID:            id,
		TransactionNo: "TRX-" + id,
		Company:       "ACME",
		PrinterName:   "zebra-1",
		BatchID:       batchID,
		Labels: []model.QRLabel{
			{BoxNumber: 1, Article: "Basmati rice", Encoded: "LP1|ACME|2024-05-01|~"},
			{BoxNumber: 2, Article: "Basmati rice", Encoded: "LP1|ACME|2024-05-01|~"},
		},
		Settings:    model.DefaultPrintSettings(),
		Status:      status,
		Progress:    100,
		CreatedAt:   created,
		StartedAt:   &started,
		CompletedAt: &completed,
	}
}

func TestJobArchiveRepository_Integration(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := setupTestDBFromSharedContainer(t)
	defer func() {
		require.NoError(t, db.Close(ctx))
	}()
	require.NoError(t, db.SetPrintJobsTTL(ctx, 30))

	repo := NewJobArchiveRepository(db)

	t.Run("save and find", func(t *testing.T) {
		job := archivedJob("100", "batch-1", model.JobCompleted)
		require.NoError(t, repo.Save(ctx, job))

		found, err := repo.FindByID(ctx, "100")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, job.TransactionNo, found.TransactionNo)
		assert.Equal(t, model.JobCompleted, found.Status)
		assert.Len(t, found.Labels, 2)
		assert.Equal(t, job.Settings, found.Settings)
		require.NotNil(t, found.CompletedAt)
		assert.True(t, job.CompletedAt.Equal(*found.CompletedAt))
	})

	t.Run("save is idempotent", func(t *testing.T) {
		job := archivedJob("101", "batch-1", model.JobFailed)
		require.NoError(t, repo.Save(ctx, job))
		job.ErrorMessage = "paper out"
		require.NoError(t, repo.Save(ctx, job))

		found, err := repo.FindByID(ctx, "101")
		require.NoError(t, err)
		assert.Equal(t, "paper out", found.ErrorMessage)
	})

	t.Run("missing job", func(t *testing.T) {
		found, err := repo.FindByID(ctx, "does-not-exist")
		assert.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("find by batch", func(t *testing.T) {
		jobs, err := repo.FindByBatch(ctx, "batch-1")
		require.NoError(t, err)
		require.Len(t, jobs, 2)
		assert.Equal(t, "100", jobs[0].ID)
	})
}
