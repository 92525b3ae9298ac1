//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/guttosm/label-print-service/internal/circuitbreaker"
	"github.com/guttosm/label-print-service/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobArchiveRepositoryWithCircuitBreaker_Integration(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := setupTestDBFromSharedContainer(t)
	defer func() {
		require.NoError(t, db.Close(ctx))
	}()

	cb := circuitbreaker.New(circuitbreaker.DefaultConfig())
	wrapped := NewJobArchiveRepositoryWithCircuitBreaker(NewJobArchiveRepository(db), cb)

	job := archivedJob("cb-1", "batch-cb", model.JobCompleted)
	require.NoError(t, wrapped.Save(ctx, job))

	found, err := wrapped.FindByID(ctx, "cb-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, model.JobCompleted, found.Status)

	stats := cb.GetStats()
	assert.Equal(t, "closed", stats.State)
	assert.True(t, stats.IsHealthy)
}

func TestTransactionRepositoryWithCircuitBreaker_ClosedClient(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := setupTestDBFromSharedContainer(t)
	repo := NewTransactionRepository(db)
	require.NoError(t, db.Close(ctx))

	cb := circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: 2,
		SuccessThreshold: 1,
		Timeout:          time.Minute,
		Name:             "transactions",
	})
	wrapped := NewTransactionRepositoryWithCircuitBreaker(repo, cb)

	for i := 0; i < 2; i++ {
		_, err := wrapped.FindByNumber(ctx, "ACME", "TRX-1")
		assert.Error(t, err)
	}

	_, err := wrapped.FindByNumber(ctx, "ACME", "TRX-1")
	assert.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
}
