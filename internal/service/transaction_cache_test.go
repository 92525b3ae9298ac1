//go:build !integration

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/guttosm/label-print-service/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingSource counts reads reaching the backing source.
type countingSource struct {
	*MemoryTransactionSource
	gets   int
	putErr error
}

func (s *countingSource) Get(ctx context.Context, company, transactionNo string) (model.Transaction, error) {
	s.gets++
	return s.MemoryTransactionSource.Get(ctx, company, transactionNo)
}

func (s *countingSource) Put(ctx context.Context, tx model.Transaction) error {
	if s.putErr != nil {
		return s.putErr
	}
	return s.MemoryTransactionSource.Put(ctx, tx)
}

func newCountingSource(t *testing.T, txs ...model.Transaction) *countingSource {
	t.Helper()
	s := &countingSource{MemoryTransactionSource: NewMemoryTransactionSource()}
	for _, tx := range txs {
		require.NoError(t, s.MemoryTransactionSource.Put(context.Background(), tx))
	}
	return s
}

func TestCachedTransactionSource_Get(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		run       func(*CachedTransactionSource)
		wantGets  int
		wantStats CacheStats
	}{
		{
			name: "second read is a hit",
			run: func(c *CachedTransactionSource) {
				_, _ = c.Get(ctx, "ACME", "TRX-1")
				_, _ = c.Get(ctx, "ACME", "TRX-1")
			},
			wantGets:  1,
			wantStats: CacheStats{Hits: 1, Misses: 1, Size: 1, Capacity: 2},
		},
		{
			name: "unknown transactions are not cached",
			run: func(c *CachedTransactionSource) {
				_, _ = c.Get(ctx, "ACME", "TRX-404")
				_, _ = c.Get(ctx, "ACME", "TRX-404")
			},
			wantGets:  2,
			wantStats: CacheStats{Misses: 2, Capacity: 2},
		},
		{
			name: "least recently used entry is evicted",
			run: func(c *CachedTransactionSource) {
				_, _ = c.Get(ctx, "ACME", "TRX-1")
				_, _ = c.Get(ctx, "ACME", "TRX-2")
				_, _ = c.Get(ctx, "ACME", "TRX-1")
				_, _ = c.Get(ctx, "ACME", "TRX-3")
				_, _ = c.Get(ctx, "ACME", "TRX-2")
			},
			wantGets:  4,
			wantStats: CacheStats{Hits: 1, Misses: 4, Evictions: 2, Size: 2, Capacity: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backing := newCountingSource(t, sampleTransaction("TRX-1"), sampleTransaction("TRX-2"), sampleTransaction("TRX-3"))
			c := NewCachedTransactionSource(backing, 2, time.Minute)

			tt.run(c)

			assert.Equal(t, tt.wantGets, backing.gets)
			assert.Equal(t, tt.wantStats, c.Stats())
		})
	}
}

func TestCachedTransactionSource_Expiry(t *testing.T) {
	ctx := context.Background()
	backing := newCountingSource(t, sampleTransaction("TRX-1"))
	c := NewCachedTransactionSource(backing, 0, time.Minute)
	current := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return current }

	_, err := c.Get(ctx, "ACME", "TRX-1")
	require.NoError(t, err)

	current = current.Add(2 * time.Minute)
	_, err = c.Get(ctx, "ACME", "TRX-1")
	require.NoError(t, err)

	assert.Equal(t, 2, backing.gets)
	assert.Equal(t, DefaultTransactionCacheSize, c.Stats().Capacity)
}

func TestCachedTransactionSource_Put(t *testing.T) {
	ctx := context.Background()

	t.Run("write through refreshes the entry", func(t *testing.T) {
		backing := newCountingSource(t, sampleTransaction("TRX-1"))
		c := NewCachedTransactionSource(backing, 10, time.Minute)
		_, _ = c.Get(ctx, "ACME", "TRX-1")

		updated := sampleTransaction("TRX-1")
		updated.BatchNumber = "B-99"
		require.NoError(t, c.Put(ctx, updated))

		tx, err := c.Get(ctx, "ACME", "TRX-1")
		require.NoError(t, err)
		assert.Equal(t, "B-99", tx.BatchNumber)
		assert.Equal(t, 1, backing.gets)

		stored, err := backing.MemoryTransactionSource.Get(ctx, "ACME", "TRX-1")
		require.NoError(t, err)
		assert.Equal(t, "B-99", stored.BatchNumber)
	})

	t.Run("failed write drops the stale entry", func(t *testing.T) {
		backing := newCountingSource(t, sampleTransaction("TRX-1"))
		c := NewCachedTransactionSource(backing, 10, time.Minute)
		_, _ = c.Get(ctx, "ACME", "TRX-1")

		backing.putErr = errors.New("mongodb unavailable")
		assert.ErrorIs(t, c.Put(ctx, sampleTransaction("TRX-1")), backing.putErr)

		assert.Equal(t, 0, c.Stats().Size)
	})
}

func TestCachedTransactionSource_ListReadsThrough(t *testing.T) {
	backing := newCountingSource(t, sampleTransaction("TRX-1"), sampleTransaction("TRX-2"))
	c := NewCachedTransactionSource(backing, 10, time.Minute)

	txs, err := c.List(context.Background(), "ACME", 10)

	require.NoError(t, err)
	assert.Len(t, txs, 2)
	assert.Equal(t, 0, c.Stats().Size)
}
