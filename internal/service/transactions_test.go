//go:build !integration

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/guttosm/label-print-service/internal/domain/model"
	"github.com/guttosm/label-print-service/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMemoryTransactionSource(t *testing.T) {
	ctx := context.Background()
	source := NewMemoryTransactionSource()

	other := sampleTransaction("TRX-1")
	other.Company = "Globex"
	for _, tx := range []model.Transaction{sampleTransaction("TRX-2"), sampleTransaction("TRX-1"), other} {
		require.NoError(t, source.Put(ctx, tx))
	}

	t.Run("get is keyed by company and number", func(t *testing.T) {
		tx, err := source.Get(ctx, "Globex", "TRX-1")
		require.NoError(t, err)
		assert.Equal(t, "Globex", tx.Company)

		_, err = source.Get(ctx, "ACME", "TRX-3")
		assert.ErrorIs(t, err, ErrTransactionNotFound)
	})

	t.Run("put replaces", func(t *testing.T) {
		updated := sampleTransaction("TRX-2")
		updated.BatchNumber = "B-99"
		require.NoError(t, source.Put(ctx, updated))

		tx, err := source.Get(ctx, "ACME", "TRX-2")
		require.NoError(t, err)
		assert.Equal(t, "B-99", tx.BatchNumber)
	})

	tests := []struct {
		name    string
		company string
		limit   int
		want    []string
	}{
		{"all companies", "", 0, []string{"ACME/TRX-1", "ACME/TRX-2", "Globex/TRX-1"}},
		{"one company", "ACME", 0, []string{"ACME/TRX-1", "ACME/TRX-2"}},
		{"limited", "", 1, []string{"ACME/TRX-1"}},
		{"unknown company", "Initech", 0, nil},
	}
	for _, tt := range tests {
		t.Run("list "+tt.name, func(t *testing.T) {
			txs, err := source.List(ctx, tt.company, tt.limit)
			require.NoError(t, err)
			var got []string
			for _, tx := range txs {
				got = append(got, tx.Company+"/"+tx.TransactionNo)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRepositoryTransactionSource(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		repo := &mocks.MockTransactionRepositoryInterface{}
		tx := sampleTransaction("TRX-1", threeBoxes()...)
		repo.On("FindByNumber", ctx, "ACME", "TRX-1").Return(&tx, nil)

		got, err := NewRepositoryTransactionSource(repo).Get(ctx, "ACME", "TRX-1")

		require.NoError(t, err)
		assert.Len(t, got.Boxes, 3)
		repo.AssertExpectations(t)
	})

	t.Run("missing", func(t *testing.T) {
		repo := &mocks.MockTransactionRepositoryInterface{}
		repo.On("FindByNumber", ctx, "ACME", "TRX-404").Return(nil, nil)

		_, err := NewRepositoryTransactionSource(repo).Get(ctx, "ACME", "TRX-404")

		assert.ErrorIs(t, err, ErrTransactionNotFound)
	})

	t.Run("repository error", func(t *testing.T) {
		repo := &mocks.MockTransactionRepositoryInterface{}
		boom := errors.New("mongo down")
		repo.On("FindByNumber", ctx, "ACME", "TRX-1").Return(nil, boom)

		_, err := NewRepositoryTransactionSource(repo).Get(ctx, "ACME", "TRX-1")

		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, ErrTransactionNotFound)
	})

	t.Run("put and list delegate", func(t *testing.T) {
		repo := &mocks.MockTransactionRepositoryInterface{}
		repo.On("Upsert", ctx, mock.MatchedBy(func(tx *model.Transaction) bool {
			return tx.TransactionNo == "TRX-1"
		})).Return(nil)
		repo.On("List", ctx, "ACME", 10).Return([]model.Transaction{sampleTransaction("TRX-1")}, nil)
		source := NewRepositoryTransactionSource(repo)

		require.NoError(t, source.Put(ctx, sampleTransaction("TRX-1")))
		txs, err := source.List(ctx, "ACME", 10)

		require.NoError(t, err)
		assert.Len(t, txs, 1)
		repo.AssertExpectations(t)
	})
}
