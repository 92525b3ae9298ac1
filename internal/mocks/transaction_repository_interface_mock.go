// Code generated manually. DO NOT EDIT.

package mocks

import (
	"context"

	"github.com/guttosm/label-print-service/internal/domain/model"
	"github.com/stretchr/testify/mock"
)

type MockTransactionRepositoryInterface struct {
	mock.Mock
}

func (m *MockTransactionRepositoryInterface) Upsert(ctx context.Context, tx *model.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepositoryInterface) FindByNumber(ctx context.Context, company, transactionNo string) (*model.Transaction, error) {
	args := m.Called(ctx, company, transactionNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (m *MockTransactionRepositoryInterface) List(ctx context.Context, company string, limit int) ([]model.Transaction, error) {
	args := m.Called(ctx, company, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Transaction), args.Error(1)
}
