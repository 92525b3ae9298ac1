// Code generated manually. DO NOT EDIT.

package mocks

import (
	"context"

	"github.com/guttosm/label-print-service/internal/domain/model"
	"github.com/stretchr/testify/mock"
)

type MockJobArchiveRepositoryInterface struct {
	mock.Mock
}

func (m *MockJobArchiveRepositoryInterface) Save(ctx context.Context, job *model.PrintJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockJobArchiveRepositoryInterface) FindByID(ctx context.Context, id string) (*model.PrintJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PrintJob), args.Error(1)
}

func (m *MockJobArchiveRepositoryInterface) FindByBatch(ctx context.Context, batchID string) ([]model.PrintJob, error) {
	args := m.Called(ctx, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PrintJob), args.Error(1)
}
