// Code generated manually. DO NOT EDIT.

package mocks

import (
	"context"

	"github.com/guttosm/label-print-service/internal/domain/model"
	"github.com/stretchr/testify/mock"
)

type MockStatusStoreInterface struct {
	mock.Mock
}

func (m *MockStatusStoreInterface) Put(ctx context.Context, status model.PrintStatus) error {
	args := m.Called(ctx, status)
	return args.Error(0)
}

func (m *MockStatusStoreInterface) Get(ctx context.Context, jobID string) (*model.PrintStatus, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PrintStatus), args.Error(1)
}
