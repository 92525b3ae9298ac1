// Code generated manually. DO NOT EDIT.

package mocks

import (
	"context"

	"github.com/guttosm/label-print-service/internal/domain/model"
	"github.com/stretchr/testify/mock"
)

// MockLoggingService is a mock implementation of service.LoggingService.
type MockLoggingService struct {
	mock.Mock
}

// CreateLog mocks the CreateLog method.
func (m *MockLoggingService) CreateLog(ctx context.Context, entry *model.LogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// CreateLogs mocks the CreateLogs method.
func (m *MockLoggingService) CreateLogs(ctx context.Context, entries []*model.LogEntry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

// QueryLogs mocks the QueryLogs method.
func (m *MockLoggingService) QueryLogs(ctx context.Context, opts model.LogQueryOptions) ([]model.LogEntry, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.LogEntry), args.Error(1)
}

// CountLogs mocks the CountLogs method.
func (m *MockLoggingService) CountLogs(ctx context.Context, opts model.LogQueryOptions) (int64, error) {
	args := m.Called(ctx, opts)
	return args.Get(0).(int64), args.Error(1)
}

// JobHistory mocks the JobHistory method.
func (m *MockLoggingService) JobHistory(ctx context.Context, jobID string) ([]model.LogEntry, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.LogEntry), args.Error(1)
}
