package service

import (
	"context"

	"github.com/guttosm/label-print-service/internal/domain/model"
	"github.com/guttosm/label-print-service/internal/repository"
)

// Query limits for audit lookups.
const (
	DefaultLogQueryLimit = 100
	MaxLogQueryLimit     = 1000
	// A job produces a handful of entries per attempt; retries and operator actions add more.
	DefaultHistoryLimit = 200
)

// LoggingService stores and queries the audit trail.
type LoggingService interface {
	CreateLog(ctx context.Context, entry *model.LogEntry) error
	CreateLogs(ctx context.Context, entries []*model.LogEntry) error
	// QueryLogs returns matching entries, newest first unless opts.OldestFirst is set.
	QueryLogs(ctx context.Context, opts model.LogQueryOptions) ([]model.LogEntry, error)
	CountLogs(ctx context.Context, opts model.LogQueryOptions) (int64, error)
	// JobHistory returns the audit trail of one job, oldest first.
	JobHistory(ctx context.Context, jobID string) ([]model.LogEntry, error)
}

// AuditLogService implements LoggingService over a logs repository.
type AuditLogService struct {
	repo repository.LogsRepositoryInterface
}

var _ LoggingService = (*AuditLogService)(nil)

// NewLoggingService creates the audit log service.
func NewLoggingService(repo repository.LogsRepositoryInterface) *AuditLogService {
	return &AuditLogService{repo: repo}
}

// CreateLog implements LoggingService.
func (s *AuditLogService) CreateLog(ctx context.Context, entry *model.LogEntry) error {
	return s.repo.Create(ctx, entry)
}

// CreateLogs implements LoggingService.
func (s *AuditLogService) CreateLogs(ctx context.Context, entries []*model.LogEntry) error {
	batch := make([]*model.LogEntry, 0, len(entries))
	for _, e := range entries {
		if e != nil {
			batch = append(batch, e)
		}
	}
	if len(batch) == 0 {
		return nil
	}
	return s.repo.CreateMany(ctx, batch)
}

// QueryLogs implements LoggingService. The limit defaults to DefaultLogQueryLimit and is capped at MaxLogQueryLimit.
func (s *AuditLogService) QueryLogs(ctx context.Context, opts model.LogQueryOptions) ([]model.LogEntry, error) {
	switch {
	case opts.Limit <= 0:
		opts.Limit = DefaultLogQueryLimit
	case opts.Limit > MaxLogQueryLimit:
		opts.Limit = MaxLogQueryLimit
	}
	if opts.Skip < 0 {
		opts.Skip = 0
	}
	return s.repo.Query(ctx, opts)
}

// CountLogs implements LoggingService.
func (s *AuditLogService) CountLogs(ctx context.Context, opts model.LogQueryOptions) (int64, error) {
	return s.repo.Count(ctx, opts)
}

// JobHistory implements LoggingService.
func (s *AuditLogService) JobHistory(ctx context.Context, jobID string) ([]model.LogEntry, error) {
	if jobID == "" {
		return nil, ErrJobNotFound
	}
	return s.QueryLogs(ctx, model.LogQueryOptions{
		JobID:       jobID,
		OldestFirst: true,
		Limit:       DefaultHistoryLimit,
	})
}
