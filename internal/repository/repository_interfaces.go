package repository

import (
	"context"

	"github.com/guttosm/label-print-service/internal/domain/model"
)

// JobArchiveRepositoryInterface stores finished print jobs.
type JobArchiveRepositoryInterface interface {
	Save(ctx context.Context, job *model.PrintJob) error
	// FindByID returns nil, nil when the job was never archived.
	FindByID(ctx context.Context, id string) (*model.PrintJob, error)
	FindByBatch(ctx context.Context, batchID string) ([]model.PrintJob, error)
}

// TransactionRepositoryInterface stores transactions keyed by company and number.
type TransactionRepositoryInterface interface {
	Upsert(ctx context.Context, tx *model.Transaction) error
	// FindByNumber returns nil, nil when the transaction does not exist.
	FindByNumber(ctx context.Context, company, transactionNo string) (*model.Transaction, error)
	List(ctx context.Context, company string, limit int) ([]model.Transaction, error)
}

// LogsRepositoryInterface stores audit entries.
type LogsRepositoryInterface interface {
	Create(ctx context.Context, entry *model.LogEntry) error
	CreateMany(ctx context.Context, entries []*model.LogEntry) error
	Query(ctx context.Context, opts model.LogQueryOptions) ([]model.LogEntry, error)
	Count(ctx context.Context, opts model.LogQueryOptions) (int64, error)
}

// StatusStoreInterface mirrors job status to an external store for other consumers.
type StatusStoreInterface interface {
	Put(ctx context.Context, status model.PrintStatus) error
	Get(ctx context.Context, jobID string) (*model.PrintStatus, error)
}

var (
	_ JobArchiveRepositoryInterface  = (*JobArchiveRepository)(nil)
	_ JobArchiveRepositoryInterface  = (*JobArchiveRepositoryWithCircuitBreaker)(nil)
	_ TransactionRepositoryInterface = (*TransactionRepository)(nil)
	_ TransactionRepositoryInterface = (*TransactionRepositoryWithCircuitBreaker)(nil)
	_ LogsRepositoryInterface        = (*LogsRepository)(nil)
	_ LogsRepositoryInterface        = (*LogsRepositoryWithCircuitBreaker)(nil)
	_ StatusStoreInterface           = (*RedisStatusStore)(nil)
)
