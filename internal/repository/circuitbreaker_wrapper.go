package repository

import (
	"context"
	"errors"

	"github.com/guttosm/label-print-service/internal/circuitbreaker"
	"github.com/guttosm/label-print-service/internal/domain/model"
)

// guarded runs fn through cb and returns its result.
func guarded[T any](ctx context.Context, cb *circuitbreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	var result T
	err := cb.Execute(ctx, func() error {
		var callErr error
		result, callErr = fn()
		return callErr
	})
	return result, err
}

// breaker is embedded by every wrapper.
type breaker struct {
	cb *circuitbreaker.CircuitBreaker
}

// CircuitBreaker returns the breaker guarding the wrapped repository.
func (b breaker) CircuitBreaker() *circuitbreaker.CircuitBreaker {
	return b.cb
}

// JobArchiveRepositoryWithCircuitBreaker guards a job archive.
type JobArchiveRepositoryWithCircuitBreaker struct {
	breaker
	repo JobArchiveRepositoryInterface
}

// NewJobArchiveRepositoryWithCircuitBreaker wraps repo.
func NewJobArchiveRepositoryWithCircuitBreaker(repo JobArchiveRepositoryInterface, cb *circuitbreaker.CircuitBreaker) *JobArchiveRepositoryWithCircuitBreaker {
	return &JobArchiveRepositoryWithCircuitBreaker{breaker: breaker{cb: cb}, repo: repo}
}

func (r *JobArchiveRepositoryWithCircuitBreaker) Save(ctx context.Context, job *model.PrintJob) error {
	return r.cb.Execute(ctx, func() error { return r.repo.Save(ctx, job) })
}

func (r *JobArchiveRepositoryWithCircuitBreaker) FindByID(ctx context.Context, id string) (*model.PrintJob, error) {
	return guarded(ctx, r.cb, func() (*model.PrintJob, error) { return r.repo.FindByID(ctx, id) })
}

func (r *JobArchiveRepositoryWithCircuitBreaker) FindByBatch(ctx context.Context, batchID string) ([]model.PrintJob, error) {
	return guarded(ctx, r.cb, func() ([]model.PrintJob, error) { return r.repo.FindByBatch(ctx, batchID) })
}

// TransactionRepositoryWithCircuitBreaker guards the transaction store.
type TransactionRepositoryWithCircuitBreaker struct {
	breaker
	repo TransactionRepositoryInterface
}

// NewTransactionRepositoryWithCircuitBreaker wraps repo.
func NewTransactionRepositoryWithCircuitBreaker(repo TransactionRepositoryInterface, cb *circuitbreaker.CircuitBreaker) *TransactionRepositoryWithCircuitBreaker {
	return &TransactionRepositoryWithCircuitBreaker{breaker: breaker{cb: cb}, repo: repo}
}

func (r *TransactionRepositoryWithCircuitBreaker) Upsert(ctx context.Context, tx *model.Transaction) error {
	return r.cb.Execute(ctx, func() error { return r.repo.Upsert(ctx, tx) })
}

func (r *TransactionRepositoryWithCircuitBreaker) FindByNumber(ctx context.Context, company, transactionNo string) (*model.Transaction, error) {
	return guarded(ctx, r.cb, func() (*model.Transaction, error) {
		return r.repo.FindByNumber(ctx, company, transactionNo)
	})
}

func (r *TransactionRepositoryWithCircuitBreaker) List(ctx context.Context, company string, limit int) ([]model.Transaction, error) {
	return guarded(ctx, r.cb, func() ([]model.Transaction, error) { return r.repo.List(ctx, company, limit) })
}

// LogsRepositoryWithCircuitBreaker guards the audit log. Writes are dropped
// while the circuit is open so the audit trail never blocks printing.
type LogsRepositoryWithCircuitBreaker struct {
	breaker
	repo LogsRepositoryInterface
}

// NewLogsRepositoryWithCircuitBreaker wraps repo.
func NewLogsRepositoryWithCircuitBreaker(repo LogsRepositoryInterface, cb *circuitbreaker.CircuitBreaker) *LogsRepositoryWithCircuitBreaker {
	return &LogsRepositoryWithCircuitBreaker{breaker: breaker{cb: cb}, repo: repo}
}

func (r *LogsRepositoryWithCircuitBreaker) Create(ctx context.Context, entry *model.LogEntry) error {
	return dropWhenOpen(r.cb.Execute(ctx, func() error { return r.repo.Create(ctx, entry) }))
}

func (r *LogsRepositoryWithCircuitBreaker) CreateMany(ctx context.Context, entries []*model.LogEntry) error {
	return dropWhenOpen(r.cb.Execute(ctx, func() error { return r.repo.CreateMany(ctx, entries) }))
}

func (r *LogsRepositoryWithCircuitBreaker) Query(ctx context.Context, opts model.LogQueryOptions) ([]model.LogEntry, error) {
	return guarded(ctx, r.cb, func() ([]model.LogEntry, error) { return r.repo.Query(ctx, opts) })
}

func (r *LogsRepositoryWithCircuitBreaker) Count(ctx context.Context, opts model.LogQueryOptions) (int64, error) {
	return guarded(ctx, r.cb, func() (int64, error) { return r.repo.Count(ctx, opts) })
}

func dropWhenOpen(err error) error {
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		return nil
	}
	return err
}
