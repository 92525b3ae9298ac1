package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/guttosm/label-print-service/internal/domain/model"
	"github.com/guttosm/label-print-service/internal/repository"
)

// TransactionSource supplies transaction records posted by the inventory front end.
type TransactionSource interface {
	// Get returns ErrTransactionNotFound when the record is unknown.
	Get(ctx context.Context, company, transactionNo string) (model.Transaction, error)
	Put(ctx context.Context, tx model.Transaction) error
	List(ctx context.Context, company string, limit int) ([]model.Transaction, error)
}

// MemoryTransactionSource keeps transactions in process memory.
type MemoryTransactionSource struct {
	mu    sync.RWMutex
	items map[string]model.Transaction
}

// NewMemoryTransactionSource creates an empty in-memory source.
func NewMemoryTransactionSource() *MemoryTransactionSource {
	return &MemoryTransactionSource{items: make(map[string]model.Transaction)}
}

func transactionKey(company, transactionNo string) string {
	return company + "\x00" + transactionNo
}

// Get implements TransactionSource.
func (s *MemoryTransactionSource) Get(_ context.Context, company, transactionNo string) (model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.items[transactionKey(company, transactionNo)]
	if !ok {
		return model.Transaction{}, fmt.Errorf("%w: %s/%s", ErrTransactionNotFound, company, transactionNo)
	}
	return tx, nil
}

// Put implements TransactionSource.
func (s *MemoryTransactionSource) Put(_ context.Context, tx model.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[transactionKey(tx.Company, tx.TransactionNo)] = tx
	return nil
}

// List implements TransactionSource, sorted by company then number.
func (s *MemoryTransactionSource) List(_ context.Context, company string, limit int) ([]model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Transaction, 0, len(s.items))
	for _, tx := range s.items {
		if company == "" || tx.Company == company {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if c := strings.Compare(out[i].Company, out[j].Company); c != 0 {
			return c < 0
		}
		return out[i].TransactionNo < out[j].TransactionNo
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// RepositoryTransactionSource reads and writes transactions through a repository.
type RepositoryTransactionSource struct {
	repo repository.TransactionRepositoryInterface
}

// NewRepositoryTransactionSource creates a repository-backed source.
func NewRepositoryTransactionSource(repo repository.TransactionRepositoryInterface) *RepositoryTransactionSource {
	return &RepositoryTransactionSource{repo: repo}
}

// Get implements TransactionSource.
func (s *RepositoryTransactionSource) Get(ctx context.Context, company, transactionNo string) (model.Transaction, error) {
	tx, err := s.repo.FindByNumber(ctx, company, transactionNo)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("load transaction %s/%s: %w", company, transactionNo, err)
	}
	if tx == nil {
		return model.Transaction{}, fmt.Errorf("%w: %s/%s", ErrTransactionNotFound, company, transactionNo)
	}
	return *tx, nil
}

// Put implements TransactionSource.
func (s *RepositoryTransactionSource) Put(ctx context.Context, tx model.Transaction) error {
	return s.repo.Upsert(ctx, &tx)
}

// List implements TransactionSource.
func (s *RepositoryTransactionSource) List(ctx context.Context, company string, limit int) ([]model.Transaction, error) {
	return s.repo.List(ctx, company, limit)
}
