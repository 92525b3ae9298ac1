package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/guttosm/label-print-service/internal/domain/model"
	"github.com/guttosm/label-print-service/internal/idgen"
	"github.com/guttosm/label-print-service/internal/repository"
	"github.com/rs/zerolog/log"
)

// TransactionPrintRequest names the boxes of one transaction to print.
// Transaction carries the record inline; otherwise it is looked up by company and number.
type TransactionPrintRequest struct {
	Company       string
	TransactionNo string
	BoxNumbers    []int
	Transaction   *model.Transaction
}

// PrintRequest is a single-transaction print.
type PrintRequest struct {
	TransactionPrintRequest
	PrinterName    string
	Settings       model.PrintSettings
	IdempotencyKey string
}

// BatchRequest groups transactions submitted together.
type BatchRequest struct {
	Transactions []TransactionPrintRequest
	PrinterName  string
	Settings     model.PrintSettings
	Options      model.BatchOptions
}

// BatchCoordinator turns transactions into print jobs.
type BatchCoordinator interface {
	PrintTransaction(ctx context.Context, req PrintRequest) (model.PrintJob, error)
	SubmitBatch(ctx context.Context, req BatchRequest) (model.BatchPrintResponse, error)
	Batch(ctx context.Context, id string) (model.BatchStatusView, error)
}

type batchRecord struct {
	response    model.BatchPrintResponse
	createdAt   time.Time
	jobIDs      []string
	printerName string
	dims        model.Dimensions
}

// BatchCoordinatorService composes every label of a batch before creating any job,
// so a batch is either rejected whole or fully enqueued.
type BatchCoordinatorService struct {
	compositor LabelCompositor
	manager    PrintJobManager
	registry   PrinterRegistry
	source     TransactionSource
	archive    repository.JobArchiveRepositoryInterface
	ids        idgen.Generator
	now        func() time.Time

	mu          sync.RWMutex
	batches     map[string]*batchRecord
	idempotency map[string]string
	// claimed holds keys whose batch is being submitted; the channel closes when it settles.
	claimed map[string]chan struct{}
}

var _ BatchCoordinator = (*BatchCoordinatorService)(nil)

// BatchOption configures a BatchCoordinatorService.
type BatchOption func(*BatchCoordinatorService)

// WithTransactionSource sets where transactions are looked up and inline records stored.
func WithTransactionSource(source TransactionSource) BatchOption {
	return func(s *BatchCoordinatorService) {
		s.source = source
	}
}

// WithBatchArchive lets batches be projected from archived jobs after a restart.
func WithBatchArchive(archive repository.JobArchiveRepositoryInterface) BatchOption {
	return func(s *BatchCoordinatorService) {
		s.archive = archive
	}
}

// WithBatchClock replaces time.Now.
func WithBatchClock(now func() time.Time) BatchOption {
	return func(s *BatchCoordinatorService) {
		s.now = now
	}
}

// NewBatchCoordinator creates a coordinator.
func NewBatchCoordinator(compositor LabelCompositor, manager PrintJobManager, registry PrinterRegistry, ids idgen.Generator, opts ...BatchOption) *BatchCoordinatorService {
	s := &BatchCoordinatorService{
		compositor:  compositor,
		manager:     manager,
		registry:    registry,
		ids:         ids,
		now:         time.Now,
		batches:     make(map[string]*batchRecord),
		idempotency: make(map[string]string),
		claimed:     make(map[string]chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *BatchCoordinatorService) resolve(ctx context.Context, r TransactionPrintRequest) (model.Transaction, error) {
	if r.Transaction != nil {
		tx := *r.Transaction
		if r.TransactionNo != "" && r.TransactionNo != tx.TransactionNo {
			return model.Transaction{}, fmt.Errorf("%w: transaction_no %q does not match the record %q",
				ErrMissingField, r.TransactionNo, tx.TransactionNo)
		}
		return tx, nil
	}

	if s.source == nil {
		return model.Transaction{}, fmt.Errorf("%w: %s/%s", ErrTransactionNotFound, r.Company, r.TransactionNo)
	}
	return s.source.Get(ctx, r.Company, r.TransactionNo)
}

// remember stores an inline record once its labels composed cleanly.
func (s *BatchCoordinatorService) remember(ctx context.Context, r TransactionPrintRequest, tx model.Transaction) error {
	if r.Transaction == nil || s.source == nil {
		return nil
	}
	if err := s.source.Put(ctx, tx); err != nil {
		return fmt.Errorf("store transaction %s: %w", tx.TransactionNo, err)
	}
	return nil
}

func (s *BatchCoordinatorService) checkPrinter(name string, dims model.Dimensions) error {
	if name == "" {
		return nil
	}
	p, err := s.registry.Get(name)
	if err != nil {
		return nil
	}
	if !p.CanPrint(dims) {
		return fmt.Errorf("%w: %s cannot print %gx%gin labels", ErrPrinterIncompatible, name, dims.WidthInches, dims.HeightInches)
	}
	return nil
}

// PrintTransaction composes and submits the labels of one transaction.
func (s *BatchCoordinatorService) PrintTransaction(ctx context.Context, req PrintRequest) (model.PrintJob, error) {
	tx, err := s.resolve(ctx, req.TransactionPrintRequest)
	if err != nil {
		return model.PrintJob{}, err
	}
	labels, err := s.compositor.ComposeTransaction(tx, req.BoxNumbers, req.Settings)
	if err != nil {
		return model.PrintJob{}, err
	}
	if err := s.remember(ctx, req.TransactionPrintRequest, tx); err != nil {
		return model.PrintJob{}, err
	}
	return s.manager.Submit(ctx, SubmitRequest{
		Labels:         labels,
		PrinterName:    req.PrinterName,
		Settings:       req.Settings,
		IdempotencyKey: req.IdempotencyKey,
	})
}

type composedTransaction struct {
	request TransactionPrintRequest
	tx      model.Transaction
	labels  []model.QRLabel
}

// SubmitBatch creates one job per transaction. Any resolution or composition failure
// rejects the batch with a *BatchError and creates nothing.
func (s *BatchCoordinatorService) SubmitBatch(ctx context.Context, req BatchRequest) (model.BatchPrintResponse, error) {
	if len(req.Transactions) == 0 {
		return model.BatchPrintResponse{}, ErrEmptyBatch
	}

	key := req.Options.IdempotencyKey
	if key != "" && !req.Options.ValidateOnly {
		prev, release, err := s.claim(ctx, key)
		if err != nil {
			return model.BatchPrintResponse{}, err
		}
		if prev != nil {
			return *prev, nil
		}
		defer release()
	}

	if err := s.checkPrinter(req.PrinterName, req.Settings.Dimensions); err != nil {
		return model.BatchPrintResponse{}, err
	}

	composed := make([]composedTransaction, 0, len(req.Transactions))
	var failures []*TransactionError
	totalLabels := 0
	for i, r := range req.Transactions {
		name := r.TransactionNo
		if name == "" && r.Transaction != nil {
			name = r.Transaction.TransactionNo
		}
		if name == "" {
			name = fmt.Sprintf("#%d", i+1)
		}

		tx, err := s.resolve(ctx, r)
		if err != nil {
			failures = append(failures, &TransactionError{TransactionNo: name, Err: err})
			continue
		}
		labels, err := s.compositor.ComposeTransaction(tx, r.BoxNumbers, req.Settings)
		if err != nil {
			failures = append(failures, &TransactionError{TransactionNo: name, Err: err})
			continue
		}
		composed = append(composed, composedTransaction{request: r, tx: tx, labels: labels})
		totalLabels += len(labels)
	}
	if len(failures) > 0 {
		return model.BatchPrintResponse{}, &BatchError{Failures: failures}
	}

	resp := model.BatchPrintResponse{
		TotalJobs:   len(composed),
		TotalLabels: totalLabels,
		Jobs:        []model.PrintJobResponse{},
	}
	if req.Options.ValidateOnly {
		resp.ValidateOnly = true
		return resp, nil
	}

	for _, c := range composed {
		if err := s.remember(ctx, c.request, c.tx); err != nil {
			return model.BatchPrintResponse{}, err
		}
	}

	resp.BatchID = s.ids.BatchID()
	jobIDs := make([]string, 0, len(composed))
	for _, c := range composed {
		jobKey := ""
		if key != "" {
			jobKey = key + ":" + c.tx.TransactionNo
		}
		job, err := s.manager.Submit(ctx, SubmitRequest{
			Labels:         c.labels,
			PrinterName:    req.PrinterName,
			Settings:       req.Settings,
			IdempotencyKey: jobKey,
			BatchID:        resp.BatchID,
		})
		if err != nil {
			s.rollback(ctx, jobIDs)
			return model.BatchPrintResponse{}, &BatchError{Failures: []*TransactionError{{TransactionNo: c.tx.TransactionNo, Err: err}}}
		}
		jobIDs = append(jobIDs, job.ID)
		resp.Jobs = append(resp.Jobs, job.ToResponse())
	}

	now := s.now()
	resp.EstimatedCompletionTime = s.manager.EstimateCompletion(req.PrinterName, req.Settings.Dimensions, now)

	s.mu.Lock()
	s.batches[resp.BatchID] = &batchRecord{
		response:    resp,
		createdAt:   now.UTC(),
		jobIDs:      jobIDs,
		printerName: req.PrinterName,
		dims:        req.Settings.Dimensions,
	}
	if key != "" {
		s.idempotency[key] = resp.BatchID
	}
	s.mu.Unlock()

	log.Info().
		Str("batch_id", resp.BatchID).
		Int("jobs", resp.TotalJobs).
		Int("labels", resp.TotalLabels).
		Str("printer", req.PrinterName).
		Msg("Print batch submitted")
	return resp, nil
}

// claim returns the batch already recorded under key, or reserves key for the caller
// until release is called. Callers racing on one key wait for the holder to settle.
func (s *BatchCoordinatorService) claim(ctx context.Context, key string) (*model.BatchPrintResponse, func(), error) {
	for {
		s.mu.Lock()
		if id, ok := s.idempotency[key]; ok {
			if rec := s.batches[id]; rec != nil {
				resp := rec.response
				s.mu.Unlock()
				return &resp, nil, nil
			}
		}
		wait, busy := s.claimed[key]
		if !busy {
			done := make(chan struct{})
			s.claimed[key] = done
			s.mu.Unlock()
			return nil, func() {
				s.mu.Lock()
				delete(s.claimed, key)
				s.mu.Unlock()
				close(done)
			}, nil
		}
		s.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		}
	}
}

// rollback cancels jobs created before a later submission failed.
func (s *BatchCoordinatorService) rollback(ctx context.Context, jobIDs []string) {
	for _, id := range jobIDs {
		if _, err := s.manager.Cancel(ctx, id); err != nil && !errors.Is(err, ErrInvalidTransition) {
			log.Warn().Err(err).Str("job_id", id).Msg("Failed to cancel job of rejected batch")
		}
	}
}

// Batch projects a batch over the current state of its jobs.
func (s *BatchCoordinatorService) Batch(ctx context.Context, id string) (model.BatchStatusView, error) {
	s.mu.RLock()
	rec, ok := s.batches[id]
	s.mu.RUnlock()

	var statuses []model.PrintStatus
	view := model.BatchStatusView{BatchID: id}
	printerName := ""
	dims := model.DefaultDimensions()

	switch {
	case ok:
		statuses = s.manager.Jobs(ctx, rec.jobIDs)
		view.CreatedAt = rec.createdAt
		view.TotalLabels = rec.response.TotalLabels
		printerName, dims = rec.printerName, rec.dims
	case s.archive != nil:
		jobs, err := s.archive.FindByBatch(ctx, id)
		if err != nil {
			return model.BatchStatusView{}, fmt.Errorf("load batch %s: %w", id, err)
		}
		for i := range jobs {
			statuses = append(statuses, jobs[i].ToStatus())
			view.TotalLabels += len(jobs[i].Labels)
			if i == 0 || jobs[i].CreatedAt.Before(view.CreatedAt) {
				view.CreatedAt = jobs[i].CreatedAt
			}
		}
	}
	if len(statuses) == 0 {
		return model.BatchStatusView{}, fmt.Errorf("%w: %s", ErrBatchNotFound, id)
	}

	view.Jobs = statuses
	view.TotalJobs = len(statuses)
	live := false
	for _, st := range statuses {
		switch st.Status {
		case model.JobQueued:
			view.Queued++
			live = true
		case model.JobPrinting:
			view.Printing++
			live = true
		case model.JobCompleted:
			view.Completed++
		case model.JobFailed:
			view.Failed++
		case model.JobCancelled:
			view.Cancelled++
		}
	}
	if live {
		view.EstimatedCompletionTime = s.manager.EstimateCompletion(printerName, dims, s.now())
	}
	return view, nil
}
