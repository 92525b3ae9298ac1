//go:build !integration

package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/guttosm/label-print-service/internal/domain/model"
	"github.com/guttosm/label-print-service/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type batchFixture struct {
	registry    *PrinterRegistryService
	manager     *PrintJobManagerService
	source      *MemoryTransactionSource
	coordinator *BatchCoordinatorService
}

// newBatchFixture starts with zebra-1 offline so submitted jobs stay queued.
func newBatchFixture(t *testing.T, opts ...BatchOption) *batchFixture {
	t.Helper()
	registry := registryWith(labelPrinter("zebra-1", model.ConnectionUSB, model.PrinterOffline))
	ids := &seqIDs{}
	manager := newTestManager(t, registry, newFakeDriver())
	source := NewMemoryTransactionSource()

	ctx := context.Background()
	boxes := threeBoxes()
	require.NoError(t, source.Put(ctx, sampleTransaction("TRX-1", boxes...)))
	require.NoError(t, source.Put(ctx, sampleTransaction("TRX-2", boxes[:2]...)))

	opts = append([]BatchOption{WithTransactionSource(source)}, opts...)
	return &batchFixture{
		registry:    registry,
		manager:     manager,
		source:      source,
		coordinator: NewBatchCoordinator(NewLabelCompositor(NewPayloadCodec()), manager, registry, ids, opts...),
	}
}

func twoTransactionBatch() BatchRequest {
	return BatchRequest{
		Transactions: []TransactionPrintRequest{
			{Company: "ACME", TransactionNo: "TRX-1"},
			{Company: "ACME", TransactionNo: "TRX-2"},
		},
		PrinterName: "zebra-1",
		Settings:    model.DefaultPrintSettings(),
	}
}

func TestBatchCoordinator_SubmitBatch(t *testing.T) {
	f := newBatchFixture(t)

	resp, err := f.coordinator.SubmitBatch(context.Background(), twoTransactionBatch())

	require.NoError(t, err)
	assert.Equal(t, "batch-001", resp.BatchID)
	assert.Equal(t, 2, resp.TotalJobs)
	assert.Equal(t, 5, resp.TotalLabels)
	require.Len(t, resp.Jobs, 2)
	assert.Equal(t, "TRX-1", resp.Jobs[0].TransactionNo)
	assert.Equal(t, 3, resp.Jobs[0].LabelsCount)
	assert.Equal(t, "TRX-2", resp.Jobs[1].TransactionNo)
	assert.Equal(t, 2, resp.Jobs[1].LabelsCount)
	assert.Nil(t, resp.EstimatedCompletionTime, "no finished job to estimate from")

	q := f.manager.Queue()
	require.Len(t, q.Jobs, 2)
	for _, job := range q.Jobs {
		assert.Equal(t, resp.BatchID, job.BatchID)
		assert.Equal(t, model.JobQueued, job.Status)
	}
}

func TestBatchCoordinator_SubmitBatch_Rejects(t *testing.T) {
	badBoxes := threeBoxes()
	badBoxes[1].NetWeight = weight("99")
	bad := sampleTransaction("TRX-BAD", badBoxes...)

	tests := []struct {
		name         string
		req          func() BatchRequest
		want         error
		wantFailures []string
	}{
		{
			name: "empty batch",
			req:  func() BatchRequest { return BatchRequest{Settings: model.DefaultPrintSettings()} },
			want: ErrEmptyBatch,
		},
		{
			name: "unknown transaction and invalid weights",
			req: func() BatchRequest {
				req := twoTransactionBatch()
				req.Transactions = append(req.Transactions,
					TransactionPrintRequest{Company: "ACME", TransactionNo: "TRX-404"},
					TransactionPrintRequest{Transaction: &bad},
				)
				return req
			},
			want:         ErrTransactionNotFound,
			wantFailures: []string{"TRX-404", "TRX-BAD"},
		},
		{
			name: "unknown box",
			req: func() BatchRequest {
				req := twoTransactionBatch()
				req.Transactions[1].BoxNumbers = []int{3}
				return req
			},
			want:         ErrInvalidBoxNumber,
			wantFailures: []string{"TRX-2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBatchFixture(t)

			_, err := f.coordinator.SubmitBatch(context.Background(), tt.req())

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			if tt.wantFailures != nil {
				var batchErr *BatchError
				require.ErrorAs(t, err, &batchErr)
				var got []string
				for _, d := range batchErr.Details() {
					got = append(got, d.TransactionNo)
				}
				assert.Equal(t, tt.wantFailures, got)
			}
			assert.Equal(t, 0, f.manager.Queue().TotalJobs, "a rejected batch creates no job")
		})
	}

	t.Run("invalid weights carry violations", func(t *testing.T) {
		f := newBatchFixture(t)
		req := twoTransactionBatch()
		req.Transactions = []TransactionPrintRequest{{Transaction: &bad}}

		_, err := f.coordinator.SubmitBatch(context.Background(), req)

		var batchErr *BatchError
		require.ErrorAs(t, err, &batchErr)
		assert.ErrorIs(t, err, ErrInvalidWeight)
		details := batchErr.Details()
		require.Len(t, details, 1)
		assert.NotEmpty(t, details[0].Violations)
		_, getErr := f.source.Get(context.Background(), "ACME", "TRX-BAD")
		assert.ErrorIs(t, getErr, ErrTransactionNotFound, "rejected records are not stored")
	})

	t.Run("incompatible printer", func(t *testing.T) {
		f := newBatchFixture(t)
		narrow := labelPrinter("narrow", model.ConnectionUSB, model.PrinterOnline)
		narrow.MaxWidthInches = floatPtr(2)
		f.registry.Upsert(narrow)
		req := twoTransactionBatch()
		req.PrinterName = "narrow"

		_, err := f.coordinator.SubmitBatch(context.Background(), req)

		assert.ErrorIs(t, err, ErrPrinterIncompatible)
		assert.Equal(t, 0, f.manager.Queue().TotalJobs)
	})
}

func TestBatchCoordinator_SubmitBatch_ValidateOnly(t *testing.T) {
	f := newBatchFixture(t)
	req := twoTransactionBatch()
	req.Options.ValidateOnly = true

	resp, err := f.coordinator.SubmitBatch(context.Background(), req)

	require.NoError(t, err)
	assert.True(t, resp.ValidateOnly)
	assert.Empty(t, resp.BatchID)
	assert.Equal(t, 2, resp.TotalJobs)
	assert.Equal(t, 5, resp.TotalLabels)
	assert.Empty(t, resp.Jobs)
	assert.Equal(t, 0, f.manager.Queue().TotalJobs)
}

func TestBatchCoordinator_SubmitBatch_Idempotent(t *testing.T) {
	f := newBatchFixture(t)
	req := twoTransactionBatch()
	req.Options.IdempotencyKey = "upload-7"

	first, err := f.coordinator.SubmitBatch(context.Background(), req)
	require.NoError(t, err)
	second, err := f.coordinator.SubmitBatch(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, f.manager.Queue().TotalJobs)
}

func TestBatchCoordinator_SubmitBatch_ConcurrentSameKey(t *testing.T) {
	f := newBatchFixture(t)
	req := twoTransactionBatch()
	req.Options.IdempotencyKey = "upload-8"

	const callers = 8
	responses := make([]model.BatchPrintResponse, callers)
	errs := make([]error, callers)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			responses[i], errs[i] = f.coordinator.SubmitBatch(context.Background(), req)
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "batch-001", responses[i].BatchID)
		assert.Equal(t, responses[0], responses[i])
	}
	assert.Equal(t, 2, f.manager.Queue().TotalJobs)
	assert.Empty(t, f.coordinator.claimed)
}

func TestBatchCoordinator_SubmitBatch_FailedAttemptReleasesKey(t *testing.T) {
	f := newBatchFixture(t)
	ctx := context.Background()

	bad := twoTransactionBatch()
	bad.Options.IdempotencyKey = "upload-9"
	bad.Transactions = append(bad.Transactions, TransactionPrintRequest{Company: "ACME", TransactionNo: "TRX-404"})
	_, err := f.coordinator.SubmitBatch(ctx, bad)
	var batchErr *BatchError
	require.ErrorAs(t, err, &batchErr)

	good := twoTransactionBatch()
	good.Options.IdempotencyKey = "upload-9"
	resp, err := f.coordinator.SubmitBatch(ctx, good)
	require.NoError(t, err)
	assert.Equal(t, "batch-001", resp.BatchID)
	assert.Empty(t, f.coordinator.claimed)
}

func TestBatchCoordinator_SubmitBatch_InlineTransaction(t *testing.T) {
	f := newBatchFixture(t)
	inline := sampleTransaction("TRX-NEW", threeBoxes()[:1]...)
	req := twoTransactionBatch()
	req.Transactions = append(req.Transactions, TransactionPrintRequest{Transaction: &inline})

	resp, err := f.coordinator.SubmitBatch(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, 3, resp.TotalJobs)
	assert.Equal(t, 6, resp.TotalLabels)

	stored, err := f.source.Get(context.Background(), "ACME", "TRX-NEW")
	require.NoError(t, err)
	assert.Equal(t, "TRX-NEW", stored.TransactionNo)
}

// flakyManager fails every Submit after the first ok ones.
type flakyManager struct {
	PrintJobManager
	ok    int
	calls int
}

func (m *flakyManager) Submit(ctx context.Context, req SubmitRequest) (model.PrintJob, error) {
	m.calls++
	if m.calls > m.ok {
		return model.PrintJob{}, ErrManagerClosed
	}
	return m.PrintJobManager.Submit(ctx, req)
}

func TestBatchCoordinator_SubmitBatch_RollsBackOnSubmitFailure(t *testing.T) {
	f := newBatchFixture(t)
	flaky := &flakyManager{PrintJobManager: f.manager, ok: 1}
	coordinator := NewBatchCoordinator(NewLabelCompositor(NewPayloadCodec()), flaky, f.registry, &seqIDs{}, WithTransactionSource(f.source))

	_, err := coordinator.SubmitBatch(context.Background(), twoTransactionBatch())

	var batchErr *BatchError
	require.ErrorAs(t, err, &batchErr)
	assert.ErrorIs(t, err, ErrManagerClosed)
	assert.Equal(t, "TRX-2", batchErr.Failures[0].TransactionNo)

	q := f.manager.Queue()
	assert.Equal(t, 1, q.TotalJobs)
	assert.Empty(t, q.Jobs, "the job created before the failure was cancelled")
}

func TestBatchCoordinator_PrintTransaction(t *testing.T) {
	f := newBatchFixture(t)
	req := PrintRequest{
		TransactionPrintRequest: TransactionPrintRequest{Company: "ACME", TransactionNo: "TRX-1", BoxNumbers: []int{2, 3}},
		PrinterName:             "zebra-1",
		Settings:                model.DefaultPrintSettings(),
		IdempotencyKey:          "print-1",
	}

	job, err := f.coordinator.PrintTransaction(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, job.Labels, 2)
	assert.Equal(t, 2, job.Labels[0].BoxNumber)

	again, err := f.coordinator.PrintTransaction(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, job.ID, again.ID)

	req.TransactionNo = "TRX-404"
	_, err = f.coordinator.PrintTransaction(context.Background(), req)
	assert.ErrorIs(t, err, ErrTransactionNotFound)

	mismatch := sampleTransaction("TRX-9", threeBoxes()...)
	req.Transaction = &mismatch
	_, err = f.coordinator.PrintTransaction(context.Background(), req)
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestBatchCoordinator_Batch(t *testing.T) {
	f := newBatchFixture(t)
	resp, err := f.coordinator.SubmitBatch(context.Background(), twoTransactionBatch())
	require.NoError(t, err)

	view, err := f.coordinator.Batch(context.Background(), resp.BatchID)
	require.NoError(t, err)
	assert.Equal(t, 2, view.TotalJobs)
	assert.Equal(t, 5, view.TotalLabels)
	assert.Equal(t, 2, view.Queued)
	assert.Nil(t, view.EstimatedCompletionTime)

	_, err = f.registry.SetStatus("zebra-1", model.PrinterOnline)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		v, err := f.coordinator.Batch(context.Background(), resp.BatchID)
		return err == nil && v.Completed == 2
	}, 3*time.Second, 5*time.Millisecond)

	view, err = f.coordinator.Batch(context.Background(), resp.BatchID)
	require.NoError(t, err)
	assert.Zero(t, view.Queued+view.Printing)
	assert.Nil(t, view.EstimatedCompletionTime, "finished batches carry no estimate")

	_, err = f.coordinator.Batch(context.Background(), "batch-404")
	assert.ErrorIs(t, err, ErrBatchNotFound)
}

func TestBatchCoordinator_BatchFromArchive(t *testing.T) {
	archive := &mocks.MockJobArchiveRepositoryInterface{}
	f := newBatchFixture(t, WithBatchArchive(archive))
	ctx := context.Background()

	older := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	labels := transactionLabels(t, "TRX-1")
	archive.On("FindByBatch", mock.Anything, "batch-old").Return([]model.PrintJob{
		{ID: "job-1", BatchID: "batch-old", TransactionNo: "TRX-1", Status: model.JobCompleted, Labels: labels, CreatedAt: older.Add(time.Second)},
		{ID: "job-2", BatchID: "batch-old", TransactionNo: "TRX-2", Status: model.JobFailed, Labels: labels[:1], CreatedAt: older},
	}, nil)
	archive.On("FindByBatch", mock.Anything, "batch-gone").Return([]model.PrintJob{}, nil)
	archive.On("FindByBatch", mock.Anything, "batch-err").Return(nil, errors.New("mongo down"))

	view, err := f.coordinator.Batch(ctx, "batch-old")
	require.NoError(t, err)
	assert.Equal(t, 2, view.TotalJobs)
	assert.Equal(t, 4, view.TotalLabels)
	assert.Equal(t, 1, view.Completed)
	assert.Equal(t, 1, view.Failed)
	assert.Equal(t, older, view.CreatedAt)

	_, err = f.coordinator.Batch(ctx, "batch-gone")
	assert.ErrorIs(t, err, ErrBatchNotFound)

	_, err = f.coordinator.Batch(ctx, "batch-err")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrBatchNotFound)
}
