package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/guttosm/label-print-service/internal/circuitbreaker"
	"github.com/guttosm/label-print-service/internal/domain/model"
	"github.com/guttosm/label-print-service/internal/idgen"
	"github.com/guttosm/label-print-service/internal/metrics"
	"github.com/guttosm/label-print-service/internal/printer"
	"github.com/guttosm/label-print-service/internal/repository"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultLabelTimeout bounds the device send of one label copy.
	DefaultLabelTimeout = 30 * time.Second
	// DefaultRetention is how long finished jobs stay in memory when nobody reads them.
	DefaultRetention = time.Hour
	// DefaultReadGrace is how long a finished job stays in memory after its status was read.
	DefaultReadGrace = 5 * time.Minute
	// DefaultJanitorInterval is the period of the eviction sweep.
	DefaultJanitorInterval = 30 * time.Second
	// DefaultDurationSamples is the size of the job duration window used for estimates.
	DefaultDurationSamples = 50
)

// SubmitRequest describes one job: the labels of one transaction.
type SubmitRequest struct {
	Labels         []model.QRLabel
	PrinterName    string
	Settings       model.PrintSettings
	IdempotencyKey string
	BatchID        string
}

// StatusListener observes every job status change, progress updates included.
type StatusListener interface {
	OnStatus(status model.PrintStatus)
}

// StatusListenerFunc adapts a function to StatusListener.
type StatusListenerFunc func(status model.PrintStatus)

// OnStatus implements StatusListener.
func (f StatusListenerFunc) OnStatus(status model.PrintStatus) { f(status) }

// PrintJobManager owns the lifecycle of print jobs.
type PrintJobManager interface {
	Submit(ctx context.Context, req SubmitRequest) (model.PrintJob, error)
	Dispatch()
	Cancel(ctx context.Context, id string) (model.PrintStatus, error)
	Retry(ctx context.Context, id string) (model.PrintStatus, error)
	Status(ctx context.Context, id string) (model.PrintStatus, error)
	Queue() model.PrintQueue
	Jobs(ctx context.Context, ids []string) []model.PrintStatus
	AverageJobDuration() (time.Duration, bool)
	EstimateCompletion(printerName string, dims model.Dimensions, now time.Time) *time.Time
	Start(ctx context.Context)
	Shutdown(ctx context.Context) error
}

// ManagerConfig tunes job execution and eviction.
type ManagerConfig struct {
	LabelTimeout    time.Duration
	Retention       time.Duration
	ReadGrace       time.Duration
	JanitorInterval time.Duration
	DurationSamples int
}

// DefaultManagerConfig returns the default tuning.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		LabelTimeout:    DefaultLabelTimeout,
		Retention:       DefaultRetention,
		ReadGrace:       DefaultReadGrace,
		JanitorInterval: DefaultJanitorInterval,
		DurationSamples: DefaultDurationSamples,
	}
}

type jobEntry struct {
	job             model.PrintJob
	cancelRequested bool
}

// PrintJobManagerService runs jobs against printers reserved through a PrinterRegistry.
// At most one job prints on a printer at a time.
type PrintJobManagerService struct {
	cfg      ManagerConfig
	registry PrinterRegistry
	driver   printer.Driver
	breakers *circuitbreaker.Group
	archive  repository.JobArchiveRepositoryInterface
	ids      idgen.Generator
	now      func() time.Time

	mu          sync.Mutex
	jobs        map[string]*jobEntry
	pending     []string // queued job ids in submission order
	idempotency map[string]string
	durations   []time.Duration
	submitted   int
	completed   int
	failed      int
	closed      bool

	listeners  []StatusListener
	events     []model.PrintStatus
	wake       chan struct{}
	wakeClosed bool
	notifyWG   sync.WaitGroup

	runCtx    context.Context
	runCancel context.CancelFunc
	running   sync.WaitGroup
	stopJan   chan struct{}
	janOnce   sync.Once
}

var _ PrintJobManager = (*PrintJobManagerService)(nil)

// ManagerOption configures a PrintJobManagerService.
type ManagerOption func(*PrintJobManagerService)

// WithManagerConfig overrides the default tuning; zero fields keep their default.
func WithManagerConfig(cfg ManagerConfig) ManagerOption {
	return func(m *PrintJobManagerService) {
		if cfg.LabelTimeout > 0 {
			m.cfg.LabelTimeout = cfg.LabelTimeout
		}
		if cfg.Retention > 0 {
			m.cfg.Retention = cfg.Retention
		}
		if cfg.ReadGrace > 0 {
			m.cfg.ReadGrace = cfg.ReadGrace
		}
		if cfg.JanitorInterval > 0 {
			m.cfg.JanitorInterval = cfg.JanitorInterval
		}
		if cfg.DurationSamples > 0 {
			m.cfg.DurationSamples = cfg.DurationSamples
		}
	}
}

// WithBreakers sets the per-printer circuit breakers.
func WithBreakers(g *circuitbreaker.Group) ManagerOption {
	return func(m *PrintJobManagerService) {
		m.breakers = g
	}
}

// WithJobArchive persists finished jobs before they are evicted.
func WithJobArchive(archive repository.JobArchiveRepositoryInterface) ManagerOption {
	return func(m *PrintJobManagerService) {
		m.archive = archive
	}
}

// WithStatusListeners registers listeners for job status changes.
func WithStatusListeners(listeners ...StatusListener) ManagerOption {
	return func(m *PrintJobManagerService) {
		m.listeners = append(m.listeners, listeners...)
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *PrintJobManagerService) {
		m.now = now
	}
}

// NewPrintJobManager creates a manager and subscribes it to printer status changes,
// so a printer coming back online picks up its waiting jobs.
func NewPrintJobManager(registry PrinterRegistry, driver printer.Driver, ids idgen.Generator, opts ...ManagerOption) *PrintJobManagerService {
	runCtx, runCancel := context.WithCancel(context.Background())
	m := &PrintJobManagerService{
		cfg:         DefaultManagerConfig(),
		registry:    registry,
		driver:      driver,
		ids:         ids,
		now:         time.Now,
		jobs:        make(map[string]*jobEntry),
		idempotency: make(map[string]string),
		wake:        make(chan struct{}, 1),
		runCtx:      runCtx,
		runCancel:   runCancel,
		stopJan:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.breakers == nil {
		m.breakers = circuitbreaker.NewGroup(circuitbreaker.DefaultConfig())
	}

	registry.OnChange(m.onPrinterChange)

	m.notifyWG.Add(1)
	go m.notifyLoop()
	return m
}

func (m *PrintJobManagerService) onPrinterChange(prev, cur model.PrinterInfo) {
	if cur.Status == model.PrinterOnline && prev.Status != model.PrinterOnline {
		m.breakers.Reset(cur.Name)
		log.Info().Str("printer", cur.Name).Msg("Printer back online, dispatching waiting jobs")
	}
	m.Dispatch()
}

// Submit validates and enqueues a job, then triggers a dispatch pass.
// The returned copy reflects the job at creation time.
func (m *PrintJobManagerService) Submit(_ context.Context, req SubmitRequest) (model.PrintJob, error) {
	if len(req.Labels) == 0 {
		return model.PrintJob{}, ErrEmptyJob
	}
	txNo := req.Labels[0].Payload.TransactionNo
	for _, l := range req.Labels[1:] {
		if l.Payload.TransactionNo != txNo {
			return model.PrintJob{}, fmt.Errorf("%w: %q and %q", ErrHeterogeneousBatch, txNo, l.Payload.TransactionNo)
		}
	}

	settings := req.Settings
	if settings.Copies < 1 {
		settings.Copies = 1
	}
	if req.PrinterName != "" {
		if p, err := m.registry.Get(req.PrinterName); err == nil && !p.CanPrint(settings.Dimensions) {
			return model.PrintJob{}, fmt.Errorf("%w: %s cannot print %.2gx%.2gin labels",
				ErrPrinterIncompatible, p.Name, settings.Dimensions.WidthInches, settings.Dimensions.HeightInches)
		}
	} else if err := m.registry.CheckCapable(settings.Dimensions); err != nil {
		return model.PrintJob{}, err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return model.PrintJob{}, ErrManagerClosed
	}
	if req.IdempotencyKey != "" {
		if id, ok := m.idempotency[req.IdempotencyKey]; ok {
			if e, ok := m.jobs[id]; ok {
				job := e.job
				m.mu.Unlock()
				return job, nil
			}
		}
	}

	job := model.PrintJob{
		ID:               m.ids.JobID(),
		TransactionNo:    txNo,
		Company:          req.Labels[0].Payload.Company,
		RequestedPrinter: req.PrinterName,
		BatchID:          req.BatchID,
		IdempotencyKey:   req.IdempotencyKey,
		Labels:           append([]model.QRLabel(nil), req.Labels...),
		Settings:         settings,
		Status:           model.JobQueued,
		CreatedAt:        m.now().UTC(),
	}
	m.jobs[job.ID] = &jobEntry{job: job}
	m.pending = append(m.pending, job.ID)
	if req.IdempotencyKey != "" {
		m.idempotency[req.IdempotencyKey] = job.ID
	}
	m.submitted++
	m.emit(job)
	m.mu.Unlock()

	metrics.RecordJobStatus(string(model.JobQueued), 0)
	log.Info().
		Str("job_id", job.ID).
		Str("transaction_no", job.TransactionNo).
		Str("printer", job.RequestedPrinter).
		Int("labels", len(job.Labels)).
		Msg("Print job queued")

	m.Dispatch()
	return job, nil
}

type startedJob struct {
	entry   *jobEntry
	printer model.PrinterInfo
}

// Dispatch moves queued jobs onto printers. Each named printer considers only the
// oldest job waiting for it; unassigned jobs then take the first idle capable printer.
func (m *PrintJobManagerService) Dispatch() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}

	var started []startedJob
	var finished []model.PrintJob
	headSeen := make(map[string]bool)
	remaining := m.pending[:0]

	for _, id := range m.pending {
		e, ok := m.jobs[id]
		if !ok || e.job.Status != model.JobQueued {
			continue
		}
		name := e.job.RequestedPrinter
		if name == "" || headSeen[name] {
			remaining = append(remaining, id)
			continue
		}
		headSeen[name] = true

		p, err := m.registry.Reserve(name, id, e.job.Settings.Dimensions)
		switch {
		case err == nil:
			m.startLocked(e, p)
			started = append(started, startedJob{entry: e, printer: p})
		case errors.Is(err, ErrPrinterIncompatible):
			m.finishLocked(e, model.JobFailed, err.Error())
			finished = append(finished, e.job)
		default:
			m.blockLocked(e, err.Error())
			remaining = append(remaining, id)
		}
	}

	pending := remaining
	remaining = make([]string, 0, len(pending))
	for _, id := range pending {
		e := m.jobs[id]
		if e.job.RequestedPrinter != "" {
			remaining = append(remaining, id)
			continue
		}
		p, ok := m.registry.ReserveFirst(id, e.job.Settings.Dimensions)
		if !ok {
			if err := m.registry.CheckCapable(e.job.Settings.Dimensions); err != nil {
				m.finishLocked(e, model.JobFailed, err.Error())
				finished = append(finished, e.job)
				continue
			}
			m.blockLocked(e, "waiting for an idle capable printer")
			remaining = append(remaining, id)
			continue
		}
		m.startLocked(e, p)
		started = append(started, startedJob{entry: e, printer: p})
	}
	m.pending = remaining
	m.mu.Unlock()

	for _, job := range finished {
		metrics.RecordJobStatus(string(job.Status), 0)
	}
	for _, s := range started {
		metrics.RecordJobStatus(string(model.JobPrinting), 0)
		log.Info().
			Str("job_id", s.entry.job.ID).
			Str("printer", s.printer.Name).
			Msg("Print job started")
		m.running.Add(1)
		go m.run(s.entry, s.printer)
	}
}

func (m *PrintJobManagerService) startLocked(e *jobEntry, p model.PrinterInfo) {
	now := m.now().UTC()
	e.job.Status = model.JobPrinting
	e.job.PrinterName = p.Name
	e.job.StartedAt = &now
	e.job.Progress = 0
	e.job.Message = "printing on " + p.Name
	m.emit(e.job)
}

func (m *PrintJobManagerService) blockLocked(e *jobEntry, reason string) {
	if e.job.Message == reason {
		return
	}
	e.job.Message = reason
	m.emit(e.job)
}

// finishLocked moves a job to a terminal status. The caller releases the printer.
func (m *PrintJobManagerService) finishLocked(e *jobEntry, status model.JobStatus, detail string) {
	if !e.job.Status.CanTransitionTo(status) {
		return
	}
	now := m.now().UTC()
	e.job.Status = status
	e.job.CompletedAt = &now

	switch status {
	case model.JobCompleted:
		e.job.Progress = 100
		e.job.Message = "completed"
		m.completed++
		if d := e.job.Duration(); d > 0 {
			m.durations = append(m.durations, d)
			if len(m.durations) > m.cfg.DurationSamples {
				m.durations = m.durations[len(m.durations)-m.cfg.DurationSamples:]
			}
		}
	case model.JobFailed:
		e.job.ErrorMessage = detail
		e.job.Message = "failed"
		m.failed++
	case model.JobCancelled:
		e.job.Message = detail
	}
	m.emit(e.job)
}

// run prints every copy of every label, checking for cancellation before each one.
func (m *PrintJobManagerService) run(e *jobEntry, p model.PrinterInfo) {
	defer m.running.Done()

	m.mu.Lock()
	labels := e.job.Labels
	copies := e.job.Settings.Copies
	total := e.job.PageCount()
	id := e.job.ID
	m.mu.Unlock()

	var runErr error
	sent := 0
loop:
	for _, label := range labels {
		data := printer.RenderZPL(label)
		for c := 0; c < copies; c++ {
			if m.cancelRequested(e) {
				break loop
			}

			ctx, cancel := context.WithTimeout(m.runCtx, m.cfg.LabelTimeout)
			err := m.breakers.Execute(ctx, p.Name, func() error {
				return m.driver.Send(ctx, p, data)
			})
			cancel()
			if err != nil {
				metrics.RecordLabel("failed")
				runErr = err
				break loop
			}

			metrics.RecordLabel("sent")
			sent++
			m.advance(e, sent*100/total)
		}
	}

	m.mu.Lock()
	switch {
	case runErr == nil && sent == total:
		m.finishLocked(e, model.JobCompleted, "")
	case e.cancelRequested || m.runCtx.Err() != nil:
		m.finishLocked(e, model.JobCancelled, fmt.Sprintf("cancelled after %d of %d labels", sent, total))
	case runErr != nil:
		if errors.Is(runErr, circuitbreaker.ErrCircuitOpen) {
			runErr = fmt.Errorf("%w: %s is failing repeatedly", ErrPrinterUnavailable, p.Name)
		}
		m.finishLocked(e, model.JobFailed, runErr.Error())
	}
	job := e.job
	m.registry.Release(p.Name, id)
	m.mu.Unlock()

	metrics.RecordJobStatus(string(job.Status), job.Duration())
	event := log.Info()
	if job.Status == model.JobFailed {
		event = log.Warn().Str("error", job.ErrorMessage)
	}
	event.
		Str("job_id", job.ID).
		Str("printer", p.Name).
		Str("status", string(job.Status)).
		Dur("duration", job.Duration()).
		Msg("Print job finished")

	m.Dispatch()
}

func (m *PrintJobManagerService) cancelRequested(e *jobEntry) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return e.cancelRequested
}

// advance raises progress, holding it below 100 until the job completes.
func (m *PrintJobManagerService) advance(e *jobEntry, progress int) {
	if progress > 99 {
		progress = 99
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.job.Status != model.JobPrinting || progress <= e.job.Progress {
		return
	}
	e.job.Progress = progress
	m.emit(e.job)
}

// Cancel cancels a queued job at once; a printing job stops at its next label.
func (m *PrintJobManagerService) Cancel(ctx context.Context, id string) (model.PrintStatus, error) {
	m.mu.Lock()
	e, ok := m.jobs[id]
	if !ok {
		m.mu.Unlock()
		if job, err := m.archived(ctx, id); err == nil {
			return job.ToStatus(), fmt.Errorf("%w: job %s is %s", ErrInvalidTransition, id, job.Status)
		}
		return model.PrintStatus{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	defer m.mu.Unlock()

	switch e.job.Status {
	case model.JobQueued:
		m.finishLocked(e, model.JobCancelled, "cancelled before printing")
		m.removePendingLocked(id)
		metrics.RecordJobStatus(string(model.JobCancelled), 0)
	case model.JobPrinting:
		if !e.cancelRequested {
			e.cancelRequested = true
			e.job.Message = "cancellation requested"
			m.emit(e.job)
		}
	default:
		return e.job.ToStatus(), fmt.Errorf("%w: job %s is %s", ErrInvalidTransition, id, e.job.Status)
	}
	return e.job.ToStatus(), nil
}

func (m *PrintJobManagerService) removePendingLocked(id string) {
	for i, pid := range m.pending {
		if pid == id {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			return
		}
	}
}

// Retry asks for another dispatch attempt of a queued job, closing its printer's
// circuit first. Failed jobs are never retried; submit them again.
func (m *PrintJobManagerService) Retry(ctx context.Context, id string) (model.PrintStatus, error) {
	m.mu.Lock()
	e, ok := m.jobs[id]
	if !ok {
		m.mu.Unlock()
		if job, err := m.archived(ctx, id); err == nil {
			return job.ToStatus(), fmt.Errorf("%w: job %s is %s", ErrInvalidTransition, id, job.Status)
		}
		return model.PrintStatus{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if e.job.Status != model.JobQueued {
		status := e.job.ToStatus()
		m.mu.Unlock()
		return status, fmt.Errorf("%w: only queued jobs can be retried, job %s is %s", ErrInvalidTransition, id, status.Status)
	}
	name := e.job.RequestedPrinter
	e.job.Message = "retry requested"
	m.emit(e.job)
	m.mu.Unlock()

	if name != "" {
		m.breakers.Reset(name)
	}
	log.Info().Str("job_id", id).Str("printer", name).Msg("Print job retry requested")
	m.Dispatch()

	m.mu.Lock()
	defer m.mu.Unlock()
	return e.job.ToStatus(), nil
}

// Status returns a job's status, marking finished jobs as read.
func (m *PrintJobManagerService) Status(ctx context.Context, id string) (model.PrintStatus, error) {
	m.mu.Lock()
	if e, ok := m.jobs[id]; ok {
		if e.job.Status.IsTerminal() && e.job.ReadAt == nil {
			now := m.now().UTC()
			e.job.ReadAt = &now
		}
		status := e.job.ToStatus()
		m.mu.Unlock()
		return status, nil
	}
	m.mu.Unlock()

	job, err := m.archived(ctx, id)
	if err != nil {
		return model.PrintStatus{}, err
	}
	return job.ToStatus(), nil
}

func (m *PrintJobManagerService) archived(ctx context.Context, id string) (*model.PrintJob, error) {
	if m.archive == nil {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	job, err := m.archive.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load archived job %s: %w", id, err)
	}
	if job == nil {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return job, nil
}

// Queue returns the live jobs in submission order with cumulative counters.
func (m *PrintJobManagerService) Queue() model.PrintQueue {
	m.mu.Lock()
	defer m.mu.Unlock()

	q := model.PrintQueue{
		Jobs:          []model.PrintStatus{},
		ActiveJobs:    []model.PrintStatus{},
		TotalJobs:     m.submitted,
		CompletedJobs: m.completed,
		FailedJobs:    m.failed,
	}

	live := make([]*jobEntry, 0, len(m.jobs))
	for _, e := range m.jobs {
		if !e.job.Status.IsTerminal() {
			live = append(live, e)
		}
	}
	sort.Slice(live, func(i, j int) bool {
		if !live[i].job.CreatedAt.Equal(live[j].job.CreatedAt) {
			return live[i].job.CreatedAt.Before(live[j].job.CreatedAt)
		}
		return live[i].job.ID < live[j].job.ID
	})

	for _, e := range live {
		st := e.job.ToStatus()
		q.Jobs = append(q.Jobs, st)
		if e.job.Status == model.JobPrinting {
			q.ActiveJobs = append(q.ActiveJobs, st)
		}
	}
	if len(q.ActiveJobs) > 0 {
		active := q.ActiveJobs[0]
		q.ActiveJob = &active
	}
	return q
}

// Jobs returns the statuses of the given jobs, in order, skipping unknown ids.
func (m *PrintJobManagerService) Jobs(ctx context.Context, ids []string) []model.PrintStatus {
	out := make([]model.PrintStatus, 0, len(ids))
	var missing []int

	m.mu.Lock()
	for i, id := range ids {
		if e, ok := m.jobs[id]; ok {
			out = append(out, e.job.ToStatus())
			continue
		}
		out = append(out, model.PrintStatus{})
		missing = append(missing, i)
	}
	m.mu.Unlock()

	for _, i := range missing {
		if job, err := m.archived(ctx, ids[i]); err == nil {
			out[i] = job.ToStatus()
		}
	}

	kept := out[:0]
	for _, st := range out {
		if st.JobID != "" {
			kept = append(kept, st)
		}
	}
	return kept
}

// AverageJobDuration is the mean printing time of recent completed jobs.
func (m *PrintJobManagerService) AverageJobDuration() (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.averageLocked()
}

func (m *PrintJobManagerService) averageLocked() (time.Duration, bool) {
	if len(m.durations) == 0 {
		return 0, false
	}
	var sum time.Duration
	for _, d := range m.durations {
		sum += d
	}
	return sum / time.Duration(len(m.durations)), true
}

// EstimateCompletion predicts when the last job now waiting for printerName finishes:
// now + depth*avg + the remaining share of the job printing there. With no printer name
// the depth of unassigned work is spread over the online capable printers.
// It returns nil when no duration sample exists.
func (m *PrintJobManagerService) EstimateCompletion(printerName string, dims model.Dimensions, now time.Time) *time.Time {
	m.mu.Lock()
	avg, ok := m.averageLocked()
	if !ok {
		m.mu.Unlock()
		return nil
	}

	depth := 0
	var remaining []time.Duration
	for _, e := range m.jobs {
		switch e.job.Status {
		case model.JobQueued:
			if e.job.RequestedPrinter == printerName {
				depth++
			}
		case model.JobPrinting:
			if printerName == "" || e.job.PrinterName == printerName {
				remaining = append(remaining, avg*time.Duration(100-e.job.Progress)/100)
			}
		}
	}
	m.mu.Unlock()

	var active time.Duration
	if len(remaining) > 0 {
		sort.Slice(remaining, func(i, j int) bool { return remaining[i] < remaining[j] })
		active = remaining[0]
	}

	wait := time.Duration(depth) * avg
	if printerName == "" {
		n := m.registry.CapableOnline(dims)
		if n < 1 {
			n = 1
		}
		rounds := (depth + n - 1) / n
		wait = time.Duration(rounds) * avg
	}

	eta := now.Add(wait + active).UTC()
	return &eta
}

// Start launches the janitor that archives and evicts finished jobs.
func (m *PrintJobManagerService) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(m.cfg.JanitorInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-m.stopJan:
				return
			case <-ticker.C:
				m.sweep(ctx, false)
			}
		}
	}()
}

// sweep archives then evicts finished jobs that were read and are past the read grace,
// or that are past retention. With all set, every finished job goes.
func (m *PrintJobManagerService) sweep(ctx context.Context, all bool) int {
	now := m.now()

	m.mu.Lock()
	var due []model.PrintJob
	for _, e := range m.jobs {
		if !e.job.Status.IsTerminal() || e.job.CompletedAt == nil {
			continue
		}
		read := e.job.ReadAt != nil && now.Sub(*e.job.ReadAt) >= m.cfg.ReadGrace
		expired := now.Sub(*e.job.CompletedAt) >= m.cfg.Retention
		if all || read || expired {
			due = append(due, e.job)
		}
	}
	m.mu.Unlock()

	evicted := 0
	for i := range due {
		job := &due[i]
		if m.archive != nil {
			if err := m.archive.Save(ctx, job); err != nil {
				log.Error().Err(err).Str("job_id", job.ID).Msg("Failed to archive print job")
				continue
			}
		}

		m.mu.Lock()
		delete(m.jobs, job.ID)
		if job.IdempotencyKey != "" && m.idempotency[job.IdempotencyKey] == job.ID {
			delete(m.idempotency, job.IdempotencyKey)
		}
		m.mu.Unlock()
		evicted++
	}

	if evicted > 0 {
		log.Debug().Int("evicted", evicted).Msg("Evicted finished print jobs")
	}
	return evicted
}

// Shutdown stops accepting work, cancels queued jobs and waits for printing jobs.
// When ctx ends first, in-flight sends are aborted and those jobs end cancelled.
// Finished jobs are archived before listeners are closed.
func (m *PrintJobManagerService) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	for _, id := range m.pending {
		if e, ok := m.jobs[id]; ok {
			m.finishLocked(e, model.JobCancelled, "service shutting down")
		}
	}
	m.pending = nil
	m.mu.Unlock()
	m.janOnce.Do(func() { close(m.stopJan) })

	drained := make(chan struct{})
	go func() {
		m.running.Wait()
		close(drained)
	}()

	var err error
	select {
	case <-drained:
	case <-ctx.Done():
		err = ctx.Err()
		m.mu.Lock()
		for _, e := range m.jobs {
			if e.job.Status == model.JobPrinting {
				e.cancelRequested = true
			}
		}
		m.mu.Unlock()
		m.runCancel()
		<-drained
	}
	m.runCancel()

	archiveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	m.sweep(archiveCtx, true)

	m.mu.Lock()
	m.wakeClosed = true
	close(m.wake)
	m.mu.Unlock()
	m.notifyWG.Wait()
	return err
}

// emit queues a status event; the lock must be held so events keep their order.
func (m *PrintJobManagerService) emit(job model.PrintJob) {
	m.events = append(m.events, job.ToStatus())

	depth := 0
	for _, e := range m.jobs {
		if !e.job.Status.IsTerminal() {
			depth++
		}
	}
	metrics.SetQueueDepth(depth)

	if m.wakeClosed {
		return
	}
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *PrintJobManagerService) notifyLoop() {
	defer m.notifyWG.Done()
	for range m.wake {
		m.drainEvents()
	}
	m.drainEvents()
}

func (m *PrintJobManagerService) drainEvents() {
	for {
		m.mu.Lock()
		events := m.events
		m.events = nil
		m.mu.Unlock()
		if len(events) == 0 {
			return
		}
		for _, ev := range events {
			for _, l := range m.listeners {
				l.OnStatus(ev)
			}
		}
	}
}
