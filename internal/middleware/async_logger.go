package middleware

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/guttosm/label-print-service/internal/domain/model"
	"github.com/guttosm/label-print-service/internal/logger"
	"github.com/guttosm/label-print-service/internal/service"
)

// AsyncLoggerConfig holds configuration for the async logger.
type AsyncLoggerConfig struct {
	// BufferSize is the size of the log entry channel buffer.
	BufferSize int
	// NumWorkers is the number of worker goroutines processing logs.
	NumWorkers int
	// BatchSize is the most entries one worker writes in a single call.
	BatchSize int
	// FlushInterval bounds how long a partial batch waits.
	FlushInterval time.Duration
	// WriteTimeout is the timeout for writing one batch to the database.
	WriteTimeout time.Duration
}

// DefaultAsyncLoggerConfig returns sensible defaults for the async logger.
func DefaultAsyncLoggerConfig() AsyncLoggerConfig {
	return AsyncLoggerConfig{
		BufferSize:    1000,
		NumWorkers:    4,
		BatchSize:     50,
		FlushInterval: time.Second,
		WriteTimeout:  5 * time.Second,
	}
}

// AsyncLoggerStats counts entries by outcome.
type AsyncLoggerStats struct {
	Enqueued int64 `json:"enqueued"`
	Dropped  int64 `json:"dropped"`
	Written  int64 `json:"written"`
	Errors   int64 `json:"errors"`
}

// AsyncLogger writes audit entries through a bounded worker pool.
// Without a logging service entries only go to the process log.
type AsyncLogger struct {
	loggingService service.LoggingService
	cfg            AsyncLoggerConfig
	entryCh        chan *model.LogEntry
	wg             sync.WaitGroup
	stopCh         chan struct{}
	stopOnce       sync.Once

	enqueued int64
	dropped  int64
	written  int64
	errors   int64
}

var _ service.AuditSink = (*AsyncLogger)(nil)

// NewAsyncLogger creates a new async logger and starts its workers.
func NewAsyncLogger(loggingService service.LoggingService, cfg AsyncLoggerConfig) *AsyncLogger {
	def := DefaultAsyncLoggerConfig()
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = def.BufferSize
	}
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = def.NumWorkers
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = def.FlushInterval
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}

	al := &AsyncLogger{
		loggingService: loggingService,
		cfg:            cfg,
		entryCh:        make(chan *model.LogEntry, cfg.BufferSize),
		stopCh:         make(chan struct{}),
	}

	for i := 0; i < cfg.NumWorkers; i++ {
		al.wg.Add(1)
		go al.worker()
	}

	return al
}

func (al *AsyncLogger) worker() {
	defer al.wg.Done()

	ticker := time.NewTicker(al.cfg.FlushInterval)
	defer ticker.Stop()

	batch := make([]*model.LogEntry, 0, al.cfg.BatchSize)
	flush := func() {
		if len(batch) > 0 {
			al.write(batch)
			batch = make([]*model.LogEntry, 0, al.cfg.BatchSize)
		}
	}

	for {
		select {
		case entry := <-al.entryCh:
			batch = append(batch, entry)
			if len(batch) >= al.cfg.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-al.stopCh:
			// Drain remaining entries before stopping
			for {
				select {
				case entry := <-al.entryCh:
					batch = append(batch, entry)
					if len(batch) >= al.cfg.BatchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		}
	}
}

func (al *AsyncLogger) write(batch []*model.LogEntry) {
	n := int64(len(batch))
	if al.loggingService == nil {
		for _, e := range batch {
			logEntry(e)
		}
		atomic.AddInt64(&al.written, n)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), al.cfg.WriteTimeout)
	defer cancel()

	var err error
	if len(batch) == 1 {
		err = al.loggingService.CreateLog(ctx, batch[0])
	} else {
		err = al.loggingService.CreateLogs(ctx, batch)
	}
	if err != nil {
		atomic.AddInt64(&al.errors, n)
		log := logger.Logger()
		log.Warn().Err(err).Int("entries", len(batch)).Msg("Failed to write audit log entries")
		return
	}
	atomic.AddInt64(&al.written, n)
}

func logEntry(e *model.LogEntry) {
	log := logger.Component("audit")
	ev := log.Info()
	if e.Level == "error" {
		ev = log.Error()
	}
	ev.Str("action", e.ActionType).
		Str("request_id", e.RequestID).
		Str("job_id", e.JobID).
		Str("batch_id", e.BatchID).
		Str("printer", e.Printer).
		Str("error", e.Error).
		Fields(e.Fields).
		Msg(e.Message)
}

// Log enqueues an entry. It returns false when the buffer is full or the logger stopped.
func (al *AsyncLogger) Log(entry *model.LogEntry) bool {
	if entry == nil {
		return false
	}
	select {
	case <-al.stopCh:
		atomic.AddInt64(&al.dropped, 1)
		return false
	default:
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	select {
	case al.entryCh <- entry:
		atomic.AddInt64(&al.enqueued, 1)
		return true
	default:
		atomic.AddInt64(&al.dropped, 1)
		return false
	}
}

// Stop flushes pending entries and waits for the workers. It is safe to call twice.
func (al *AsyncLogger) Stop() {
	al.stopOnce.Do(func() {
		close(al.stopCh)
		al.wg.Wait()
	})
}

// Stats returns current async logger statistics.
func (al *AsyncLogger) Stats() AsyncLoggerStats {
	return AsyncLoggerStats{
		Enqueued: atomic.LoadInt64(&al.enqueued),
		Dropped:  atomic.LoadInt64(&al.dropped),
		Written:  atomic.LoadInt64(&al.written),
		Errors:   atomic.LoadInt64(&al.errors),
	}
}
