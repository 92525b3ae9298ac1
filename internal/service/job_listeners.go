package service

import (
	"context"
	"sync"
	"time"

	"github.com/guttosm/label-print-service/internal/domain/model"
	"github.com/guttosm/label-print-service/internal/repository"
	"github.com/rs/zerolog/log"
)

// AuditSink accepts audit entries without blocking the caller.
type AuditSink interface {
	Log(entry *model.LogEntry) bool
}

// JobAuditListener writes one audit entry per job status transition.
// Progress-only updates are not audited.
type JobAuditListener struct {
	sink AuditSink

	mu   sync.Mutex
	last map[string]model.JobStatus
}

var _ StatusListener = (*JobAuditListener)(nil)

// NewJobAuditListener creates a listener writing to sink.
func NewJobAuditListener(sink AuditSink) *JobAuditListener {
	return &JobAuditListener{sink: sink, last: make(map[string]model.JobStatus)}
}

// OnStatus implements StatusListener.
func (l *JobAuditListener) OnStatus(st model.PrintStatus) {
	l.mu.Lock()
	prev, seen := l.last[st.JobID]
	if seen && prev == st.Status {
		l.mu.Unlock()
		return
	}
	if st.Status.IsTerminal() {
		delete(l.last, st.JobID)
	} else {
		l.last[st.JobID] = st.Status
	}
	l.mu.Unlock()

	entry := &model.LogEntry{
		Timestamp: time.Now(),
		Level:     "info",
		JobID:     st.JobID,
		BatchID:   st.BatchID,
		Printer:   st.PrinterName,
		Fields: map[string]interface{}{
			"transaction_no": st.TransactionNo,
			"labels":         st.LabelsCount,
			"progress":       st.Progress,
		},
	}
	if seen {
		entry.Fields["from"] = string(prev)
	}

	switch st.Status {
	case model.JobQueued:
		entry.ActionType = model.ActionJobSubmitted
		entry.Message = "Print job queued"
	case model.JobPrinting:
		entry.ActionType = model.ActionJobStarted
		entry.Message = "Print job started"
	case model.JobCancelled:
		entry.ActionType = model.ActionJobCancelled
		entry.Message = st.Message
	case model.JobCompleted:
		entry.ActionType = model.ActionJobFinished
		entry.Message = "Print job completed"
	case model.JobFailed:
		entry.ActionType = model.ActionJobFinished
		entry.Level = "error"
		entry.Message = "Print job failed"
		entry.Error = st.ErrorMessage
	}

	if !l.sink.Log(entry) {
		log.Warn().Str("job_id", st.JobID).Str("action", entry.ActionType).Msg("Audit buffer full, entry dropped")
	}
}

// DefaultStatusMirrorTimeout bounds one status store write.
const DefaultStatusMirrorTimeout = 2 * time.Second

// StatusMirror copies every job status into an external store such as Redis.
// Failures are logged; the job itself is never affected.
type StatusMirror struct {
	store   repository.StatusStoreInterface
	timeout time.Duration
}

var _ StatusListener = (*StatusMirror)(nil)

// NewStatusMirror creates a mirror; a non-positive timeout uses DefaultStatusMirrorTimeout.
func NewStatusMirror(store repository.StatusStoreInterface, timeout time.Duration) *StatusMirror {
	if timeout <= 0 {
		timeout = DefaultStatusMirrorTimeout
	}
	return &StatusMirror{store: store, timeout: timeout}
}

// OnStatus implements StatusListener.
func (m *StatusMirror) OnStatus(st model.PrintStatus) {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	if err := m.store.Put(ctx, st); err != nil {
		log.Warn().Err(err).Str("job_id", st.JobID).Str("status", string(st.Status)).Msg("Failed to mirror job status")
	}
}
