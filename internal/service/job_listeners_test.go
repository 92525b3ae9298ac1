//go:build !integration

package service

import (
	"errors"
	"sync"
	"testing"

	"github.com/guttosm/label-print-service/internal/domain/model"
	"github.com/guttosm/label-print-service/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type memorySink struct {
	mu      sync.Mutex
	entries []*model.LogEntry
	full    bool
}

func (s *memorySink) Log(entry *model.LogEntry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.full {
		return false
	}
	s.entries = append(s.entries, entry)
	return true
}

func TestJobAuditListener_OnStatus(t *testing.T) {
	sink := &memorySink{}
	l := NewJobAuditListener(sink)

	for _, st := range []model.PrintStatus{
		{JobID: "job-1", Status: model.JobQueued, TransactionNo: "TRX-1", LabelsCount: 3},
		{JobID: "job-1", Status: model.JobQueued, Message: "printer unavailable: zebra-1 is offline"},
		{JobID: "job-1", Status: model.JobPrinting, PrinterName: "zebra-1"},
		{JobID: "job-1", Status: model.JobPrinting, PrinterName: "zebra-1", Progress: 33},
		{JobID: "job-1", Status: model.JobPrinting, PrinterName: "zebra-1", Progress: 66},
		{JobID: "job-1", Status: model.JobFailed, PrinterName: "zebra-1", ErrorMessage: "paper jam"},
		{JobID: "job-2", Status: model.JobQueued},
		{JobID: "job-2", Status: model.JobCancelled, Message: "cancelled before printing"},
	} {
		l.OnStatus(st)
	}

	require.Len(t, sink.entries, 5)
	tests := []struct {
		action string
		level  string
		jobID  string
	}{
		{model.ActionJobSubmitted, "info", "job-1"},
		{model.ActionJobStarted, "info", "job-1"},
		{model.ActionJobFinished, "error", "job-1"},
		{model.ActionJobSubmitted, "info", "job-2"},
		{model.ActionJobCancelled, "info", "job-2"},
	}
	for i, tt := range tests {
		assert.Equal(t, tt.action, sink.entries[i].ActionType, "entry %d", i)
		assert.Equal(t, tt.level, sink.entries[i].Level, "entry %d", i)
		assert.Equal(t, tt.jobID, sink.entries[i].JobID, "entry %d", i)
	}
	assert.Equal(t, "paper jam", sink.entries[2].Error)
	assert.Equal(t, "printing", sink.entries[2].Fields["from"])
	assert.Equal(t, "cancelled before printing", sink.entries[4].Message)
	assert.Empty(t, l.last, "finished jobs are forgotten")
}

func TestJobAuditListener_FullSinkDoesNotBlock(t *testing.T) {
	l := NewJobAuditListener(&memorySink{full: true})
	assert.NotPanics(t, func() {
		l.OnStatus(model.PrintStatus{JobID: "job-1", Status: model.JobQueued})
	})
}

func TestStatusMirror_OnStatus(t *testing.T) {
	store := &mocks.MockStatusStoreInterface{}
	st := model.PrintStatus{JobID: "job-1", Status: model.JobPrinting, Progress: 40}
	store.On("Put", mock.Anything, st).Return(nil).Once()
	store.On("Put", mock.Anything, mock.Anything).Return(errors.New("redis down"))

	m := NewStatusMirror(store, 0)
	assert.Equal(t, DefaultStatusMirrorTimeout, m.timeout)

	m.OnStatus(st)
	m.OnStatus(model.PrintStatus{JobID: "job-1", Status: model.JobCompleted})

	store.AssertNumberOfCalls(t, "Put", 2)
}
