//go:build !integration

package middleware

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/guttosm/label-print-service/internal/domain/model"
	"github.com/guttosm/label-print-service/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestDefaultAsyncLoggerConfig(t *testing.T) {
	cfg := DefaultAsyncLoggerConfig()

	assert.Equal(t, 1000, cfg.BufferSize)
	assert.Equal(t, 4, cfg.NumWorkers)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, time.Second, cfg.FlushInterval)
	assert.Equal(t, 5*time.Second, cfg.WriteTimeout)
}

func TestAsyncLogger_SingleEntryUsesCreateLog(t *testing.T) {
	svc := &mocks.MockLoggingService{}
	svc.On("CreateLog", mock.Anything, mock.MatchedBy(func(e *model.LogEntry) bool {
		return e.JobID == "job-1" && !e.Timestamp.IsZero()
	})).Return(nil).Once()

	al := NewAsyncLogger(svc, AsyncLoggerConfig{NumWorkers: 1, BatchSize: 10, FlushInterval: 10 * time.Millisecond})
	assert.True(t, al.Log(&model.LogEntry{JobID: "job-1"}))
	al.Stop()

	svc.AssertExpectations(t)
	assert.Equal(t, AsyncLoggerStats{Enqueued: 1, Written: 1}, al.Stats())
}

func TestAsyncLogger_BatchesEntries(t *testing.T) {
	svc := &mocks.MockLoggingService{}
	var mu sync.Mutex
	total := 0
	svc.On("CreateLogs", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		mu.Lock()
		total += len(args.Get(1).([]*model.LogEntry))
		mu.Unlock()
	}).Return(nil)
	svc.On("CreateLog", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		mu.Lock()
		total++
		mu.Unlock()
	}).Return(nil)

	al := NewAsyncLogger(svc, AsyncLoggerConfig{BufferSize: 100, NumWorkers: 1, BatchSize: 5, FlushInterval: time.Hour})
	for i := 0; i < 12; i++ {
		al.Log(&model.LogEntry{Message: "entry"})
	}
	al.Stop()

	assert.Equal(t, 12, total)
	assert.Equal(t, int64(12), al.Stats().Written)
	svc.AssertCalled(t, "CreateLogs", mock.Anything, mock.Anything)
}

func TestAsyncLogger_WriteErrors(t *testing.T) {
	svc := &mocks.MockLoggingService{}
	svc.On("CreateLog", mock.Anything, mock.Anything).Return(errors.New("mongo down"))

	al := NewAsyncLogger(svc, AsyncLoggerConfig{NumWorkers: 1, BatchSize: 10, FlushInterval: 10 * time.Millisecond})
	al.Log(&model.LogEntry{})
	al.Stop()

	stats := al.Stats()
	assert.Equal(t, int64(1), stats.Errors)
	assert.Zero(t, stats.Written)
}

func TestAsyncLogger_WithoutServiceLogsOnly(t *testing.T) {
	al := NewAsyncLogger(nil, AsyncLoggerConfig{NumWorkers: 1})
	al.Log(&model.LogEntry{ActionType: model.ActionJobFinished, Level: "error"})
	al.Stop()

	assert.Equal(t, int64(1), al.Stats().Written)
}

func TestAsyncLogger_DropsWhenFullOrStopped(t *testing.T) {
	svc := &mocks.MockLoggingService{}
	block := make(chan struct{})
	svc.On("CreateLog", mock.Anything, mock.Anything).Run(func(mock.Arguments) { <-block }).Return(nil)

	al := NewAsyncLogger(svc, AsyncLoggerConfig{BufferSize: 1, NumWorkers: 1, BatchSize: 1, FlushInterval: time.Hour})
	assert.True(t, al.Log(&model.LogEntry{Message: "first"}))
	assert.Eventually(t, func() bool { return len(al.entryCh) == 0 }, time.Second, time.Millisecond)
	assert.True(t, al.Log(&model.LogEntry{Message: "second"}))
	assert.False(t, al.Log(&model.LogEntry{Message: "third"}))
	assert.False(t, al.Log(nil))

	close(block)
	al.Stop()
	al.Stop()

	assert.False(t, al.Log(&model.LogEntry{Message: "late"}))
	stats := al.Stats()
	assert.Equal(t, int64(2), stats.Enqueued)
	assert.Equal(t, int64(2), stats.Dropped)
	assert.Equal(t, int64(2), stats.Written)
}
