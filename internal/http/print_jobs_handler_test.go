//go:build !integration

package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/guttosm/label-print-service/internal/circuitbreaker"
	"github.com/guttosm/label-print-service/internal/domain/model"
	"github.com/guttosm/label-print-service/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGetPrintJobHistory(t *testing.T) {
	f := newFixture(t)
	live := submitJob(t, f, `{"transaction": `+transactionJSON("TRX-1")+`}`)

	tests := []struct {
		name       string
		jobID      string
		setupMock  func(*mocks.MockLoggingService)
		wantStatus int
		wantError  string
		check      func(*testing.T, []model.LogEntry)
	}{
		{
			name:  "recorded trail",
			jobID: live.JobID,
			setupMock: func(m *mocks.MockLoggingService) {
				m.On("JobHistory", mock.Anything, live.JobID).Return([]model.LogEntry{
					{ActionType: model.ActionJobSubmitted, JobID: live.JobID},
					{ActionType: model.ActionJobStarted, JobID: live.JobID, Printer: "zebra-1"},
				}, nil)
			},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, entries []model.LogEntry) {
				require.Len(t, entries, 2)
				assert.Equal(t, model.ActionJobStarted, entries[1].ActionType)
			},
		},
		{
			name:  "live job without entries yet",
			jobID: live.JobID,
			setupMock: func(m *mocks.MockLoggingService) {
				m.On("JobHistory", mock.Anything, live.JobID).Return([]model.LogEntry{}, nil)
			},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, entries []model.LogEntry) {
				assert.Empty(t, entries)
			},
		},
		{
			name:  "unknown job",
			jobID: "404",
			setupMock: func(m *mocks.MockLoggingService) {
				m.On("JobHistory", mock.Anything, "404").Return([]model.LogEntry{}, nil)
			},
			wantStatus: http.StatusNotFound,
			wantError:  "job_not_found",
		},
		{
			name:  "audit store unavailable",
			jobID: live.JobID,
			setupMock: func(m *mocks.MockLoggingService) {
				m.On("JobHistory", mock.Anything, live.JobID).Return(nil, circuitbreaker.ErrCircuitOpen)
			},
			wantStatus: http.StatusServiceUnavailable,
			wantError:  "service_unavailable",
		},
		{
			name:  "query failure",
			jobID: live.JobID,
			setupMock: func(m *mocks.MockLoggingService) {
				m.On("JobHistory", mock.Anything, live.JobID).Return(nil, errors.New("cursor killed"))
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auditLog := new(mocks.MockLoggingService)
			tt.setupMock(auditLog)
			router := NewRouter(NewHandler(Services{Manager: f.manager, AuditLog: auditLog}), nil, DefaultRouterConfig())

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/print/jobs/"+tt.jobID+"/history", nil))

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, decodeError(t, w).Error)
			}
			if tt.check != nil {
				var entries []model.LogEntry
				decodeData(t, w, &entries)
				tt.check(t, entries)
			}
			auditLog.AssertExpectations(t)
		})
	}
}

func TestGetPrintJobHistory_DisabledWithoutAuditLog(t *testing.T) {
	w := newFixture(t).do(http.MethodGet, "/api/print/jobs/1/history", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}
