package dto

import (
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestErrorResponse_Builders(t *testing.T) {
	details := map[string]string{"copies": "max"}

	resp := NewError(ErrCodeInvalidRequest, "test error").
		WithRequestID("test-id").
		WithDetails(details)

	assert.Equal(t, ErrCodeInvalidRequest, resp.Error)
	assert.Equal(t, "test error", resp.Message)
	assert.Equal(t, "test-id", resp.RequestID)
	assert.Equal(t, details, resp.Details)
	assert.WithinDuration(t, time.Now(), resp.Timestamp, time.Second)
}

func TestErrCodeFromStatus(t *testing.T) {
	tests := []struct {
		status       int
		expectedCode string
	}{
		{http.StatusBadRequest, ErrCodeInvalidRequest},
		{http.StatusNotFound, ErrCodeNotFound},
		{http.StatusConflict, ErrCodeConflict},
		{http.StatusUnprocessableEntity, ErrCodeUnprocessable},
		{http.StatusTooManyRequests, ErrCodeRateLimit},
		{http.StatusGatewayTimeout, ErrCodeTimeout},
		{http.StatusServiceUnavailable, ErrCodeUnavailable},
		{http.StatusInternalServerError, ErrCodeInternal},
		{http.StatusBadGateway, ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.expectedCode, ErrCodeFromStatus(tt.status))
		})
	}
}
