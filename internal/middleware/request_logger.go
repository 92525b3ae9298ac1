package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/label-print-service/internal/domain/model"
	"github.com/guttosm/label-print-service/internal/logger"
	"github.com/guttosm/label-print-service/internal/service"
)

// RequestLogger returns a middleware that logs HTTP request details in JSON format.
// It logs: request ID, method, path, status code, latency and IP.
// With a sink, mutating requests are also written to the audit trail.
func RequestLogger(sink service.AuditSink) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()
		requestID := GetRequestID(c)
		method := c.Request.Method
		path := c.Request.URL.Path
		ip := c.ClientIP()

		log := logger.Logger().With().
			Str("request_id", requestID).
			Str("method", method).
			Str("path", path).
			Str("route", c.FullPath()).
			Int("status_code", statusCode).
			Int64("duration_ms", latency.Milliseconds()).
			Str("ip", ip).
			Logger()

		switch {
		case statusCode >= 500:
			log.Error().Msg("HTTP request")
		case statusCode >= 400:
			log.Warn().Msg("HTTP request")
		default:
			log.Info().Msg("HTTP request")
		}

		if sink == nil || method == "GET" || method == "HEAD" || method == "OPTIONS" {
			return
		}
		sink.Log(&model.LogEntry{
			Timestamp:  time.Now().UTC(),
			Level:      getLogLevel(statusCode),
			Message:    "HTTP request",
			ActionType: model.ActionHTTPRequest,
			RequestID:  requestID,
			Method:     method,
			Path:       path,
			StatusCode: statusCode,
			Duration:   latency.Milliseconds(),
			IP:         ip,
		})
	}
}

// getLogLevel returns the log level based on HTTP status code.
func getLogLevel(statusCode int) string {
	switch {
	case statusCode >= 500:
		return "error"
	case statusCode >= 400:
		return "warn"
	default:
		return "info"
	}
}
