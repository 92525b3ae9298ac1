// Package middleware provides gin middleware and audit logging utilities.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/label-print-service/internal/domain/model"
	"github.com/guttosm/label-print-service/internal/service"
)

// Field names lifted from audit fields into their own log columns.
const (
	AuditFieldJobID   = "job_id"
	AuditFieldBatchID = "batch_id"
	AuditFieldPrinter = "printer"
)

func newAuditEntry(c *gin.Context, level, actionType, message string, fields map[string]interface{}) *model.LogEntry {
	entry := &model.LogEntry{
		Timestamp:  time.Now().UTC(),
		Level:      level,
		Message:    message,
		RequestID:  GetRequestID(c),
		Method:     c.Request.Method,
		Path:       c.Request.URL.Path,
		IP:         c.ClientIP(),
		ActionType: actionType,
	}

	rest := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		s, isString := v.(string)
		switch {
		case k == AuditFieldJobID && isString:
			entry.JobID = s
		case k == AuditFieldBatchID && isString:
			entry.BatchID = s
		case k == AuditFieldPrinter && isString:
			entry.Printer = s
		default:
			rest[k] = v
		}
	}
	if len(rest) > 0 {
		entry.Fields = rest
	}
	return entry
}

// AuditLog records an operator action such as a submission, cancellation or retry.
func AuditLog(sink service.AuditSink, c *gin.Context, actionType string, message string, fields map[string]interface{}) {
	if sink == nil {
		return
	}
	sink.Log(newAuditEntry(c, "info", actionType, message, fields))
}

// AuditLogError records a rejected operator action.
func AuditLogError(sink service.AuditSink, c *gin.Context, actionType string, message string, err error, fields map[string]interface{}) {
	if sink == nil {
		return
	}
	entry := newAuditEntry(c, "error", actionType, message, fields)
	if err != nil {
		entry.Error = err.Error()
	}
	sink.Log(entry)
}
