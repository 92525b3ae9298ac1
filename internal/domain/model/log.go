package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Audit action types recorded for print operations.
const (
	ActionJobSubmitted   = "job_submitted"
	ActionJobStarted     = "job_started"
	ActionJobCancelled   = "job_cancelled"
	ActionJobRetried     = "job_retried"
	ActionJobFinished    = "job_finished"
	ActionBatchSubmitted = "batch_submitted"
	ActionPrinterStatus  = "printer_status"
	ActionHTTPRequest    = "http_request"
)

// LogEntry is one audit or access log record.
// Action-specific context goes into Fields.
type LogEntry struct {
	ID         primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	Timestamp  time.Time              `bson:"timestamp" json:"timestamp"`
	Level      string                 `bson:"level" json:"level"`
	Message    string                 `bson:"message" json:"message"`
	ActionType string                 `bson:"action_type,omitempty" json:"action_type,omitempty"`
	RequestID  string                 `bson:"request_id,omitempty" json:"request_id,omitempty"`
	JobID      string                 `bson:"job_id,omitempty" json:"job_id,omitempty"`
	BatchID    string                 `bson:"batch_id,omitempty" json:"batch_id,omitempty"`
	Printer    string                 `bson:"printer,omitempty" json:"printer,omitempty"`
	Method     string                 `bson:"method,omitempty" json:"method,omitempty"`
	Path       string                 `bson:"path,omitempty" json:"path,omitempty"`
	StatusCode int                    `bson:"status_code,omitempty" json:"status_code,omitempty"`
	Duration   int64                  `bson:"duration_ms,omitempty" json:"duration_ms,omitempty"`
	IP         string                 `bson:"ip,omitempty" json:"ip,omitempty"`
	Error      string                 `bson:"error,omitempty" json:"error,omitempty"`
	Fields     map[string]interface{} `bson:"fields,omitempty" json:"fields,omitempty"`
}

// WithField sets one context field.
func (e *LogEntry) WithField(key string, value interface{}) *LogEntry {
	if e.Fields == nil {
		e.Fields = make(map[string]interface{})
	}
	e.Fields[key] = value
	return e
}

// WithFields merges fields into the entry context.
func (e *LogEntry) WithFields(fields map[string]interface{}) *LogEntry {
	if e.Fields == nil {
		e.Fields = make(map[string]interface{}, len(fields))
	}
	for k, v := range fields {
		e.Fields[k] = v
	}
	return e
}

// LogQueryOptions filters audit log lookups. Results are newest first unless OldestFirst is set.
type LogQueryOptions struct {
	RequestID   string
	ActionType  string
	JobID       string
	BatchID     string
	Printer     string
	Level       string
	StartTime   *time.Time
	EndTime     *time.Time
	Limit       int
	Skip        int
	OldestFirst bool
}
