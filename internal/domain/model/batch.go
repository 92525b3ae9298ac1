package model

import "time"

// BatchOptions enumerates every recognized batch option.
type BatchOptions struct {
	// ValidateOnly builds and composes every label without creating jobs.
	ValidateOnly bool `json:"validate_only"`
	// IdempotencyKey returns the original batch for repeated submissions.
	IdempotencyKey string `json:"idempotency_key,omitempty"`
} // @name BatchOptions

// BatchPrintResponse acknowledges a batch submission.
//
// @Description Batch submission result
type BatchPrintResponse struct {
	BatchID                 string             `json:"batch_id"`
	TotalJobs               int                `json:"total_jobs" example:"2"`
	TotalLabels             int                `json:"total_labels" example:"5"`
	Jobs                    []PrintJobResponse `json:"jobs"`
	EstimatedCompletionTime *time.Time         `json:"estimated_completion_time,omitempty"`
	ValidateOnly            bool               `json:"validate_only,omitempty"`
} // @name BatchPrintResponse

// BatchStatusView projects a batch over its constituent jobs.
//
// @Description Batch progress projection
type BatchStatusView struct {
	BatchID                 string        `json:"batch_id"`
	CreatedAt               time.Time     `json:"created_at"`
	TotalJobs               int           `json:"total_jobs"`
	TotalLabels             int           `json:"total_labels"`
	Jobs                    []PrintStatus `json:"jobs"`
	Queued                  int           `json:"queued"`
	Printing                int           `json:"printing"`
	Completed               int           `json:"completed"`
	Failed                  int           `json:"failed"`
	Cancelled               int           `json:"cancelled"`
	EstimatedCompletionTime *time.Time    `json:"estimated_completion_time,omitempty"`
} // @name BatchStatusView

// BatchTransactionError reports why one transaction of a batch was rejected.
type BatchTransactionError struct {
	TransactionNo string           `json:"transaction_no"`
	Message       string           `json:"message"`
	Violations    []FieldViolation `json:"violations,omitempty"`
} // @name BatchTransactionError
