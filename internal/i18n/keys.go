// Package i18n provides internationalization support for the label print service.
package i18n

// Error message translation keys.
const (
	// ErrKeyInvalidRequest indicates an invalid request.
	ErrKeyInvalidRequest = "error.invalid_request"
	// ErrKeyInvalidRequestBody indicates a body that is not valid JSON for the endpoint.
	ErrKeyInvalidRequestBody = "error.invalid_request_body"
	// ErrKeyUnknownOption indicates a request key or option the service does not recognize.
	ErrKeyUnknownOption = "error.unknown_option"
	// ErrKeyInternalError indicates an internal server error.
	ErrKeyInternalError = "error.internal_error"
	// ErrKeyNotFound indicates a resource was not found.
	ErrKeyNotFound = "error.not_found"
	// ErrKeyRateLimitExceeded indicates rate limit exceeded.
	ErrKeyRateLimitExceeded = "error.rate_limit_exceeded"
	// ErrKeyConflict indicates a conflict with current state.
	ErrKeyConflict = "error.conflict"
	// ErrKeyTimeout indicates a request timeout.
	ErrKeyTimeout = "error.timeout"
	// ErrKeyServiceUnavailable indicates the service is shutting down.
	ErrKeyServiceUnavailable = "error.service_unavailable"

	ErrKeyValidationFailed      = "error.validation_failed"
	ErrKeyMalformedPayload      = "error.malformed_payload"
	ErrKeyInvalidLayout         = "error.invalid_layout"
	ErrKeyEmptyJob              = "error.empty_job"
	ErrKeyEmptyBatch            = "error.empty_batch"
	ErrKeyHeterogeneousBatch    = "error.heterogeneous_batch"
	ErrKeyBatchRejected         = "error.batch_rejected"
	ErrKeyPrinterNotFound       = "error.printer_not_found"
	ErrKeyPrinterUnavailable    = "error.printer_unavailable"
	ErrKeyPrinterIncompatible   = "error.printer_incompatible"
	ErrKeyPrinterBusy           = "error.printer_busy"
	ErrKeyJobNotFound           = "error.job_not_found"
	ErrKeyBatchNotFound         = "error.batch_not_found"
	ErrKeyTransactionNotFound   = "error.transaction_not_found"
	ErrKeyInvalidTransition     = "error.invalid_transition"
	ErrKeyIdempotencyInProgress = "error.idempotency_in_progress"
)

// Success message translation keys.
const (
	SuccessKeyJobSubmitted   = "success.job_submitted"
	SuccessKeyBatchSubmitted = "success.batch_submitted"
)
