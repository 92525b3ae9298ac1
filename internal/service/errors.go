package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/guttosm/label-print-service/internal/domain/model"
)

var (
	// ErrMissingField is returned when a mandatory payload field is absent.
	ErrMissingField = errors.New("missing mandatory field")
	// ErrInvalidWeight is returned for negative weights or net weight above gross weight.
	ErrInvalidWeight = errors.New("invalid weight")
	// ErrInvalidBoxNumber is returned for box numbers below 1 or duplicated within a transaction.
	ErrInvalidBoxNumber = errors.New("invalid box number")
	// ErrInvalidDate is returned for dates that are not YYYY-MM-DD or are out of order.
	ErrInvalidDate = errors.New("invalid date")
	// ErrMalformedPayload is returned when an encoded payload cannot be decoded.
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrInvalidLayout is returned when label geometry cannot be computed.
	ErrInvalidLayout = errors.New("invalid label layout")

	// ErrPrinterNotFound is returned for printers the registry does not know.
	ErrPrinterNotFound = errors.New("printer not found")
	// ErrPrinterUnavailable is returned when the target printer is offline.
	ErrPrinterUnavailable = errors.New("printer unavailable")
	// ErrPrinterIncompatible is returned when a printer cannot print the configured labels.
	ErrPrinterIncompatible = errors.New("printer incompatible")
	// ErrPrinterBusy is returned when a printer is already reserved.
	ErrPrinterBusy = errors.New("printer busy")

	// ErrEmptyJob is returned when a job is submitted without labels.
	ErrEmptyJob = errors.New("job has no labels")
	// ErrHeterogeneousBatch is returned when a job mixes labels of several transactions.
	ErrHeterogeneousBatch = errors.New("labels belong to different transactions")
	// ErrJobNotFound is returned for unknown job ids.
	ErrJobNotFound = errors.New("job not found")
	// ErrInvalidTransition is returned when a job cannot move to the requested state.
	ErrInvalidTransition = errors.New("invalid job state transition")
	// ErrManagerClosed is returned once the job manager has shut down.
	ErrManagerClosed = errors.New("print job manager is shut down")

	// ErrTransactionNotFound is returned when a transaction cannot be resolved.
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrBatchNotFound is returned for unknown batch ids.
	ErrBatchNotFound = errors.New("batch not found")
	// ErrEmptyBatch is returned for a batch without transactions.
	ErrEmptyBatch = errors.New("batch has no transactions")
	// ErrUnknownOption is returned when a request carries an unrecognized setting or option.
	ErrUnknownOption = errors.New("unknown option")
)

// Rule names carried by FieldViolation.Rule.
const (
	RuleRequired         = "required"
	RuleInvalidWeight    = "invalid_weight"
	RuleInvalidBoxNumber = "invalid_box_number"
	RuleInvalidDate      = "invalid_date"
	RuleDateOrder        = "date_order"
	RuleRecommended      = "recommended"
)

// ValidationError reports every violated payload rule.
// Kind is one of ErrMissingField, ErrInvalidWeight, ErrInvalidBoxNumber or ErrInvalidDate.
type ValidationError struct {
	Kind       error
	Violations []model.FieldViolation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	if len(parts) == 0 {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}

// ParseError reports why an encoded payload could not be decoded.
type ParseError struct {
	Field  string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrMalformedPayload, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrMalformedPayload, e.Field, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return ErrMalformedPayload
}

// TransactionError ties a codec or compositor failure to its transaction.
type TransactionError struct {
	TransactionNo string
	Err           error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction %s: %v", e.TransactionNo, e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}

// BatchError rejects a whole batch and lists each failing transaction.
type BatchError struct {
	Failures []*TransactionError
}

func (e *BatchError) Error() string {
	msgs := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		msgs[i] = f.Error()
	}
	return "batch rejected: " + strings.Join(msgs, "; ")
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *BatchError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}

// Details converts the failures into their wire form.
func (e *BatchError) Details() []model.BatchTransactionError {
	out := make([]model.BatchTransactionError, 0, len(e.Failures))
	for _, f := range e.Failures {
		item := model.BatchTransactionError{TransactionNo: f.TransactionNo, Message: f.Err.Error()}
		var verr *ValidationError
		if errors.As(f.Err, &verr) {
			item.Violations = verr.Violations
		}
		out = append(out, item)
	}
	return out
}
