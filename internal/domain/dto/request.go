// Package dto defines Data Transfer Objects for HTTP request and response handling.
//
// DTOs are used to decouple the HTTP layer from the domain model,
// providing validation and serialization for API communication.
package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/guttosm/label-print-service/internal/domain/model"
)

// MaxCopies caps the copies of one label per job.
const MaxCopies = 100

// DimensionsRequest overrides the default label size.
type DimensionsRequest struct {
	WidthInches  *float64 `json:"width_inches,omitempty" binding:"omitempty,gt=0" example:"4"`
	HeightInches *float64 `json:"height_inches,omitempty" binding:"omitempty,gt=0" example:"2"`
	DPI          *int     `json:"dpi,omitempty" binding:"omitempty,gt=0" example:"203"`
} // @name DimensionsRequest

// LayoutRequest overrides the default label layout.
type LayoutRequest struct {
	MarginInches *float64 `json:"margin_inches,omitempty" binding:"omitempty,gte=0" example:"0.05"`
	QRFraction   *float64 `json:"qr_fraction,omitempty" binding:"omitempty,gt=0,lte=1" example:"0.44"`
	QRPosition   *string  `json:"qr_position,omitempty" binding:"omitempty,oneof=left right" example:"left"`
	FontSizePt   *float64 `json:"font_size_pt,omitempty" binding:"omitempty,gt=0" example:"10"`
} // @name LayoutRequest

// PrintSettingsRequest lists every recognized print setting; each is optional and
// falls back to the server default.
type PrintSettingsRequest struct {
	Dimensions *DimensionsRequest `json:"dimensions,omitempty"`
	Layout     *LayoutRequest     `json:"layout,omitempty"`
	Copies     *int               `json:"copies,omitempty" binding:"omitempty,min=1,max=100" example:"1"`
} // @name PrintSettingsRequest

// Apply overlays the request on defaults.
func (r *PrintSettingsRequest) Apply(defaults model.PrintSettings) model.PrintSettings {
	s := defaults
	if r == nil {
		return s
	}
	if d := r.Dimensions; d != nil {
		if d.WidthInches != nil {
			s.Dimensions.WidthInches = *d.WidthInches
		}
		if d.HeightInches != nil {
			s.Dimensions.HeightInches = *d.HeightInches
		}
		if d.DPI != nil {
			s.Dimensions.DPI = *d.DPI
		}
	}
	if l := r.Layout; l != nil {
		if l.MarginInches != nil {
			s.Layout.MarginInches = *l.MarginInches
		}
		if l.QRFraction != nil {
			s.Layout.QRFraction = *l.QRFraction
		}
		if l.QRPosition != nil {
			s.Layout.QRPosition = model.QRPosition(*l.QRPosition)
		}
		if l.FontSizePt != nil {
			s.Layout.FontSizePt = *l.FontSizePt
		}
	}
	if r.Copies != nil {
		s.Copies = *r.Copies
	}
	return s
}

// TransactionRef selects the boxes of one transaction, either stored or inline.
type TransactionRef struct {
	Company       string `json:"company,omitempty" example:"ACME"`
	TransactionNo string `json:"transaction_no,omitempty" example:"TRX-2024-0001"`
	// BoxNumbers restricts printing to these boxes; empty prints every box.
	BoxNumbers  []int              `json:"box_numbers,omitempty" binding:"omitempty,dive,min=1"`
	Transaction *model.Transaction `json:"transaction,omitempty"`
} // @name TransactionRef

// Validate requires either an inline record or a company and transaction number.
func (r TransactionRef) Validate() error {
	if r.Transaction != nil {
		return nil
	}
	if r.Company == "" || r.TransactionNo == "" {
		return &ValidationError{Field: "transaction", Message: "either transaction or company and transaction_no is required"}
	}
	return nil
}

// PrintJobRequest prints the labels of one transaction.
//
// @Description Request to print the box labels of one transaction
type PrintJobRequest struct {
	TransactionRef
	PrinterName   string                `json:"printer_name,omitempty" example:"zebra-dock-1"`
	PrintSettings *PrintSettingsRequest `json:"print_settings,omitempty"`
} // @name PrintJobRequest

// Validate checks the transaction selection.
func (r *PrintJobRequest) Validate() error {
	return r.TransactionRef.Validate()
}

// BatchPrintRequest prints several transactions with shared settings.
//
// @Description Request to print the labels of several transactions as one batch
type BatchPrintRequest struct {
	Transactions  []TransactionRef      `json:"transactions" binding:"required,min=1,dive"`
	PrinterName   string                `json:"printer_name,omitempty" example:"zebra-dock-1"`
	PrintSettings *PrintSettingsRequest `json:"print_settings,omitempty"`
	Options       *model.BatchOptions   `json:"options,omitempty"`
} // @name BatchPrintRequest

// Validate checks every transaction selection.
func (r *BatchPrintRequest) Validate() error {
	for i, t := range r.Transactions {
		var verr *ValidationError
		if err := t.Validate(); errors.As(err, &verr) {
			return &ValidationError{Field: fmt.Sprintf("transactions[%d].%s", i, verr.Field), Message: verr.Message}
		}
	}
	return nil
}

// DecodePayloadRequest carries an encoded QR payload.
type DecodePayloadRequest struct {
	Data string `json:"data" binding:"required" example:"LP1|ACME|2024-05-01|~|~|~|10|10.5|B-77|~|~|1|TRX-1|SKU-100|~"`
} // @name DecodePayloadRequest

// LabelPreviewRequest composes labels without printing them.
type LabelPreviewRequest struct {
	Transaction   model.Transaction     `json:"transaction"`
	BoxNumbers    []int                 `json:"box_numbers,omitempty" binding:"omitempty,dive,min=1"`
	PrintSettings *PrintSettingsRequest `json:"print_settings,omitempty"`
	// IncludeZPL adds the printer commands of each label.
	IncludeZPL bool `json:"include_zpl,omitempty"`
} // @name LabelPreviewRequest

// PrinterStatusRequest is an operator override of a printer status.
type PrinterStatusRequest struct {
	Status model.PrinterStatus `json:"status" binding:"required,oneof=online offline" example:"offline"`
} // @name PrinterStatusRequest

// ValidationError represents a field validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns the error message for ValidationError.
func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// UnknownFieldError reports a request key no endpoint recognizes.
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown field %q", e.Field)
}

// ErrEmptyBody is returned when a request has no body.
var ErrEmptyBody = errors.New("request body is empty")

const unknownFieldPrefix = "json: unknown field "

// DecodeStrict decodes one JSON document into v and rejects keys v does not declare.
func DecodeStrict(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		if msg := err.Error(); strings.HasPrefix(msg, unknownFieldPrefix) {
			return &UnknownFieldError{Field: strings.Trim(strings.TrimPrefix(msg, unknownFieldPrefix), `"`)}
		}
		return err
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON document")
	}
	return nil
}

// DecodeStrictBytes is DecodeStrict over a byte slice.
func DecodeStrictBytes(data []byte, v any) error {
	return DecodeStrict(bytes.NewReader(data), v)
}
