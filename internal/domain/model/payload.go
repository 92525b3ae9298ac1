// Package model defines the core domain entities for the label print service.
package model

import (
	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used by every date field of a payload.
const DateLayout = "2006-01-02"

// Box is one physical box of a transaction.
//
// @Description Physical box with its weights
type Box struct {
	// BoxNumber is the 1-based position of the box within the transaction
	BoxNumber int `json:"box_number" example:"1"`
	// NetWeight is the product weight without packaging
	NetWeight decimal.NullDecimal `json:"net_weight" swaggertype:"number" example:"10.0"`
	// GrossWeight is the total weight including packaging
	GrossWeight decimal.NullDecimal `json:"gross_weight" swaggertype:"number" example:"10.5"`
	// Article overrides the transaction item description on this box label
	Article *string `json:"article,omitempty"`
} // @name Box

// Transaction is one inbound or outbound inventory movement.
// Every box shares the transaction number.
//
// @Description Inventory movement supplied by the inventory front end
type Transaction struct {
	TransactionNo     string              `json:"transaction_no" example:"TRX-2024-0001"`
	Company           string              `json:"company" example:"ACME"`
	EntryDate         string              `json:"entry_date" example:"2024-05-01"`
	VendorName        *string             `json:"vendor_name,omitempty"`
	CustomerName      *string             `json:"customer_name,omitempty"`
	ItemDescription   *string             `json:"item_description,omitempty"`
	BatchNumber       string              `json:"batch_number" example:"B-77"`
	ManufacturingDate *string             `json:"manufacturing_date,omitempty"`
	ExpiryDate        *string             `json:"expiry_date,omitempty"`
	SKUID             string              `json:"sku_id" example:"SKU-100"`
	ApprovalAuthority *string             `json:"approval_authority,omitempty"`
	TotalNetWeight    decimal.NullDecimal `json:"total_net_weight" swaggertype:"number"`
	TotalGrossWeight  decimal.NullDecimal `json:"total_gross_weight" swaggertype:"number"`
	Boxes             []Box               `json:"boxes"`
} // @name Transaction

// Box returns the box with the given number.
func (t Transaction) Box(number int) (Box, bool) {
	for _, b := range t.Boxes {
		if b.BoxNumber == number {
			return b, true
		}
	}
	return Box{}, false
}

// BoxNumbers returns the box numbers in transaction order.
func (t Transaction) BoxNumbers() []int {
	numbers := make([]int, len(t.Boxes))
	for i, b := range t.Boxes {
		numbers[i] = b.BoxNumber
	}
	return numbers
}

// QRPayload is the structured content encoded into the QR code of one box.
//
// @Description Per-box QR payload
type QRPayload struct {
	Company           string          `json:"company" validate:"required"`
	EntryDate         string          `json:"entry_date" validate:"required,datetime=2006-01-02"`
	VendorName        *string         `json:"vendor_name,omitempty"`
	CustomerName      *string         `json:"customer_name,omitempty"`
	ItemDescription   *string         `json:"item_description,omitempty"`
	NetWeight         decimal.Decimal `json:"net_weight" swaggertype:"number"`
	GrossWeight       decimal.Decimal `json:"gross_weight" swaggertype:"number"`
	BatchNumber       string          `json:"batch_number" validate:"required"`
	ManufacturingDate *string         `json:"manufacturing_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ExpiryDate        *string         `json:"expiry_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	BoxNumber         int             `json:"box_number" validate:"min=1"`
	TransactionNo     string          `json:"transaction_no" validate:"required"`
	SKUID             string          `json:"sku_id" validate:"required"`
	ApprovalAuthority *string         `json:"approval_authority,omitempty"`
} // @name QRPayload

// FieldViolation is one broken payload rule.
type FieldViolation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
} // @name FieldViolation

// ValidationResult collects every violated rule of a payload.
//
// @Description Payload validation outcome with hard errors and soft warnings
type ValidationResult struct {
	Valid    bool             `json:"valid"`
	Errors   []FieldViolation `json:"errors"`
	Warnings []FieldViolation `json:"warnings"`
} // @name ValidationResult

// WeightSummary is the sum of box weights of one transaction.
type WeightSummary struct {
	Boxes       int             `json:"boxes"`
	NetWeight   decimal.Decimal `json:"net_weight" swaggertype:"number"`
	GrossWeight decimal.Decimal `json:"gross_weight" swaggertype:"number"`
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
