package service

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/guttosm/label-print-service/internal/domain/model"
	"github.com/shopspring/decimal"
)

const (
	payloadVersion    = "LP1"
	fieldSeparator    = '|'
	escapeChar        = '\\'
	absentSentinel    = "~"
	payloadFieldCount = 15
)

// payloadFields names every position of the encoded form, version tag included.
var payloadFields = [payloadFieldCount]string{
	"version",
	"company",
	"entry_date",
	"vendor_name",
	"customer_name",
	"item_description",
	"net_weight",
	"gross_weight",
	"batch_number",
	"manufacturing_date",
	"expiry_date",
	"box_number",
	"transaction_no",
	"sku_id",
	"approval_authority",
}

// PayloadCodec builds, validates and serializes per-box QR payloads.
type PayloadCodec interface {
	// Build assembles the payload of one box and rejects it with a *ValidationError.
	Build(tx model.Transaction, box model.Box) (model.QRPayload, error)
	// Encode produces the compact delimiter-based form of p.
	Encode(p model.QRPayload) string
	// Decode is the inverse of Encode and fails with a *ParseError.
	Decode(s string) (model.QRPayload, error)
	// Validate collects every violated rule plus soft warnings.
	Validate(p model.QRPayload) model.ValidationResult
	// Reconcile sums the box weights and checks them against the declared totals.
	Reconcile(tx model.Transaction) (model.WeightSummary, error)
}

// PayloadCodecService implements PayloadCodec.
type PayloadCodecService struct {
	validate *validator.Validate
}

// NewPayloadCodec creates a codec whose violations are reported under JSON field names.
func NewPayloadCodec() *PayloadCodecService {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &PayloadCodecService{validate: v}
}

// Build implements PayloadCodec.
func (s *PayloadCodecService) Build(tx model.Transaction, box model.Box) (model.QRPayload, error) {
	var missing []model.FieldViolation
	require := func(field string, present bool) {
		if !present {
			missing = append(missing, model.FieldViolation{Field: field, Rule: RuleRequired, Message: "is required"})
		}
	}
	require("company", strings.TrimSpace(tx.Company) != "")
	require("entry_date", strings.TrimSpace(tx.EntryDate) != "")
	require("net_weight", box.NetWeight.Valid)
	require("gross_weight", box.GrossWeight.Valid)
	require("batch_number", strings.TrimSpace(tx.BatchNumber) != "")
	require("box_number", box.BoxNumber != 0)
	require("transaction_no", strings.TrimSpace(tx.TransactionNo) != "")
	require("sku_id", strings.TrimSpace(tx.SKUID) != "")
	if len(missing) > 0 {
		return model.QRPayload{}, &ValidationError{Kind: ErrMissingField, Violations: missing}
	}

	p := model.QRPayload{
		Company:           tx.Company,
		EntryDate:         tx.EntryDate,
		VendorName:        tx.VendorName,
		CustomerName:      tx.CustomerName,
		ItemDescription:   tx.ItemDescription,
		NetWeight:         box.NetWeight.Decimal,
		GrossWeight:       box.GrossWeight.Decimal,
		BatchNumber:       tx.BatchNumber,
		ManufacturingDate: tx.ManufacturingDate,
		ExpiryDate:        tx.ExpiryDate,
		BoxNumber:         box.BoxNumber,
		TransactionNo:     tx.TransactionNo,
		SKUID:             tx.SKUID,
		ApprovalAuthority: tx.ApprovalAuthority,
	}

	result := s.Validate(p)
	if !result.Valid {
		return model.QRPayload{}, &ValidationError{Kind: violationKind(result.Errors), Violations: result.Errors}
	}
	return p, nil
}

// Validate implements PayloadCodec.
func (s *PayloadCodecService) Validate(p model.QRPayload) model.ValidationResult {
	result := model.ValidationResult{
		Errors:   []model.FieldViolation{},
		Warnings: []model.FieldViolation{},
	}
	addError := func(field, rule, msg string) {
		result.Errors = append(result.Errors, model.FieldViolation{Field: field, Rule: rule, Message: msg})
	}
	addWarning := func(field, rule, msg string) {
		result.Warnings = append(result.Warnings, model.FieldViolation{Field: field, Rule: rule, Message: msg})
	}

	if err := s.validate.Struct(p); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				result.Errors = append(result.Errors, violationFromFieldError(fe))
			}
		} else {
			addError("payload", RuleRequired, err.Error())
		}
	}

	if p.NetWeight.IsNegative() {
		addError("net_weight", RuleInvalidWeight, "must not be negative")
	}
	if p.GrossWeight.IsNegative() {
		addError("gross_weight", RuleInvalidWeight, "must not be negative")
	}
	if p.NetWeight.GreaterThan(p.GrossWeight) {
		addError("net_weight", RuleInvalidWeight, "must not exceed gross weight")
	}

	entry, entryOK := parseDate(&p.EntryDate)
	mfg, mfgOK := parseDate(p.ManufacturingDate)
	exp, expOK := parseDate(p.ExpiryDate)
	if mfgOK && expOK && exp.Before(mfg) {
		addError("expiry_date", RuleDateOrder, "must not be before manufacturing date")
	}
	if p.ManufacturingDate != nil && p.ExpiryDate == nil {
		addWarning("expiry_date", RuleRecommended, "should be set when manufacturing date is present")
	}
	if mfgOK && entryOK && mfg.After(entry) {
		addWarning("manufacturing_date", RuleDateOrder, "is after entry date")
	}
	if expOK && entryOK && exp.Before(entry) {
		addWarning("expiry_date", RuleDateOrder, "is before entry date")
	}
	if p.VendorName == nil && p.CustomerName == nil {
		addWarning("vendor_name", RuleRecommended, "vendor or customer name should be set")
	}

	result.Valid = len(result.Errors) == 0
	return result
}

// Reconcile implements PayloadCodec.
func (s *PayloadCodecService) Reconcile(tx model.Transaction) (model.WeightSummary, error) {
	summary := model.WeightSummary{
		Boxes:       len(tx.Boxes),
		NetWeight:   decimal.Zero,
		GrossWeight: decimal.Zero,
	}

	seen := make(map[int]bool, len(tx.Boxes))
	var duplicates []model.FieldViolation
	for _, b := range tx.Boxes {
		if seen[b.BoxNumber] {
			duplicates = append(duplicates, model.FieldViolation{
				Field:   "box_number",
				Rule:    RuleInvalidBoxNumber,
				Message: "box " + strconv.Itoa(b.BoxNumber) + " appears more than once",
			})
		}
		seen[b.BoxNumber] = true
		if b.NetWeight.Valid {
			summary.NetWeight = summary.NetWeight.Add(b.NetWeight.Decimal)
		}
		if b.GrossWeight.Valid {
			summary.GrossWeight = summary.GrossWeight.Add(b.GrossWeight.Decimal)
		}
	}
	if len(duplicates) > 0 {
		return summary, &ValidationError{Kind: ErrInvalidBoxNumber, Violations: duplicates}
	}

	var mismatches []model.FieldViolation
	if tx.TotalNetWeight.Valid && !tx.TotalNetWeight.Decimal.Equal(summary.NetWeight) {
		mismatches = append(mismatches, model.FieldViolation{
			Field:   "total_net_weight",
			Rule:    RuleInvalidWeight,
			Message: "does not match the sum of box net weights " + summary.NetWeight.String(),
		})
	}
	if tx.TotalGrossWeight.Valid && !tx.TotalGrossWeight.Decimal.Equal(summary.GrossWeight) {
		mismatches = append(mismatches, model.FieldViolation{
			Field:   "total_gross_weight",
			Rule:    RuleInvalidWeight,
			Message: "does not match the sum of box gross weights " + summary.GrossWeight.String(),
		})
	}
	if len(mismatches) > 0 {
		return summary, &ValidationError{Kind: ErrInvalidWeight, Violations: mismatches}
	}
	return summary, nil
}

// Encode implements PayloadCodec.
func (s *PayloadCodecService) Encode(p model.QRPayload) string {
	fields := [payloadFieldCount]string{
		payloadVersion,
		escapeField(p.Company),
		escapeField(p.EntryDate),
		encodeOptional(p.VendorName),
		encodeOptional(p.CustomerName),
		encodeOptional(p.ItemDescription),
		formatDecimal(p.NetWeight),
		formatDecimal(p.GrossWeight),
		escapeField(p.BatchNumber),
		encodeOptional(p.ManufacturingDate),
		encodeOptional(p.ExpiryDate),
		strconv.Itoa(p.BoxNumber),
		escapeField(p.TransactionNo),
		escapeField(p.SKUID),
		encodeOptional(p.ApprovalAuthority),
	}
	return strings.Join(fields[:], string(fieldSeparator))
}

// Decode implements PayloadCodec.
func (s *PayloadCodecService) Decode(encoded string) (model.QRPayload, error) {
	raw, err := splitFields(encoded)
	if err != nil {
		return model.QRPayload{}, err
	}
	if len(raw) != payloadFieldCount {
		return model.QRPayload{}, &ParseError{
			Reason: "expected " + strconv.Itoa(payloadFieldCount) + " fields, got " + strconv.Itoa(len(raw)),
		}
	}
	if raw[0] != payloadVersion {
		return model.QRPayload{}, &ParseError{Field: "version", Reason: "unsupported version " + strconv.Quote(raw[0])}
	}

	d := fieldDecoder{raw: raw}
	p := model.QRPayload{
		Company:           d.text(1),
		EntryDate:         d.text(2),
		VendorName:        d.optional(3),
		CustomerName:      d.optional(4),
		ItemDescription:   d.optional(5),
		NetWeight:         d.decimal(6),
		GrossWeight:       d.decimal(7),
		BatchNumber:       d.text(8),
		ManufacturingDate: d.optional(9),
		ExpiryDate:        d.optional(10),
		BoxNumber:         d.integer(11),
		TransactionNo:     d.text(12),
		SKUID:             d.text(13),
		ApprovalAuthority: d.optional(14),
	}
	if d.err != nil {
		return model.QRPayload{}, d.err
	}
	return p, nil
}

// fieldDecoder converts raw fields and keeps the first failure.
type fieldDecoder struct {
	raw []string
	err *ParseError
}

func (d *fieldDecoder) fail(i int, reason string) {
	if d.err == nil {
		d.err = &ParseError{Field: payloadFields[i], Reason: reason}
	}
}

func (d *fieldDecoder) text(i int) string {
	if d.raw[i] == absentSentinel {
		d.fail(i, "mandatory field is absent")
		return ""
	}
	return unescapeField(d.raw[i])
}

func (d *fieldDecoder) optional(i int) *string {
	if d.raw[i] == absentSentinel {
		return nil
	}
	v := unescapeField(d.raw[i])
	return &v
}

func (d *fieldDecoder) decimal(i int) decimal.Decimal {
	v, err := decimal.NewFromString(d.raw[i])
	if err != nil {
		d.fail(i, "not a decimal number")
		return decimal.Zero
	}
	return v
}

func (d *fieldDecoder) integer(i int) int {
	v, err := strconv.Atoi(d.raw[i])
	if err != nil {
		d.fail(i, "not an integer")
		return 0
	}
	return v
}

// splitFields splits on unescaped separators and leaves escapes in place.
func splitFields(s string) ([]string, error) {
	var (
		fields []string
		start  int
	)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case escapeChar:
			if i+1 >= len(s) {
				return nil, &ParseError{Reason: "dangling escape at end of payload"}
			}
			i++
		case fieldSeparator:
			fields = append(fields, s[start:i])
			start = i + 1
		}
	}
	return append(fields, s[start:]), nil
}

func escapeField(v string) string {
	if !strings.ContainsAny(v, `\|~`) {
		return v
	}
	var b strings.Builder
	b.Grow(len(v) + 4)
	for i := 0; i < len(v); i++ {
		switch v[i] {
		case escapeChar, fieldSeparator, '~':
			b.WriteByte(escapeChar)
		}
		b.WriteByte(v[i])
	}
	return b.String()
}

func unescapeField(v string) string {
	if !strings.ContainsRune(v, escapeChar) {
		return v
	}
	var b strings.Builder
	b.Grow(len(v))
	for i := 0; i < len(v); i++ {
		if v[i] == escapeChar && i+1 < len(v) {
			i++
		}
		b.WriteByte(v[i])
	}
	return b.String()
}

func encodeOptional(v *string) string {
	if v == nil {
		return absentSentinel
	}
	return escapeField(*v)
}

// formatDecimal keeps the scale of fractional values so "10.50" decodes to the same digits.
func formatDecimal(d decimal.Decimal) string {
	if exp := d.Exponent(); exp < 0 {
		return d.StringFixed(-exp)
	}
	return d.String()
}

func parseDate(v *string) (time.Time, bool) {
	if v == nil || *v == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(model.DateLayout, *v)
	return t, err == nil
}

func violationFromFieldError(fe validator.FieldError) model.FieldViolation {
	switch fe.Tag() {
	case "required":
		return model.FieldViolation{Field: fe.Field(), Rule: RuleRequired, Message: "is required"}
	case "datetime":
		return model.FieldViolation{Field: fe.Field(), Rule: RuleInvalidDate, Message: "must be a YYYY-MM-DD date"}
	case "min":
		return model.FieldViolation{Field: fe.Field(), Rule: RuleInvalidBoxNumber, Message: "must be at least " + fe.Param()}
	default:
		return model.FieldViolation{Field: fe.Field(), Rule: fe.Tag(), Message: "failed " + fe.Tag() + " check"}
	}
}

// violationKind picks the sentinel for a set of violations, most fundamental first.
func violationKind(violations []model.FieldViolation) error {
	precedence := []struct {
		rules []string
		kind  error
	}{
		{[]string{RuleRequired}, ErrMissingField},
		{[]string{RuleInvalidWeight}, ErrInvalidWeight},
		{[]string{RuleInvalidBoxNumber}, ErrInvalidBoxNumber},
		{[]string{RuleInvalidDate, RuleDateOrder}, ErrInvalidDate},
	}
	for _, p := range precedence {
		for _, v := range violations {
			for _, r := range p.rules {
				if v.Rule == r {
					return p.kind
				}
			}
		}
	}
	return ErrMissingField
}
