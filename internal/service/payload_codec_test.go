//go:build !integration

package service

import (
	"errors"
	"testing"

	"github.com/guttosm/label-print-service/internal/domain/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weight(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func sampleTransaction(no string, boxes ...model.Box) model.Transaction {
	return model.Transaction{
		TransactionNo:     no,
		Company:           "ACME",
		EntryDate:         "2024-05-01",
		VendorName:        model.StringPtr("Fresh Farms"),
		ItemDescription:   model.StringPtr("Basmati rice"),
		BatchNumber:       "B-77",
		ManufacturingDate: model.StringPtr("2024-04-20"),
		ExpiryDate:        model.StringPtr("2025-04-20"),
		SKUID:             "SKU-100",
		Boxes:             boxes,
	}
}

func threeBoxes() []model.Box {
	return []model.Box{
		{BoxNumber: 1, NetWeight: weight("10.0"), GrossWeight: weight("10.5")},
		{BoxNumber: 2, NetWeight: weight("12.5"), GrossWeight: weight("13.0")},
		{BoxNumber: 3, NetWeight: weight("8.25"), GrossWeight: weight("8.75")},
	}
}

func TestPayloadCodec_Build(t *testing.T) {
	codec := NewPayloadCodec()

	t.Run("accepts every box of a valid transaction", func(t *testing.T) {
		tx := sampleTransaction("TRX-1", threeBoxes()...)
		for _, box := range tx.Boxes {
			p, err := codec.Build(tx, box)
			require.NoError(t, err)
			assert.Equal(t, box.BoxNumber, p.BoxNumber)
			assert.True(t, p.NetWeight.Equal(box.NetWeight.Decimal))
			assert.True(t, p.GrossWeight.Equal(box.GrossWeight.Decimal))
			assert.Equal(t, "TRX-1", p.TransactionNo)
		}
	})

	t.Run("accepts net weight equal to gross weight", func(t *testing.T) {
		tx := sampleTransaction("TRX-1")
		_, err := codec.Build(tx, model.Box{BoxNumber: 1, NetWeight: weight("5"), GrossWeight: weight("5")})
		assert.NoError(t, err)
	})

	tests := []struct {
		name       string
		mutate     func(*model.Transaction, *model.Box)
		kind       error
		wantFields []string
	}{
		{
			name:       "missing company and sku",
			mutate:     func(tx *model.Transaction, _ *model.Box) { tx.Company = ""; tx.SKUID = " " },
			kind:       ErrMissingField,
			wantFields: []string{"company", "sku_id"},
		},
		{
			name: "missing weights",
			mutate: func(_ *model.Transaction, b *model.Box) {
				b.NetWeight = decimal.NullDecimal{}
				b.GrossWeight = decimal.NullDecimal{}
			},
			kind:       ErrMissingField,
			wantFields: []string{"net_weight", "gross_weight"},
		},
		{
			name:       "missing box number and transaction",
			mutate:     func(tx *model.Transaction, b *model.Box) { b.BoxNumber = 0; tx.TransactionNo = "" },
			kind:       ErrMissingField,
			wantFields: []string{"box_number", "transaction_no"},
		},
		{
			name:       "net weight above gross weight",
			mutate:     func(_ *model.Transaction, b *model.Box) { b.NetWeight = weight("11") },
			kind:       ErrInvalidWeight,
			wantFields: []string{"net_weight"},
		},
		{
			name:       "negative gross weight",
			mutate:     func(_ *model.Transaction, b *model.Box) { b.NetWeight = weight("-2"); b.GrossWeight = weight("-1") },
			kind:       ErrInvalidWeight,
			wantFields: []string{"net_weight", "gross_weight"},
		},
		{
			name:       "negative box number",
			mutate:     func(_ *model.Transaction, b *model.Box) { b.BoxNumber = -1 },
			kind:       ErrInvalidBoxNumber,
			wantFields: []string{"box_number"},
		},
		{
			name:       "malformed entry date",
			mutate:     func(tx *model.Transaction, _ *model.Box) { tx.EntryDate = "01/05/2024" },
			kind:       ErrInvalidDate,
			wantFields: []string{"entry_date"},
		},
		{
			name:       "expiry before manufacturing",
			mutate:     func(tx *model.Transaction, _ *model.Box) { tx.ExpiryDate = model.StringPtr("2024-01-01") },
			kind:       ErrInvalidDate,
			wantFields: []string{"expiry_date"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := sampleTransaction("TRX-1")
			box := model.Box{BoxNumber: 1, NetWeight: weight("10"), GrossWeight: weight("10.5")}
			tt.mutate(&tx, &box)

			_, err := codec.Build(tx, box)

			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			fields := make([]string, 0, len(verr.Violations))
			for _, v := range verr.Violations {
				fields = append(fields, v.Field)
			}
			for _, f := range tt.wantFields {
				assert.Contains(t, fields, f)
			}
		})
	}
}

func TestPayloadCodec_RoundTrip(t *testing.T) {
	codec := NewPayloadCodec()

	payloads := map[string]model.QRPayload{
		"all fields": {
			Company:           "ACME",
			EntryDate:         "2024-05-01",
			VendorName:        model.StringPtr("Fresh Farms"),
			CustomerName:      model.StringPtr("Shop"),
			ItemDescription:   model.StringPtr("Rice"),
			NetWeight:         decimal.RequireFromString("10.50"),
			GrossWeight:       decimal.RequireFromString("11.000"),
			BatchNumber:       "B-77",
			ManufacturingDate: model.StringPtr("2024-04-20"),
			ExpiryDate:        model.StringPtr("2025-04-20"),
			BoxNumber:         3,
			TransactionNo:     "TRX-1",
			SKUID:             "SKU-100",
			ApprovalAuthority: model.StringPtr("QA"),
		},
		"optional fields absent": {
			Company:       "ACME",
			EntryDate:     "2024-05-01",
			NetWeight:     decimal.RequireFromString("8.25"),
			GrossWeight:   decimal.RequireFromString("8.75"),
			BatchNumber:   "B-1",
			BoxNumber:     1,
			TransactionNo: "TRX-2",
			SKUID:         "SKU-1",
		},
		"empty optional strings": {
			Company:       "ACME",
			EntryDate:     "2024-05-01",
			VendorName:    model.StringPtr(""),
			CustomerName:  model.StringPtr(""),
			NetWeight:     decimal.RequireFromString("1"),
			GrossWeight:   decimal.RequireFromString("2"),
			BatchNumber:   "B-1",
			BoxNumber:     12,
			TransactionNo: "TRX-3",
			SKUID:         "SKU-1",
		},
		"reserved characters": {
			Company:         `A|C\M~E`,
			EntryDate:       "2024-05-01",
			VendorName:      model.StringPtr("~"),
			ItemDescription: model.StringPtr(`rice | 5\kg ~ premium`),
			NetWeight:       decimal.RequireFromString("0"),
			GrossWeight:     decimal.RequireFromString("0.001"),
			BatchNumber:     `B\|`,
			BoxNumber:       7,
			TransactionNo:   "TRX|4",
			SKUID:           `\`,
		},
	}

	for name, p := range payloads {
		t.Run(name, func(t *testing.T) {
			encoded := codec.Encode(p)
			decoded, err := codec.Decode(encoded)
			require.NoError(t, err)

			assert.Equal(t, p.Company, decoded.Company)
			assert.Equal(t, p.EntryDate, decoded.EntryDate)
			assert.Equal(t, p.BatchNumber, decoded.BatchNumber)
			assert.Equal(t, p.BoxNumber, decoded.BoxNumber)
			assert.Equal(t, p.TransactionNo, decoded.TransactionNo)
			assert.Equal(t, p.SKUID, decoded.SKUID)
			assert.Equal(t, p.NetWeight.String(), decoded.NetWeight.String())
			assert.Equal(t, p.GrossWeight.String(), decoded.GrossWeight.String())
			assert.Equal(t, p.NetWeight.Exponent(), decoded.NetWeight.Exponent())
			assert.Equal(t, p.VendorName, decoded.VendorName)
			assert.Equal(t, p.CustomerName, decoded.CustomerName)
			assert.Equal(t, p.ItemDescription, decoded.ItemDescription)
			assert.Equal(t, p.ManufacturingDate, decoded.ManufacturingDate)
			assert.Equal(t, p.ExpiryDate, decoded.ExpiryDate)
			assert.Equal(t, p.ApprovalAuthority, decoded.ApprovalAuthority)
			assert.Equal(t, encoded, codec.Encode(decoded))
		})
	}
}

func TestPayloadCodec_EncodeDistinguishesAbsentFromEmpty(t *testing.T) {
	codec := NewPayloadCodec()
	base := model.QRPayload{
		Company: "ACME", EntryDate: "2024-05-01", BatchNumber: "B", BoxNumber: 1,
		TransactionNo: "T", SKUID: "S", NetWeight: decimal.NewFromInt(1), GrossWeight: decimal.NewFromInt(1),
	}
	withEmpty := base
	withEmpty.VendorName = model.StringPtr("")
	withTilde := base
	withTilde.VendorName = model.StringPtr("~")

	absent := codec.Encode(base)
	empty := codec.Encode(withEmpty)
	tilde := codec.Encode(withTilde)

	assert.Equal(t, "LP1|ACME|2024-05-01|~|~|~|1|1|B|~|~|1|T|S|~", absent)
	assert.Equal(t, "LP1|ACME|2024-05-01||~|~|1|1|B|~|~|1|T|S|~", empty)
	assert.Equal(t, `LP1|ACME|2024-05-01|\~|~|~|1|1|B|~|~|1|T|S|~`, tilde)
}

func TestPayloadCodec_Decode_Malformed(t *testing.T) {
	codec := NewPayloadCodec()

	tests := []struct {
		name  string
		input string
		field string
	}{
		{"empty input", "", ""},
		{"too few fields", "LP1|ACME|2024-05-01", ""},
		{"too many fields", "LP1|ACME|2024-05-01|~|~|~|1|1|B|~|~|1|T|S|~|extra", ""},
		{"wrong version", "LP9|ACME|2024-05-01|~|~|~|1|1|B|~|~|1|T|S|~", "version"},
		{"dangling escape", `LP1|ACME|2024-05-01|~|~|~|1|1|B|~|~|1|T|S|\`, ""},
		{"bad net weight", "LP1|ACME|2024-05-01|~|~|~|ten|1|B|~|~|1|T|S|~", "net_weight"},
		{"bad gross weight", "LP1|ACME|2024-05-01|~|~|~|1|1kg|B|~|~|1|T|S|~", "gross_weight"},
		{"bad box number", "LP1|ACME|2024-05-01|~|~|~|1|1|B|~|~|x|T|S|~", "box_number"},
		{"absent mandatory field", "LP1|~|2024-05-01|~|~|~|1|1|B|~|~|1|T|S|~", "company"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Decode(tt.input)

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedPayload)
			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.field, perr.Field)
		})
	}
}

func TestPayloadCodec_Validate(t *testing.T) {
	codec := NewPayloadCodec()

	t.Run("collects every error", func(t *testing.T) {
		result := codec.Validate(model.QRPayload{
			EntryDate:   "yesterday",
			NetWeight:   decimal.NewFromInt(5),
			GrossWeight: decimal.NewFromInt(4),
		})

		assert.False(t, result.Valid)
		rules := map[string]string{}
		for _, v := range result.Errors {
			rules[v.Field] = v.Rule
		}
		assert.Equal(t, RuleRequired, rules["company"])
		assert.Equal(t, RuleInvalidDate, rules["entry_date"])
		assert.Equal(t, RuleRequired, rules["batch_number"])
		assert.Equal(t, RuleInvalidBoxNumber, rules["box_number"])
		assert.Equal(t, RuleRequired, rules["transaction_no"])
		assert.Equal(t, RuleRequired, rules["sku_id"])
		assert.Equal(t, RuleInvalidWeight, rules["net_weight"])
	})

	t.Run("reports warnings separately", func(t *testing.T) {
		result := codec.Validate(model.QRPayload{
			Company:           "ACME",
			EntryDate:         "2024-05-01",
			NetWeight:         decimal.NewFromInt(1),
			GrossWeight:       decimal.NewFromInt(2),
			BatchNumber:       "B",
			BoxNumber:         1,
			TransactionNo:     "T",
			SKUID:             "S",
			ManufacturingDate: model.StringPtr("2024-04-01"),
		})

		assert.True(t, result.Valid)
		assert.Empty(t, result.Errors)
		fields := []string{}
		for _, w := range result.Warnings {
			fields = append(fields, w.Field)
		}
		assert.Contains(t, fields, "expiry_date")
		assert.Contains(t, fields, "vendor_name")
	})
}

func TestPayloadCodec_Reconcile(t *testing.T) {
	codec := NewPayloadCodec()

	t.Run("sums box weights", func(t *testing.T) {
		tx := sampleTransaction("TRX-1", threeBoxes()...)
		tx.TotalNetWeight = weight("30.75")
		tx.TotalGrossWeight = weight("32.25")

		summary, err := codec.Reconcile(tx)

		require.NoError(t, err)
		assert.Equal(t, 3, summary.Boxes)
		assert.Equal(t, "30.75", summary.NetWeight.String())
		assert.Equal(t, "32.25", summary.GrossWeight.String())
	})

	t.Run("rejects declared total mismatch", func(t *testing.T) {
		tx := sampleTransaction("TRX-1", threeBoxes()...)
		tx.TotalNetWeight = weight("30")

		_, err := codec.Reconcile(tx)

		assert.ErrorIs(t, err, ErrInvalidWeight)
	})

	t.Run("rejects duplicate boxes", func(t *testing.T) {
		boxes := threeBoxes()
		boxes[2].BoxNumber = 1
		_, err := codec.Reconcile(sampleTransaction("TRX-1", boxes...))

		assert.ErrorIs(t, err, ErrInvalidBoxNumber)
	})
}
