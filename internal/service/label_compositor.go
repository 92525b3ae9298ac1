package service

import (
	"errors"
	"fmt"
	"math"

	"github.com/guttosm/label-print-service/internal/domain/model"
)

// LabelCompositor turns payloads into device-independent label geometry.
// Compose is pure: identical inputs always yield an identical spec.
type LabelCompositor interface {
	Compose(layout model.LabelLayout, dims model.Dimensions, payload model.QRPayload) (model.LabelRenderSpec, error)
	// ComposeTransaction builds, validates and composes the labels of the given boxes.
	// An empty boxNumbers selects every box of the transaction.
	ComposeTransaction(tx model.Transaction, boxNumbers []int, settings model.PrintSettings) ([]model.QRLabel, error)
}

// LabelCompositorService implements LabelCompositor.
type LabelCompositorService struct {
	codec PayloadCodec
}

// NewLabelCompositor creates a compositor that encodes QR data with codec.
func NewLabelCompositor(codec PayloadCodec) *LabelCompositorService {
	return &LabelCompositorService{codec: codec}
}

// InchesToPixels converts a physical length to device pixels.
func InchesToPixels(inches float64, dpi int) int {
	return int(math.Round(inches * float64(dpi)))
}

// Compose implements LabelCompositor.
func (s *LabelCompositorService) Compose(layout model.LabelLayout, dims model.Dimensions, payload model.QRPayload) (model.LabelRenderSpec, error) {
	if err := checkGeometry(layout, dims); err != nil {
		return model.LabelRenderSpec{}, err
	}

	width := InchesToPixels(dims.WidthInches, dims.DPI)
	height := InchesToPixels(dims.HeightInches, dims.DPI)
	margin := InchesToPixels(layout.MarginInches, dims.DPI)
	printableW := width - 2*margin
	printableH := height - 2*margin
	if printableW <= 0 || printableH <= 0 {
		return model.LabelRenderSpec{}, fmt.Errorf("%w: margins leave no printable area", ErrInvalidLayout)
	}

	qr := int(math.Round(layout.QRFraction * float64(min(printableW, printableH))))
	if qr < 1 {
		return model.LabelRenderSpec{}, fmt.Errorf("%w: qr region rounds to zero pixels", ErrInvalidLayout)
	}

	qrRegion := model.Rect{X: margin, Y: margin + (printableH-qr)/2, Width: qr, Height: qr}
	textRegion := model.Rect{Y: margin, Height: printableH}
	if layout.QRPosition == model.QRPositionRight {
		qrRegion.X = width - margin - qr
		textRegion.X = margin
		textRegion.Width = max(qrRegion.X-margin-textRegion.X, 0)
	} else {
		textRegion.X = margin + qr + margin
		textRegion.Width = max(width-margin-textRegion.X, 0)
	}

	fontPx := max(InchesToPixels(layout.FontSizePt/72, dims.DPI), 1)
	lineHeight := int(math.Round(float64(fontPx) * 1.2))

	lines := []model.TextLine{}
	if textRegion.Width > 0 {
		for i, text := range labelText(payload) {
			y := textRegion.Y + i*lineHeight
			if y+fontPx > textRegion.Y+textRegion.Height {
				break
			}
			lines = append(lines, model.TextLine{Text: text, X: textRegion.X, Y: y, FontPx: fontPx})
		}
	}

	return model.LabelRenderSpec{
		CanvasWidth:  width,
		CanvasHeight: height,
		DPI:          dims.DPI,
		Margin:       margin,
		QRSize:       qr,
		QRRegion:     qrRegion,
		TextRegion:   textRegion,
		Lines:        lines,
		QRData:       s.codec.Encode(payload),
	}, nil
}

// ComposeTransaction implements LabelCompositor.
func (s *LabelCompositorService) ComposeTransaction(tx model.Transaction, boxNumbers []int, settings model.PrintSettings) ([]model.QRLabel, error) {
	if err := checkGeometry(settings.Layout, settings.Dimensions); err != nil {
		return nil, err
	}
	if len(tx.Boxes) == 0 {
		return nil, &ValidationError{
			Kind:       ErrMissingField,
			Violations: []model.FieldViolation{{Field: "boxes", Rule: RuleRequired, Message: "at least one box is required"}},
		}
	}
	if _, err := s.codec.Reconcile(tx); err != nil {
		return nil, err
	}
	if len(boxNumbers) == 0 {
		boxNumbers = tx.BoxNumbers()
	}

	labels := make([]model.QRLabel, 0, len(boxNumbers))
	var violations []model.FieldViolation
	for _, n := range boxNumbers {
		box, ok := tx.Box(n)
		if !ok {
			violations = append(violations, model.FieldViolation{
				Field:   fmt.Sprintf("boxes[%d]", n),
				Rule:    RuleInvalidBoxNumber,
				Message: "box is not part of the transaction",
			})
			continue
		}

		payload, err := s.codec.Build(tx, box)
		if err != nil {
			var verr *ValidationError
			if !errors.As(err, &verr) {
				return nil, err
			}
			for _, v := range verr.Violations {
				v.Field = fmt.Sprintf("boxes[%d].%s", n, v.Field)
				violations = append(violations, v)
			}
			continue
		}

		render, err := s.Compose(settings.Layout, settings.Dimensions, payload)
		if err != nil {
			return nil, err
		}
		labels = append(labels, model.QRLabel{
			BoxNumber: box.BoxNumber,
			Article:   article(tx, box),
			Payload:   payload,
			Encoded:   render.QRData,
			Render:    render,
		})
	}

	if len(violations) > 0 {
		return nil, &ValidationError{Kind: violationKind(violations), Violations: violations}
	}
	return labels, nil
}

func checkGeometry(layout model.LabelLayout, dims model.Dimensions) error {
	switch {
	case dims.WidthInches <= 0 || dims.HeightInches <= 0:
		return fmt.Errorf("%w: label width and height must be positive", ErrInvalidLayout)
	case dims.DPI <= 0:
		return fmt.Errorf("%w: dpi must be positive", ErrInvalidLayout)
	case layout.MarginInches < 0:
		return fmt.Errorf("%w: margin must not be negative", ErrInvalidLayout)
	case layout.QRFraction <= 0 || layout.QRFraction > 1:
		return fmt.Errorf("%w: qr fraction must be in (0, 1]", ErrInvalidLayout)
	case layout.FontSizePt <= 0:
		return fmt.Errorf("%w: font size must be positive", ErrInvalidLayout)
	case layout.QRPosition != "" && layout.QRPosition != model.QRPositionLeft && layout.QRPosition != model.QRPositionRight:
		return fmt.Errorf("%w: unknown qr position %q", ErrInvalidLayout, layout.QRPosition)
	}
	return nil
}

func article(tx model.Transaction, box model.Box) string {
	switch {
	case box.Article != nil && *box.Article != "":
		return *box.Article
	case tx.ItemDescription != nil && *tx.ItemDescription != "":
		return *tx.ItemDescription
	default:
		return tx.SKUID
	}
}

// labelText lists the human-readable lines in print order.
func labelText(p model.QRPayload) []string {
	lines := []string{p.Company}
	if p.ItemDescription != nil && *p.ItemDescription != "" {
		lines = append(lines, *p.ItemDescription)
	}
	lines = append(lines,
		"SKU "+p.SKUID+"  Batch "+p.BatchNumber,
		"Net "+p.NetWeight.String()+"  Gross "+p.GrossWeight.String(),
		fmt.Sprintf("Box %d  Txn %s", p.BoxNumber, p.TransactionNo),
		"Entry "+p.EntryDate,
	)
	if p.ExpiryDate != nil && *p.ExpiryDate != "" {
		lines = append(lines, "Exp "+*p.ExpiryDate)
	}
	return lines
}
