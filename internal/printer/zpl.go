package printer

import (
	"fmt"
	"strings"

	"github.com/guttosm/label-print-service/internal/domain/model"
)

// zplEscaper hex-escapes the ZPL control characters inside ^FH fields.
var zplEscaper = strings.NewReplacer("_", "_5F", "^", "_5E", "~", "_7E")

// RenderZPL turns a composed label into a ZPL II program for one copy.
func RenderZPL(label model.QRLabel) []byte {
	r := label.Render
	var b strings.Builder

	b.WriteString("^XA\n^CI28\n")
	fmt.Fprintf(&b, "^PW%d\n^LL%d\n", r.CanvasWidth, r.CanvasHeight)

	fmt.Fprintf(&b, "^FO%d,%d^BQN,2,%d^FH^FDMA,%s^FS\n",
		r.QRRegion.X, r.QRRegion.Y, qrMagnification(r.QRSize), zplEscaper.Replace(r.QRData))

	for _, line := range r.Lines {
		fmt.Fprintf(&b, "^FO%d,%d^A0N,%d,%d^FH^FD%s^FS\n",
			line.X, line.Y, line.FontPx, line.FontPx, zplEscaper.Replace(line.Text))
	}

	b.WriteString("^XZ\n")
	return []byte(b.String())
}

// qrMagnification approximates the ^BQ module size for a version 10 symbol.
func qrMagnification(qrSize int) int {
	const modules = 57
	mag := qrSize / modules
	switch {
	case mag < 1:
		return 1
	case mag > 10:
		return 10
	}
	return mag
}
