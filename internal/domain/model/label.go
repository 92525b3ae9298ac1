package model

// QRPosition places the QR region on the label.
type QRPosition string

const (
	QRPositionLeft  QRPosition = "left"
	QRPositionRight QRPosition = "right"
)

// Dimensions is the physical label size.
type Dimensions struct {
	WidthInches  float64 `json:"width_inches" example:"4"`
	HeightInches float64 `json:"height_inches" example:"2"`
	DPI          int     `json:"dpi" example:"203"`
}

// LabelLayout controls where the QR code and the text go.
type LabelLayout struct {
	MarginInches float64    `json:"margin_inches" example:"0.05"`
	QRFraction   float64    `json:"qr_fraction" example:"0.44"`
	QRPosition   QRPosition `json:"qr_position" example:"left"`
	FontSizePt   float64    `json:"font_size_pt" example:"10"`
}

// PrintSettings is attached to a job at submission and never changes afterwards.
type PrintSettings struct {
	Dimensions Dimensions  `json:"dimensions"`
	Layout     LabelLayout `json:"layout"`
	Copies     int         `json:"copies" example:"1"`
} // @name PrintSettings

// DefaultDimensions returns the 4in x 2in label at 203 DPI.
func DefaultDimensions() Dimensions {
	return Dimensions{WidthInches: 4, HeightInches: 2, DPI: 203}
}

// DefaultLayout returns the stock label layout.
func DefaultLayout() LabelLayout {
	return LabelLayout{
		MarginInches: 0.05,
		QRFraction:   0.44,
		QRPosition:   QRPositionLeft,
		FontSizePt:   10,
	}
}

// DefaultPrintSettings returns one copy of the default label.
func DefaultPrintSettings() PrintSettings {
	return PrintSettings{
		Dimensions: DefaultDimensions(),
		Layout:     DefaultLayout(),
		Copies:     1,
	}
}

// Rect is an axis-aligned pixel rectangle, origin top-left.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// TextLine is one line of human-readable label text.
type TextLine struct {
	Text   string `json:"text"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	FontPx int    `json:"font_px"`
}

// LabelRenderSpec is the device-independent description of one label.
//
// @Description Label geometry in device pixels
type LabelRenderSpec struct {
	CanvasWidth  int        `json:"canvas_width" example:"812"`
	CanvasHeight int        `json:"canvas_height" example:"406"`
	DPI          int        `json:"dpi" example:"203"`
	Margin       int        `json:"margin" example:"10"`
	QRSize       int        `json:"qr_size" example:"170"`
	QRRegion     Rect       `json:"qr_region"`
	TextRegion   Rect       `json:"text_region"`
	Lines        []TextLine `json:"lines"`
	QRData       string     `json:"qr_data"`
} // @name LabelRenderSpec

// QRLabel is the printable label of one box.
type QRLabel struct {
	BoxNumber int             `json:"box_number"`
	Article   string          `json:"article"`
	Payload   QRPayload       `json:"payload"`
	Encoded   string          `json:"encoded"`
	Render    LabelRenderSpec `json:"render"`
} // @name QRLabel
