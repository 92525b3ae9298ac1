package model

import "time"

// ConnectionType is how the host reaches a printer.
type ConnectionType string

const (
	ConnectionUSB       ConnectionType = "usb"
	ConnectionWiFi      ConnectionType = "wifi"
	ConnectionBluetooth ConnectionType = "bluetooth"
	ConnectionNetwork   ConnectionType = "network"
)

// PrinterStatus is the live state of a printer.
type PrinterStatus string

const (
	PrinterOnline  PrinterStatus = "online"
	PrinterOffline PrinterStatus = "offline"
	PrinterBusy    PrinterStatus = "busy"
)

// PrinterInfo describes one known printer.
//
// @Description Printer with connectivity, status and physical constraints
type PrinterInfo struct {
	Name                  string         `json:"name" example:"zebra-gk420d"`
	Connection            ConnectionType `json:"connection_type" example:"usb"`
	Status                PrinterStatus  `json:"status" example:"online"`
	SupportsLabelPrinting bool           `json:"supports_label_printing"`
	MaxWidthInches        *float64       `json:"max_width_inches,omitempty"`
	MaxHeightInches       *float64       `json:"max_height_inches,omitempty"`
	DPI                   *int           `json:"dpi,omitempty"`
	Address               string         `json:"address,omitempty" example:"/dev/usb/lp0"`
	ActiveJobID           string         `json:"active_job_id,omitempty"`
	LastSeen              time.Time      `json:"last_seen"`
} // @name PrinterInfo

// Accommodates reports whether labels of the given size fit the printer.
// Missing constraints accept any size.
func (p PrinterInfo) Accommodates(d Dimensions) bool {
	if p.MaxWidthInches != nil && d.WidthInches > *p.MaxWidthInches {
		return false
	}
	if p.MaxHeightInches != nil && d.HeightInches > *p.MaxHeightInches {
		return false
	}
	return true
}

// CanPrint reports whether the printer is capable of printing labels of size d.
func (p PrinterInfo) CanPrint(d Dimensions) bool {
	return p.SupportsLabelPrinting && p.Accommodates(d)
}

// DetectionStatus summarizes one detection run.
type DetectionStatus string

const (
	DetectionSuccess DetectionStatus = "success"
	DetectionPartial DetectionStatus = "partial"
	DetectionFailed  DetectionStatus = "failed"
	DetectionLimited DetectionStatus = "limited"
)

// PrinterDetectionResult is the merged outcome of every probe.
//
// @Description Aggregated printer detection result
type PrinterDetectionResult struct {
	Printers             []PrinterInfo     `json:"printers"`
	TotalCount           int               `json:"total_count"`
	DetectionStatus      DetectionStatus   `json:"detection_status" example:"success"`
	DetectionMethodsUsed []string          `json:"detection_methods_used"`
	Errors               map[string]string `json:"errors,omitempty"`
	DetectedAt           time.Time         `json:"detected_at"`
} // @name PrinterDetectionResult
