// Package printer talks to physical label printers: it discovers them over
// USB, network and Bluetooth and delivers rendered label data to them.
package printer

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/guttosm/label-print-service/internal/domain/model"
)

// Detection method names reported in PrinterDetectionResult.DetectionMethodsUsed.
const (
	MethodUSB       = "usb"
	MethodWiFi      = "wifi"
	MethodBluetooth = "bluetooth"
)

// Probe discovers printers over one connectivity channel.
type Probe interface {
	// Method names the channel.
	Method() string
	// Available reports whether the environment exposes the channel at all.
	Available() bool
	// Discover lists the printers reachable over the channel.
	Discover(ctx context.Context) ([]model.PrinterInfo, error)
}

// Driver delivers raw label data to one printer.
type Driver interface {
	Send(ctx context.Context, p model.PrinterInfo, data []byte) error
}

// CatalogEntry is an operator-declared printer with its capabilities.
type CatalogEntry struct {
	Name                  string               `mapstructure:"name"`
	Connection            model.ConnectionType `mapstructure:"connection"`
	Address               string               `mapstructure:"address"`
	DPI                   int                  `mapstructure:"dpi"`
	MaxWidthInches        float64              `mapstructure:"max_width_inches"`
	MaxHeightInches       float64              `mapstructure:"max_height_inches"`
	SupportsLabelPrinting bool                 `mapstructure:"supports_label_printing"`
}

// Info converts the entry to a PrinterInfo with the given status.
func (e CatalogEntry) Info(status model.PrinterStatus) model.PrinterInfo {
	info := model.PrinterInfo{
		Name:                  e.Name,
		Connection:            e.Connection,
		Status:                status,
		SupportsLabelPrinting: e.SupportsLabelPrinting,
		Address:               e.Address,
	}
	if e.DPI > 0 {
		dpi := e.DPI
		info.DPI = &dpi
	}
	if e.MaxWidthInches > 0 {
		w := e.MaxWidthInches
		info.MaxWidthInches = &w
	}
	if e.MaxHeightInches > 0 {
		h := e.MaxHeightInches
		info.MaxHeightInches = &h
	}
	return info
}

// Catalog is the list of declared printers.
type Catalog []CatalogEntry

// ByAddress finds the entry bound to a device path or network address.
func (c Catalog) ByAddress(address string) (CatalogEntry, bool) {
	for _, e := range c {
		if e.Address == address {
			return e, true
		}
	}
	return CatalogEntry{}, false
}

// ByConnection returns the entries of the given connection types.
func (c Catalog) ByConnection(types ...model.ConnectionType) Catalog {
	var out Catalog
	for _, e := range c {
		for _, t := range types {
			if e.Connection == t {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

func dirExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

// deviceName derives a printer name from a device node, e.g. /dev/usb/lp0 -> usb-lp0.
func deviceName(prefix, path string) string {
	return prefix + "-" + strings.TrimPrefix(filepath.Base(path), ".")
}
