package printer

import (
	"context"
	"path/filepath"
	"time"

	"github.com/guttosm/label-print-service/internal/domain/model"
)

// BluetoothProbe finds printers bound to RFCOMM serial devices.
type BluetoothProbe struct {
	// Pattern globs the RFCOMM nodes, /dev/rfcomm* by default.
	Pattern string
	// AdapterRoot exists only when the host has a Bluetooth adapter.
	AdapterRoot string
	Catalog     Catalog
}

// NewBluetoothProbe creates a probe with the Linux default paths.
func NewBluetoothProbe(pattern string, catalog Catalog) *BluetoothProbe {
	if pattern == "" {
		pattern = "/dev/rfcomm*"
	}
	return &BluetoothProbe{Pattern: pattern, AdapterRoot: "/sys/class/bluetooth", Catalog: catalog}
}

// Method implements Probe.
func (p *BluetoothProbe) Method() string { return MethodBluetooth }

// Available implements Probe.
func (p *BluetoothProbe) Available() bool {
	return dirExists(p.AdapterRoot)
}

// Discover implements Probe. Bound RFCOMM nodes are online; declared
// Bluetooth printers without a node are offline.
func (p *BluetoothProbe) Discover(ctx context.Context) ([]model.PrinterInfo, error) {
	paths, err := filepath.Glob(p.Pattern)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := time.Now()
	bound := make(map[string]bool, len(paths))
	printers := make([]model.PrinterInfo, 0, len(paths))
	for _, path := range paths {
		bound[path] = true
		info := model.PrinterInfo{
			Name:       deviceName("bt", path),
			Connection: model.ConnectionBluetooth,
			Address:    path,
		}
		if entry, ok := p.Catalog.ByAddress(path); ok {
			info = entry.Info(model.PrinterOnline)
			info.Connection = model.ConnectionBluetooth
		}
		info.Status = model.PrinterOnline
		info.LastSeen = now
		printers = append(printers, info)
	}

	for _, entry := range p.Catalog.ByConnection(model.ConnectionBluetooth) {
		if bound[entry.Address] {
			continue
		}
		info := entry.Info(model.PrinterOffline)
		info.LastSeen = now
		printers = append(printers, info)
	}
	return printers, nil
}
