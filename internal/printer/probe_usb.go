package printer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/guttosm/label-print-service/internal/domain/model"
)

// Label printer command languages advertised in IEEE 1284 device ids.
var labelLanguages = []string{"ZPL", "EPL", "TSPL", "CPCL", "DPL"}

// USBProbe finds USB printer class devices.
type USBProbe struct {
	// Pattern globs the device nodes, /dev/usb/lp* by default.
	Pattern string
	// SysfsRoot holds per-device IEEE 1284 ids, /sys/class/usbmisc by default.
	SysfsRoot string
	Catalog   Catalog
}

// NewUSBProbe creates a probe with the Linux default paths.
func NewUSBProbe(pattern string, catalog Catalog) *USBProbe {
	if pattern == "" {
		pattern = "/dev/usb/lp*"
	}
	return &USBProbe{Pattern: pattern, SysfsRoot: "/sys/class/usbmisc", Catalog: catalog}
}

// Method implements Probe.
func (p *USBProbe) Method() string { return MethodUSB }

// Available implements Probe.
func (p *USBProbe) Available() bool {
	return dirExists(filepath.Dir(p.Pattern))
}

// Discover implements Probe.
func (p *USBProbe) Discover(ctx context.Context) ([]model.PrinterInfo, error) {
	paths, err := filepath.Glob(p.Pattern)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	printers := make([]model.PrinterInfo, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return printers, err
		}

		if entry, ok := p.Catalog.ByAddress(path); ok {
			info := entry.Info(model.PrinterOnline)
			info.Connection = model.ConnectionUSB
			info.LastSeen = now
			printers = append(printers, info)
			continue
		}

		info := model.PrinterInfo{
			Name:       deviceName("usb", path),
			Connection: model.ConnectionUSB,
			Status:     model.PrinterOnline,
			Address:    path,
			LastSeen:   now,
		}
		if id := p.deviceID(path); id != nil {
			if mdl := id["MDL"]; mdl != "" {
				info.Name = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(mdl)), " ", "-")
			}
			info.SupportsLabelPrinting = speaksLabelLanguage(id["CMD"])
		}
		printers = append(printers, info)
	}
	return printers, nil
}

// deviceID parses the IEEE 1284 id ("MFG:Zebra;MDL:GK420d;CMD:ZPL;") of a device node.
func (p *USBProbe) deviceID(path string) map[string]string {
	raw, err := os.ReadFile(filepath.Join(p.SysfsRoot, filepath.Base(path), "device", "ieee1284_id"))
	if err != nil {
		return nil
	}
	fields := make(map[string]string)
	for _, part := range strings.Split(string(raw), ";") {
		key, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		switch key = strings.ToUpper(strings.TrimSpace(key)); key {
		case "MANUFACTURER":
			key = "MFG"
		case "MODEL":
			key = "MDL"
		case "COMMAND SET":
			key = "CMD"
		}
		fields[key] = strings.TrimSpace(value)
	}
	return fields
}

func speaksLabelLanguage(commandSet string) bool {
	upper := strings.ToUpper(commandSet)
	for _, lang := range labelLanguages {
		if strings.Contains(upper, lang) {
			return true
		}
	}
	return false
}
