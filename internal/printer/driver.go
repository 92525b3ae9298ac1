package printer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/guttosm/label-print-service/internal/domain/model"
)

// ErrNoDriver is returned when no driver handles a connection type.
var ErrNoDriver = errors.New("no driver for connection type")

// TCPDriver streams label data to the raw printing port of network printers.
type TCPDriver struct {
	DialTimeout time.Duration
}

// Send implements Driver.
func (d *TCPDriver) Send(ctx context.Context, p model.PrinterInfo, data []byte) error {
	dialer := net.Dialer{Timeout: d.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", withDefaultPort(p.Address))
	if err != nil {
		return fmt.Errorf("dial %s: %w", p.Name, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
	}
	if _, err := conn.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", p.Name, err)
	}
	return nil
}

// DeviceDriver writes label data to a local device node (USB lp, RFCOMM).
type DeviceDriver struct{}

// Send implements Driver. A write blocked on the device is abandoned when ctx ends.
func (DeviceDriver) Send(ctx context.Context, p model.PrinterInfo, data []byte) error {
	f, err := os.OpenFile(p.Address, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return fmt.Errorf("open %s: %w", p.Name, err)
	}

	done := make(chan error, 1)
	go func() {
		_, werr := f.Write(data)
		done <- werr
	}()

	select {
	case werr := <-done:
		cerr := f.Close()
		if werr != nil {
			return fmt.Errorf("write %s: %w", p.Name, werr)
		}
		return cerr
	case <-ctx.Done():
		_ = f.Close()
		return ctx.Err()
	}
}

// Router picks the driver for each printer's connection type.
type Router struct {
	drivers map[model.ConnectionType]Driver
}

// NewRouter routes network and WiFi printers to network, USB and Bluetooth to device.
func NewRouter(network, device Driver) *Router {
	return &Router{drivers: map[model.ConnectionType]Driver{
		model.ConnectionWiFi:      network,
		model.ConnectionNetwork:   network,
		model.ConnectionUSB:       device,
		model.ConnectionBluetooth: device,
	}}
}

// Send implements Driver.
func (r *Router) Send(ctx context.Context, p model.PrinterInfo, data []byte) error {
	d, ok := r.drivers[p.Connection]
	if !ok || d == nil {
		return fmt.Errorf("%w: %q", ErrNoDriver, p.Connection)
	}
	return d.Send(ctx, p, data)
}
