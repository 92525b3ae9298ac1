package printer

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/guttosm/label-print-service/internal/domain/model"
	"golang.org/x/sync/errgroup"
)

// DefaultRawPort is the raw printing (JetDirect) port.
const DefaultRawPort = "9100"

// NetworkProbe checks reachability of the declared WiFi and network printers.
type NetworkProbe struct {
	Catalog     Catalog
	DialTimeout time.Duration
	// Concurrency bounds simultaneous dials.
	Concurrency int
}

// NewNetworkProbe creates a probe over the wifi and network entries of catalog.
func NewNetworkProbe(catalog Catalog, dialTimeout time.Duration) *NetworkProbe {
	return &NetworkProbe{
		Catalog:     catalog.ByConnection(model.ConnectionWiFi, model.ConnectionNetwork),
		DialTimeout: dialTimeout,
		Concurrency: 8,
	}
}

// Method implements Probe.
func (p *NetworkProbe) Method() string { return MethodWiFi }

// Available implements Probe.
func (p *NetworkProbe) Available() bool {
	return len(p.Catalog) > 0
}

// Discover implements Probe. Unreachable printers are reported offline.
func (p *NetworkProbe) Discover(ctx context.Context) ([]model.PrinterInfo, error) {
	printers := make([]model.PrinterInfo, len(p.Catalog))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	if p.Concurrency > 0 {
		g.SetLimit(p.Concurrency)
	}
	for i, entry := range p.Catalog {
		g.Go(func() error {
			status := model.PrinterOffline
			if p.reachable(gctx, entry.Address) {
				status = model.PrinterOnline
			}
			info := entry.Info(status)
			info.LastSeen = time.Now()

			mu.Lock()
			printers[i] = info
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return printers, nil
}

func (p *NetworkProbe) reachable(ctx context.Context, address string) bool {
	dialer := net.Dialer{Timeout: p.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", withDefaultPort(address))
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

func withDefaultPort(address string) string {
	if _, _, err := net.SplitHostPort(address); err == nil {
		return address
	}
	return net.JoinHostPort(address, DefaultRawPort)
}
