package service

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/guttosm/label-print-service/internal/domain/model"
	"github.com/guttosm/label-print-service/internal/printer"
)

// PrinterRegistry is the single mutable store of known printers.
// Every read returns a copy.
type PrinterRegistry interface {
	Merge(result model.PrinterDetectionResult)
	Upsert(info model.PrinterInfo)
	SetStatus(name string, status model.PrinterStatus) (model.PrinterInfo, error)
	Snapshot() []model.PrinterInfo
	Get(name string) (model.PrinterInfo, error)
	Reserve(name, jobID string, dims model.Dimensions) (model.PrinterInfo, error)
	ReserveFirst(jobID string, dims model.Dimensions) (model.PrinterInfo, bool)
	Release(name, jobID string) bool
	CapableOnline(dims model.Dimensions) int
	CheckCapable(dims model.Dimensions) error
	OnChange(fn PrinterChangeFunc)
}

// PrinterChangeFunc observes a printer whose detected status changed.
type PrinterChangeFunc func(prev, cur model.PrinterInfo)

// PrinterRegistryService keeps detected printers and job reservations apart,
// so a detection refresh never drops a reservation.
type PrinterRegistryService struct {
	mu           sync.Mutex
	printers     map[string]model.PrinterInfo
	reservations map[string]string // printer name -> job id
	hooks        []PrinterChangeFunc
	now          func() time.Time
}

var _ PrinterRegistry = (*PrinterRegistryService)(nil)

// NewPrinterRegistry creates an empty registry.
func NewPrinterRegistry() *PrinterRegistryService {
	return &PrinterRegistryService{
		printers:     make(map[string]model.PrinterInfo),
		reservations: make(map[string]string),
		now:          time.Now,
	}
}

// OnChange registers fn for detected status changes. Hooks run outside the lock.
func (r *PrinterRegistryService) OnChange(fn PrinterChangeFunc) {
	r.mu.Lock()
	r.hooks = append(r.hooks, fn)
	r.mu.Unlock()
}

type printerChange struct{ prev, cur model.PrinterInfo }

// methodConnections maps detection methods to the connection types they cover.
var methodConnections = map[string][]model.ConnectionType{
	printer.MethodUSB:       {model.ConnectionUSB},
	printer.MethodWiFi:      {model.ConnectionWiFi, model.ConnectionNetwork},
	printer.MethodBluetooth: {model.ConnectionBluetooth},
}

// Merge applies a detection result; the last entry wins on duplicate names.
// Known printers that a successful probe no longer reports go offline.
func (r *PrinterRegistryService) Merge(result model.PrinterDetectionResult) {
	covered := make(map[model.ConnectionType]bool)
	for _, method := range result.DetectionMethodsUsed {
		if _, failed := result.Errors[method]; failed {
			continue
		}
		for _, ct := range methodConnections[method] {
			covered[ct] = true
		}
	}

	r.mu.Lock()
	var changes []printerChange
	seen := make(map[string]bool, len(result.Printers))
	for _, p := range result.Printers {
		seen[p.Name] = true
		if c, changed := r.put(p); changed {
			changes = append(changes, c)
		}
	}
	for name, p := range r.printers {
		if seen[name] || !covered[p.Connection] || p.Status == model.PrinterOffline {
			continue
		}
		p.Status = model.PrinterOffline
		if c, changed := r.put(p); changed {
			changes = append(changes, c)
		}
	}
	hooks := r.hooks
	r.mu.Unlock()

	r.fire(hooks, changes)
}

// Upsert adds or replaces one printer.
func (r *PrinterRegistryService) Upsert(info model.PrinterInfo) {
	r.mu.Lock()
	c, changed := r.put(info)
	hooks := r.hooks
	r.mu.Unlock()

	if changed {
		r.fire(hooks, []printerChange{c})
	}
}

// SetStatus overrides the detected status of a known printer.
func (r *PrinterRegistryService) SetStatus(name string, status model.PrinterStatus) (model.PrinterInfo, error) {
	r.mu.Lock()
	p, ok := r.printers[name]
	if !ok {
		r.mu.Unlock()
		return model.PrinterInfo{}, fmt.Errorf("%w: %s", ErrPrinterNotFound, name)
	}
	p.Status = status
	c, changed := r.put(p)
	view := r.view(p)
	hooks := r.hooks
	r.mu.Unlock()

	if changed {
		r.fire(hooks, []printerChange{c})
	}
	return view, nil
}

// put stores p (lock held) and reports a status change.
func (r *PrinterRegistryService) put(p model.PrinterInfo) (printerChange, bool) {
	if p.LastSeen.IsZero() {
		p.LastSeen = r.now()
	}
	p.ActiveJobID = ""
	prev, existed := r.printers[p.Name]
	r.printers[p.Name] = p

	if existed && prev.Status == p.Status {
		return printerChange{}, false
	}
	return printerChange{prev: r.view(prev), cur: r.view(p)}, true
}

func (r *PrinterRegistryService) fire(hooks []PrinterChangeFunc, changes []printerChange) {
	for _, c := range changes {
		for _, h := range hooks {
			h(c.prev, c.cur)
		}
	}
}

// view projects the reservation onto a copy of p.
func (r *PrinterRegistryService) view(p model.PrinterInfo) model.PrinterInfo {
	out := p
	if out.MaxWidthInches != nil {
		w := *out.MaxWidthInches
		out.MaxWidthInches = &w
	}
	if out.MaxHeightInches != nil {
		h := *out.MaxHeightInches
		out.MaxHeightInches = &h
	}
	if out.DPI != nil {
		d := *out.DPI
		out.DPI = &d
	}
	if jobID, ok := r.reservations[p.Name]; ok {
		out.ActiveJobID = jobID
		if out.Status == model.PrinterOnline {
			out.Status = model.PrinterBusy
		}
	}
	return out
}

// Snapshot returns copies of every printer sorted by name.
func (r *PrinterRegistryService) Snapshot() []model.PrinterInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.PrinterInfo, 0, len(r.printers))
	for _, p := range r.printers {
		out = append(out, r.view(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Get returns a copy of one printer.
func (r *PrinterRegistryService) Get(name string) (model.PrinterInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.printers[name]
	if !ok {
		return model.PrinterInfo{}, fmt.Errorf("%w: %s", ErrPrinterNotFound, name)
	}
	return r.view(p), nil
}

// Reserve atomically claims the named printer for jobID.
func (r *PrinterRegistryService) Reserve(name, jobID string, dims model.Dimensions) (model.PrinterInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.printers[name]
	switch {
	case !ok:
		return model.PrinterInfo{}, fmt.Errorf("%w: %s", ErrPrinterNotFound, name)
	case !p.CanPrint(dims):
		return model.PrinterInfo{}, fmt.Errorf("%w: %s", ErrPrinterIncompatible, name)
	case p.Status == model.PrinterOffline:
		return model.PrinterInfo{}, fmt.Errorf("%w: %s is offline", ErrPrinterUnavailable, name)
	}
	if holder, reserved := r.reservations[name]; reserved {
		if holder == jobID {
			return r.view(p), nil
		}
		return model.PrinterInfo{}, fmt.Errorf("%w: %s is printing job %s", ErrPrinterBusy, name, holder)
	}
	if p.Status == model.PrinterBusy {
		return model.PrinterInfo{}, fmt.Errorf("%w: %s", ErrPrinterBusy, name)
	}

	r.reservations[name] = jobID
	return r.view(p), nil
}

// ReserveFirst claims the first idle capable printer by name.
func (r *PrinterRegistryService) ReserveFirst(jobID string, dims model.Dimensions) (model.PrinterInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.printers))
	for name := range r.printers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		p := r.printers[name]
		if p.Status != model.PrinterOnline || !p.CanPrint(dims) {
			continue
		}
		if _, reserved := r.reservations[name]; reserved {
			continue
		}
		r.reservations[name] = jobID
		return r.view(p), true
	}
	return model.PrinterInfo{}, false
}

// CheckCapable returns ErrPrinterIncompatible when printers are known but none of
// them, in any status, can print labels of size dims. An empty registry passes.
func (r *PrinterRegistryService) CheckCapable(dims model.Dimensions) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.printers) == 0 {
		return nil
	}
	for _, p := range r.printers {
		if p.CanPrint(dims) {
			return nil
		}
	}
	return fmt.Errorf("%w: no known printer takes %gx%gin labels",
		ErrPrinterIncompatible, dims.WidthInches, dims.HeightInches)
}

// Release drops the reservation of name if jobID holds it.
func (r *PrinterRegistryService) Release(name, jobID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if holder, ok := r.reservations[name]; ok && holder == jobID {
		delete(r.reservations, name)
		return true
	}
	return false
}

// CapableOnline counts printers that are online, reserved or not, and can print dims.
func (r *PrinterRegistryService) CapableOnline(dims model.Dimensions) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, p := range r.printers {
		if p.Status == model.PrinterOnline && p.CanPrint(dims) {
			n++
		}
	}
	return n
}
