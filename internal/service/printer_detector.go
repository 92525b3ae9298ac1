package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/guttosm/label-print-service/internal/domain/model"
	"github.com/guttosm/label-print-service/internal/metrics"
	"github.com/guttosm/label-print-service/internal/printer"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// DefaultProbeTimeout bounds a single probe.
const DefaultProbeTimeout = 5 * time.Second

// PrinterDetector discovers printers over every available channel.
type PrinterDetector interface {
	Detect(ctx context.Context) model.PrinterDetectionResult
	Run(ctx context.Context, interval time.Duration)
	Last() (model.PrinterDetectionResult, bool)
}

// PrinterDetectorService fans detection out to its probes and merges the outcome into a registry.
type PrinterDetectorService struct {
	probes   []printer.Probe
	registry PrinterRegistry
	timeout  time.Duration

	mu   sync.RWMutex
	last *model.PrinterDetectionResult
}

var _ PrinterDetector = (*PrinterDetectorService)(nil)

// DetectorOption configures a PrinterDetectorService.
type DetectorOption func(*PrinterDetectorService)

// WithProbeTimeout sets the per-probe timeout.
func WithProbeTimeout(d time.Duration) DetectorOption {
	return func(s *PrinterDetectorService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewPrinterDetector creates a detector. Probes are merged in the given order,
// so a later probe wins when two report the same printer name.
func NewPrinterDetector(registry PrinterRegistry, probes []printer.Probe, opts ...DetectorOption) *PrinterDetectorService {
	s := &PrinterDetectorService{
		probes:   probes,
		registry: registry,
		timeout:  DefaultProbeTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type probeOutcome struct {
	printers []model.PrinterInfo
	err      error
}

// Detect runs every available probe concurrently and merges the result into the registry.
// Probe failures are reported in the result, never returned.
func (s *PrinterDetectorService) Detect(ctx context.Context) model.PrinterDetectionResult {
	var active []printer.Probe
	for _, p := range s.probes {
		if p.Available() {
			active = append(active, p)
		}
	}

	outcomes := make([]probeOutcome, len(active))
	var g errgroup.Group
	for i, p := range active {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			start := time.Now()
			printers, err := p.Discover(pctx)
			if err == nil && pctx.Err() != nil {
				err = pctx.Err()
			}
			if errors.Is(err, context.DeadlineExceeded) {
				err = fmt.Errorf("probe timed out after %s", s.timeout)
			}
			metrics.RecordProbe(p.Method(), time.Since(start), err)
			outcomes[i] = probeOutcome{printers: printers, err: err}
			return nil
		})
	}
	_ = g.Wait()

	result := mergeDetection(active, outcomes)
	metrics.RecordDetection(string(result.DetectionStatus))

	s.registry.Merge(result)
	s.mu.Lock()
	s.last = &result
	s.mu.Unlock()

	online := 0
	for _, p := range s.registry.Snapshot() {
		if p.Status != model.PrinterOffline {
			online++
		}
	}
	metrics.SetPrintersOnline(online)

	log.Info().
		Str("status", string(result.DetectionStatus)).
		Int("printers", result.TotalCount).
		Strs("methods", result.DetectionMethodsUsed).
		Interface("errors", result.Errors).
		Msg("Printer detection finished")

	return result
}

func mergeDetection(probes []printer.Probe, outcomes []probeOutcome) model.PrinterDetectionResult {
	result := model.PrinterDetectionResult{
		Printers:             []model.PrinterInfo{},
		DetectionMethodsUsed: make([]string, 0, len(probes)),
		DetectedAt:           time.Now().UTC(),
	}

	byName := make(map[string]model.PrinterInfo)
	for i, p := range probes {
		result.DetectionMethodsUsed = append(result.DetectionMethodsUsed, p.Method())
		if err := outcomes[i].err; err != nil {
			if result.Errors == nil {
				result.Errors = make(map[string]string)
			}
			result.Errors[p.Method()] = err.Error()
			continue
		}
		for _, info := range outcomes[i].printers {
			byName[info.Name] = info
		}
	}

	for _, info := range byName {
		result.Printers = append(result.Printers, info)
	}
	sort.Slice(result.Printers, func(i, j int) bool {
		return result.Printers[i].Name < result.Printers[j].Name
	})
	result.TotalCount = len(result.Printers)

	switch {
	case len(probes) == 0:
		result.DetectionStatus = model.DetectionLimited
	case result.TotalCount == 0:
		result.DetectionStatus = model.DetectionFailed
	case len(result.Errors) > 0:
		result.DetectionStatus = model.DetectionPartial
	default:
		result.DetectionStatus = model.DetectionSuccess
	}
	return result
}

// Last returns the most recent detection result.
func (s *PrinterDetectorService) Last() (model.PrinterDetectionResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.last == nil {
		return model.PrinterDetectionResult{}, false
	}
	return *s.last, true
}

// Run detects immediately and then every interval until ctx is done.
func (s *PrinterDetectorService) Run(ctx context.Context, interval time.Duration) {
	s.Detect(ctx)
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Detect(ctx)
		}
	}
}
