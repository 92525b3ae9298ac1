package app

import (
	"github.com/guttosm/label-print-service/config"
	"github.com/guttosm/label-print-service/internal/circuitbreaker"
	"github.com/guttosm/label-print-service/internal/domain/model"
	"github.com/guttosm/label-print-service/internal/printer"
	"github.com/guttosm/label-print-service/internal/service"
	"github.com/rs/zerolog/log"
)

// PrinterComponents holds the printer registry, discovery and transport.
type PrinterComponents struct {
	Registry *service.PrinterRegistryService
	Detector *service.PrinterDetectorService
	Breakers *circuitbreaker.Group
	Driver   printer.Driver
}

// InitializePrinters builds the registry from the declared catalog and wires the discovery probes.
// A printer whose breaker opens is taken offline until detection or an operator brings it back.
func InitializePrinters(cfg config.Config) *PrinterComponents {
	catalog := cfg.Detection.Printers

	registry := service.NewPrinterRegistry()
	seedCatalog(registry, catalog)

	probes := []printer.Probe{
		printer.NewUSBProbe(cfg.Detection.USBPattern, catalog),
		printer.NewNetworkProbe(catalog, cfg.Detection.ProbeTimeout),
		printer.NewBluetoothProbe(cfg.Detection.BluetoothPattern, catalog),
	}
	detector := service.NewPrinterDetector(registry, probes,
		service.WithProbeTimeout(cfg.Detection.ProbeTimeout))

	breakers := circuitbreaker.NewGroup(circuitbreaker.Config{
		FailureThreshold: cfg.CircuitBreaker.Printer.FailureThreshold,
		SuccessThreshold: cfg.CircuitBreaker.Printer.SuccessThreshold,
		Timeout:          cfg.CircuitBreaker.Printer.Timeout,
		OnStateChange:    takeOfflineOnOpen(registry),
	})

	driver := printer.NewRouter(&printer.TCPDriver{DialTimeout: cfg.Detection.ProbeTimeout}, printer.DeviceDriver{})

	return &PrinterComponents{
		Registry: registry,
		Detector: detector,
		Breakers: breakers,
		Driver:   driver,
	}
}

// seedCatalog registers declared printers as offline until the first detection sees them.
func seedCatalog(registry service.PrinterRegistry, catalog printer.Catalog) {
	for _, entry := range catalog {
		registry.Upsert(entry.Info(model.PrinterOffline))
	}
	if len(catalog) > 0 {
		log.Info().Int("printers", len(catalog)).Msg("Registered printer catalog")
	}
}

func takeOfflineOnOpen(registry service.PrinterRegistry) func(name string, from, to circuitbreaker.State) {
	return func(name string, _, to circuitbreaker.State) {
		if to != circuitbreaker.StateOpen {
			return
		}
		if _, err := registry.SetStatus(name, model.PrinterOffline); err != nil {
			log.Warn().Err(err).Str("printer", name).Msg("Failed to take failing printer offline")
			return
		}
		log.Warn().Str("printer", name).Msg("Printer taken offline after repeated failures")
	}
}
