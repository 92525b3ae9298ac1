// Package app provides router configuration.
package app

import (
	"github.com/guttosm/label-print-service/config"
	"github.com/guttosm/label-print-service/internal/http"
)

// RouterComponents holds router-related components.
type RouterComponents struct {
	Handler       *http.Handler
	HealthHandler *http.HealthHandler
	Config        http.RouterConfig
}

// InitializeRouter initializes HTTP handlers, health checks and router configuration.
func InitializeRouter(
	svc *ServiceComponents,
	printers *PrinterComponents,
	dbComponents *DatabaseComponents,
	redisComponents *RedisComponents,
	cfg config.Config,
) *RouterComponents {
	services := http.Services{
		Manager:      svc.Manager,
		Coordinator:  svc.Coordinator,
		Registry:     printers.Registry,
		Detector:     printers.Detector,
		Codec:        svc.Codec,
		Compositor:   svc.Compositor,
		Transactions: svc.Transactions,
	}
	if dbComponents != nil {
		services.AuditLog = dbComponents.LoggingService
	}
	handler := http.NewHandler(services,
		http.WithDefaultSettings(cfg.Print.Settings()),
		http.WithStatusHub(svc.Hub),
		http.WithAuditSink(svc.AuditSink),
	)

	healthHandler := http.NewHealthHandler()
	healthHandler.RegisterPrinterBreakers(printers.Breakers)

	// Register storage dependencies for readiness
	if dbComponents != nil {
		healthHandler.RegisterChecker("mongodb", dbComponents.DB)
		healthHandler.RegisterCircuitBreaker("mongodb_print_jobs", dbComponents.ArchiveCircuitBreaker)
		healthHandler.RegisterCircuitBreaker("mongodb_transactions", dbComponents.TransactionsCircuitBreaker)
		healthHandler.RegisterCircuitBreaker("mongodb_logs", dbComponents.LogsCircuitBreaker)
	}
	if redisComponents != nil {
		healthHandler.RegisterChecker("redis", redisComponents.StatusStore)
	}

	routerCfg := http.RouterConfig{
		RateLimit:         cfg.Server.RateLimit,
		RateWindow:        cfg.Server.RateWindow,
		SubmitRateLimit:   cfg.Server.SubmitRateLimit,
		RequestTimeout:    cfg.Server.RequestTimeout,
		EnableIdempotency: true,
		CORSOrigins:       cfg.Server.CORSOrigins,
		SwaggerUser:       cfg.Server.SwaggerUser,
		SwaggerPass:       cfg.Server.SwaggerPass,
		AuditSink:         svc.AuditSink,
	}

	return &RouterComponents{
		Handler:       handler,
		HealthHandler: healthHandler,
		Config:        routerCfg,
	}
}
