// Package app provides service initialization.
package app

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/guttosm/label-print-service/config"
	"github.com/guttosm/label-print-service/internal/idgen"
	"github.com/guttosm/label-print-service/internal/middleware"
	"github.com/guttosm/label-print-service/internal/service"
	"github.com/guttosm/label-print-service/internal/ws"
)

// statusMirrorTimeout bounds one Redis write per status update.
const statusMirrorTimeout = 2 * time.Second

// ServiceComponents holds service-related components.
type ServiceComponents struct {
	Codec        *service.PayloadCodecService
	Compositor   *service.LabelCompositorService
	Manager      *service.PrintJobManagerService
	Coordinator  *service.BatchCoordinatorService
	Transactions service.TransactionSource
	Hub          *ws.Hub
	AuditSink    *middleware.AsyncLogger
}

// InitializeServices initializes the print pipeline on top of the printer and storage components.
// db and rdb may be nil.
func InitializeServices(cfg config.Config, printers *PrinterComponents, db *DatabaseComponents, rdb *RedisComponents) (*ServiceComponents, error) {
	ids, err := idgen.New(cfg.Print.SnowflakeNode)
	if err != nil {
		return nil, fmt.Errorf("id generator: %w", err)
	}

	var loggingService service.LoggingService
	if db != nil {
		loggingService = db.LoggingService
	}
	auditSink := middleware.NewAsyncLogger(loggingService, middleware.DefaultAsyncLoggerConfig())
	hub := ws.NewHub(ws.WithCheckOrigin(allowedOrigin(cfg.Server.CORSOrigins)))

	listeners := []service.StatusListener{hub, service.NewJobAuditListener(auditSink)}
	if rdb != nil {
		listeners = append(listeners, service.NewStatusMirror(rdb.StatusStore, statusMirrorTimeout))
	}

	managerOpts := []service.ManagerOption{
		service.WithManagerConfig(service.ManagerConfig{
			LabelTimeout:    cfg.Print.LabelTimeout,
			Retention:       cfg.Print.Retention,
			ReadGrace:       cfg.Print.ReadGrace,
			JanitorInterval: cfg.Print.JanitorInterval,
			DurationSamples: cfg.Print.DurationSamples,
		}),
		service.WithBreakers(printers.Breakers),
		service.WithStatusListeners(listeners...),
	}

	var transactions service.TransactionSource = service.NewMemoryTransactionSource()
	var batchOpts []service.BatchOption
	if db != nil {
		managerOpts = append(managerOpts, service.WithJobArchive(db.JobArchive))
		transactions = service.NewRepositoryTransactionSource(db.Transactions)
		if size := cfg.Database.TransactionCacheSize; size > 0 {
			transactions = service.NewCachedTransactionSource(transactions, size, cfg.Database.TransactionCacheTTL)
		}
		batchOpts = append(batchOpts, service.WithBatchArchive(db.JobArchive))
	}
	batchOpts = append(batchOpts, service.WithTransactionSource(transactions))

	manager := service.NewPrintJobManager(printers.Registry, printers.Driver, ids, managerOpts...)
	codec := service.NewPayloadCodec()
	compositor := service.NewLabelCompositor(codec)
	coordinator := service.NewBatchCoordinator(compositor, manager, printers.Registry, ids, batchOpts...)

	return &ServiceComponents{
		Codec:        codec,
		Compositor:   compositor,
		Manager:      manager,
		Coordinator:  coordinator,
		Transactions: transactions,
		Hub:          hub,
		AuditSink:    auditSink,
	}, nil
}

// allowedOrigin accepts same-host websocket upgrades and the configured CORS origins.
func allowedOrigin(origins []string) func(r *http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || allowed[origin] {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}
}
