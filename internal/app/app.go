// Package app provides application initialization and dependency injection.
package app

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/label-print-service/config"
	"github.com/guttosm/label-print-service/internal/http"
	"github.com/rs/zerolog/log"
)

// App is the wired label print service.
type App struct {
	Router   *gin.Engine
	Printers *PrinterComponents
	Services *ServiceComponents
	Database *DatabaseComponents
	Redis    *RedisComponents

	cfg    config.Config
	cancel context.CancelFunc
}

// InitializeApp creates and wires all application dependencies.
// MongoDB and Redis are optional: when disabled or unreachable the service runs in memory.
func InitializeApp(cfg config.Config) (*App, error) {
	// Initialize logger first (needed by other components)
	InitializeLogger(cfg.Log)

	printers := InitializePrinters(cfg)
	dbComponents := InitializeDatabase(cfg.Database)
	redisComponents := InitializeRedis(cfg.Redis)

	serviceComponents, err := InitializeServices(cfg, printers, dbComponents, redisComponents)
	if err != nil {
		closeStores(context.Background(), dbComponents, redisComponents)
		return nil, err
	}

	routerComponents := InitializeRouter(serviceComponents, printers, dbComponents, redisComponents, cfg)

	return &App{
		Router:   http.NewRouter(routerComponents.Handler, routerComponents.HealthHandler, routerComponents.Config),
		Printers: printers,
		Services: serviceComponents,
		Database: dbComponents,
		Redis:    redisComponents,
		cfg:      cfg,
	}, nil
}

// Start launches the job janitor and the periodic printer detection.
func (a *App) Start(ctx context.Context) {
	ctx, a.cancel = context.WithCancel(ctx)
	a.Services.Manager.Start(ctx)
	go a.Printers.Detector.Run(ctx, a.cfg.Detection.RefreshInterval)
}

// Shutdown stops background work, settles printing jobs and releases the stores.
// Without DrainOnShutdown printing jobs are cancelled at once.
func (a *App) Shutdown(ctx context.Context) error {
	if a.cancel != nil {
		a.cancel()
	}

	drainCtx := ctx
	if !a.cfg.Print.DrainOnShutdown {
		var cancel context.CancelFunc
		drainCtx, cancel = context.WithCancel(ctx)
		cancel()
	}

	var errs []error
	if err := a.Services.Manager.Shutdown(drainCtx); err != nil && drainCtx == ctx {
		errs = append(errs, err)
	}
	a.Services.AuditSink.Stop()
	if err := closeStores(ctx, a.Database, a.Redis); err != nil {
		errs = append(errs, err)
	}

	log.Info().Msg("Print pipeline stopped")
	return errors.Join(errs...)
}

func closeStores(ctx context.Context, db *DatabaseComponents, rdb *RedisComponents) error {
	var errs []error
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if db != nil {
		if err := db.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
