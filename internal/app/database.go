// Package app provides database initialization and setup.
package app

import (
	"context"
	"time"

	"github.com/guttosm/label-print-service/config"
	"github.com/guttosm/label-print-service/internal/circuitbreaker"
	"github.com/guttosm/label-print-service/internal/repository"
	"github.com/guttosm/label-print-service/internal/service"
	"github.com/rs/zerolog/log"
)

// DatabaseComponents holds database-related components.
type DatabaseComponents struct {
	DB                         *repository.MongoDB
	JobArchive                 repository.JobArchiveRepositoryInterface
	Transactions               repository.TransactionRepositoryInterface
	LoggingService             service.LoggingService
	ArchiveCircuitBreaker      *circuitbreaker.CircuitBreaker
	TransactionsCircuitBreaker *circuitbreaker.CircuitBreaker
	LogsCircuitBreaker         *circuitbreaker.CircuitBreaker
}

// Close disconnects from MongoDB.
func (d *DatabaseComponents) Close(ctx context.Context) error {
	return d.DB.Close(ctx)
}

// InitializeDatabase connects to MongoDB and creates the archive, transaction and audit repositories.
// Returns nil if database is disabled or connection fails.
func InitializeDatabase(cfg config.DatabaseConfig) *DatabaseComponents {
	if !cfg.Enabled {
		return nil
	}

	db, err := repository.NewMongoDB(cfg.URI, cfg.DatabaseName)
	if err != nil {
		log.Error().Err(err).Msg("Failed to connect to MongoDB - continuing without database")
		return nil
	}

	log.Info().Str("database", cfg.DatabaseName).Msg("Connected to MongoDB")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Audit entries and archived jobs share one retention period
	days := ttlDays(cfg.LogsTTL)
	if err := db.SetLogsTTL(ctx, days); err != nil {
		log.Warn().Err(err).Msg("Failed to set logs TTL index (may already exist)")
	}
	if err := db.SetPrintJobsTTL(ctx, days); err != nil {
		log.Warn().Err(err).Msg("Failed to set print jobs TTL index")
	}

	archiveCB := newDatabaseBreaker(cfg, "mongodb-print-jobs")
	transactionsCB := newDatabaseBreaker(cfg, "mongodb-transactions")
	logsCB := newDatabaseBreaker(cfg, "mongodb-logs")

	logsRepo := repository.NewLogsRepositoryWithCircuitBreaker(repository.NewLogsRepository(db), logsCB)

	return &DatabaseComponents{
		DB:                         db,
		JobArchive:                 repository.NewJobArchiveRepositoryWithCircuitBreaker(repository.NewJobArchiveRepository(db), archiveCB),
		Transactions:               repository.NewTransactionRepositoryWithCircuitBreaker(repository.NewTransactionRepository(db), transactionsCB),
		LoggingService:             service.NewLoggingService(logsRepo),
		ArchiveCircuitBreaker:      archiveCB,
		TransactionsCircuitBreaker: transactionsCB,
		LogsCircuitBreaker:         logsCB,
	}
}

func newDatabaseBreaker(cfg config.DatabaseConfig, name string) *circuitbreaker.CircuitBreaker {
	return circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: cfg.CircuitBreakerFailureThreshold,
		SuccessThreshold: cfg.CircuitBreakerSuccessThreshold,
		Timeout:          cfg.CircuitBreakerTimeout,
		Name:             name,
	})
}

// ttlDays rounds d up to whole days; non-positive durations disable expiry.
func ttlDays(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	const day = 24 * time.Hour
	return int((d + day - 1) / day)
}
