// Package main is the entry point for the label-print-service application.
//
// @title           Label Print Service API
// @version         1.0.0
// @description     Composes QR product labels from warehouse transactions and drives them to label printers.
//
//	Jobs are queued per printer, tracked live over websockets and grouped into batches.
//
// @termsOfService  http://swagger.io/terms/
//
// @contact.name   API Support
// @contact.email  support@example.com
// @contact.url    https://github.com/guttosm/label-print-service
//
// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT
//
// @host      localhost:8080
// @BasePath  /
//
// @tag.name        Print Jobs
// @tag.description Single transaction print jobs and the queue
//
// @tag.name        Print Batches
// @tag.description Multi transaction batches and reports
//
// @tag.name        Printers
// @tag.description Printer registry and detection
//
// @tag.name        Transactions
// @tag.description Stored warehouse transactions
//
// @tag.name        Payloads
// @tag.description QR payload decoding, validation and label previews
//
// @tag.name        Health
// @tag.description Health check endpoints
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/guttosm/label-print-service/docs" // swagger docs

	"github.com/guttosm/label-print-service/config"
	"github.com/guttosm/label-print-service/internal/app"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	application, err := app.InitializeApp(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	application.Start(ctx)

	server := app.NewServer(application.Router, cfg.Server.Port,
		app.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		app.OnShutdown(application.Shutdown),
	)

	if err := server.RunContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server error")
	}
}
