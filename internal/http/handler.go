package http

import (
	"github.com/guttosm/label-print-service/internal/domain/model"
	"github.com/guttosm/label-print-service/internal/service"
	"github.com/guttosm/label-print-service/internal/ws"
)

// Services are the collaborators behind the print API.
type Services struct {
	Manager      service.PrintJobManager
	Coordinator  service.BatchCoordinator
	Registry     service.PrinterRegistry
	Detector     service.PrinterDetector
	Codec        service.PayloadCodec
	Compositor   service.LabelCompositor
	Transactions service.TransactionSource
	// AuditLog serves job histories; nil disables the history endpoint.
	AuditLog service.LoggingService
}

// Handler provides HTTP handlers for print jobs, batches, printers, transactions and payloads.
type Handler struct {
	manager      service.PrintJobManager
	coordinator  service.BatchCoordinator
	registry     service.PrinterRegistry
	detector     service.PrinterDetector
	codec        service.PayloadCodec
	compositor   service.LabelCompositor
	transactions service.TransactionSource
	auditLog     service.LoggingService
	hub          *ws.Hub
	audit        service.AuditSink
	defaults     model.PrintSettings
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithDefaultSettings sets the print settings that request overrides apply to.
func WithDefaultSettings(s model.PrintSettings) HandlerOption {
	return func(h *Handler) {
		h.defaults = s
	}
}

// WithStatusHub enables the websocket status stream.
func WithStatusHub(hub *ws.Hub) HandlerOption {
	return func(h *Handler) {
		h.hub = hub
	}
}

// WithAuditSink records operator actions.
func WithAuditSink(sink service.AuditSink) HandlerOption {
	return func(h *Handler) {
		h.audit = sink
	}
}

// NewHandler creates a new Handler instance.
func NewHandler(svc Services, opts ...HandlerOption) *Handler {
	h := &Handler{
		manager:      svc.Manager,
		coordinator:  svc.Coordinator,
		registry:     svc.Registry,
		detector:     svc.Detector,
		codec:        svc.Codec,
		compositor:   svc.Compositor,
		transactions: svc.Transactions,
		auditLog:     svc.AuditLog,
		defaults:     model.DefaultPrintSettings(),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}
