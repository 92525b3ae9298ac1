package http

import (
	"github.com/gin-gonic/gin"
)

// RouteGroup defines a group of routes that can be registered.
type RouteGroup interface {
	// RegisterRoutes registers routes to the given router group.
	RegisterRoutes(rg *gin.RouterGroup)
}

// PrintRoutes serves print jobs, the queue and batches.
type PrintRoutes struct {
	handler *Handler
	// submit guards the endpoints that create jobs.
	submit []gin.HandlerFunc
}

// RegisterRoutes implements RouteGroup.
func (r *PrintRoutes) RegisterRoutes(rg *gin.RouterGroup) {
	pg := rg.Group("/print")

	pg.POST("/jobs", r.guarded(r.handler.SubmitPrintJob)...)
	pg.GET("/jobs/:id", r.handler.GetPrintJob)
	pg.POST("/jobs/:id/cancel", r.handler.CancelPrintJob)
	pg.POST("/jobs/:id/retry", r.handler.RetryPrintJob)
	if r.handler.hub != nil {
		pg.GET("/jobs/:id/ws", r.handler.StreamPrintJob)
	}
	if r.handler.auditLog != nil {
		pg.GET("/jobs/:id/history", r.handler.GetPrintJobHistory)
	}
	pg.GET("/queue", r.handler.GetPrintQueue)

	pg.POST("/batches", r.guarded(r.handler.SubmitBatch)...)
	pg.GET("/batches/:id", r.handler.GetBatch)
	pg.GET("/batches/:id/report", r.handler.GetBatchReport)
}

func (r *PrintRoutes) guarded(h gin.HandlerFunc) []gin.HandlerFunc {
	chain := make([]gin.HandlerFunc, 0, len(r.submit)+1)
	return append(append(chain, r.submit...), h)
}

// PrinterRoutes serves the printer registry and detection.
type PrinterRoutes struct {
	handler *Handler
}

// RegisterRoutes implements RouteGroup.
func (r *PrinterRoutes) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/printers", r.handler.ListPrinters)
	rg.POST("/printers/detect", r.handler.DetectPrinters)
	rg.PUT("/printers/:name/status", r.handler.SetPrinterStatus)
}

// TransactionRoutes serves stored transaction records.
type TransactionRoutes struct {
	handler *Handler
}

// RegisterRoutes implements RouteGroup.
func (r *TransactionRoutes) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/transactions", r.handler.PutTransaction)
	rg.GET("/transactions/:company/:no", r.handler.GetTransaction)
}

// PayloadRoutes serves payload decoding, validation and label previews.
type PayloadRoutes struct {
	handler *Handler
}

// RegisterRoutes implements RouteGroup.
func (r *PayloadRoutes) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/payloads/decode", r.handler.DecodePayload)
	rg.POST("/payloads/validate", r.handler.ValidatePayload)
	rg.POST("/labels/preview", r.handler.PreviewLabels)
}

// apiRoutes lists every API route group of handler.
func apiRoutes(handler *Handler, submit ...gin.HandlerFunc) []RouteGroup {
	return []RouteGroup{
		&PrintRoutes{handler: handler, submit: submit},
		&PrinterRoutes{handler: handler},
		&TransactionRoutes{handler: handler},
		&PayloadRoutes{handler: handler},
	}
}
