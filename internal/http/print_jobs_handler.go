package http

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/label-print-service/internal/domain/dto"
	"github.com/guttosm/label-print-service/internal/domain/model"
	"github.com/guttosm/label-print-service/internal/logger"
	"github.com/guttosm/label-print-service/internal/middleware"
	"github.com/guttosm/label-print-service/internal/service"
	"github.com/guttosm/label-print-service/internal/ws"
)

// SubmitPrintJob handles POST /api/print/jobs requests.
//
// @Summary      Print the labels of one transaction
// @Description  Builds, validates and composes one label per selected box and queues a print job. The transaction is either looked up by company and transaction number or sent inline. Unknown keys in print_settings are rejected. Supports idempotency via Idempotency-Key header.
// @Tags         Print Jobs
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Idempotency key for request deduplication"
// @Param        request body dto.PrintJobRequest true "Transaction and print settings"
// @Success      202 {object} dto.SuccessResponse{data=model.PrintJobResponse} "Job queued"
// @Failure      400 {object} dto.ErrorResponse "Invalid payload, layout or unknown option"
// @Failure      404 {object} dto.ErrorResponse "Transaction or printer not found"
// @Failure      409 {object} dto.ErrorResponse "Duplicate request still running"
// @Failure      422 {object} dto.ErrorResponse "Printer cannot print this label size"
// @Failure      429 {object} dto.ErrorResponse "Too many requests - rate limit exceeded"
// @Failure      503 {object} dto.ErrorResponse "Service is shutting down"
// @Router       /api/print/jobs [post]
func (h *Handler) SubmitPrintJob(c *gin.Context) {
	builder := NewResponseBuilder(c)

	req, err := BuildRequest[dto.PrintJobRequest](c)
	if err != nil {
		builder.Error(err)
		return
	}

	job, err := h.coordinator.PrintTransaction(c.Request.Context(), service.PrintRequest{
		TransactionPrintRequest: service.TransactionPrintRequest{
			Company:       req.Company,
			TransactionNo: req.TransactionNo,
			BoxNumbers:    req.BoxNumbers,
			Transaction:   req.Transaction,
		},
		PrinterName:    req.PrinterName,
		Settings:       req.PrintSettings.Apply(h.defaults),
		IdempotencyKey: c.GetHeader(middleware.IdempotencyKeyHeader),
	})
	if err != nil {
		middleware.AuditLogError(h.audit, c, model.ActionJobSubmitted, "Print job rejected", err, map[string]interface{}{
			"transaction_no":             req.TransactionNo,
			middleware.AuditFieldPrinter: req.PrinterName,
		})
		builder.Error(err)
		return
	}

	c.Header("Location", "/api/print/jobs/"+job.ID)
	builder.SuccessAccepted(job.ToResponse())
}

// GetPrintJob handles GET /api/print/jobs/:id requests.
//
// @Summary      Get print job status
// @Description  Returns the current status and progress of a job. Finished jobs stay readable for a grace period, then come from the archive when MongoDB is enabled.
// @Tags         Print Jobs
// @Produce      json
// @Param        id path string true "Job ID"
// @Success      200 {object} dto.SuccessResponse{data=model.PrintStatus}
// @Failure      404 {object} dto.ErrorResponse "Job not found"
// @Router       /api/print/jobs/{id} [get]
func (h *Handler) GetPrintJob(c *gin.Context) {
	builder := NewResponseBuilder(c)

	st, err := h.manager.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		builder.Error(err)
		return
	}
	builder.SuccessOK(st)
}

// CancelPrintJob handles POST /api/print/jobs/:id/cancel requests.
//
// @Summary      Cancel a print job
// @Description  Cancels a queued job immediately; a printing job stops at the next label boundary.
// @Tags         Print Jobs
// @Produce      json
// @Param        id path string true "Job ID"
// @Success      200 {object} dto.SuccessResponse{data=model.PrintStatus}
// @Failure      404 {object} dto.ErrorResponse "Job not found"
// @Failure      409 {object} dto.ErrorResponse "Job already finished"
// @Router       /api/print/jobs/{id}/cancel [post]
func (h *Handler) CancelPrintJob(c *gin.Context) {
	builder := NewResponseBuilder(c)

	st, err := h.manager.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		builder.Error(err)
		return
	}
	builder.SuccessOK(st)
}

// RetryPrintJob handles POST /api/print/jobs/:id/retry requests.
//
// @Summary      Retry dispatching a queued job
// @Description  Clears the breaker of the job's printer and runs a dispatch pass. Only queued jobs can be retried.
// @Tags         Print Jobs
// @Produce      json
// @Param        id path string true "Job ID"
// @Success      200 {object} dto.SuccessResponse{data=model.PrintStatus}
// @Failure      404 {object} dto.ErrorResponse "Job not found"
// @Failure      409 {object} dto.ErrorResponse "Job is not queued"
// @Router       /api/print/jobs/{id}/retry [post]
func (h *Handler) RetryPrintJob(c *gin.Context) {
	builder := NewResponseBuilder(c)

	st, err := h.manager.Retry(c.Request.Context(), c.Param("id"))
	if err != nil {
		builder.Error(err)
		return
	}
	middleware.AuditLog(h.audit, c, model.ActionJobRetried, "Print job retried", map[string]interface{}{
		middleware.AuditFieldJobID:   st.JobID,
		middleware.AuditFieldPrinter: st.PrinterName,
		"status":                     string(st.Status),
	})
	builder.SuccessOK(st)
}

// GetPrintJobHistory handles GET /api/print/jobs/:id/history requests.
//
// @Summary      Get the audit trail of a print job
// @Description  Lists the recorded transitions and operator actions of a job, oldest first. Available when MongoDB is enabled.
// @Tags         Print Jobs
// @Produce      json
// @Param        id path string true "Job ID"
// @Success      200 {object} dto.SuccessResponse{data=[]model.LogEntry}
// @Failure      404 {object} dto.ErrorResponse "Job not found"
// @Failure      503 {object} dto.ErrorResponse "Audit store unavailable"
// @Router       /api/print/jobs/{id}/history [get]
func (h *Handler) GetPrintJobHistory(c *gin.Context) {
	builder := NewResponseBuilder(c)
	id := c.Param("id")

	entries, err := h.auditLog.JobHistory(c.Request.Context(), id)
	if err != nil {
		builder.Error(err)
		return
	}
	if len(entries) == 0 && len(h.manager.Jobs(c.Request.Context(), []string{id})) == 0 {
		builder.Error(fmt.Errorf("%w: %s", service.ErrJobNotFound, id))
		return
	}
	builder.SuccessOK(entries)
}

// StreamPrintJob handles GET /api/print/jobs/:id/ws requests.
//
// @Summary      Stream print job status
// @Description  Upgrades to a websocket that sends the current status, then every change, and closes once the job finishes.
// @Tags         Print Jobs
// @Param        id path string true "Job ID"
// @Success      101 {object} model.PrintStatus "Status frames"
// @Failure      404 {object} dto.ErrorResponse "Job not found"
// @Router       /api/print/jobs/{id}/ws [get]
func (h *Handler) StreamPrintJob(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	current := func() (model.PrintStatus, bool) {
		st, err := h.manager.Status(ctx, id)
		return st, err == nil
	}

	err := h.hub.Serve(c.Writer, c.Request, id, current)
	switch {
	case errors.Is(err, ws.ErrJobNotFound):
		middleware.WriteError(c, fmt.Errorf("%w: %s", service.ErrJobNotFound, id))
	case err != nil:
		// The upgrader has already answered the client.
		log := logger.Component("ws")
		log.Debug().Err(err).Str("job_id", id).Msg("Status stream ended")
	}
}

// GetPrintQueue handles GET /api/print/queue requests.
//
// @Summary      Get the print queue
// @Description  Lists every live job with the active jobs and cumulative completed and failed counts.
// @Tags         Print Jobs
// @Produce      json
// @Success      200 {object} dto.SuccessResponse{data=model.PrintQueue}
// @Router       /api/print/queue [get]
func (h *Handler) GetPrintQueue(c *gin.Context) {
	NewResponseBuilder(c).SuccessOK(h.manager.Queue())
}
