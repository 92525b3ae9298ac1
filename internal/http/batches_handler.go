package http

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/label-print-service/internal/domain/dto"
	"github.com/guttosm/label-print-service/internal/domain/model"
	"github.com/guttosm/label-print-service/internal/logger"
	"github.com/guttosm/label-print-service/internal/middleware"
	"github.com/guttosm/label-print-service/internal/report"
	"github.com/guttosm/label-print-service/internal/service"
)

// SubmitBatch handles POST /api/print/batches requests.
//
// @Summary      Print several transactions as one batch
// @Description  Composes every label of every transaction before creating any job. A single failing transaction rejects the whole batch with per-transaction details. With options.validate_only nothing is queued.
// @Tags         Print Batches
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Idempotency key for request deduplication"
// @Param        request body dto.BatchPrintRequest true "Transactions, printer and shared settings"
// @Success      202 {object} dto.SuccessResponse{data=model.BatchPrintResponse} "Batch queued"
// @Success      200 {object} dto.SuccessResponse{data=model.BatchPrintResponse} "Validation only"
// @Failure      400 {object} dto.ErrorResponse{details=[]model.BatchTransactionError} "Batch rejected"
// @Failure      404 {object} dto.ErrorResponse "Transaction not found"
// @Failure      422 {object} dto.ErrorResponse "Printer cannot print this label size"
// @Router       /api/print/batches [post]
func (h *Handler) SubmitBatch(c *gin.Context) {
	builder := NewResponseBuilder(c)

	req, err := BuildRequest[dto.BatchPrintRequest](c)
	if err != nil {
		builder.Error(err)
		return
	}

	batch := service.BatchRequest{
		Transactions: make([]service.TransactionPrintRequest, 0, len(req.Transactions)),
		PrinterName:  req.PrinterName,
		Settings:     req.PrintSettings.Apply(h.defaults),
	}
	for _, t := range req.Transactions {
		batch.Transactions = append(batch.Transactions, service.TransactionPrintRequest{
			Company:       t.Company,
			TransactionNo: t.TransactionNo,
			BoxNumbers:    t.BoxNumbers,
			Transaction:   t.Transaction,
		})
	}
	if req.Options != nil {
		batch.Options = *req.Options
	}
	if batch.Options.IdempotencyKey == "" {
		batch.Options.IdempotencyKey = c.GetHeader(middleware.IdempotencyKeyHeader)
	}

	resp, err := h.coordinator.SubmitBatch(c.Request.Context(), batch)
	if err != nil {
		middleware.AuditLogError(h.audit, c, model.ActionBatchSubmitted, "Print batch rejected", err, map[string]interface{}{
			"transactions":               len(batch.Transactions),
			middleware.AuditFieldPrinter: batch.PrinterName,
		})
		builder.Error(err)
		return
	}

	if resp.ValidateOnly {
		builder.SuccessOK(resp)
		return
	}
	middleware.AuditLog(h.audit, c, model.ActionBatchSubmitted, "Print batch submitted", map[string]interface{}{
		middleware.AuditFieldBatchID: resp.BatchID,
		middleware.AuditFieldPrinter: batch.PrinterName,
		"jobs":                       resp.TotalJobs,
		"labels":                     resp.TotalLabels,
	})
	c.Header("Location", "/api/print/batches/"+resp.BatchID)
	builder.SuccessAccepted(resp)
}

// GetBatch handles GET /api/print/batches/:id requests.
//
// @Summary      Get batch progress
// @Description  Projects the batch over the current state of its jobs with an estimated completion time while work remains.
// @Tags         Print Batches
// @Produce      json
// @Param        id path string true "Batch ID"
// @Success      200 {object} dto.SuccessResponse{data=model.BatchStatusView}
// @Failure      404 {object} dto.ErrorResponse "Batch not found"
// @Router       /api/print/batches/{id} [get]
func (h *Handler) GetBatch(c *gin.Context) {
	builder := NewResponseBuilder(c)

	view, err := h.coordinator.Batch(c.Request.Context(), c.Param("id"))
	if err != nil {
		builder.Error(err)
		return
	}
	builder.SuccessOK(view)
}

// GetBatchReport handles GET /api/print/batches/:id/report requests.
//
// @Summary      Download a batch report
// @Description  Returns an XLSX workbook with a summary sheet and one row per job of the batch.
// @Tags         Print Batches
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        id path string true "Batch ID"
// @Success      200 {file} file "Batch workbook"
// @Failure      404 {object} dto.ErrorResponse "Batch not found"
// @Router       /api/print/batches/{id}/report [get]
func (h *Handler) GetBatchReport(c *gin.Context) {
	view, err := h.coordinator.Batch(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.WriteError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteBatch(&buf, view); err != nil {
		middleware.WriteError(c, err)
		return
	}

	log := logger.Component("report")
	log.Debug().Str("batch_id", view.BatchID).Int("bytes", buf.Len()).Msg("Batch report generated")

	c.Header("Content-Disposition", `attachment; filename="`+report.Filename(view.BatchID)+`"`)
	c.Data(http.StatusOK, report.ContentType, buf.Bytes())
}
