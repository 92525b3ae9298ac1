package http

import (
	"github.com/gin-gonic/gin"
	"github.com/guttosm/label-print-service/internal/domain/dto"
	"github.com/guttosm/label-print-service/internal/domain/model"
	"github.com/guttosm/label-print-service/internal/middleware"
)

// ListPrinters handles GET /api/printers requests.
//
// @Summary      List known printers
// @Description  Returns every printer from the last detection and operator updates, sorted by name. A printer running a job reports busy.
// @Tags         Printers
// @Produce      json
// @Success      200 {object} dto.SuccessResponse{data=[]model.PrinterInfo}
// @Router       /api/printers [get]
func (h *Handler) ListPrinters(c *gin.Context) {
	NewResponseBuilder(c).SuccessOK(h.registry.Snapshot())
}

// DetectPrinters handles POST /api/printers/detect requests.
//
// @Summary      Detect printers
// @Description  Probes USB, network and Bluetooth channels concurrently and merges the outcome into the registry. Probe failures are reported per method and never fail the request.
// @Tags         Printers
// @Produce      json
// @Success      200 {object} dto.SuccessResponse{data=model.PrinterDetectionResult}
// @Router       /api/printers/detect [post]
func (h *Handler) DetectPrinters(c *gin.Context) {
	result := h.detector.Detect(c.Request.Context())
	NewResponseBuilder(c).SuccessOK(result)
}

// SetPrinterStatus handles PUT /api/printers/:name/status requests.
//
// @Summary      Set a printer online or offline
// @Description  Operator override of a printer's status. Bringing a printer online dispatches the jobs waiting for it.
// @Tags         Printers
// @Accept       json
// @Produce      json
// @Param        name path string true "Printer name"
// @Param        request body dto.PrinterStatusRequest true "New status"
// @Success      200 {object} dto.SuccessResponse{data=model.PrinterInfo}
// @Failure      400 {object} dto.ErrorResponse "Invalid status"
// @Failure      404 {object} dto.ErrorResponse "Printer not found"
// @Router       /api/printers/{name}/status [put]
func (h *Handler) SetPrinterStatus(c *gin.Context) {
	builder := NewResponseBuilder(c)

	req, err := BuildRequest[dto.PrinterStatusRequest](c)
	if err != nil {
		builder.Error(err)
		return
	}

	info, err := h.registry.SetStatus(c.Param("name"), req.Status)
	if err != nil {
		builder.Error(err)
		return
	}
	middleware.AuditLog(h.audit, c, model.ActionPrinterStatus, "Printer status set", map[string]interface{}{
		middleware.AuditFieldPrinter: info.Name,
		"status":                     string(req.Status),
	})
	builder.SuccessOK(info)
}
