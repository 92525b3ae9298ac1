package http

import (
	"github.com/gin-gonic/gin"
	"github.com/guttosm/label-print-service/internal/domain/dto"
	"github.com/guttosm/label-print-service/internal/domain/model"
	"github.com/guttosm/label-print-service/internal/printer"
)

// DecodePayload handles POST /api/payloads/decode requests.
//
// @Summary      Decode a scanned QR payload
// @Description  Parses the compact payload read from a label back into its fields.
// @Tags         Payloads
// @Accept       json
// @Produce      json
// @Param        request body dto.DecodePayloadRequest true "Encoded payload"
// @Success      200 {object} dto.SuccessResponse{data=model.QRPayload}
// @Failure      400 {object} dto.ErrorResponse "Malformed payload"
// @Router       /api/payloads/decode [post]
func (h *Handler) DecodePayload(c *gin.Context) {
	builder := NewResponseBuilder(c)

	req, err := BuildRequest[dto.DecodePayloadRequest](c)
	if err != nil {
		builder.Error(err)
		return
	}

	payload, err := h.codec.Decode(req.Data)
	if err != nil {
		builder.Error(err)
		return
	}
	builder.SuccessOK(payload)
}

// ValidatePayload handles POST /api/payloads/validate requests.
//
// @Summary      Validate a payload
// @Description  Reports every violated rule and every warning. An invalid payload is still a successful request.
// @Tags         Payloads
// @Accept       json
// @Produce      json
// @Param        request body model.QRPayload true "Payload"
// @Success      200 {object} dto.SuccessResponse{data=model.ValidationResult}
// @Failure      400 {object} dto.ErrorResponse "Malformed request"
// @Router       /api/payloads/validate [post]
func (h *Handler) ValidatePayload(c *gin.Context) {
	builder := NewResponseBuilder(c)

	payload, err := BuildRequest[model.QRPayload](c)
	if err != nil {
		builder.Error(err)
		return
	}
	builder.SuccessOK(h.codec.Validate(*payload))
}

// PreviewLabels handles POST /api/labels/preview requests.
//
// @Summary      Preview labels
// @Description  Composes the labels of a transaction without printing them, with the weight totals and optionally the ZPL of each label.
// @Tags         Payloads
// @Accept       json
// @Produce      json
// @Param        request body dto.LabelPreviewRequest true "Transaction and settings"
// @Success      200 {object} dto.SuccessResponse{data=dto.LabelPreviewResponse}
// @Failure      400 {object} dto.ErrorResponse "Invalid transaction, layout or unknown option"
// @Router       /api/labels/preview [post]
func (h *Handler) PreviewLabels(c *gin.Context) {
	builder := NewResponseBuilder(c)

	req, err := BuildRequest[dto.LabelPreviewRequest](c)
	if err != nil {
		builder.Error(err)
		return
	}

	labels, err := h.compositor.ComposeTransaction(req.Transaction, req.BoxNumbers, req.PrintSettings.Apply(h.defaults))
	if err != nil {
		builder.Error(err)
		return
	}
	weights, err := h.codec.Reconcile(req.Transaction)
	if err != nil {
		builder.Error(err)
		return
	}

	resp := dto.LabelPreviewResponse{
		TransactionNo: req.Transaction.TransactionNo,
		Weights:       weights,
		Labels:        make([]dto.LabelPreview, 0, len(labels)),
	}
	for _, l := range labels {
		preview := dto.LabelPreview{QRLabel: l}
		if req.IncludeZPL {
			preview.ZPL = string(printer.RenderZPL(l))
		}
		resp.Labels = append(resp.Labels, preview)
	}
	builder.SuccessOK(resp)
}
