package http

import (
	"github.com/gin-gonic/gin"
	"github.com/guttosm/label-print-service/internal/domain/model"
)

// PutTransaction handles POST /api/transactions requests.
//
// @Summary      Store a transaction
// @Description  Stores or replaces a transaction record so later print requests can refer to it by company and transaction number. The record is validated by composing every box label with the default settings.
// @Tags         Transactions
// @Accept       json
// @Produce      json
// @Param        request body model.Transaction true "Transaction record"
// @Success      201 {object} dto.SuccessResponse{data=model.Transaction}
// @Failure      400 {object} dto.ErrorResponse "Invalid transaction"
// @Router       /api/transactions [post]
func (h *Handler) PutTransaction(c *gin.Context) {
	builder := NewResponseBuilder(c)

	tx, err := BuildRequest[model.Transaction](c)
	if err != nil {
		builder.Error(err)
		return
	}
	if _, err := h.compositor.ComposeTransaction(*tx, nil, h.defaults); err != nil {
		builder.Error(err)
		return
	}
	if err := h.transactions.Put(c.Request.Context(), *tx); err != nil {
		builder.Error(err)
		return
	}

	c.Header("Location", "/api/transactions/"+tx.Company+"/"+tx.TransactionNo)
	builder.SuccessCreated(tx)
}

// GetTransaction handles GET /api/transactions/:company/:no requests.
//
// @Summary      Get a transaction
// @Tags         Transactions
// @Produce      json
// @Param        company path string true "Company"
// @Param        no path string true "Transaction number"
// @Success      200 {object} dto.SuccessResponse{data=model.Transaction}
// @Failure      404 {object} dto.ErrorResponse "Transaction not found"
// @Router       /api/transactions/{company}/{no} [get]
func (h *Handler) GetTransaction(c *gin.Context) {
	builder := NewResponseBuilder(c)

	tx, err := h.transactions.Get(c.Request.Context(), c.Param("company"), c.Param("no"))
	if err != nil {
		builder.Error(err)
		return
	}
	builder.SuccessOK(tx)
}
