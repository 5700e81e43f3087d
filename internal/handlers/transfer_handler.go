package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"moneyflow/internal/events"
	"moneyflow/internal/services"
)

// TransferHandler handles transfers between accounts.
type TransferHandler struct {
	transferService services.TransferServicer
	auditService    services.AuditServicer
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transferService services.TransferServicer, auditService services.AuditServicer) *TransferHandler {
	return &TransferHandler{transferService: transferService, auditService: auditService}
}

// CreateTransferRequest represents the request payload for creating a transfer
type CreateTransferRequest struct {
	SourceAccountID string          `json:"source_account_id" binding:"required"`
	TargetAccountID string          `json:"target_account_id" binding:"required"`
	Amount          decimal.Decimal `json:"amount" binding:"decimal_gt0" swaggertype:"string" example:"250.00"`
	Date            *string         `json:"date"`
	Note            string          `json:"note" binding:"max=500"`
}

// CreateTransfer handles the creation of a transfer between two accounts
// @Summary     Create a transfer
// @Description Debit the source and credit the target atomically. Both accounts must share a currency.
// @Tags        transfers
// @Accept      json
// @Produce     json
// @Param       request body CreateTransferRequest true "Transfer details"
// @Success     201 {object} TransactionResponse "Transfer created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     503 {object} ErrorResponse "Ledger busy"
// @Router      /transfers [post]
func (h *TransferHandler) CreateTransfer(c *gin.Context) {
	var req CreateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	date, err := parseBodyDate("date", req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	in := services.TransferInput{
		SourceAccountID: req.SourceAccountID,
		TargetAccountID: req.TargetAccountID,
		Amount:          req.Amount,
		Note:            req.Note,
	}
	if date != nil {
		in.Date = *date
	}

	entry, err := h.transferService.CreateTransfer(c.Request.Context(), in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), events.TransferCreated, "transaction", entry.ID, c.ClientIP(),
		map[string]any{
			"source_account_id": entry.AccountID,
			"target_account_id": entry.ToAccountID,
			"amount":            entry.Amount,
		})

	c.JSON(http.StatusCreated, TransactionResponse{Transaction: entry})
}
