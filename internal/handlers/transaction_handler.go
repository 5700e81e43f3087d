package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "moneyflow/internal/errors"
	"moneyflow/internal/events"
	"moneyflow/internal/models"
	"moneyflow/internal/pagination"
	"moneyflow/internal/services"
	"moneyflow/internal/uuid"
)

// TransactionHandler handles income and expense requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	auditService       services.AuditServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer, auditService services.AuditServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, auditService: auditService}
}

// NewCategoryRequest describes a category created together with a transaction.
type NewCategoryRequest struct {
	Name  string `json:"name" binding:"required,min=1,max=100"`
	Color string `json:"color" binding:"omitempty,hex_color"`
}

// CreateTransactionRequest represents the request payload for recording an
// income or expense. Exactly one of category_id and new_category is required.
type CreateTransactionRequest struct {
	Type        models.TransactionType `json:"type" binding:"required,simple_transaction_type"`
	Amount      decimal.Decimal        `json:"amount" binding:"decimal_gt0" swaggertype:"string" example:"125.50"`
	Date        *string                `json:"date"`
	AccountID   string                 `json:"account_id" binding:"required"`
	CategoryID  *string                `json:"category_id"`
	NewCategory *NewCategoryRequest    `json:"new_category"`
	Note        string                 `json:"note" binding:"max=500"`
}

// UpdateTransactionRequest represents the editable fields of an income or
// expense. Omitted fields keep their value.
type UpdateTransactionRequest struct {
	Type       *models.TransactionType `json:"type" binding:"omitempty,simple_transaction_type"`
	Amount     *decimal.Decimal        `json:"amount" binding:"omitempty,decimal_gt0" swaggertype:"string"`
	Date       *string                 `json:"date"`
	AccountID  *string                 `json:"account_id"`
	CategoryID *string                 `json:"category_id"`
	Note       *string                 `json:"note" binding:"omitempty,max=500"`
}

// TransactionResponse wraps a single ledger entry.
type TransactionResponse struct {
	Transaction *models.Transaction `json:"transaction"`
}

// TransactionQuery holds the filters accepted by the listing endpoints.
type TransactionQuery struct {
	AccountID  string `form:"account_id"`
	Type       string `form:"type" binding:"omitempty,oneof=income expense transfer"`
	CategoryID string `form:"category_id"`
	Order      string `form:"order" binding:"omitempty,sort_order"`
	pagination.Window
}

// CreateTransaction handles recording a new income or expense
// @Summary     Record a transaction
// @Description Record an income or expense against an account. The category may be created inline.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Param       request body CreateTransactionRequest true "Transaction details"
// @Success     201 {object} TransactionResponse "Transaction recorded"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Account or category not found"
// @Failure     409 {object} ErrorResponse "Inline category already exists"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	date, err := parseBodyDate("date", req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	in := services.RecordTransactionInput{
		Type:       req.Type,
		Amount:     req.Amount,
		AccountID:  req.AccountID,
		CategoryID: req.CategoryID,
		Note:       req.Note,
	}
	if date != nil {
		in.Date = *date
	}
	if req.NewCategory != nil {
		in.NewCategory = &services.NewCategoryInput{Name: req.NewCategory.Name, Color: req.NewCategory.Color}
	}

	entry, err := h.transactionService.RecordTransaction(c.Request.Context(), in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if req.NewCategory != nil {
		h.auditService.Log(c.Request.Context(), events.CategoryCreated, "category", *entry.CategoryID, c.ClientIP(),
			map[string]any{"name": req.NewCategory.Name, "type": req.Type})
	}
	h.auditService.Log(c.Request.Context(), events.TransactionCreated, "transaction", entry.ID, c.ClientIP(),
		map[string]any{"type": entry.Type, "amount": entry.Amount, "account_id": entry.AccountID, "category_id": entry.CategoryID})

	c.JSON(http.StatusCreated, TransactionResponse{Transaction: entry})
}

// ListTransactions handles listing ledger entries
// @Summary     List transactions
// @Description Paginated entries, newest first unless order=asc. Transfers appear once.
// @Tags        transactions
// @Produce     json
// @Param       start_date  query string false "Start date (RFC3339 or YYYY-MM-DD)"
// @Param       end_date    query string false "End date, inclusive (RFC3339 or YYYY-MM-DD)"
// @Param       account_id  query string false "Account ID (either leg)"
// @Param       type        query string false "income, expense or transfer"
// @Param       category_id query string false "Category ID"
// @Param       order       query string false "desc (default) or asc"
// @Param       limit       query int    false "Page size (default 100, max 1000)"
// @Param       offset      query int    false "Offset"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.ListTransactions(c.Request.Context(), filter)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetTransaction handles the retrieval of one entry
// @Summary     Get a transaction
// @Tags        transactions
// @Produce     json
// @Param       id path string true "Transaction ID"
// @Success     200 {object} TransactionResponse "Transaction"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	entry, err := h.transactionService.GetTransactionByID(c.Request.Context(), transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, TransactionResponse{Transaction: entry})
}

// UpdateTransaction handles editing an income or expense
// @Summary     Update a transaction
// @Description Transfers cannot be edited; delete and re-create them.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Param       id      path string                   true "Transaction ID"
// @Param       request body UpdateTransactionRequest true "Fields to update"
// @Success     200 {object} TransactionResponse "Transaction updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}
	date, err := parseBodyDate("date", req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	entry, err := h.transactionService.UpdateTransaction(c.Request.Context(), transactionID, services.UpdateTransactionInput{
		Type:       req.Type,
		Amount:     req.Amount,
		Date:       date,
		AccountID:  req.AccountID,
		CategoryID: req.CategoryID,
		Note:       req.Note,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), events.TransactionUpdated, "transaction", entry.ID, c.ClientIP(),
		map[string]any{"type": entry.Type, "amount": entry.Amount, "account_id": entry.AccountID, "category_id": entry.CategoryID})

	c.JSON(http.StatusOK, TransactionResponse{Transaction: entry})
}

// DeleteTransaction handles removing an entry and reversing its balance effect
// @Summary     Delete a transaction
// @Description Reverses the entry on every account it touched, including both legs of a transfer.
// @Tags        transactions
// @Produce     json
// @Param       id path string true "Transaction ID"
// @Success     200 {object} MessageResponse "Transaction deleted"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(c.Request.Context(), transactionID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), events.TransactionDeleted, "transaction", transactionID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Transaction deleted successfully"})
}

func parseTransactionFilter(c *gin.Context) (services.TransactionFilter, error) {
	var filter services.TransactionFilter

	var q TransactionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return filter, bindingError(err)
	}

	start, end, err := parseDateRange(c)
	if err != nil {
		return filter, err
	}
	filter.StartDate, filter.EndDate = start, end

	if q.AccountID != "" {
		if !uuid.IsValid(q.AccountID) {
			return filter, apperrors.WithField(apperrors.ErrInvalidInput, "account_id", "invalid account_id")
		}
		filter.AccountID = &q.AccountID
	}
	if q.CategoryID != "" {
		if !uuid.IsValid(q.CategoryID) {
			return filter, apperrors.WithField(apperrors.ErrInvalidInput, "category_id", "invalid category_id")
		}
		filter.CategoryID = &q.CategoryID
	}
	if q.Type != "" {
		txType := models.TransactionType(q.Type)
		filter.Type = &txType
	}
	if q.Order == string(services.SortAsc) {
		filter.Order = services.SortAsc
	} else {
		filter.Order = services.SortDesc
	}
	filter.Window = q.Window
	return filter, nil
}
