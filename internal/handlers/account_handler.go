package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"moneyflow/internal/events"
	"moneyflow/internal/models"
	"moneyflow/internal/services"
)

// AccountHandler handles account-related requests.
type AccountHandler struct {
	accountService     services.AccountServicer
	transactionService services.TransactionServicer
	auditService       services.AuditServicer
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountService services.AccountServicer, transactionService services.TransactionServicer, auditService services.AuditServicer) *AccountHandler {
	return &AccountHandler{
		accountService:     accountService,
		transactionService: transactionService,
		auditService:       auditService,
	}
}

// CreateAccountRequest represents the request payload for opening an account.
// credit_limit and due_date are accepted for credit accounts only.
type CreateAccountRequest struct {
	Name           string              `json:"name" binding:"required,min=1,max=100"`
	Kind           models.AccountKind  `json:"kind" binding:"required,account_kind"`
	Currency       string              `json:"currency" binding:"omitempty,iso4217"`
	InitialBalance decimal.Decimal     `json:"initial_balance" swaggertype:"string"`
	CreditLimit    decimal.NullDecimal `json:"credit_limit" binding:"omitempty,decimal_gte0" swaggertype:"string"`
	DueDate        *string             `json:"due_date" binding:"omitempty,max=50"`
}

// UpdateAccountRequest represents the request payload for updating an account.
// Kind, currency and balance are immutable.
type UpdateAccountRequest struct {
	Name        *string             `json:"name" binding:"omitempty,min=1,max=100"`
	CreditLimit decimal.NullDecimal `json:"credit_limit" binding:"omitempty,decimal_gte0" swaggertype:"string"`
	DueDate     *string             `json:"due_date" binding:"omitempty,max=50"`
}

// AccountResponse wraps a single account.
type AccountResponse struct {
	Account *models.Account `json:"account"`
}

// AccountListResponse wraps a list of accounts.
type AccountListResponse struct {
	Accounts []models.Account `json:"accounts"`
}

// CreateAccount handles the creation of a new account
// @Summary     Create an account
// @Description Open a bank, cash or credit account. Credit accounts start at a zero balance.
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Param       request body CreateAccountRequest true "Account details"
// @Success     201 {object} AccountResponse "Account created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     503 {object} ErrorResponse "Ledger busy"
// @Router      /accounts [post]
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	account, err := h.accountService.CreateAccount(c.Request.Context(), services.CreateAccountInput{
		Name:           req.Name,
		Kind:           req.Kind,
		Currency:       req.Currency,
		InitialBalance: req.InitialBalance,
		CreditLimit:    req.CreditLimit,
		DueDate:        req.DueDate,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), events.AccountCreated, "account", account.ID, c.ClientIP(),
		map[string]any{"name": account.Name, "kind": account.Kind, "currency": account.Currency, "initial_balance": account.OpeningBalance})

	c.JSON(http.StatusCreated, AccountResponse{Account: account})
}

// ListAccounts handles the retrieval of all accounts
// @Summary     List accounts
// @Description Get every account, oldest first
// @Tags        accounts
// @Produce     json
// @Success     200 {object} AccountListResponse "Accounts"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /accounts [get]
func (h *AccountHandler) ListAccounts(c *gin.Context) {
	accounts, err := h.accountService.ListAccounts(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, AccountListResponse{Accounts: accounts})
}

// GetAccount handles the retrieval of one account
// @Summary     Get an account
// @Tags        accounts
// @Produce     json
// @Param       id path string true "Account ID"
// @Success     200 {object} AccountResponse "Account"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /accounts/{id} [get]
func (h *AccountHandler) GetAccount(c *gin.Context) {
	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	account, err := h.accountService.GetAccountByID(c.Request.Context(), accountID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, AccountResponse{Account: account})
}

// UpdateAccount handles renaming an account or changing its credit terms
// @Summary     Update an account
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Param       id      path string               true "Account ID"
// @Param       request body UpdateAccountRequest true "Fields to update"
// @Success     200 {object} AccountResponse "Account updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /accounts/{id} [put]
func (h *AccountHandler) UpdateAccount(c *gin.Context) {
	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	account, err := h.accountService.UpdateAccount(c.Request.Context(), accountID, services.AccountUpdateFields{
		Name:        req.Name,
		CreditLimit: req.CreditLimit,
		DueDate:     req.DueDate,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	changes := map[string]any{}
	if req.Name != nil {
		changes["name"] = *req.Name
	}
	if req.CreditLimit.Valid {
		changes["credit_limit"] = req.CreditLimit.Decimal
	}
	if req.DueDate != nil {
		changes["due_date"] = *req.DueDate
	}
	h.auditService.Log(c.Request.Context(), events.AccountUpdated, "account", account.ID, c.ClientIP(), changes)

	c.JSON(http.StatusOK, AccountResponse{Account: account})
}

// DeleteAccount handles deleting an account without ledger entries
// @Summary     Delete an account
// @Description Fails with 409 ACCOUNT_HAS_TRANSACTIONS while any entry references the account
// @Tags        accounts
// @Produce     json
// @Param       id path string true "Account ID"
// @Success     200 {object} MessageResponse "Account deleted"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     409 {object} ErrorResponse "Account has transactions"
// @Router      /accounts/{id} [delete]
func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.accountService.DeleteAccount(c.Request.Context(), accountID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), events.AccountDeleted, "account", accountID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Account deleted successfully"})
}

// ListAccountTransactions handles the retrieval of entries touching one account
// @Summary     List account transactions
// @Description Entries where the account is either leg, filtered like GET /transactions
// @Tags        accounts,transactions
// @Produce     json
// @Param       id          path  string true  "Account ID"
// @Param       start_date  query string false "Start date (RFC3339 or YYYY-MM-DD)"
// @Param       end_date    query string false "End date, inclusive (RFC3339 or YYYY-MM-DD)"
// @Param       type        query string false "income, expense or transfer"
// @Param       category_id query string false "Category ID"
// @Param       order       query string false "desc (default) or asc"
// @Param       limit       query int    false "Page size (default 100, max 1000)"
// @Param       offset      query int    false "Offset"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /accounts/{id}/transactions [get]
func (h *AccountHandler) ListAccountTransactions(c *gin.Context) {
	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	filter.AccountID = &accountID

	if _, err := h.accountService.GetAccountByID(c.Request.Context(), accountID); err != nil {
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

// ReconcileAccount handles recomputing one account's balance from its entries
// @Summary     Reconcile an account
// @Tags        accounts
// @Produce     json
// @Param       id path string true "Account ID"
// @Success     200 {object} services.Reconciliation "Reconciliation"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /accounts/{id}/reconcile [get]
func (h *AccountHandler) ReconcileAccount(c *gin.Context) {
	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	rec, err := h.accountService.ReconcileAccount(c.Request.Context(), accountID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}
