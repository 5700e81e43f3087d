package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"moneyflow/internal/events"
	"moneyflow/internal/models"
	"moneyflow/internal/services"
)

// AdminHandler exposes maintenance operations behind the admin key.
type AdminHandler struct {
	accountService  services.AccountServicer
	categoryService services.CategoryServicer
	auditService    services.AuditServicer
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(accountService services.AccountServicer, categoryService services.CategoryServicer, auditService services.AuditServicer) *AdminHandler {
	return &AdminHandler{accountService: accountService, categoryService: categoryService, auditService: auditService}
}

// SeedResponse lists the categories created by a seed run.
type SeedResponse struct {
	Created []models.Category `json:"created"`
}

// ReconcileResponse reports the balance check of every account.
type ReconcileResponse struct {
	Consistent bool                      `json:"consistent"`
	Accounts   []services.Reconciliation `json:"accounts"`
}

// Seed handles creating the default categories on an empty ledger
// @Summary     Seed default categories
// @Description Creates Food, Salary and Transport when no category exists yet.
// @Tags        admin
// @Produce     json
// @Security    AdminKey
// @Success     200 {object} SeedResponse "Created categories (empty when already seeded)"
// @Failure     401 {object} ErrorResponse "Missing or wrong admin key"
// @Router      /admin/seed [post]
func (h *AdminHandler) Seed(c *gin.Context) {
	created, err := h.categoryService.SeedDefaults(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	for _, category := range created {
		h.auditService.Log(c.Request.Context(), events.CategoryCreated, "category", category.ID, c.ClientIP(),
			map[string]any{"name": category.Name, "type": category.Type, "seeded": true})
	}

	c.JSON(http.StatusOK, SeedResponse{Created: created})
}

// Reconcile handles checking every stored balance against the ledger
// @Summary     Reconcile all accounts
// @Tags        admin
// @Produce     json
// @Security    AdminKey
// @Success     200 {object} ReconcileResponse "Reconciliation"
// @Failure     401 {object} ErrorResponse "Missing or wrong admin key"
// @Router      /admin/reconcile [get]
func (h *AdminHandler) Reconcile(c *gin.Context) {
	recs, err := h.accountService.ReconcileAll(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	consistent := true
	for _, r := range recs {
		consistent = consistent && r.Consistent
	}
	c.JSON(http.StatusOK, ReconcileResponse{Consistent: consistent, Accounts: recs})
}
