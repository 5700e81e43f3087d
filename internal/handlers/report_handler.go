package handlers

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "moneyflow/internal/errors"
	"moneyflow/internal/models"
	"moneyflow/internal/period"
	"moneyflow/internal/services"
)

// ReportHandler serves the dashboard and report queries.
type ReportHandler struct {
	reportService services.ReportServicer
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService services.ReportServicer) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// CategoryBreakdownResponse wraps the per-category totals.
type CategoryBreakdownResponse struct {
	Type       models.CategoryType      `json:"type"`
	Categories []services.CategoryTotal `json:"categories"`
}

// TrendQuery holds the bucket size of a trend request. Empty means monthly.
type TrendQuery struct {
	Granularity string `form:"granularity" binding:"omitempty,granularity"`
}

// TrendResponse wraps a trend series.
type TrendResponse struct {
	Granularity period.Granularity    `json:"granularity"`
	Points      []services.TrendPoint `json:"points"`
}

// exportFilename is the attachment name of CSV exports.
const exportFilename = "moneyflow-transactions.csv"

// Dashboard handles the dashboard summary
// @Summary     Dashboard summary
// @Description Current total balance plus income and expense in the period. start_date defaults to the first of end_date's month, or of the current month.
// @Tags        reports
// @Produce     json
// @Param       start_date query string false "Start date (RFC3339 or YYYY-MM-DD)"
// @Param       end_date   query string false "End date, inclusive (RFC3339 or YYYY-MM-DD)"
// @Success     200 {object} services.DashboardSummary "Summary"
// @Failure     400 {object} ErrorResponse "Invalid date range"
// @Router      /dashboard [get]
func (h *ReportHandler) Dashboard(c *gin.Context) {
	start, end, err := parseDateRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.reportService.DashboardSummary(c.Request.Context(), start, end)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// CategoryBreakdown handles per-category totals
// @Summary     Category breakdown
// @Description Totals per category of the given type. Categories without entries in range are omitted.
// @Tags        reports
// @Produce     json
// @Param       type       query string false "expense (default) or income"
// @Param       start_date query string false "Start date (RFC3339 or YYYY-MM-DD)"
// @Param       end_date   query string false "End date, inclusive (RFC3339 or YYYY-MM-DD)"
// @Success     200 {object} CategoryBreakdownResponse "Breakdown"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /reports/categories [get]
func (h *ReportHandler) CategoryBreakdown(c *gin.Context) {
	categoryType := models.CategoryType(c.DefaultQuery("type", string(models.CategoryTypeExpense)))
	if !categoryType.Valid() {
		respondWithError(c, apperrors.WithField(apperrors.ErrInvalidCategoryType, "type", ""))
		return
	}
	start, end, err := parseDateRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	totals, err := h.reportService.CategoryBreakdown(c.Request.Context(), categoryType, start, end)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, CategoryBreakdownResponse{Type: categoryType, Categories: totals})
}

// Trend handles the income and expense series
// @Summary     Income and expense trend
// @Description One bucket per period. Empty periods inside the range are returned with zero sums.
// @Tags        reports
// @Produce     json
// @Param       granularity query string false "daily, weekly, monthly (default), quarterly or yearly"
// @Param       start_date  query string false "Start date (RFC3339 or YYYY-MM-DD)"
// @Param       end_date    query string false "End date, inclusive (RFC3339 or YYYY-MM-DD)"
// @Success     200 {object} TrendResponse "Trend"
// @Failure     400 {object} ErrorResponse "Invalid input or range too large"
// @Router      /reports/trend [get]
func (h *ReportHandler) Trend(c *gin.Context) {
	var query TrendQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, bindingError(err))
		return
	}
	granularity, err := period.Parse(query.Granularity)
	if err != nil {
		respondWithError(c, apperrors.WithField(apperrors.ErrInvalidGranularity, "granularity", ""))
		return
	}
	start, end, err := parseDateRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	points, err := h.reportService.Trend(c.Request.Context(), granularity, start, end)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, TrendResponse{Granularity: granularity, Points: points})
}

// Export handles the CSV download of ledger entries
// @Summary     Export transactions as CSV
// @Description Chronological entries in range with amounts formatted in the account currency.
// @Tags        reports
// @Produce     text/csv
// @Param       start_date query string false "Start date (RFC3339 or YYYY-MM-DD)"
// @Param       end_date   query string false "End date, inclusive (RFC3339 or YYYY-MM-DD)"
// @Success     200 {string} string "CSV document"
// @Failure     400 {object} ErrorResponse "Invalid date range"
// @Router      /reports/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	start, end, err := parseDateRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := h.reportService.ExportCSV(c.Request.Context(), &buf, start, end); err != nil {
		respondWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+exportFilename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
