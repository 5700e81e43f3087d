package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"moneyflow/internal/events"
	"moneyflow/internal/models"
	"moneyflow/internal/pagination"
	"moneyflow/internal/period"
	"moneyflow/internal/services"
	"moneyflow/internal/validator"
)

const (
	testAccountID  = "0190a3c2-7b4e-7c3a-9f6e-0000000000a1"
	testAccount2ID = "0190a3c2-7b4e-7c3a-9f6e-0000000000a2"
	testCategoryID = "0190a3c2-7b4e-7c3a-9f6e-0000000000c1"
	testEntryID    = "0190a3c2-7b4e-7c3a-9f6e-0000000000e1"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

// --- mock account service ---

type mockAccountService struct {
	createAccountFn    func(in services.CreateAccountInput) (*models.Account, error)
	getAccountByIDFn   func(accountID string) (*models.Account, error)
	listAccountsFn     func() ([]models.Account, error)
	updateAccountFn    func(accountID string, fields services.AccountUpdateFields) (*models.Account, error)
	deleteAccountFn    func(accountID string) error
	reconcileAccountFn func(accountID string) (*services.Reconciliation, error)
	reconcileAllFn     func() ([]services.Reconciliation, error)
}

func (m *mockAccountService) CreateAccount(_ context.Context, in services.CreateAccountInput) (*models.Account, error) {
	if m.createAccountFn != nil {
		return m.createAccountFn(in)
	}
	return &models.Account{}, nil
}

func (m *mockAccountService) GetAccountByID(_ context.Context, accountID string) (*models.Account, error) {
	if m.getAccountByIDFn != nil {
		return m.getAccountByIDFn(accountID)
	}
	return &models.Account{Base: models.Base{ID: accountID}}, nil
}

func (m *mockAccountService) ListAccounts(context.Context) ([]models.Account, error) {
	if m.listAccountsFn != nil {
		return m.listAccountsFn()
	}
	return []models.Account{}, nil
}

func (m *mockAccountService) UpdateAccount(_ context.Context, accountID string, fields services.AccountUpdateFields) (*models.Account, error) {
	if m.updateAccountFn != nil {
		return m.updateAccountFn(accountID, fields)
	}
	return &models.Account{Base: models.Base{ID: accountID}}, nil
}

func (m *mockAccountService) DeleteAccount(_ context.Context, accountID string) error {
	if m.deleteAccountFn != nil {
		return m.deleteAccountFn(accountID)
	}
	return nil
}

func (m *mockAccountService) ReconcileAccount(_ context.Context, accountID string) (*services.Reconciliation, error) {
	if m.reconcileAccountFn != nil {
		return m.reconcileAccountFn(accountID)
	}
	return &services.Reconciliation{AccountID: accountID, Consistent: true}, nil
}

func (m *mockAccountService) ReconcileAll(context.Context) ([]services.Reconciliation, error) {
	if m.reconcileAllFn != nil {
		return m.reconcileAllFn()
	}
	return []services.Reconciliation{}, nil
}

var _ services.AccountServicer = (*mockAccountService)(nil)

// --- mock category service ---

type mockCategoryService struct {
	createCategoryFn  func(name string, categoryType models.CategoryType, color string) (*models.Category, error)
	getCategoryByIDFn func(categoryID string) (*models.Category, error)
	listCategoriesFn  func(categoryType *models.CategoryType) ([]models.Category, error)
	updateCategoryFn  func(categoryID string, name, color *string) (*models.Category, error)
	deleteCategoryFn  func(categoryID string) error
	seedDefaultsFn    func() ([]models.Category, error)
}

func (m *mockCategoryService) CreateCategory(_ context.Context, name string, categoryType models.CategoryType, color string) (*models.Category, error) {
	if m.createCategoryFn != nil {
		return m.createCategoryFn(name, categoryType, color)
	}
	return &models.Category{Name: name, Type: categoryType, Color: color}, nil
}

func (m *mockCategoryService) GetCategoryByID(_ context.Context, categoryID string) (*models.Category, error) {
	if m.getCategoryByIDFn != nil {
		return m.getCategoryByIDFn(categoryID)
	}
	return &models.Category{Base: models.Base{ID: categoryID}}, nil
}

func (m *mockCategoryService) ListCategories(_ context.Context, categoryType *models.CategoryType) ([]models.Category, error) {
	if m.listCategoriesFn != nil {
		return m.listCategoriesFn(categoryType)
	}
	return []models.Category{}, nil
}

func (m *mockCategoryService) UpdateCategory(_ context.Context, categoryID string, name, color *string) (*models.Category, error) {
	if m.updateCategoryFn != nil {
		return m.updateCategoryFn(categoryID, name, color)
	}
	return &models.Category{Base: models.Base{ID: categoryID}}, nil
}

func (m *mockCategoryService) DeleteCategory(_ context.Context, categoryID string) error {
	if m.deleteCategoryFn != nil {
		return m.deleteCategoryFn(categoryID)
	}
	return nil
}

func (m *mockCategoryService) SeedDefaults(context.Context) ([]models.Category, error) {
	if m.seedDefaultsFn != nil {
		return m.seedDefaultsFn()
	}
	return []models.Category{}, nil
}

var _ services.CategoryServicer = (*mockCategoryService)(nil)

// --- mock transaction service ---

type mockTransactionService struct {
	recordTransactionFn  func(in services.RecordTransactionInput) (*models.Transaction, error)
	getTransactionByIDFn func(transactionID string) (*models.Transaction, error)
	listTransactionsFn   func(filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	updateTransactionFn  func(transactionID string, in services.UpdateTransactionInput) (*models.Transaction, error)
	deleteTransactionFn  func(transactionID string) error
}

func (m *mockTransactionService) RecordTransaction(_ context.Context, in services.RecordTransactionInput) (*models.Transaction, error) {
	if m.recordTransactionFn != nil {
		return m.recordTransactionFn(in)
	}
	return &models.Transaction{Base: models.Base{ID: testEntryID}, Type: in.Type, Amount: in.Amount, AccountID: in.AccountID, CategoryID: in.CategoryID}, nil
}

func (m *mockTransactionService) GetTransactionByID(_ context.Context, transactionID string) (*models.Transaction, error) {
	if m.getTransactionByIDFn != nil {
		return m.getTransactionByIDFn(transactionID)
	}
	return &models.Transaction{Base: models.Base{ID: transactionID}}, nil
}

func (m *mockTransactionService) ListTransactions(_ context.Context, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if m.listTransactionsFn != nil {
		return m.listTransactionsFn(filter)
	}
	filter.Window.Defaults()
	resp := pagination.NewPageResponse([]models.Transaction{}, filter.Window, 0)
	return &resp, nil
}

func (m *mockTransactionService) UpdateTransaction(_ context.Context, transactionID string, in services.UpdateTransactionInput) (*models.Transaction, error) {
	if m.updateTransactionFn != nil {
		return m.updateTransactionFn(transactionID, in)
	}
	return &models.Transaction{Base: models.Base{ID: transactionID}}, nil
}

func (m *mockTransactionService) DeleteTransaction(_ context.Context, transactionID string) error {
	if m.deleteTransactionFn != nil {
		return m.deleteTransactionFn(transactionID)
	}
	return nil
}

var _ services.TransactionServicer = (*mockTransactionService)(nil)

// --- mock transfer service ---

type mockTransferService struct {
	createTransferFn func(in services.TransferInput) (*models.Transaction, error)
}

func (m *mockTransferService) CreateTransfer(_ context.Context, in services.TransferInput) (*models.Transaction, error) {
	if m.createTransferFn != nil {
		return m.createTransferFn(in)
	}
	target := in.TargetAccountID
	return &models.Transaction{
		Base:        models.Base{ID: testEntryID},
		Type:        models.TransactionTypeTransfer,
		Amount:      in.Amount,
		AccountID:   in.SourceAccountID,
		ToAccountID: &target,
	}, nil
}

var _ services.TransferServicer = (*mockTransferService)(nil)

// --- mock report service ---

type mockReportService struct {
	dashboardSummaryFn  func(start, end *time.Time) (*services.DashboardSummary, error)
	categoryBreakdownFn func(categoryType models.CategoryType, start, end *time.Time) ([]services.CategoryTotal, error)
	trendFn             func(granularity period.Granularity, start, end *time.Time) ([]services.TrendPoint, error)
	exportCSVFn         func(w io.Writer, start, end *time.Time) error
}

func (m *mockReportService) DashboardSummary(_ context.Context, start, end *time.Time) (*services.DashboardSummary, error) {
	if m.dashboardSummaryFn != nil {
		return m.dashboardSummaryFn(start, end)
	}
	return &services.DashboardSummary{}, nil
}

func (m *mockReportService) CategoryBreakdown(_ context.Context, categoryType models.CategoryType, start, end *time.Time) ([]services.CategoryTotal, error) {
	if m.categoryBreakdownFn != nil {
		return m.categoryBreakdownFn(categoryType, start, end)
	}
	return []services.CategoryTotal{}, nil
}

func (m *mockReportService) Trend(_ context.Context, granularity period.Granularity, start, end *time.Time) ([]services.TrendPoint, error) {
	if m.trendFn != nil {
		return m.trendFn(granularity, start, end)
	}
	return []services.TrendPoint{}, nil
}

func (m *mockReportService) ExportCSV(_ context.Context, w io.Writer, start, end *time.Time) error {
	if m.exportCSVFn != nil {
		return m.exportCSVFn(w, start, end)
	}
	return nil
}

var _ services.ReportServicer = (*mockReportService)(nil)

// --- mock audit service ---

type auditCall struct {
	Action       events.Type
	ResourceType string
	ResourceID   string
}

type mockAuditService struct {
	mu    sync.Mutex
	calls []auditCall
}

func (m *mockAuditService) Log(_ context.Context, action events.Type, resourceType, resourceID, _ string, _ map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, auditCall{Action: action, ResourceType: resourceType, ResourceID: resourceID})
}

func (m *mockAuditService) actions() []events.Type {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]events.Type, 0, len(m.calls))
	for _, c := range m.calls {
		out = append(out, c.Action)
	}
	return out
}

var _ services.AuditServicer = (*mockAuditService)(nil)

// --- test helpers ---

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var result map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]any, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}

func assertErrorField(t *testing.T, result map[string]any, field string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["field"] != field {
		t.Errorf("expected error field %q, got %v", field, errObj["field"])
	}
}
