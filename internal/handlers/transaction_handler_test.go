package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "moneyflow/internal/errors"
	"moneyflow/internal/events"
	"moneyflow/internal/models"
	"moneyflow/internal/pagination"
	"moneyflow/internal/services"
)

func setupTransactionRouter(handler *TransactionHandler) *gin.Engine {
	r := gin.New()
	r.POST("/transactions", handler.CreateTransaction)
	r.GET("/transactions", handler.ListTransactions)
	r.GET("/transactions/:id", handler.GetTransaction)
	r.PUT("/transactions/:id", handler.UpdateTransaction)
	r.DELETE("/transactions/:id", handler.DeleteTransaction)
	return r
}

func TestTransactionHandler_CreateTransaction(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		var got services.RecordTransactionInput
		txSvc := &mockTransactionService{
			recordTransactionFn: func(in services.RecordTransactionInput) (*models.Transaction, error) {
				got = in
				return &models.Transaction{
					Base: models.Base{ID: testEntryID}, Type: in.Type, Amount: in.Amount,
					AccountID: in.AccountID, CategoryID: in.CategoryID, Date: in.Date,
				}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupTransactionRouter(NewTransactionHandler(txSvc, audit))

		rec := doRequest(r, "POST", "/transactions",
			`{"type":"expense","amount":"12.34","date":"2024-05-01","account_id":"`+testAccountID+`","category_id":"`+testCategoryID+`","note":"lunch"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if !got.Amount.Equal(decimal.RequireFromString("12.34")) {
			t.Errorf("expected amount 12.34, got %s", got.Amount)
		}
		if !got.Date.Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("expected 2024-05-01, got %s", got.Date)
		}
		if got.Note != "lunch" || got.NewCategory != nil {
			t.Errorf("unexpected input: %+v", got)
		}
		entry := parseJSON(t, rec)["transaction"].(map[string]any)
		if entry["amount"] != "12.34" {
			t.Errorf("expected amount string 12.34, got %v", entry["amount"])
		}
		if actions := audit.actions(); len(actions) != 1 || actions[0] != events.TransactionCreated {
			t.Errorf("expected transaction.created audit entry, got %v", actions)
		}
	})

	localDates := []struct {
		in   string
		want time.Time
	}{
		{"2024-05-01T14:30", time.Date(2024, 5, 1, 14, 30, 0, 0, time.UTC)},
		{"2024-05-01T14:30:45", time.Date(2024, 5, 1, 14, 30, 45, 0, time.UTC)},
	}
	for _, tc := range localDates {
		t.Run("accepts local timestamp "+tc.in, func(t *testing.T) {
			var got services.RecordTransactionInput
			txSvc := &mockTransactionService{
				recordTransactionFn: func(in services.RecordTransactionInput) (*models.Transaction, error) {
					got = in
					return &models.Transaction{Base: models.Base{ID: testEntryID}, Type: in.Type, Amount: in.Amount, Date: in.Date}, nil
				},
			}
			r := setupTransactionRouter(NewTransactionHandler(txSvc, &mockAuditService{}))

			rec := doRequest(r, "POST", "/transactions",
				`{"type":"expense","amount":"5","date":"`+tc.in+`","account_id":"`+testAccountID+`","category_id":"`+testCategoryID+`"}`)

			if rec.Code != http.StatusCreated {
				t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
			}
			if !got.Date.Equal(tc.want) {
				t.Errorf("expected %s, got %s", tc.want, got.Date)
			}
		})
	}

	t.Run("audits inline categories", func(t *testing.T) {
		var got services.RecordTransactionInput
		categoryID := testCategoryID
		txSvc := &mockTransactionService{
			recordTransactionFn: func(in services.RecordTransactionInput) (*models.Transaction, error) {
				got = in
				return &models.Transaction{Base: models.Base{ID: testEntryID}, Type: in.Type, CategoryID: &categoryID}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupTransactionRouter(NewTransactionHandler(txSvc, audit))

		rec := doRequest(r, "POST", "/transactions",
			`{"type":"income","amount":"100","account_id":"`+testAccountID+`","new_category":{"name":"Bonus","color":"#00FF00"}}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.NewCategory == nil || got.NewCategory.Name != "Bonus" {
			t.Errorf("expected inline category Bonus, got %+v", got.NewCategory)
		}
		if !got.Date.IsZero() {
			t.Errorf("omitted date must be left to the service, got %s", got.Date)
		}
		actions := audit.actions()
		if len(actions) != 2 || actions[0] != events.CategoryCreated || actions[1] != events.TransactionCreated {
			t.Errorf("expected category.created then transaction.created, got %v", actions)
		}
	})

	tests := []struct {
		name  string
		body  string
		code  string
		field string
	}{
		{"transfer type", `{"type":"transfer","amount":"1","account_id":"x"}`, "INVALID_INPUT", "type"},
		{"missing account", `{"type":"expense","amount":"1"}`, "INVALID_INPUT", "account_id"},
		{"bad date", `{"type":"expense","amount":"1","account_id":"x","date":"01/05/2024"}`, "INVALID_INPUT", "date"},
		{"bad inline color", `{"type":"expense","amount":"1","account_id":"x","new_category":{"name":"A","color":"red"}}`, "INVALID_INPUT", "color"},
		{"missing amount", `{"type":"expense","account_id":"x"}`, "INVALID_AMOUNT", "amount"},
		{"zero amount", `{"type":"expense","amount":"0","account_id":"x"}`, "INVALID_AMOUNT", "amount"},
		{"negative amount", `{"type":"income","amount":"-3.50","account_id":"x"}`, "INVALID_AMOUNT", "amount"},
	}
	for _, tt := range tests {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}, &mockAuditService{}))

			rec := doRequest(r, "POST", "/transactions", tt.body)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			result := parseJSON(t, rec)
			assertErrorCode(t, result, tt.code)
			assertErrorField(t, result, tt.field)
		})
	}

	t.Run("maps category type mismatch", func(t *testing.T) {
		txSvc := &mockTransactionService{
			recordTransactionFn: func(services.RecordTransactionInput) (*models.Transaction, error) {
				return nil, apperrors.ErrCategoryTypeMismatch
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(txSvc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/transactions",
			`{"type":"income","amount":"5","account_id":"`+testAccountID+`","category_id":"`+testCategoryID+`"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "CATEGORY_TYPE_MISMATCH")
	})
}

func TestTransactionHandler_ListTransactions(t *testing.T) {
	t.Run("parses filters", func(t *testing.T) {
		var got services.TransactionFilter
		txSvc := &mockTransactionService{
			listTransactionsFn: func(filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
				got = filter
				resp := pagination.NewPageResponse([]models.Transaction{}, filter.Window, 0)
				return &resp, nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(txSvc, &mockAuditService{}))

		rec := doRequest(r, "GET",
			"/transactions?start_date=2024-01-01&end_date=2024-01-31&type=transfer&account_id="+testAccountID+"&limit=5&offset=10", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.Type == nil || *got.Type != models.TransactionTypeTransfer {
			t.Errorf("expected transfer filter, got %v", got.Type)
		}
		if got.AccountID == nil || *got.AccountID != testAccountID {
			t.Errorf("expected account filter, got %v", got.AccountID)
		}
		if got.Order != services.SortDesc {
			t.Errorf("expected default order desc, got %q", got.Order)
		}
		if got.Window.Limit != 5 || got.Window.Offset != 10 {
			t.Errorf("unexpected window: %+v", got.Window)
		}
		wantEnd := time.Date(2024, 1, 31, 23, 59, 59, 999999999, time.UTC)
		if got.EndDate == nil || !got.EndDate.Equal(wantEnd) {
			t.Errorf("date-only end must cover the whole day, got %v", got.EndDate)
		}
	})

	tests := []struct {
		name  string
		query string
		code  string
	}{
		{"inverted range", "?start_date=2024-02-01&end_date=2024-01-01", "INVALID_DATE_RANGE"},
		{"bad start date", "?start_date=yesterday", "INVALID_INPUT"},
		{"bad order", "?order=sideways", "INVALID_INPUT"},
		{"bad type", "?type=refund", "INVALID_INPUT"},
		{"limit above max", "?limit=5000", "INVALID_INPUT"},
		{"bad account id", "?account_id=7", "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}, &mockAuditService{}))

			rec := doRequest(r, "GET", "/transactions"+tt.query, "")

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			assertErrorCode(t, parseJSON(t, rec), tt.code)
		})
	}
}

func TestTransactionHandler_UpdateTransaction(t *testing.T) {
	t.Run("passes only supplied fields", func(t *testing.T) {
		var got services.UpdateTransactionInput
		txSvc := &mockTransactionService{
			updateTransactionFn: func(transactionID string, in services.UpdateTransactionInput) (*models.Transaction, error) {
				got = in
				return &models.Transaction{Base: models.Base{ID: transactionID}}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupTransactionRouter(NewTransactionHandler(txSvc, audit))

		rec := doRequest(r, "PUT", "/transactions/"+testEntryID, `{"amount":"7.5","note":"fixed"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.Amount == nil || !got.Amount.Equal(decimal.RequireFromString("7.5")) {
			t.Errorf("expected amount 7.5, got %v", got.Amount)
		}
		if got.Note == nil || *got.Note != "fixed" {
			t.Errorf("expected note fixed, got %v", got.Note)
		}
		if got.Type != nil || got.Date != nil || got.AccountID != nil || got.CategoryID != nil {
			t.Errorf("omitted fields must stay nil: %+v", got)
		}
		if actions := audit.actions(); len(actions) != 1 || actions[0] != events.TransactionUpdated {
			t.Errorf("expected transaction.updated audit entry, got %v", actions)
		}
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		called := false
		txSvc := &mockTransactionService{
			updateTransactionFn: func(string, services.UpdateTransactionInput) (*models.Transaction, error) {
				called = true
				return nil, nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(txSvc, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/transactions/"+testEntryID, `{"amount":"0"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		assertErrorCode(t, result, "INVALID_AMOUNT")
		assertErrorField(t, result, "amount")
		if called {
			t.Error("service must not be called for invalid input")
		}
	})

	t.Run("rejects transfers", func(t *testing.T) {
		txSvc := &mockTransactionService{
			updateTransactionFn: func(string, services.UpdateTransactionInput) (*models.Transaction, error) {
				return nil, apperrors.ErrTransactionNotEditable
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(txSvc, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/transactions/"+testEntryID, `{"note":"x"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "TRANSACTION_NOT_EDITABLE")
	})
}

func TestTransactionHandler_DeleteTransaction(t *testing.T) {
	t.Run("returns 404 for unknown entry", func(t *testing.T) {
		txSvc := &mockTransactionService{
			deleteTransactionFn: func(string) error { return apperrors.ErrTransactionNotFound },
		}
		audit := &mockAuditService{}
		r := setupTransactionRouter(NewTransactionHandler(txSvc, audit))

		rec := doRequest(r, "DELETE", "/transactions/"+testEntryID, "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "TRANSACTION_NOT_FOUND")
		if len(audit.actions()) != 0 {
			t.Error("failed deletes must not be audited")
		}
	})

	t.Run("returns 200 on success", func(t *testing.T) {
		audit := &mockAuditService{}
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}, audit))

		rec := doRequest(r, "DELETE", "/transactions/"+testEntryID, "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if actions := audit.actions(); len(actions) != 1 || actions[0] != events.TransactionDeleted {
			t.Errorf("expected transaction.deleted audit entry, got %v", actions)
		}
	})

	t.Run("hides unexpected errors", func(t *testing.T) {
		txSvc := &mockTransactionService{
			deleteTransactionFn: func(string) error { return errPlain("disk on fire") },
		}
		r := setupTransactionRouter(NewTransactionHandler(txSvc, &mockAuditService{}))

		rec := doRequest(r, "DELETE", "/transactions/"+testEntryID, "")

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INTERNAL_ERROR")
	})
}

type errPlain string

func (e errPlain) Error() string { return string(e) }
