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
	"moneyflow/internal/services"
)

func setupTransferRouter(handler *TransferHandler) *gin.Engine {
	r := gin.New()
	r.POST("/transfers", handler.CreateTransfer)
	return r
}

func TestTransferHandler_CreateTransfer(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		var got services.TransferInput
		svc := &mockTransferService{
			createTransferFn: func(in services.TransferInput) (*models.Transaction, error) {
				got = in
				target := in.TargetAccountID
				return &models.Transaction{
					Base: models.Base{ID: testEntryID}, Type: models.TransactionTypeTransfer,
					Amount: in.Amount, AccountID: in.SourceAccountID, ToAccountID: &target,
					Note: "Transfer to Wallet",
				}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupTransferRouter(NewTransferHandler(svc, audit))

		rec := doRequest(r, "POST", "/transfers",
			`{"source_account_id":"`+testAccountID+`","target_account_id":"`+testAccount2ID+`","amount":"75.10"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.SourceAccountID != testAccountID || got.TargetAccountID != testAccount2ID {
			t.Errorf("unexpected legs: %+v", got)
		}
		if !got.Amount.Equal(decimal.RequireFromString("75.10")) {
			t.Errorf("expected amount 75.10, got %s", got.Amount)
		}
		entry := parseJSON(t, rec)["transaction"].(map[string]any)
		if entry["type"] != "transfer" || entry["to_account_id"] != testAccount2ID {
			t.Errorf("unexpected transfer body: %v", entry)
		}
		if actions := audit.actions(); len(actions) != 1 || actions[0] != events.TransferCreated {
			t.Errorf("expected transfer.created audit entry, got %v", actions)
		}
	})

	for _, date := range []string{"2024-05-01T14:30", "2024-05-01T14:30:00"} {
		t.Run("accepts local timestamp "+date, func(t *testing.T) {
			var got services.TransferInput
			svc := &mockTransferService{
				createTransferFn: func(in services.TransferInput) (*models.Transaction, error) {
					got = in
					target := in.TargetAccountID
					return &models.Transaction{
						Base: models.Base{ID: testEntryID}, Type: models.TransactionTypeTransfer,
						Amount: in.Amount, Date: in.Date, AccountID: in.SourceAccountID, ToAccountID: &target,
					}, nil
				},
			}
			r := setupTransferRouter(NewTransferHandler(svc, &mockAuditService{}))

			rec := doRequest(r, "POST", "/transfers",
				`{"source_account_id":"`+testAccountID+`","target_account_id":"`+testAccount2ID+`","amount":"10","date":"`+date+`"}`)

			if rec.Code != http.StatusCreated {
				t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
			}
			want := time.Date(2024, 5, 1, 14, 30, 0, 0, time.UTC)
			if !got.Date.Equal(want) {
				t.Errorf("expected %s, got %s", want, got.Date)
			}
		})
	}

	t.Run("rejects missing target", func(t *testing.T) {
		r := setupTransferRouter(NewTransferHandler(&mockTransferService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/transfers", `{"source_account_id":"`+testAccountID+`","amount":"1"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		assertErrorCode(t, result, "INVALID_INPUT")
		assertErrorField(t, result, "target_account_id")
	})

	for _, amount := range []string{`"0"`, `"-10"`} {
		t.Run("rejects amount "+amount, func(t *testing.T) {
			r := setupTransferRouter(NewTransferHandler(&mockTransferService{}, &mockAuditService{}))

			rec := doRequest(r, "POST", "/transfers",
				`{"source_account_id":"`+testAccountID+`","target_account_id":"`+testAccount2ID+`","amount":`+amount+`}`)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			result := parseJSON(t, rec)
			assertErrorCode(t, result, "INVALID_AMOUNT")
			assertErrorField(t, result, "amount")
		})
	}

	serviceErrors := []struct {
		err    *apperrors.AppError
		status int
	}{
		{apperrors.ErrSameAccountTransfer, http.StatusBadRequest},
		{apperrors.ErrInvalidAmount, http.StatusBadRequest},
		{apperrors.ErrCurrencyMismatch, http.StatusBadRequest},
		{apperrors.ErrInsufficientBalance, http.StatusBadRequest},
		{apperrors.ErrAccountNotFound, http.StatusNotFound},
		{apperrors.ErrLedgerBusy, http.StatusServiceUnavailable},
	}
	for _, tt := range serviceErrors {
		t.Run("maps "+tt.err.Code, func(t *testing.T) {
			svc := &mockTransferService{
				createTransferFn: func(services.TransferInput) (*models.Transaction, error) { return nil, tt.err },
			}
			audit := &mockAuditService{}
			r := setupTransferRouter(NewTransferHandler(svc, audit))

			rec := doRequest(r, "POST", "/transfers",
				`{"source_account_id":"`+testAccountID+`","target_account_id":"`+testAccount2ID+`","amount":"1"}`)

			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			assertErrorCode(t, parseJSON(t, rec), tt.err.Code)
			if len(audit.actions()) != 0 {
				t.Error("failed transfers must not be audited")
			}
		})
	}
}
