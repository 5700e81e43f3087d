package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"moneyflow/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// D parses a decimal literal and panics on malformed input.
func D(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// CreateTestAccount creates an account of the given kind whose opening and
// current balance are both balance.
func CreateTestAccount(t *testing.T, db *gorm.DB, kind models.AccountKind, balance string) *models.Account {
	t.Helper()
	return CreateTestAccountInCurrency(t, db, kind, balance, "USD")
}

// CreateTestAccountInCurrency is CreateTestAccount with an explicit currency.
func CreateTestAccountInCurrency(t *testing.T, db *gorm.DB, kind models.AccountKind, balance, currency string) *models.Account {
	t.Helper()

	account := &models.Account{
		Name:           fmt.Sprintf("Test Account %d", nextID()),
		Kind:           kind,
		Currency:       currency,
		OpeningBalance: D(balance),
		Balance:        D(balance),
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// CreateTestCreditAccount creates a credit account at zero with the given limit.
func CreateTestCreditAccount(t *testing.T, db *gorm.DB, limit string) *models.Account {
	t.Helper()

	account := &models.Account{
		Name:        fmt.Sprintf("Test Credit Card %d", nextID()),
		Kind:        models.AccountKindCredit,
		Currency:    "USD",
		CreditLimit: decimal.NewNullDecimal(D(limit)),
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test credit account: %v", err)
	}
	return account
}

// CreateTestCategory creates a category of the given type.
func CreateTestCategory(t *testing.T, db *gorm.DB, categoryType models.CategoryType) *models.Category {
	t.Helper()

	category := &models.Category{
		Name:  fmt.Sprintf("Test Category %d", nextID()),
		Type:  categoryType,
		Color: "#123456",
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestTransaction inserts an income or expense row directly and
// applies it to the account balance, bypassing the services.
func CreateTestTransaction(t *testing.T, db *gorm.DB, account *models.Account, category *models.Category, amount string, date time.Time) *models.Transaction {
	t.Helper()

	txType := models.TransactionType(category.Type)
	entry := &models.Transaction{
		Type:       txType,
		Amount:     D(amount),
		Date:       date.UTC(),
		AccountID:  account.ID,
		CategoryID: &category.ID,
	}
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}

	delta := entry.SignedAmount(account.ID)
	account.Balance = account.Balance.Add(delta)
	if err := db.Model(&models.Account{}).Where("id = ?", account.ID).Update("balance", account.Balance).Error; err != nil {
		t.Fatalf("failed to apply test transaction: %v", err)
	}
	return entry
}

// ReloadAccount reads the account's current row.
func ReloadAccount(t *testing.T, db *gorm.DB, accountID string) *models.Account {
	t.Helper()

	var account models.Account
	if err := db.Unscoped().Where("id = ?", accountID).First(&account).Error; err != nil {
		t.Fatalf("failed to reload account %s: %v", accountID, err)
	}
	return &account
}
