package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeIncome   TransactionType = "income"
	TransactionTypeExpense  TransactionType = "expense"
	TransactionTypeTransfer TransactionType = "transfer"
)

// IsSimple reports whether t is income or expense.
func (t TransactionType) IsSimple() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// Transaction is a single ledger entry.
//
// Income and expense entries reference one account and one category.
// A transfer is stored as one row: AccountID is the source, ToAccountID the
// target, and CategoryID is nil.
type Transaction struct {
	Base
	Type        TransactionType `gorm:"not null;index" json:"type"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount" swaggertype:"string"`
	Date        time.Time       `gorm:"not null;index" json:"date"`
	AccountID   string          `gorm:"type:uuid;not null;index" json:"account_id"`
	ToAccountID *string         `gorm:"type:uuid;index" json:"to_account_id,omitempty"`
	CategoryID  *string         `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Note        string          `json:"note"`
}

// SignedAmount returns the effect of the entry on accountID's balance.
func (t *Transaction) SignedAmount(accountID string) decimal.Decimal {
	switch t.Type {
	case TransactionTypeIncome:
		if t.AccountID == accountID {
			return t.Amount
		}
	case TransactionTypeExpense:
		if t.AccountID == accountID {
			return t.Amount.Neg()
		}
	case TransactionTypeTransfer:
		var delta decimal.Decimal
		if t.AccountID == accountID {
			delta = delta.Sub(t.Amount)
		}
		if t.ToAccountID != nil && *t.ToAccountID == accountID {
			delta = delta.Add(t.Amount)
		}
		return delta
	}
	return decimal.Zero
}
