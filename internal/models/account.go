package models

import (
	"github.com/shopspring/decimal"
)

// AccountKind represents the kind of account
type AccountKind string

const (
	AccountKindBank   AccountKind = "bank"
	AccountKindCash   AccountKind = "cash"
	AccountKindCredit AccountKind = "credit"
)

// Valid reports whether k is one of the supported account kinds.
func (k AccountKind) Valid() bool {
	switch k {
	case AccountKindBank, AccountKindCash, AccountKindCredit:
		return true
	}
	return false
}

// Account is a named container of money with a running balance.
//
// Balance is maintained only by ledger entries; it always equals
// OpeningBalance plus the signed sum of the entries referencing the account.
type Account struct {
	Base
	Name           string              `gorm:"not null" json:"name"`
	Kind           AccountKind         `gorm:"not null" json:"kind"`
	Currency       string              `gorm:"type:varchar(3);not null;default:'INR'" json:"currency"`
	OpeningBalance decimal.Decimal     `gorm:"type:decimal(20,4);not null;default:0" json:"opening_balance" swaggertype:"string"`
	Balance        decimal.Decimal     `gorm:"type:decimal(20,4);not null;default:0" json:"balance" swaggertype:"string"`
	CreditLimit    decimal.NullDecimal `gorm:"type:decimal(20,4)" json:"credit_limit" swaggertype:"string"`
	DueDate        *string             `json:"due_date"`
}

// IsCredit reports whether the account is a credit account.
func (a *Account) IsCredit() bool {
	return a.Kind == AccountKindCredit
}
