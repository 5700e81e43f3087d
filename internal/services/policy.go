package services

import (
	apperrors "moneyflow/internal/errors"
	"moneyflow/internal/models"

	"github.com/shopspring/decimal"
)

// BalancePolicy decides whether a debit may take an account to newBalance.
// It is consulted only when a balance decreases through a new or edited
// entry; reversals never consult it.
type BalancePolicy interface {
	CheckDebit(account *models.Account, newBalance decimal.Decimal) error
}

// AllowAll lets any account go negative and any credit limit be exceeded.
type AllowAll struct{}

func (AllowAll) CheckDebit(*models.Account, decimal.Decimal) error { return nil }

// EnforceLimits keeps bank and cash accounts at or above zero and credit
// accounts at or above minus their credit limit. Credit accounts without a
// limit are unbounded.
type EnforceLimits struct{}

func (EnforceLimits) CheckDebit(account *models.Account, newBalance decimal.Decimal) error {
	if account.IsCredit() {
		if account.CreditLimit.Valid && newBalance.LessThan(account.CreditLimit.Decimal.Neg()) {
			return apperrors.WithResource(apperrors.ErrCreditLimitExceeded, account.ID)
		}
		return nil
	}
	if newBalance.IsNegative() {
		return apperrors.WithResource(apperrors.ErrInsufficientBalance, account.ID)
	}
	return nil
}

// NewBalancePolicy returns EnforceLimits when enforce is set, AllowAll otherwise.
func NewBalancePolicy(enforce bool) BalancePolicy {
	if enforce {
		return EnforceLimits{}
	}
	return AllowAll{}
}
