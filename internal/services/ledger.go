package services

import (
	"errors"
	"fmt"
	"strings"

	apperrors "moneyflow/internal/errors"
	"moneyflow/internal/models"
	"moneyflow/internal/money"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const defaultCategoryColor = "#000000"

// findAccount loads an account inside tx.
func findAccount(tx *gorm.DB, accountID string) (*models.Account, error) {
	var account models.Account
	if err := tx.Where("id = ?", accountID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.WithResource(apperrors.ErrAccountNotFound, accountID)
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &account, nil
}

// findCategory loads a category inside tx.
func findCategory(tx *gorm.DB, categoryID string) (*models.Category, error) {
	var category models.Category
	if err := tx.Where("id = ?", categoryID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.WithResource(apperrors.ErrCategoryNotFound, categoryID)
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// createCategory validates and inserts a category inside tx. Names are
// unique per type among live categories.
func createCategory(tx *gorm.DB, name string, categoryType models.CategoryType, color string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithField(apperrors.ErrInvalidInput, "name", "category name is required")
	}
	if !categoryType.Valid() {
		return nil, apperrors.WithField(apperrors.ErrInvalidCategoryType, "type", "")
	}
	if color == "" {
		color = defaultCategoryColor
	}

	var count int64
	if err := tx.Model(&models.Category{}).
		Where("LOWER(name) = LOWER(?) AND type = ?", name, categoryType).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.WithField(apperrors.ErrDuplicateCategory, "name", "")
	}

	category := &models.Category{Name: name, Type: categoryType, Color: color}
	if err := tx.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}

// adjustBalance is the only code path that writes Account.Balance. It adds
// delta to account inside tx and, for debits, consults policy (nil skips it).
// account.Balance is updated in place so callers can chain adjustments on
// the same account.
func adjustBalance(tx *gorm.DB, account *models.Account, delta decimal.Decimal, policy BalancePolicy) error {
	if delta.IsZero() {
		return nil
	}
	newBalance := account.Balance.Add(delta)
	if !money.InRange(newBalance, account.Currency) {
		return apperrors.WithField(apperrors.ErrAmountPrecision, "amount",
			fmt.Sprintf("Resulting balance must stay below %s", money.Limit(account.Currency).String()))
	}
	if policy != nil && delta.IsNegative() {
		if err := policy.CheckDebit(account, newBalance); err != nil {
			return err
		}
	}

	res := tx.Model(&models.Account{}).Where("id = ?", account.ID).Update("balance", newBalance)
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected != 1 {
		return apperrors.WithResource(apperrors.ErrAccountNotFound, account.ID)
	}
	account.Balance = newBalance
	return nil
}

// entryDelta is the signed effect of a simple entry on its account.
func entryDelta(t models.TransactionType, amount decimal.Decimal) decimal.Decimal {
	if t == models.TransactionTypeExpense {
		return amount.Neg()
	}
	return amount
}

// accountsOf returns the ids of every account an entry touches.
func accountsOf(t *models.Transaction) []string {
	ids := []string{t.AccountID}
	if t.ToAccountID != nil && *t.ToAccountID != t.AccountID {
		ids = append(ids, *t.ToAccountID)
	}
	return ids
}
