package services

import (
	"context"
	"errors"
	"time"

	apperrors "moneyflow/internal/errors"
	"moneyflow/internal/logger"
	"moneyflow/internal/models"
	"moneyflow/internal/money"
	"moneyflow/internal/pagination"

	"gorm.io/gorm"
)

// transactionService handles income and expense entries.
type transactionService struct {
	db     *gorm.DB
	guard  *LedgerGuard
	policy BalancePolicy
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, guard *LedgerGuard, policy BalancePolicy) TransactionServicer {
	if policy == nil {
		policy = AllowAll{}
	}
	return &transactionService{db: db, guard: guard, policy: policy}
}

// RecordTransaction persists an income or expense entry and applies it to
// its account in one database transaction.
func (s *transactionService) RecordTransaction(ctx context.Context, in RecordTransactionInput) (*models.Transaction, error) {
	if !in.Type.IsSimple() {
		return nil, apperrors.WithField(apperrors.ErrInvalidTransactionType, "type", "")
	}
	if !in.Amount.IsPositive() {
		return nil, apperrors.WithField(apperrors.ErrInvalidAmount, "amount", "")
	}
	if in.AccountID == "" {
		return nil, apperrors.WithField(apperrors.ErrInvalidInput, "account_id", "account_id is required")
	}
	switch {
	case in.CategoryID != nil && in.NewCategory != nil:
		return nil, apperrors.WithField(apperrors.ErrInvalidInput, "category_id", "provide either category_id or new_category, not both")
	case in.CategoryID == nil && in.NewCategory == nil:
		return nil, apperrors.WithField(apperrors.ErrInvalidInput, "category_id", "category_id or new_category is required")
	}

	date := in.Date
	if date.IsZero() {
		date = time.Now()
	}

	var result *models.Transaction
	err := s.guard.withWrite(ctx, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			account, err := findAccount(tx, in.AccountID)
			if err != nil {
				return err
			}
			if err := money.ValidateAmount(in.Amount, account.Currency); err != nil {
				return err
			}

			var category *models.Category
			if in.NewCategory != nil {
				category, err = createCategory(tx, in.NewCategory.Name, models.CategoryType(in.Type), in.NewCategory.Color)
			} else {
				category, err = findCategory(tx, *in.CategoryID)
			}
			if err != nil {
				return err
			}
			if string(category.Type) != string(in.Type) {
				return apperrors.WithField(apperrors.ErrCategoryTypeMismatch, "category_id", "")
			}

			entry := &models.Transaction{
				Type:       in.Type,
				Amount:     in.Amount,
				Date:       date.UTC(),
				AccountID:  account.ID,
				CategoryID: &category.ID,
				Note:       in.Note,
			}
			if err := tx.Create(entry).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if err := adjustBalance(tx, account, entryDelta(in.Type, in.Amount), s.policy); err != nil {
				return err
			}

			result = entry
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Infow("Transaction recorded",
		"transaction_id", result.ID,
		"type", result.Type,
		"account_id", result.AccountID,
		"amount", result.Amount.String())
	return result, nil
}

// GetTransactionByID retrieves a transaction by ID
func (s *transactionService) GetTransactionByID(ctx context.Context, transactionID string) (*models.Transaction, error) {
	var entry *models.Transaction
	err := s.guard.withRead(ctx, func() error {
		var err error
		entry, err = findTransaction(s.db.WithContext(ctx), transactionID)
		return err
	})
	return entry, err
}

// ListTransactions returns a window of entries matching filter. Ties on
// date are broken by id, so identical calls return identical pages.
func (s *transactionService) ListTransactions(ctx context.Context, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if filter.StartDate != nil && filter.EndDate != nil && filter.StartDate.After(*filter.EndDate) {
		return nil, apperrors.WithField(apperrors.ErrInvalidDateRange, "start_date", "")
	}
	window := filter.Window
	window.Defaults()

	order := "date DESC, id DESC"
	if filter.Order == SortAsc {
		order = "date ASC, id ASC"
	}

	var result pagination.PageResponse[models.Transaction]
	err := s.guard.withRead(ctx, func() error {
		base := applyTransactionFilters(s.db.WithContext(ctx).Model(&models.Transaction{}), filter).
			Session(&gorm.Session{})

		var total int64
		if err := base.Count(&total).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		var entries []models.Transaction
		if err := base.Scopes(pagination.Paginate(window)).Order(order).Find(&entries).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		result = pagination.NewPageResponse(entries, window, total)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.StartDate != nil {
		q = q.Where("date >= ?", f.StartDate.UTC())
	}
	if f.EndDate != nil {
		q = q.Where("date <= ?", f.EndDate.UTC())
	}
	if f.AccountID != nil {
		q = q.Where("(account_id = ? OR to_account_id = ?)", *f.AccountID, *f.AccountID)
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	return q
}

// UpdateTransaction edits an income or expense entry: the old effect is
// reversed and the new one applied atomically. Transfers are immutable.
func (s *transactionService) UpdateTransaction(ctx context.Context, transactionID string, in UpdateTransactionInput) (*models.Transaction, error) {
	var result *models.Transaction
	err := s.guard.withWrite(ctx, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			entry, err := findTransaction(tx, transactionID)
			if err != nil {
				return err
			}
			if !entry.Type.IsSimple() {
				return apperrors.WithResource(apperrors.ErrTransactionNotEditable, transactionID)
			}

			oldAccount, err := findAccount(tx, entry.AccountID)
			if err != nil {
				return err
			}
			oldDelta := entryDelta(entry.Type, entry.Amount)

			next := *entry
			if in.Type != nil {
				if !in.Type.IsSimple() {
					return apperrors.WithField(apperrors.ErrInvalidTransactionType, "type", "")
				}
				next.Type = *in.Type
			}
			if in.Amount != nil {
				next.Amount = *in.Amount
			}
			if in.Date != nil {
				next.Date = in.Date.UTC()
			}
			if in.Note != nil {
				next.Note = *in.Note
			}
			if in.CategoryID != nil {
				next.CategoryID = in.CategoryID
			}

			newAccount := oldAccount
			if in.AccountID != nil && *in.AccountID != entry.AccountID {
				newAccount, err = findAccount(tx, *in.AccountID)
				if err != nil {
					return err
				}
				next.AccountID = newAccount.ID
			}
			if err := money.ValidateAmount(next.Amount, newAccount.Currency); err != nil {
				return err
			}

			if next.CategoryID == nil {
				return apperrors.WithField(apperrors.ErrInvalidInput, "category_id", "category_id is required")
			}
			category, err := findCategory(tx, *next.CategoryID)
			if err != nil {
				return err
			}
			if string(category.Type) != string(next.Type) {
				return apperrors.WithField(apperrors.ErrCategoryTypeMismatch, "category_id", "")
			}

			if err := adjustBalance(tx, oldAccount, oldDelta.Neg(), nil); err != nil {
				return err
			}
			if err := adjustBalance(tx, newAccount, entryDelta(next.Type, next.Amount), s.policy); err != nil {
				return err
			}

			if err := tx.Model(entry).Updates(map[string]any{
				"type":        next.Type,
				"amount":      next.Amount,
				"date":        next.Date,
				"account_id":  next.AccountID,
				"category_id": next.CategoryID,
				"note":        next.Note,
			}).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}

			result, err = findTransaction(tx, transactionID)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Infow("Transaction updated", "transaction_id", transactionID)
	return result, nil
}

// DeleteTransaction removes an entry after reversing its effect on every
// account it touched. Reversals ignore the balance policy.
func (s *transactionService) DeleteTransaction(ctx context.Context, transactionID string) error {
	err := s.guard.withWrite(ctx, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			entry, err := findTransaction(tx, transactionID)
			if err != nil {
				return err
			}

			for _, accountID := range accountsOf(entry) {
				account, err := findAccount(tx, accountID)
				if err != nil {
					return err
				}
				if err := adjustBalance(tx, account, entry.SignedAmount(accountID).Neg(), nil); err != nil {
					return err
				}
			}

			if err := tx.Delete(entry).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			return nil
		})
	})
	if err != nil {
		return err
	}

	logger.Get().Infow("Transaction deleted", "transaction_id", transactionID)
	return nil
}

func findTransaction(tx *gorm.DB, transactionID string) (*models.Transaction, error) {
	var entry models.Transaction
	if err := tx.Where("id = ?", transactionID).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.WithResource(apperrors.ErrTransactionNotFound, transactionID)
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &entry, nil
}
