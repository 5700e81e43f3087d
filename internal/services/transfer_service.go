package services

import (
	"context"
	"time"

	apperrors "moneyflow/internal/errors"
	"moneyflow/internal/logger"
	"moneyflow/internal/models"
	"moneyflow/internal/money"

	"gorm.io/gorm"
)

// transferService moves money between two accounts.
type transferService struct {
	db     *gorm.DB
	guard  *LedgerGuard
	policy BalancePolicy
}

// NewTransferService creates a new TransferServicer.
func NewTransferService(db *gorm.DB, guard *LedgerGuard, policy BalancePolicy) TransferServicer {
	if policy == nil {
		policy = AllowAll{}
	}
	return &transferService{db: db, guard: guard, policy: policy}
}

// CreateTransfer debits the source, credits the target and stores a single
// transfer entry, all in one database transaction under the write gate.
// Either both legs are visible or neither is.
func (s *transferService) CreateTransfer(ctx context.Context, in TransferInput) (*models.Transaction, error) {
	if !in.Amount.IsPositive() {
		return nil, apperrors.WithField(apperrors.ErrInvalidAmount, "amount", "")
	}
	if in.SourceAccountID == "" {
		return nil, apperrors.WithField(apperrors.ErrInvalidInput, "source_account_id", "source_account_id is required")
	}
	if in.TargetAccountID == "" {
		return nil, apperrors.WithField(apperrors.ErrInvalidInput, "target_account_id", "target_account_id is required")
	}
	if in.SourceAccountID == in.TargetAccountID {
		return nil, apperrors.WithField(apperrors.ErrSameAccountTransfer, "target_account_id", "")
	}

	date := in.Date
	if date.IsZero() {
		date = time.Now()
	}

	var result *models.Transaction
	err := s.guard.withWrite(ctx, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			source, err := findAccount(tx, in.SourceAccountID)
			if err != nil {
				return err
			}
			target, err := findAccount(tx, in.TargetAccountID)
			if err != nil {
				return err
			}
			if source.Currency != target.Currency {
				return apperrors.WithField(apperrors.ErrCurrencyMismatch, "target_account_id", "")
			}
			if err := money.ValidateAmount(in.Amount, source.Currency); err != nil {
				return err
			}

			note := in.Note
			if note == "" {
				note = "Transfer to " + target.Name
			}
			targetID := target.ID
			entry := &models.Transaction{
				Type:        models.TransactionTypeTransfer,
				Amount:      in.Amount,
				Date:        date.UTC(),
				AccountID:   source.ID,
				ToAccountID: &targetID,
				Note:        note,
			}
			if err := tx.Create(entry).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}

			if err := adjustBalance(tx, source, in.Amount.Neg(), s.policy); err != nil {
				return err
			}
			if err := adjustBalance(tx, target, in.Amount, s.policy); err != nil {
				return err
			}

			result = entry
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Infow("Transfer recorded",
		"transaction_id", result.ID,
		"source", result.AccountID,
		"target", *result.ToAccountID,
		"amount", result.Amount.String())
	return result, nil
}
