package services

import (
	"context"
	"sort"
	"strings"

	apperrors "moneyflow/internal/errors"
	"moneyflow/internal/logger"
	"moneyflow/internal/models"
	"moneyflow/internal/money"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// accountService handles account-related business logic.
type accountService struct {
	db              *gorm.DB
	guard           *LedgerGuard
	defaultCurrency string
}

// NewAccountService creates a new AccountServicer.
func NewAccountService(db *gorm.DB, guard *LedgerGuard, defaultCurrency string) AccountServicer {
	return &accountService{db: db, guard: guard, defaultCurrency: money.Normalize(defaultCurrency, "INR")}
}

// CreateAccount opens an account whose balance starts at the initial balance.
// Credit accounts always start at zero.
func (s *accountService) CreateAccount(ctx context.Context, in CreateAccountInput) (*models.Account, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.WithField(apperrors.ErrInvalidInput, "name", "account name is required")
	}
	if !in.Kind.Valid() {
		return nil, apperrors.WithField(apperrors.ErrInvalidAccountKind, "kind", "")
	}

	currency := money.Normalize(in.Currency, s.defaultCurrency)
	if !money.Known(currency) {
		return nil, apperrors.WithField(apperrors.ErrInvalidInput, "currency", "unknown currency code")
	}
	if err := money.ValidateScale(in.InitialBalance, currency, "initial_balance"); err != nil {
		return nil, err
	}

	account := &models.Account{
		Name:           name,
		Kind:           in.Kind,
		Currency:       currency,
		OpeningBalance: in.InitialBalance,
		Balance:        in.InitialBalance,
	}

	if in.Kind == models.AccountKindCredit {
		if !in.InitialBalance.IsZero() {
			return nil, apperrors.WithField(apperrors.ErrInvalidInput, "initial_balance", "credit accounts start at a zero balance")
		}
		if err := validateCreditLimit(in.CreditLimit, currency); err != nil {
			return nil, err
		}
		account.CreditLimit = in.CreditLimit
		account.DueDate = trimmedOrNil(in.DueDate)
	} else if in.CreditLimit.Valid || in.DueDate != nil {
		return nil, apperrors.WithField(apperrors.ErrCreditFieldsNotAllowed, "credit_limit", "")
	}

	err := s.guard.withWrite(ctx, func() error {
		if err := s.db.WithContext(ctx).Create(account).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Infow("Account created", "account_id", account.ID, "kind", account.Kind, "currency", account.Currency)
	return account, nil
}

// GetAccountByID retrieves an account by ID
func (s *accountService) GetAccountByID(ctx context.Context, accountID string) (*models.Account, error) {
	var account *models.Account
	err := s.guard.withRead(ctx, func() error {
		var err error
		account, err = findAccount(s.db.WithContext(ctx), accountID)
		return err
	})
	return account, err
}

// ListAccounts returns every account, oldest first.
func (s *accountService) ListAccounts(ctx context.Context) ([]models.Account, error) {
	accounts := []models.Account{}
	err := s.guard.withRead(ctx, func() error {
		if err := s.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&accounts).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

// UpdateAccount renames an account or edits its credit terms.
func (s *accountService) UpdateAccount(ctx context.Context, accountID string, fields AccountUpdateFields) (*models.Account, error) {
	var account *models.Account
	err := s.guard.withWrite(ctx, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			account, err = findAccount(tx, accountID)
			if err != nil {
				return err
			}

			updates := make(map[string]any)
			if fields.Name != nil {
				name := strings.TrimSpace(*fields.Name)
				if name == "" {
					return apperrors.WithField(apperrors.ErrInvalidInput, "name", "account name cannot be empty")
				}
				updates["name"] = name
			}

			if fields.CreditLimit.Valid || fields.DueDate != nil {
				if !account.IsCredit() {
					return apperrors.WithField(apperrors.ErrCreditFieldsNotAllowed, "credit_limit", "")
				}
				if fields.CreditLimit.Valid {
					if err := validateCreditLimit(fields.CreditLimit, account.Currency); err != nil {
						return err
					}
					updates["credit_limit"] = fields.CreditLimit
				}
				if fields.DueDate != nil {
					updates["due_date"] = trimmedOrNil(fields.DueDate)
				}
			}

			if len(updates) == 0 {
				return nil
			}
			if err := tx.Model(account).Updates(updates).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			account, err = findAccount(tx, accountID)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// DeleteAccount removes an account that no ledger entry references. The
// reference check runs under the write gate, so no entry can be recorded
// against the account between the check and the delete.
func (s *accountService) DeleteAccount(ctx context.Context, accountID string) error {
	return s.guard.withWrite(ctx, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			account, err := findAccount(tx, accountID)
			if err != nil {
				return err
			}

			var refs int64
			if err := tx.Model(&models.Transaction{}).
				Where("account_id = ? OR to_account_id = ?", accountID, accountID).
				Count(&refs).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if refs > 0 {
				return apperrors.WithResource(apperrors.ErrAccountHasTransactions, accountID)
			}

			if err := tx.Delete(account).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			logger.Get().Infow("Account deleted", "account_id", accountID)
			return nil
		})
	})
}

// ReconcileAccount recomputes one account's balance from its entries.
func (s *accountService) ReconcileAccount(ctx context.Context, accountID string) (*Reconciliation, error) {
	var rec *Reconciliation
	err := s.guard.withRead(ctx, func() error {
		db := s.db.WithContext(ctx)
		account, err := findAccount(db, accountID)
		if err != nil {
			return err
		}
		recs, err := reconcile(db, []models.Account{*account})
		if err != nil {
			return err
		}
		rec = &recs[0]
		return nil
	})
	return rec, err
}

// ReconcileAll recomputes every account's balance from the ledger.
func (s *accountService) ReconcileAll(ctx context.Context) ([]Reconciliation, error) {
	var recs []Reconciliation
	err := s.guard.withRead(ctx, func() error {
		db := s.db.WithContext(ctx)
		var accounts []models.Account
		if err := db.Order("created_at ASC, id ASC").Find(&accounts).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		var err error
		recs, err = reconcile(db, accounts)
		return err
	})
	if err != nil {
		return nil, err
	}

	for _, r := range recs {
		if !r.Consistent {
			logger.Get().Warnw("Account balance drift detected",
				"account_id", r.AccountID,
				"stored", r.StoredBalance.String(),
				"computed", r.ComputedBalance.String())
		}
	}
	return recs, nil
}

func reconcile(db *gorm.DB, accounts []models.Account) ([]Reconciliation, error) {
	recs := make([]Reconciliation, 0, len(accounts))
	if len(accounts) == 0 {
		return recs, nil
	}

	ids := make([]string, len(accounts))
	computed := make(map[string]decimal.Decimal, len(accounts))
	for i, a := range accounts {
		ids[i] = a.ID
		computed[a.ID] = a.OpeningBalance
	}

	var entries []models.Transaction
	if err := db.Where("account_id IN ? OR to_account_id IN ?", ids, ids).Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for i := range entries {
		for _, id := range accountsOf(&entries[i]) {
			if sum, ok := computed[id]; ok {
				computed[id] = sum.Add(entries[i].SignedAmount(id))
			}
		}
	}

	for _, a := range accounts {
		c := computed[a.ID]
		recs = append(recs, Reconciliation{
			AccountID:       a.ID,
			Name:            a.Name,
			StoredBalance:   a.Balance,
			ComputedBalance: c,
			Difference:      a.Balance.Sub(c),
			Consistent:      a.Balance.Equal(c),
		})
	}
	sort.SliceStable(recs, func(i, j int) bool { return !recs[i].Consistent && recs[j].Consistent })
	return recs, nil
}

func validateCreditLimit(limit decimal.NullDecimal, currency string) error {
	if !limit.Valid {
		return nil
	}
	if limit.Decimal.IsNegative() {
		return apperrors.WithField(apperrors.ErrInvalidInput, "credit_limit", "credit limit cannot be negative")
	}
	return money.ValidateScale(limit.Decimal, currency, "credit_limit")
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
