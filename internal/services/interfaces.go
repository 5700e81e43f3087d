package services

import (
	"context"
	"io"
	"time"

	"moneyflow/internal/events"
	"moneyflow/internal/models"
	"moneyflow/internal/pagination"
	"moneyflow/internal/period"

	"github.com/shopspring/decimal"
)

// CreateAccountInput carries the fields accepted when opening an account.
type CreateAccountInput struct {
	Name           string
	Kind           models.AccountKind
	Currency       string
	InitialBalance decimal.Decimal
	CreditLimit    decimal.NullDecimal
	DueDate        *string
}

// AccountUpdateFields holds the mutable account fields. Nil / invalid
// values are left untouched. Kind, currency and balance never change.
type AccountUpdateFields struct {
	Name        *string
	CreditLimit decimal.NullDecimal
	DueDate     *string
}

// Reconciliation compares an account's stored balance with the balance
// recomputed from its ledger entries.
type Reconciliation struct {
	AccountID       string          `json:"account_id"`
	Name            string          `json:"name"`
	StoredBalance   decimal.Decimal `json:"stored_balance" swaggertype:"string"`
	ComputedBalance decimal.Decimal `json:"computed_balance" swaggertype:"string"`
	Difference      decimal.Decimal `json:"difference" swaggertype:"string"`
	Consistent      bool            `json:"consistent"`
}

// AccountServicer defines the contract for account-related business logic.
type AccountServicer interface {
	CreateAccount(ctx context.Context, in CreateAccountInput) (*models.Account, error)
	GetAccountByID(ctx context.Context, accountID string) (*models.Account, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)
	UpdateAccount(ctx context.Context, accountID string, fields AccountUpdateFields) (*models.Account, error)
	DeleteAccount(ctx context.Context, accountID string) error
	ReconcileAccount(ctx context.Context, accountID string) (*Reconciliation, error)
	ReconcileAll(ctx context.Context) ([]Reconciliation, error)
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(ctx context.Context, name string, categoryType models.CategoryType, color string) (*models.Category, error)
	GetCategoryByID(ctx context.Context, categoryID string) (*models.Category, error)
	ListCategories(ctx context.Context, categoryType *models.CategoryType) ([]models.Category, error)
	UpdateCategory(ctx context.Context, categoryID string, name, color *string) (*models.Category, error)
	DeleteCategory(ctx context.Context, categoryID string) error
	SeedDefaults(ctx context.Context) ([]models.Category, error)
}

// NewCategoryInput describes a category created inline with a transaction.
// Its type is the transaction's type.
type NewCategoryInput struct {
	Name  string
	Color string
}

// RecordTransactionInput carries a new income or expense entry. Exactly one
// of CategoryID and NewCategory must be set.
type RecordTransactionInput struct {
	Type        models.TransactionType
	Amount      decimal.Decimal
	Date        time.Time
	AccountID   string
	CategoryID  *string
	NewCategory *NewCategoryInput
	Note        string
}

// UpdateTransactionInput holds the editable fields of an income or expense
// entry. Nil fields keep their current value.
type UpdateTransactionInput struct {
	Type       *models.TransactionType
	Amount     *decimal.Decimal
	Date       *time.Time
	AccountID  *string
	CategoryID *string
	Note       *string
}

// SortOrder is the chronological direction of a listing.
type SortOrder string

const (
	SortDesc SortOrder = "desc"
	SortAsc  SortOrder = "asc"
)

// TransactionFilter holds optional filter parameters for listing transactions.
// StartDate and EndDate are inclusive.
type TransactionFilter struct {
	StartDate  *time.Time
	EndDate    *time.Time
	AccountID  *string
	Type       *models.TransactionType
	CategoryID *string
	Order      SortOrder
	Window     pagination.Window
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	RecordTransaction(ctx context.Context, in RecordTransactionInput) (*models.Transaction, error)
	GetTransactionByID(ctx context.Context, transactionID string) (*models.Transaction, error)
	ListTransactions(ctx context.Context, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	UpdateTransaction(ctx context.Context, transactionID string, in UpdateTransactionInput) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, transactionID string) error
}

// TransferInput carries a movement of money between two accounts.
type TransferInput struct {
	SourceAccountID string
	TargetAccountID string
	Amount          decimal.Decimal
	Date            time.Time
	Note            string
}

// TransferServicer defines the contract for transfers.
type TransferServicer interface {
	CreateTransfer(ctx context.Context, in TransferInput) (*models.Transaction, error)
}

// DashboardSummary is the headline view: current balances plus income and
// expense inside a period. Transfers are not income or expense.
type DashboardSummary struct {
	TotalBalance       decimal.Decimal            `json:"total_balance" swaggertype:"string"`
	BalancesByCurrency map[string]decimal.Decimal `json:"balances_by_currency" swaggertype:"object"`
	PeriodIncome       decimal.Decimal            `json:"period_income" swaggertype:"string"`
	PeriodExpense      decimal.Decimal            `json:"period_expense" swaggertype:"string"`
	Net                decimal.Decimal            `json:"net" swaggertype:"string"`
	AccountCount       int                        `json:"account_count"`
	StartDate          time.Time                  `json:"start_date"`
	EndDate            *time.Time                 `json:"end_date"`
}

// CategoryTotal is one slice of a category breakdown.
type CategoryTotal struct {
	CategoryID string          `json:"category_id"`
	Name       string          `json:"name"`
	Color      string          `json:"color"`
	Total      decimal.Decimal `json:"total" swaggertype:"string"`
}

// TrendPoint is one period bucket of a trend series.
type TrendPoint struct {
	Period  string          `json:"period"`
	Start   time.Time       `json:"start"`
	Income  decimal.Decimal `json:"income" swaggertype:"string"`
	Expense decimal.Decimal `json:"expense" swaggertype:"string"`
}

// ReportServicer defines the read-only aggregations over the ledger.
type ReportServicer interface {
	DashboardSummary(ctx context.Context, start, end *time.Time) (*DashboardSummary, error)
	CategoryBreakdown(ctx context.Context, categoryType models.CategoryType, start, end *time.Time) ([]CategoryTotal, error)
	Trend(ctx context.Context, granularity period.Granularity, start, end *time.Time) ([]TrendPoint, error)
	ExportCSV(ctx context.Context, w io.Writer, start, end *time.Time) error
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(ctx context.Context, action events.Type, resourceType, resourceID, ipAddress string, changes map[string]any)
}
