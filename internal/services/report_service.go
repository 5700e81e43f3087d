package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	apperrors "moneyflow/internal/errors"
	"moneyflow/internal/models"
	"moneyflow/internal/money"
	"moneyflow/internal/period"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// MaxTrendBuckets caps the length of a trend series.
const MaxTrendBuckets = 1000

// reportService computes read-only aggregations over the ledger.
type reportService struct {
	db    *gorm.DB
	guard *LedgerGuard
	now   func() time.Time
}

// ReportOption configures a report service.
type ReportOption func(*reportService)

// WithClock overrides the clock used for default date ranges.
func WithClock(now func() time.Time) ReportOption {
	return func(s *reportService) { s.now = now }
}

// NewReportService creates a new ReportServicer.
func NewReportService(db *gorm.DB, guard *LedgerGuard, opts ...ReportOption) ReportServicer {
	s := &reportService{db: db, guard: guard, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DashboardSummary sums current balances and the income and expense in
// [start, end]. start defaults to the first day of end's month, or of the
// current month when end is nil (UTC); a nil end leaves the period open. All three sums are taken under the same
// read gate, so they never straddle a transfer.
func (s *reportService) DashboardSummary(ctx context.Context, start, end *time.Time) (*DashboardSummary, error) {
	var from time.Time
	switch {
	case start != nil:
		from = start.UTC()
	case end != nil:
		from = monthOf(end.UTC())
	default:
		from = monthOf(s.now().UTC())
	}
	if end != nil && from.After(*end) {
		return nil, apperrors.WithField(apperrors.ErrInvalidDateRange, "start_date", "")
	}

	summary := &DashboardSummary{
		StartDate:          from,
		BalancesByCurrency: map[string]decimal.Decimal{},
	}
	if end != nil {
		e := end.UTC()
		summary.EndDate = &e
	}

	err := s.guard.withRead(ctx, func() error {
		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			var accounts []models.Account
			if err := s.db.WithContext(gctx).Select("currency", "balance").Find(&accounts).Error; err != nil {
				return err
			}
			for _, a := range accounts {
				summary.TotalBalance = summary.TotalBalance.Add(a.Balance)
				summary.BalancesByCurrency[a.Currency] = summary.BalancesByCurrency[a.Currency].Add(a.Balance)
			}
			summary.AccountCount = len(accounts)
			return nil
		})
		g.Go(func() error {
			total, err := s.sumByType(gctx, models.TransactionTypeIncome, &from, summary.EndDate)
			summary.PeriodIncome = total
			return err
		})
		g.Go(func() error {
			total, err := s.sumByType(gctx, models.TransactionTypeExpense, &from, summary.EndDate)
			summary.PeriodExpense = total
			return err
		})

		if err := g.Wait(); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	summary.Net = summary.PeriodIncome.Sub(summary.PeriodExpense)
	return summary, nil
}

func (s *reportService) sumByType(ctx context.Context, t models.TransactionType, start, end *time.Time) (decimal.Decimal, error) {
	var amounts []decimal.Decimal
	q := withDateRange(s.db.WithContext(ctx).Model(&models.Transaction{}).Where("type = ?", t), start, end)
	if err := q.Pluck("amount", &amounts).Error; err != nil {
		return decimal.Zero, err
	}
	return decimal.Sum(decimal.Zero, amounts...), nil
}

// CategoryBreakdown totals entries of categoryType per category. Categories
// with nothing in range are left out. Sorted by total, largest first.
func (s *reportService) CategoryBreakdown(ctx context.Context, categoryType models.CategoryType, start, end *time.Time) ([]CategoryTotal, error) {
	if !categoryType.Valid() {
		return nil, apperrors.WithField(apperrors.ErrInvalidCategoryType, "type", "")
	}
	if err := checkRange(start, end); err != nil {
		return nil, err
	}

	out := []CategoryTotal{}
	err := s.guard.withRead(ctx, func() error {
		db := s.db.WithContext(ctx)

		var entries []models.Transaction
		q := withDateRange(db.Where("type = ?", string(categoryType)), start, end)
		if err := q.Select("category_id", "amount").Find(&entries).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		totals := make(map[string]decimal.Decimal)
		for _, e := range entries {
			if e.CategoryID == nil {
				continue
			}
			totals[*e.CategoryID] = totals[*e.CategoryID].Add(e.Amount)
		}
		if len(totals) == 0 {
			return nil
		}

		ids := make([]string, 0, len(totals))
		for id := range totals {
			ids = append(ids, id)
		}
		var categories []models.Category
		if err := db.Unscoped().Where("id IN ?", ids).Find(&categories).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		for _, c := range categories {
			total := totals[c.ID]
			if total.IsZero() {
				continue
			}
			out = append(out, CategoryTotal{CategoryID: c.ID, Name: c.Name, Color: c.Color, Total: total})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// Trend buckets income and expense by granularity. Empty buckets inside the
// range are kept at zero. Without bounds the range runs from the earliest to
// the latest income or expense entry.
func (s *reportService) Trend(ctx context.Context, granularity period.Granularity, start, end *time.Time) ([]TrendPoint, error) {
	if !granularity.Valid() {
		return nil, apperrors.WithField(apperrors.ErrInvalidGranularity, "granularity", "")
	}
	if err := checkRange(start, end); err != nil {
		return nil, err
	}

	var entries []models.Transaction
	err := s.guard.withRead(ctx, func() error {
		q := s.db.WithContext(ctx).
			Where("type IN ?", []models.TransactionType{models.TransactionTypeIncome, models.TransactionTypeExpense})
		q = withDateRange(q, start, end)
		if err := q.Select("type", "amount", "date").Order("date ASC, id ASC").Find(&entries).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var from, to time.Time
	switch {
	case start != nil:
		from = start.UTC()
	case len(entries) > 0:
		from = entries[0].Date.UTC()
	}
	switch {
	case end != nil:
		to = end.UTC()
	case len(entries) > 0:
		to = entries[len(entries)-1].Date.UTC()
	}
	if start == nil && end == nil && len(entries) == 0 {
		return []TrendPoint{}, nil
	}
	if from.IsZero() {
		from = to
	}
	if to.IsZero() || to.Before(from) {
		to = from
	}

	buckets, err := granularity.Buckets(from, to, MaxTrendBuckets)
	if err != nil {
		if errors.Is(err, period.ErrTooManyBuckets) {
			return nil, apperrors.WithField(apperrors.ErrRangeTooLarge, "granularity", err.Error())
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	points := make([]TrendPoint, len(buckets))
	index := make(map[string]int, len(buckets))
	for i, b := range buckets {
		points[i] = TrendPoint{Period: b.Label, Start: b.Start}
		index[b.Label] = i
	}
	for _, e := range entries {
		i, ok := index[granularity.Label(e.Date.UTC())]
		if !ok {
			continue
		}
		if e.Type == models.TransactionTypeIncome {
			points[i].Income = points[i].Income.Add(e.Amount)
		} else {
			points[i].Expense = points[i].Expense.Add(e.Amount)
		}
	}
	return points, nil
}

var exportHeader = []string{"date", "type", "account", "to_account", "category", "amount", "currency", "formatted_amount", "note"}

// ExportCSV writes every entry in [start, end] to w in chronological order.
func (s *reportService) ExportCSV(ctx context.Context, w io.Writer, start, end *time.Time) error {
	if err := checkRange(start, end); err != nil {
		return err
	}

	var (
		entries    []models.Transaction
		accounts   []models.Account
		categories []models.Category
	)
	err := s.guard.withRead(ctx, func() error {
		db := s.db.WithContext(ctx)
		if err := withDateRange(db, start, end).Order("date ASC, id ASC").Find(&entries).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := db.Unscoped().Find(&accounts).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := db.Unscoped().Find(&categories).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	accountByID := make(map[string]models.Account, len(accounts))
	for _, a := range accounts {
		accountByID[a.ID] = a
	}
	categoryName := make(map[string]string, len(categories))
	for _, c := range categories {
		categoryName[c.ID] = c.Name
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, e := range entries {
		account := accountByID[e.AccountID]
		var toAccount, category string
		if e.ToAccountID != nil {
			toAccount = accountByID[*e.ToAccountID].Name
		}
		if e.CategoryID != nil {
			category = categoryName[*e.CategoryID]
		}
		record := []string{
			e.Date.UTC().Format("2006-01-02"),
			string(e.Type),
			account.Name,
			toAccount,
			category,
			e.Amount.StringFixed(money.Fraction(account.Currency)),
			account.Currency,
			money.Format(e.Amount, account.Currency),
			e.Note,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func monthOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func withDateRange(q *gorm.DB, start, end *time.Time) *gorm.DB {
	if start != nil {
		q = q.Where("date >= ?", start.UTC())
	}
	if end != nil {
		q = q.Where("date <= ?", end.UTC())
	}
	return q
}

func checkRange(start, end *time.Time) error {
	if start != nil && end != nil && start.After(*end) {
		return apperrors.WithField(apperrors.ErrInvalidDateRange, "start_date", "")
	}
	return nil
}
