package analytics

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"moneyflow/config"
	"moneyflow/database"
	"moneyflow/models"
	"moneyflow/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db          *gorm.DB
	engine      *Engine
	ledger      *store.LedgerStore
	categories  *store.CategoryRegistry
	investments *store.InvestmentStore
	types       *store.InvestmentTypeRegistry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Init(&config.Config{Database: config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "analytics.db"),
	}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	f := &fixture{
		db:          db,
		ledger:      store.NewLedgerStore(db, nil),
		categories:  store.NewCategoryRegistry(db),
		investments: store.NewInvestmentStore(db, nil),
		types:       store.NewInvestmentTypeRegistry(db),
	}
	f.engine = NewEngine(f.ledger, f.categories, f.investments, f.types)
	return f
}

func (f *fixture) category(t *testing.T, typ models.TransactionType, idx int) models.Category {
	t.Helper()
	cats, err := f.categories.ListActive(context.Background(), typ)
	require.NoError(t, err)
	require.Greater(t, len(cats), idx)
	return cats[idx]
}

func (f *fixture) entry(t *testing.T, typ models.TransactionType, categoryID, date string, amount float64) *models.LedgerEntry {
	t.Helper()
	e := &models.LedgerEntry{Amount: amount, CategoryID: categoryID, TransactionType: typ, Date: date}
	require.NoError(t, f.ledger.Create(context.Background(), e))
	return e
}

func (f *fixture) invest(t *testing.T, name, date string, amount float64) *models.InvestmentContribution {
	t.Helper()
	types, err := f.types.List(context.Background(), true)
	require.NoError(t, err)
	in := &models.InvestmentContribution{Name: name, TypeID: types[0].ID, Amount: amount, Date: date}
	require.NoError(t, f.investments.Create(context.Background(), in))
	return in
}

func TestCategoryTotals_Scenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.category(t, models.TransactionExpense, 0)
	b := f.category(t, models.TransactionExpense, 1)

	f.entry(t, models.TransactionExpense, a.ID, "2024-01-01", 50)
	f.entry(t, models.TransactionExpense, b.ID, "2024-01-01", 30)
	f.entry(t, models.TransactionExpense, a.ID, "2024-01-02", 20)

	totals, err := f.engine.CategoryTotals(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, a.ID, totals[0].CategoryID)
	assert.Equal(t, a.Name, totals[0].CategoryName)
	assert.Equal(t, 70.0, totals[0].Total)
	assert.Equal(t, int64(2), totals[0].Count)
	assert.InDelta(t, 70.0, totals[0].Percentage, 1e-9)
	assert.Equal(t, 30.0, totals[1].Total)
	assert.InDelta(t, 30.0, totals[1].Percentage, 1e-9)

	daily, err := f.engine.DailyTotals(ctx, Filter{}, 0)
	require.NoError(t, err)
	assert.Equal(t, []DailyTotal{
		{Date: "2024-01-02", Total: 20, Count: 1},
		{Date: "2024-01-01", Total: 80, Count: 2},
	}, daily)

	limited, err := f.engine.DailyTotals(ctx, Filter{}, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "2024-01-02", limited[0].Date)

	avg, err := f.engine.AverageDaily(ctx, Filter{})
	require.NoError(t, err)
	assert.InDelta(t, 50.0, avg, 1e-9)
}

func TestCategoryTotals_PercentagesSumToHundred(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	amounts := []float64{12.34, 56.78, 9.1, 0.99}
	for i, amount := range amounts {
		c := f.category(t, models.TransactionExpense, i)
		f.entry(t, models.TransactionExpense, c.ID, "2024-02-10", amount)
	}

	totals, err := f.engine.CategoryTotals(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, totals, len(amounts))

	sum := 0.0
	for i, ct := range totals {
		sum += ct.Percentage
		if i > 0 {
			assert.GreaterOrEqual(t, totals[i-1].Total, ct.Total)
		}
	}
	assert.InDelta(t, 100.0, sum, 1e-6)
}

func TestCategoryTotals_ExcludesEmptyCategories(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.category(t, models.TransactionExpense, 0)
	f.entry(t, models.TransactionExpense, a.ID, "2024-01-01", 10)
	f.entry(t, models.TransactionExpense, f.category(t, models.TransactionExpense, 1).ID, "2023-06-01", 10)

	totals, err := f.engine.CategoryTotals(ctx, Filter{StartDate: "2024-01-01"})
	require.NoError(t, err)
	require.Len(t, totals, 1)
	assert.Equal(t, a.ID, totals[0].CategoryID)

	none, err := f.engine.CategoryTotals(ctx, Filter{StartDate: "2030-01-01"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCategoryTotals_EmptyCategoryIDsMatchesAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.entry(t, models.TransactionExpense, f.category(t, models.TransactionExpense, 0).ID, "2024-01-01", 10)
	f.entry(t, models.TransactionExpense, f.category(t, models.TransactionExpense, 1).ID, "2024-01-03", 25)

	all, err := f.engine.CategoryTotals(ctx, Filter{StartDate: "2024-01-01", EndDate: "2024-01-31"})
	require.NoError(t, err)
	empty, err := f.engine.CategoryTotals(ctx, Filter{StartDate: "2024-01-01", EndDate: "2024-01-31", CategoryIDs: []string{}})
	require.NoError(t, err)
	assert.Equal(t, all, empty)
	assert.Len(t, empty, 2)
}

func TestCategoryTotals_KeepsDeactivatedAndMissingCategories(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	name := "Hobby"
	custom, err := f.categories.Create(ctx, models.TransactionExpense, store.CategoryInput{Name: &name})
	require.NoError(t, err)
	f.entry(t, models.TransactionExpense, custom.ID, "2024-01-01", 40)
	f.entry(t, models.TransactionExpense, "no-such-category", "2024-01-01", 60)
	require.NoError(t, f.categories.Deactivate(ctx, custom.ID))

	totals, err := f.engine.CategoryTotals(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, models.UncategorizedLabel, totals[0].Label())
	assert.Equal(t, "Hobby", totals[1].Label())
}

func TestMonthlyAndYearlyTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.category(t, models.TransactionExpense, 0)
	f.entry(t, models.TransactionExpense, c.ID, "2023-12-31", 5)
	f.entry(t, models.TransactionExpense, c.ID, "2024-01-01", 10)
	f.entry(t, models.TransactionExpense, c.ID, "2024-01-31", 15)
	f.entry(t, models.TransactionExpense, c.ID, "2024-03-01", 20)

	months, err := f.engine.MonthlyTotals(ctx, Filter{}, 2)
	require.NoError(t, err)
	assert.Equal(t, []MonthlyTotal{
		{Year: 2024, Month: 3, Total: 20, Count: 1},
		{Year: 2024, Month: 1, Total: 25, Count: 2},
	}, months)

	years, err := f.engine.YearlyTotals(ctx, Filter{}, 0)
	require.NoError(t, err)
	assert.Equal(t, []YearlyTotal{
		{Year: 2024, Total: 45, Count: 3},
		{Year: 2023, Total: 5, Count: 1},
	}, years)

	tc, err := f.engine.TotalAndCount(ctx, Filter{StartDate: "2024-01-01", EndDate: "2024-01-31"})
	require.NoError(t, err)
	assert.Equal(t, TotalCount{Total: 25, Count: 2}, tc)

	zero, err := f.engine.TotalAndCount(ctx, Filter{Type: models.TransactionIncome})
	require.NoError(t, err)
	assert.Equal(t, TotalCount{}, zero)

	avg, err := f.engine.AverageDaily(ctx, Filter{Type: models.TransactionIncome})
	require.NoError(t, err)
	assert.Equal(t, 0.0, avg)
}

func TestUnifiedTransactions_MergeThenSort(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	exp := f.category(t, models.TransactionExpense, 0)
	inc := f.category(t, models.TransactionIncome, 0)

	e1 := f.entry(t, models.TransactionExpense, exp.ID, "2024-01-01", 10)
	i1 := f.invest(t, "Index Fund", "2024-01-02", 100)
	e2 := f.entry(t, models.TransactionIncome, inc.ID, "2024-01-03", 500)
	i2 := f.invest(t, "Index Fund", "2024-01-04", 100)

	all, err := f.engine.UnifiedTransactions(ctx, UnifiedFilter{}, 0, 0)
	require.NoError(t, err)
	ids := make([]string, 0, len(all))
	for _, tx := range all {
		ids = append(ids, tx.ID)
	}
	assert.Equal(t, []string{i2.ID, e2.ID, i1.ID, e1.ID}, ids)
	assert.Equal(t, KindInvestment, all[0].Kind)
	assert.Equal(t, KindIncome, all[1].Kind)
	require.NotNil(t, all[3].CategoryName)
	assert.Equal(t, exp.Name, *all[3].CategoryName)

	page, err := f.engine.UnifiedTransactions(ctx, UnifiedFilter{Kind: KindAll}, 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, e2.ID, page[0].ID)
	assert.Equal(t, i1.ID, page[1].ID)

	beyond, err := f.engine.UnifiedTransactions(ctx, UnifiedFilter{}, 10, 10)
	require.NoError(t, err)
	assert.Empty(t, beyond)

	onlyInv, err := f.engine.UnifiedTransactions(ctx, UnifiedFilter{Kind: KindInvestment}, 0, 0)
	require.NoError(t, err)
	assert.Len(t, onlyInv, 2)

	onlyExp, err := f.engine.UnifiedTransactions(ctx, UnifiedFilter{Kind: KindExpense, EndDate: "2024-01-31"}, 0, 0)
	require.NoError(t, err)
	require.Len(t, onlyExp, 1)
	assert.Equal(t, e1.ID, onlyExp[0].ID)

	_, err = f.engine.UnifiedTransactions(ctx, UnifiedFilter{Kind: "transfer"}, 0, 0)
	assert.ErrorIs(t, err, store.ErrInvalidInput)
}

func TestInvertedDateRange_IsEmpty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	exp := f.category(t, models.TransactionExpense, 0)
	f.entry(t, models.TransactionExpense, exp.ID, "2024-01-15", 10)
	f.invest(t, "Index Fund", "2024-01-15", 100)

	totals, err := f.engine.CategoryTotals(ctx, Filter{StartDate: "2024-01-31", EndDate: "2024-01-01"})
	require.NoError(t, err)
	assert.Empty(t, totals)

	txs, err := f.engine.UnifiedTransactions(ctx, UnifiedFilter{StartDate: "2024-01-31", EndDate: "2024-01-01"}, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, txs)

	tc, err := f.engine.TotalAndCount(ctx, Filter{StartDate: "2024-01-31", EndDate: "2024-01-01"})
	require.NoError(t, err)
	assert.Equal(t, TotalCount{}, tc)
}

func TestMoneyFlow_NegativeSavings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.entry(t, models.TransactionIncome, f.category(t, models.TransactionIncome, 0).ID, "2024-05-01", 100)
	f.entry(t, models.TransactionExpense, f.category(t, models.TransactionExpense, 0).ID, "2024-05-02", 70)
	f.invest(t, "Bonds", "2024-05-03", 50)

	s, err := f.engine.MoneyFlowSummary(ctx, "2024-05-01", "2024-05-31")
	require.NoError(t, err)
	assert.Equal(t, 100.0, s.TotalIncome)
	assert.Equal(t, 70.0, s.TotalExpenses)
	assert.Equal(t, 50.0, s.TotalInvestments)
	assert.Equal(t, -20.0, s.LiquidSavings)
	assert.InDelta(t, 70.0, s.ExpensePercentage, 1e-9)
	assert.InDelta(t, 50.0, s.InvestmentPercentage, 1e-9)
	assert.InDelta(t, -20.0, s.SavingsPercentage, 1e-9)

	items, err := f.engine.IncomeAllocationBreakdown(ctx, "2024-05-01", "2024-05-31")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Expenses", items[0].Name)
	assert.Equal(t, "#ef4444", items[0].Color)
	assert.Equal(t, "Investments", items[1].Name)
	assert.Equal(t, "#6366f1", items[1].Color)
}

func TestMoneyFlow_ZeroIncome(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.entry(t, models.TransactionExpense, f.category(t, models.TransactionExpense, 0).ID, "2024-05-02", 70)

	s, err := f.engine.MoneyFlowSummary(ctx, "2024-05-01", "2024-05-31")
	require.NoError(t, err)
	assert.Equal(t, -70.0, s.LiquidSavings)
	assert.Equal(t, 0.0, s.ExpensePercentage)
	assert.Equal(t, 0.0, s.InvestmentPercentage)
	assert.Equal(t, 0.0, s.SavingsPercentage)

	empty, err := f.engine.IncomeAllocationBreakdown(ctx, "2030-01-01", "2030-12-31")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMonthlyAndYearlyFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	income := f.category(t, models.TransactionIncome, 0)
	expense := f.category(t, models.TransactionExpense, 0)
	f.entry(t, models.TransactionIncome, income.ID, "2024-02-29", 1000)
	f.entry(t, models.TransactionExpense, expense.ID, "2024-02-01", 300)
	f.invest(t, "ETF", "2024-02-15", 200)
	f.entry(t, models.TransactionIncome, income.ID, "2023-11-30", 400)

	months, err := f.engine.MonthlyFlow(ctx, 2024)
	require.NoError(t, err)
	require.Len(t, months, 12)
	assert.Equal(t, FlowStat{Period: "2024-02", Income: 1000, Expenses: 300, Investments: 200, Savings: 500}, months[1])
	assert.Equal(t, FlowStat{Period: "2024-01"}, months[0])

	years, err := f.engine.YearlyFlow(ctx, 2023, 2024)
	require.NoError(t, err)
	require.Len(t, years, 2)
	assert.Equal(t, "2023", years[0].Period)
	assert.Equal(t, 400.0, years[0].Savings)
	assert.Equal(t, 500.0, years[1].Savings)
}

func TestInvestmentTypeBreakdown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.invest(t, "ETF", "2024-01-01", 300)
	f.invest(t, "ETF", "2024-02-01", 100)
	orphan := &models.InvestmentContribution{Name: "Art", TypeID: "removed", Amount: 100, Date: "2024-01-05"}
	require.NoError(t, f.investments.Create(ctx, orphan))

	items, err := f.engine.InvestmentTypeBreakdown(ctx, "2024-01-01", "2024-12-31")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 400.0, items[0].Total)
	assert.InDelta(t, 80.0, items[0].Percentage, 1e-9)
	assert.Equal(t, models.OtherTypeLabel, items[1].Label())
}

func TestOverview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.category(t, models.TransactionExpense, 0)
	f.entry(t, models.TransactionExpense, c.ID, "2024-01-01", 10)
	f.entry(t, models.TransactionExpense, c.ID, "2024-02-01", 20)

	ov, err := f.engine.Overview(ctx, Filter{}, 7, 6)
	require.NoError(t, err)
	assert.Len(t, ov.Categories, 1)
	assert.Len(t, ov.Daily, 2)
	assert.Len(t, ov.Monthly, 2)
	assert.Equal(t, TotalCount{Total: 30, Count: 2}, ov.Summary)
}

func TestEngine_PropagatesStoreUnavailable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, database.Close(f.db))

	_, err := f.engine.CategoryTotals(ctx, Filter{})
	assert.True(t, errors.Is(err, database.ErrStoreUnavailable))

	_, err = f.engine.MoneyFlowSummary(ctx, "2024-01-01", "2024-12-31")
	assert.True(t, errors.Is(err, database.ErrStoreUnavailable))

	_, err = f.engine.UnifiedTransactions(ctx, UnifiedFilter{}, 0, 0)
	assert.True(t, errors.Is(err, database.ErrStoreUnavailable))

	_, err = f.engine.Overview(ctx, Filter{}, 0, 0)
	assert.True(t, errors.Is(err, database.ErrStoreUnavailable))

	avg, err := f.engine.AverageDaily(ctx, Filter{})
	assert.Error(t, err)
	assert.Equal(t, 0.0, avg)
}
