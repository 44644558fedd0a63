package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"moneyflow/analytics"
	"moneyflow/config"
	"moneyflow/models"
	"moneyflow/portfolio"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func testApp(t *testing.T) *app {
	t.Helper()
	dir := t.TempDir()
	a, err := newApp(&config.Config{
		Database:  config.DatabaseConfig{Driver: config.DriverSQLite, Path: filepath.Join(dir, "cli.db")},
		Export:    config.ExportConfig{Dir: filepath.Join(dir, "exports"), Currency: "USD"},
		Portfolio: config.PortfolioConfig{LookupConcurrency: 2},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func seed(t *testing.T, a *app) {
	t.Helper()
	var food, salary models.Category
	require.NoError(t, a.db.Where("type = ?", models.TransactionExpense).Order("sort_order").First(&food).Error)
	require.NoError(t, a.db.Where("type = ?", models.TransactionIncome).Order("sort_order").First(&salary).Error)
	var fund models.InvestmentType
	require.NoError(t, a.db.First(&fund).Error)

	require.NoError(t, a.db.Create(&models.LedgerEntry{Amount: 250, CategoryID: food.ID, TransactionType: models.TransactionExpense, Date: "2024-03-01"}).Error)
	require.NoError(t, a.db.Create(&models.LedgerEntry{Amount: 1000, CategoryID: salary.ID, TransactionType: models.TransactionIncome, Date: "2024-03-01"}).Error)
	require.NoError(t, a.db.Create(&models.InvestmentContribution{Name: "Index Fund", TypeID: fund.ID, Amount: 500, Date: "2024-03-02"}).Error)
}

func TestReportMarkdown(t *testing.T) {
	d := &reportData{
		Start: "2024-01-01",
		Flow: analytics.MoneyFlowSummary{
			TotalIncome: 1000, TotalExpenses: 1200, TotalInvestments: 100,
			LiquidSavings: -300, ExpensePercentage: 120, InvestmentPercentage: 10, SavingsPercentage: -30,
		},
		Expenses: []analytics.CategoryTotal{{CategoryID: "gone", Total: 1200, Count: 3, Percentage: 100}},
		Portfolio: &portfolio.Summary{
			TotalInvested: 1234.5,
			Items:         []portfolio.Item{{Name: "Gold", TotalInvested: 1234.5}},
		},
	}
	md := reportMarkdown(d, "USD")

	assert.Contains(t, md, "期间: 2024-01-01 ~ 至今")
	assert.Contains(t, md, "| 结余 | -$300.00 | -30.00% |")
	assert.Contains(t, md, "| "+models.UncategorizedLabel+" | $1,200.00 | 3 | 100.00% |")
	// 未记录市值的持仓显示 -
	assert.Contains(t, md, "| Gold | "+models.OtherTypeLabel+" | $1,234.50 | - | - | - | - |")
}

func TestReportMarkdown_Empty(t *testing.T) {
	md := reportMarkdown(&reportData{Portfolio: &portfolio.Summary{}}, "EUR")
	assert.Contains(t, md, "期间: 最早 ~ 至今")
	assert.Contains(t, md, "暂无支出记录")
	assert.Contains(t, md, "暂无投资记录")
}

func TestCollectReport(t *testing.T) {
	a := testApp(t)
	seed(t, a)

	d, err := collectReport(context.Background(), a, "2024-03-01", "2024-03-31")
	require.NoError(t, err)
	assert.InDelta(t, 250, d.Flow.LiquidSavings, 1e-9)
	require.Len(t, d.Expenses, 1)
	require.Len(t, d.Portfolio.Items, 1)
	assert.Equal(t, "Index Fund", d.Portfolio.Items[0].Name)

	md := reportMarkdown(d, "USD")
	assert.Contains(t, md, "$1,000.00")
}

func TestRunExport(t *testing.T) {
	a := testApp(t)
	seed(t, a)
	ctx := context.Background()

	path, err := runExport(ctx, a, "both", "csv", "", "", "")
	require.NoError(t, err)
	assert.Equal(t, a.cfg.Export.Dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "moneyflow_all_"))
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "=== INVESTMENTS ===")
	assert.Contains(t, string(content), "Index Fund")

	out := filepath.Join(t.TempDir(), "nested", "report.xlsx")
	path, err = runExport(ctx, a, "investments", "xlsx", out, "", "")
	require.NoError(t, err)
	assert.Equal(t, out, path)
	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Investments")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestNormalizePort(t *testing.T) {
	assert.Equal(t, ":8080", normalizePort("8080"))
	assert.Equal(t, ":9090", normalizePort(":9090"))
}
