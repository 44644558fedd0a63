package service

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"moneyflow/database"
	"moneyflow/models"
	"moneyflow/portfolio"
	"moneyflow/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestImageStore_PersistAndDelete(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "camera", "photo.PNG")
	require.NoError(t, os.MkdirAll(filepath.Dir(src), 0o755))
	require.NoError(t, os.WriteFile(src, []byte("png-bytes"), 0o644))

	s := NewImageStore(filepath.Join(tmp, "images"))
	ref, err := s.Persist(src)
	require.NoError(t, err)
	assert.NotEqual(t, src, ref)
	assert.Equal(t, ".png", filepath.Ext(ref))
	content, err := os.ReadFile(ref)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(content))

	// 已在图片目录中的文件不重复复制
	again, err := s.Persist(ref)
	require.NoError(t, err)
	assert.Equal(t, ref, again)

	// 外部文件不删除
	ok, err := s.Delete(src)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.FileExists(t, src)

	ok, err = s.Delete(ref)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoFileExists(t, ref)

	ok, err = s.Delete(ref)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Persist(filepath.Join(tmp, "missing.jpg"))
	assert.Error(t, err)
}

type stubEntries struct {
	rows []store.EntryRow
	err  error
}

func (s stubEntries) List(ctx context.Context, f store.EntryFilter, limit, offset int) ([]store.EntryRow, error) {
	return s.rows, s.err
}

type stubInvestments struct{ rows []store.InvestmentRow }

func (s stubInvestments) List(ctx context.Context, f store.InvestmentFilter, limit, offset int) ([]store.InvestmentRow, error) {
	return s.rows, nil
}

type stubPortfolio struct{ summary *portfolio.Summary }

func (s stubPortfolio) Summary(ctx context.Context, f portfolio.Filter) (*portfolio.Summary, error) {
	return s.summary, nil
}

func strPtr(s string) *string     { return &s }
func f64Ptr(v float64) *float64 { return &v }

func newTestExporter(entryErr error) *Exporter {
	food := "Food"
	entries := stubEntries{err: entryErr, rows: []store.EntryRow{
		{LedgerEntry: models.LedgerEntry{Date: "2024-03-02", TransactionType: models.TransactionExpense, Title: strPtr(`Dinner, "fancy"`), Amount: 42.5}, CategoryName: &food},
		{LedgerEntry: models.LedgerEntry{Date: "2024-03-01", TransactionType: models.TransactionExpense, Amount: 3}},
	}}
	investments := stubInvestments{rows: []store.InvestmentRow{
		{InvestmentContribution: models.InvestmentContribution{Date: "2024-02-01", Name: "Index Fund", Amount: 1000}},
	}}
	pf := stubPortfolio{summary: &portfolio.Summary{Items: []portfolio.Item{
		{Name: "Index Fund", TotalInvested: 1000, CurrentValue: f64Ptr(1100), Profit: f64Ptr(100), ProfitPercentage: f64Ptr(10), TransactionCount: 1},
		{Name: "Gold", TypeName: strPtr("Commodities"), TotalInvested: 300, TransactionCount: 2},
	}}}
	x := NewExporter(entries, investments, pf)
	x.now = func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) }
	return x
}

func TestExporter_CSVBoth(t *testing.T) {
	x := newTestExporter(nil)
	var buf bytes.Buffer
	require.NoError(t, x.CSV(context.Background(), &buf, ExportBoth, "", ""))

	out := strings.TrimPrefix(buf.String(), "\xEF\xBB\xBF")
	assert.True(t, strings.HasPrefix(out, "=== EXPENSES ===\n\nDate,Type,Title,Category,Amount,Notes\n"))
	assert.Contains(t, out, `2024-03-02,expense,"Dinner, ""fancy""",Food,42.50,`)
	assert.Contains(t, out, "2024-03-01,expense,,Uncategorized,3.00,")
	assert.Contains(t, out, "\n\n=== INVESTMENTS ===\n\nTransactions:\n")
	assert.Contains(t, out, "2024-02-01,Index Fund,Other,1000.00,")
	assert.Contains(t, out, "Portfolio Summary:\n")
	assert.Contains(t, out, "Index Fund,Other,1000.00,1100.00,100.00,10.00,,1")
	assert.Contains(t, out, "Gold,Commodities,300.00,,,,,2")
}

func TestExporter_CSVInvestmentsOnly(t *testing.T) {
	x := newTestExporter(nil)
	var buf bytes.Buffer
	require.NoError(t, x.CSV(context.Background(), &buf, ExportInvestments, "", ""))
	out := buf.String()
	assert.NotContains(t, out, "=== EXPENSES ===")
	assert.NotContains(t, out, "=== INVESTMENTS ===")
	assert.Contains(t, out, "Transactions:\n")
}

func TestExporter_Errors(t *testing.T) {
	var buf bytes.Buffer
	err := newTestExporter(nil).CSV(context.Background(), &buf, "pdf", "", "")
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	err = newTestExporter(database.ErrStoreUnavailable).CSV(context.Background(), &buf, ExportExpenses, "", "")
	assert.True(t, errors.Is(err, database.ErrStoreUnavailable))
}

func TestExporter_XLSX(t *testing.T) {
	x := newTestExporter(nil)
	var buf bytes.Buffer
	require.NoError(t, x.XLSX(context.Background(), &buf, ExportBoth, "", ""))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Entries", "Investments", "Portfolio"}, f.GetSheetList())

	header, err := f.GetCellValue("Entries", "D1")
	require.NoError(t, err)
	assert.Equal(t, "Category", header)
	category, err := f.GetCellValue("Entries", "D3")
	require.NoError(t, err)
	assert.Equal(t, models.UncategorizedLabel, category)

	typ, err := f.GetCellValue("Portfolio", "B2")
	require.NoError(t, err)
	assert.Equal(t, models.OtherTypeLabel, typ)
}

func TestExporter_Filename(t *testing.T) {
	x := newTestExporter(nil)
	assert.Equal(t, "moneyflow_all_2024-06-01.csv", x.Filename(ExportBoth, "csv"))
	assert.Equal(t, "moneyflow_expenses_2024-06-01.xlsx", x.Filename(ExportExpenses, "xlsx"))
}
