package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"moneyflow/models"
	"moneyflow/portfolio"
	"moneyflow/store"

	"github.com/xuri/excelize/v2"
)

// ExportKind 导出范围
type ExportKind string

const (
	ExportExpenses    ExportKind = "expenses"
	ExportInvestments ExportKind = "investments"
	ExportBoth        ExportKind = "both"
)

// Valid 是否为合法导出范围
func (k ExportKind) Valid() bool {
	return k == ExportExpenses || k == ExportInvestments || k == ExportBoth
}

func (k ExportKind) withEntries() bool     { return k == ExportExpenses || k == ExportBoth }
func (k ExportKind) withInvestments() bool { return k == ExportInvestments || k == ExportBoth }

// EntryLister 收支明细
type EntryLister interface {
	List(ctx context.Context, f store.EntryFilter, limit, offset int) ([]store.EntryRow, error)
}

// InvestmentLister 投资明细
type InvestmentLister interface {
	List(ctx context.Context, f store.InvestmentFilter, limit, offset int) ([]store.InvestmentRow, error)
}

// PortfolioSummarizer 持仓估值
type PortfolioSummarizer interface {
	Summary(ctx context.Context, f portfolio.Filter) (*portfolio.Summary, error)
}

// Exporter 导出收支、投资明细与持仓汇总（CSV / XLSX）
type Exporter struct {
	entries     EntryLister
	investments InvestmentLister
	portfolio   PortfolioSummarizer
	now         func() time.Time
}

// NewExporter 创建导出服务
func NewExporter(entries EntryLister, investments InvestmentLister, pf PortfolioSummarizer) *Exporter {
	return &Exporter{entries: entries, investments: investments, portfolio: pf, now: time.Now}
}

// Filename 导出文件名，例如 moneyflow_all_2024-06-01.csv
func (x *Exporter) Filename(kind ExportKind, ext string) string {
	name := string(kind)
	if kind == ExportBoth {
		name = "all"
	}
	return fmt.Sprintf("moneyflow_%s_%s.%s", name, x.now().Format(models.DateLayout), ext)
}

type exportData struct {
	entries     []store.EntryRow
	investments []store.InvestmentRow
	portfolio   *portfolio.Summary
}

func (x *Exporter) collect(ctx context.Context, kind ExportKind, startDate, endDate string) (*exportData, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown export kind %q", store.ErrInvalidInput, kind)
	}
	data := &exportData{}
	var err error
	if kind.withEntries() {
		data.entries, err = x.entries.List(ctx, store.EntryFilter{StartDate: startDate, EndDate: endDate}, 0, 0)
		if err != nil {
			return nil, err
		}
	}
	if kind.withInvestments() {
		data.investments, err = x.investments.List(ctx, store.InvestmentFilter{StartDate: startDate, EndDate: endDate}, 0, 0)
		if err != nil {
			return nil, err
		}
		data.portfolio, err = x.portfolio.Summary(ctx, portfolio.Filter{})
		if err != nil {
			return nil, err
		}
	}
	return data, nil
}

var (
	entryHeaders      = []string{"Date", "Type", "Title", "Category", "Amount", "Notes"}
	investmentHeaders = []string{"Date", "Name", "Type", "Amount Invested", "Notes"}
	portfolioHeaders  = []string{"Name", "Type", "Total Invested", "Current Value", "Profit", "Profit %", "CAGR %", "Transactions"}
)

func entryRecord(e store.EntryRow) []string {
	category := models.UncategorizedLabel
	if nonEmpty(e.CategoryName) {
		category = *e.CategoryName
	}
	return []string{e.Date, string(e.TransactionType), deref(e.Title), category, money(e.Amount), deref(e.Notes)}
}

func investmentRecord(i store.InvestmentRow) []string {
	typ := models.OtherTypeLabel
	if nonEmpty(i.TypeName) {
		typ = *i.TypeName
	}
	return []string{i.Date, i.Name, typ, money(i.Amount), deref(i.Notes)}
}

func portfolioRecord(it portfolio.Item) []string {
	return []string{
		it.Name,
		it.TypeLabel(),
		money(it.TotalInvested),
		optMoney(it.CurrentValue),
		optMoney(it.Profit),
		optMoney(it.ProfitPercentage),
		optMoney(it.CAGR),
		strconv.FormatInt(it.TransactionCount, 10),
	}
}

// CSV 写出 CSV；both 时按 EXPENSES、INVESTMENTS 分段
func (x *Exporter) CSV(ctx context.Context, w io.Writer, kind ExportKind, startDate, endDate string) error {
	data, err := x.collect(ctx, kind, startDate, endDate)
	if err != nil {
		return err
	}

	// 添加 BOM 以支持 Excel 打开
	if _, err := io.WriteString(w, "\xEF\xBB\xBF"); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	raw := func(s string) error {
		cw.Flush()
		if err := cw.Error(); err != nil {
			return err
		}
		_, err := io.WriteString(w, s)
		return err
	}
	table := func(headers []string, rows [][]string) error {
		if err := cw.Write(headers); err != nil {
			return err
		}
		return cw.WriteAll(rows)
	}

	if kind.withEntries() {
		if err := raw("=== EXPENSES ===\n\n"); err != nil {
			return err
		}
		rows := make([][]string, 0, len(data.entries))
		for _, e := range data.entries {
			rows = append(rows, entryRecord(e))
		}
		if err := table(entryHeaders, rows); err != nil {
			return err
		}
	}

	if kind.withInvestments() {
		if kind == ExportBoth {
			if err := raw("\n\n=== INVESTMENTS ===\n\n"); err != nil {
				return err
			}
		}
		if err := raw("Transactions:\n"); err != nil {
			return err
		}
		rows := make([][]string, 0, len(data.investments))
		for _, i := range data.investments {
			rows = append(rows, investmentRecord(i))
		}
		if err := table(investmentHeaders, rows); err != nil {
			return err
		}

		if err := raw("\n\nPortfolio Summary:\n"); err != nil {
			return err
		}
		rows = make([][]string, 0, len(data.portfolio.Items))
		for _, it := range data.portfolio.Items {
			rows = append(rows, portfolioRecord(it))
		}
		if err := table(portfolioHeaders, rows); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// XLSX 写出 Excel 文件，每类数据一个工作表
func (x *Exporter) XLSX(ctx context.Context, w io.Writer, kind ExportKind, startDate, endDate string) error {
	data, err := x.collect(ctx, kind, startDate, endDate)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	})
	if err != nil {
		return err
	}
	dataStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	})
	if err != nil {
		return err
	}

	first := true
	sheet := func(name string, headers []string, rows [][]interface{}) error {
		if first {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return err
			}
			first = false
		} else if _, err := f.NewSheet(name); err != nil {
			return err
		}
		lastCol, _ := excelize.ColumnNumberToName(len(headers))
		if err := f.SetColWidth(name, "A", lastCol, 18); err != nil {
			return err
		}
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			f.SetCellValue(name, cell, h)
		}
		f.SetCellStyle(name, "A1", lastCol+"1", headerStyle)
		for r, row := range rows {
			cell, _ := excelize.CoordinatesToCellName(1, r+2)
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				return err
			}
			f.SetCellStyle(name, cell, fmt.Sprintf("%s%d", lastCol, r+2), dataStyle)
		}
		return nil
	}

	if kind.withEntries() {
		rows := make([][]interface{}, 0, len(data.entries))
		for _, e := range data.entries {
			rec := entryRecord(e)
			rows = append(rows, []interface{}{rec[0], rec[1], rec[2], rec[3], e.Amount, rec[5]})
		}
		if err := sheet("Entries", entryHeaders, rows); err != nil {
			return err
		}
	}
	if kind.withInvestments() {
		rows := make([][]interface{}, 0, len(data.investments))
		for _, i := range data.investments {
			rec := investmentRecord(i)
			rows = append(rows, []interface{}{rec[0], rec[1], rec[2], i.Amount, rec[4]})
		}
		if err := sheet("Investments", investmentHeaders, rows); err != nil {
			return err
		}

		rows = make([][]interface{}, 0, len(data.portfolio.Items))
		for _, it := range data.portfolio.Items {
			rows = append(rows, []interface{}{
				it.Name, it.TypeLabel(), it.TotalInvested,
				optCell(it.CurrentValue), optCell(it.Profit), optCell(it.ProfitPercentage), optCell(it.CAGR),
				it.TransactionCount,
			})
		}
		if err := sheet("Portfolio", portfolioHeaders, rows); err != nil {
			return err
		}
	}

	return f.Write(w)
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func optMoney(v *float64) string {
	if v == nil {
		return ""
	}
	return money(*v)
}

func optCell(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nonEmpty(s *string) bool {
	return s != nil && *s != ""
}
