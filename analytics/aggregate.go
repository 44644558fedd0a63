package analytics

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"moneyflow/models"
	"moneyflow/store"

	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc/pool"
)

// CategoryTotal 单个类别的汇总
// 类别已删除或不存在时 CategoryName 为空，显示时使用 Label()
type CategoryTotal struct {
	CategoryID    string  `json:"category_id"`
	CategoryName  string  `json:"category_name"`
	CategoryIcon  string  `json:"category_icon"`
	CategoryColor string  `json:"category_color"`
	Total         float64 `json:"total"`
	Count         int64   `json:"count"`
	Percentage    float64 `json:"percentage"`
}

// Label 显示名称
func (c CategoryTotal) Label() string {
	if c.CategoryName == "" {
		return models.UncategorizedLabel
	}
	return c.CategoryName
}

// DailyTotal 单日汇总
type DailyTotal struct {
	Date  string  `json:"date"`
	Total float64 `json:"total"`
	Count int64   `json:"count"`
}

// MonthlyTotal 单月汇总
type MonthlyTotal struct {
	Year  int     `json:"year"`
	Month int     `json:"month"`
	Total float64 `json:"total"`
	Count int64   `json:"count"`
}

// YearlyTotal 单年汇总
type YearlyTotal struct {
	Year  int     `json:"year"`
	Total float64 `json:"total"`
	Count int64   `json:"count"`
}

// TotalCount 总额与笔数
type TotalCount struct {
	Total float64 `json:"total"`
	Count int64   `json:"count"`
}

// TypeTotal 单个投资类型的汇总
type TypeTotal struct {
	TypeID     string  `json:"type_id"`
	TypeName   string  `json:"type_name"`
	TypeIcon   string  `json:"type_icon"`
	Total      float64 `json:"total"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Label 显示名称
func (t TypeTotal) Label() string {
	if t.TypeName == "" {
		return models.OtherTypeLabel
	}
	return t.TypeName
}

// Overview 分析页一次性需要的数据
type Overview struct {
	Categories []CategoryTotal `json:"categories"`
	Daily      []DailyTotal    `json:"daily"`
	Monthly    []MonthlyTotal  `json:"monthly"`
	Summary    TotalCount      `json:"summary"`
}

// CategoryTotals 按类别汇总
// 以记录为主表分组，已停用或不存在的类别仍计入；合计为 0 的类别不输出；
// 百分比以输出类别合计之和为分母；按合计倒序
func (e *Engine) CategoryTotals(ctx context.Context, f Filter) ([]CategoryTotal, error) {
	sums, err := e.ledger.SumByCategory(ctx, f)
	if err != nil {
		return nil, err
	}
	labels, err := e.categories.Labels(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]CategoryTotal, 0, len(sums))
	grand := decimal.Zero
	for _, s := range sums {
		if s.Total == 0 {
			continue
		}
		ct := CategoryTotal{CategoryID: s.Bucket, Total: s.Total, Count: s.Count}
		if c, ok := labels[s.Bucket]; ok {
			ct.CategoryName = c.Name
			ct.CategoryIcon = c.Icon
			ct.CategoryColor = c.Color
		}
		grand = grand.Add(decimal.NewFromFloat(s.Total))
		out = append(out, ct)
	}

	withPercentages(out, grand, func(i int) float64 { return out[i].Total }, func(i int, p float64) { out[i].Percentage = p })
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].CategoryID < out[j].CategoryID
	})
	return out, nil
}

// CategoryBreakdown 某一收支类型在日期范围内的类别分布
func (e *Engine) CategoryBreakdown(ctx context.Context, startDate, endDate string, typ models.TransactionType) ([]CategoryTotal, error) {
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: unknown transaction type %q", store.ErrInvalidInput, typ)
	}
	return e.CategoryTotals(ctx, Filter{StartDate: startDate, EndDate: endDate, Type: typ})
}

// InvestmentTypeBreakdown 日期范围内投入按投资类型分布
func (e *Engine) InvestmentTypeBreakdown(ctx context.Context, startDate, endDate string) ([]TypeTotal, error) {
	sums, err := e.investments.SumByType(ctx, store.InvestmentFilter{StartDate: startDate, EndDate: endDate})
	if err != nil {
		return nil, err
	}
	labels, err := e.types.Labels(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]TypeTotal, 0, len(sums))
	grand := decimal.Zero
	for _, s := range sums {
		if s.Total == 0 {
			continue
		}
		tt := TypeTotal{TypeID: s.Bucket, Total: s.Total, Count: s.Count}
		if t, ok := labels[s.Bucket]; ok {
			tt.TypeName = t.Name
			tt.TypeIcon = t.Icon
		}
		grand = grand.Add(decimal.NewFromFloat(s.Total))
		out = append(out, tt)
	}
	withPercentages(out, grand, func(i int) float64 { return out[i].Total }, func(i int, p float64) { out[i].Percentage = p })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out, nil
}

func withPercentages[T any](items []T, grand decimal.Decimal, total func(int) float64, set func(int, float64)) {
	if grand.IsZero() {
		return
	}
	g := grand.InexactFloat64()
	for i := range items {
		set(i, total(i)/g*100)
	}
}

// DailyTotals 按日汇总，日期倒序；limit>0 时只保留最近 limit 天
func (e *Engine) DailyTotals(ctx context.Context, f Filter, limit int) ([]DailyTotal, error) {
	sums, err := e.ledger.SumByPeriod(ctx, f, store.PeriodDay, limit)
	if err != nil {
		return nil, err
	}
	out := make([]DailyTotal, 0, len(sums))
	for _, s := range sums {
		out = append(out, DailyTotal{Date: s.Bucket, Total: s.Total, Count: s.Count})
	}
	return out, nil
}

// MonthlyTotals 按 (年, 月) 汇总，倒序；limit>0 时只保留最近 limit 个月
func (e *Engine) MonthlyTotals(ctx context.Context, f Filter, limit int) ([]MonthlyTotal, error) {
	sums, err := e.ledger.SumByPeriod(ctx, f, store.PeriodMonth, limit)
	if err != nil {
		return nil, err
	}
	out := make([]MonthlyTotal, 0, len(sums))
	for _, s := range sums {
		year, month, err := parseMonth(s.Bucket)
		if err != nil {
			return nil, err
		}
		out = append(out, MonthlyTotal{Year: year, Month: month, Total: s.Total, Count: s.Count})
	}
	return out, nil
}

// YearlyTotals 按年汇总，倒序
func (e *Engine) YearlyTotals(ctx context.Context, f Filter, limit int) ([]YearlyTotal, error) {
	sums, err := e.ledger.SumByPeriod(ctx, f, store.PeriodYear, limit)
	if err != nil {
		return nil, err
	}
	out := make([]YearlyTotal, 0, len(sums))
	for _, s := range sums {
		year, err := strconv.Atoi(s.Bucket)
		if err != nil {
			return nil, fmt.Errorf("unexpected year bucket %q: %w", s.Bucket, err)
		}
		out = append(out, YearlyTotal{Year: year, Total: s.Total, Count: s.Count})
	}
	return out, nil
}

// TotalAndCount 总额与笔数，无数据时均为 0
func (e *Engine) TotalAndCount(ctx context.Context, f Filter) (TotalCount, error) {
	t, err := e.ledger.Totals(ctx, f)
	if err != nil {
		return TotalCount{}, err
	}
	return TotalCount{Total: t.Total, Count: t.Count}, nil
}

// AverageDaily 有记录的日子的日均金额（先按日汇总再求平均），无数据返回 0
func (e *Engine) AverageDaily(ctx context.Context, f Filter) (float64, error) {
	days, err := e.ledger.SumByPeriod(ctx, f, store.PeriodDay, 0)
	if err != nil {
		return 0, err
	}
	if len(days) == 0 {
		return 0, nil
	}
	sum := decimal.Zero
	for _, d := range days {
		sum = sum.Add(decimal.NewFromFloat(d.Total))
	}
	return sum.Div(decimal.NewFromInt(int64(len(days)))).InexactFloat64(), nil
}

// Overview 并发查询类别汇总、按日与按月汇总以及总额，任一失败即取消其余查询
func (e *Engine) Overview(ctx context.Context, f Filter, dailyLimit, monthlyLimit int) (*Overview, error) {
	var ov Overview
	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	p.Go(func(ctx context.Context) error {
		var err error
		ov.Categories, err = e.CategoryTotals(ctx, f)
		return err
	})
	p.Go(func(ctx context.Context) error {
		var err error
		ov.Daily, err = e.DailyTotals(ctx, f, dailyLimit)
		return err
	})
	p.Go(func(ctx context.Context) error {
		var err error
		ov.Monthly, err = e.MonthlyTotals(ctx, f, monthlyLimit)
		return err
	})
	p.Go(func(ctx context.Context) error {
		var err error
		ov.Summary, err = e.TotalAndCount(ctx, f)
		return err
	})
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return &ov, nil
}

// parseMonth 解析 YYYY-MM 分桶键
func parseMonth(bucket string) (int, int, error) {
	if len(bucket) != 7 || bucket[4] != '-' {
		return 0, 0, fmt.Errorf("unexpected month bucket %q", bucket)
	}
	year, err := strconv.Atoi(bucket[:4])
	if err != nil {
		return 0, 0, fmt.Errorf("unexpected month bucket %q: %w", bucket, err)
	}
	month, err := strconv.Atoi(bucket[5:])
	if err != nil {
		return 0, 0, fmt.Errorf("unexpected month bucket %q: %w", bucket, err)
	}
	return year, month, nil
}
