package analytics

import (
	"context"
	"fmt"
	"strconv"

	"moneyflow/models"
	"moneyflow/store"

	"github.com/shopspring/decimal"
)

// MoneyFlowSummary 收入去向汇总，百分比均相对总收入，收入为 0 时均为 0
type MoneyFlowSummary struct {
	TotalIncome          float64 `json:"total_income"`
	TotalExpenses        float64 `json:"total_expenses"`
	TotalInvestments     float64 `json:"total_investments"`
	LiquidSavings        float64 `json:"liquid_savings"` // 可能为负
	ExpensePercentage    float64 `json:"expense_percentage"`
	InvestmentPercentage float64 `json:"investment_percentage"`
	SavingsPercentage    float64 `json:"savings_percentage"`
}

// AllocationItem 收入分配饼图的一项
type AllocationItem struct {
	Name       string  `json:"name"`
	Value      float64 `json:"value"`
	Percentage float64 `json:"percentage"`
	Color      string  `json:"color"`
}

// FlowStat 某一期间（月或年）的资金流
type FlowStat struct {
	Period      string  `json:"period"` // YYYY-MM 或 YYYY
	Income      float64 `json:"income"`
	Expenses    float64 `json:"expenses"`
	Investments float64 `json:"investments"`
	Savings     float64 `json:"savings"`
}

const (
	colorExpenses    = "#ef4444"
	colorInvestments = "#6366f1"
	colorSavings     = "#22c55e"
)

func newSummary(income, expenses, investments decimal.Decimal) MoneyFlowSummary {
	savings := income.Sub(expenses).Sub(investments)
	s := MoneyFlowSummary{
		TotalIncome:      income.InexactFloat64(),
		TotalExpenses:    expenses.InexactFloat64(),
		TotalInvestments: investments.InexactFloat64(),
		LiquidSavings:    savings.InexactFloat64(),
	}
	if income.IsPositive() {
		hundred := decimal.NewFromInt(100)
		s.ExpensePercentage = expenses.Div(income).Mul(hundred).InexactFloat64()
		s.InvestmentPercentage = investments.Div(income).Mul(hundred).InexactFloat64()
		s.SavingsPercentage = savings.Div(income).Mul(hundred).InexactFloat64()
	}
	return s
}

// MoneyFlowSummary 日期范围内的收入、支出、投资与结余
func (e *Engine) MoneyFlowSummary(ctx context.Context, startDate, endDate string) (MoneyFlowSummary, error) {
	income, err := e.ledger.Totals(ctx, Filter{StartDate: startDate, EndDate: endDate, Type: models.TransactionIncome})
	if err != nil {
		return MoneyFlowSummary{}, err
	}
	expenses, err := e.ledger.Totals(ctx, Filter{StartDate: startDate, EndDate: endDate, Type: models.TransactionExpense})
	if err != nil {
		return MoneyFlowSummary{}, err
	}
	invested, err := e.investments.TotalInvested(ctx, store.InvestmentFilter{StartDate: startDate, EndDate: endDate})
	if err != nil {
		return MoneyFlowSummary{}, err
	}
	return newSummary(
		decimal.NewFromFloat(income.Total),
		decimal.NewFromFloat(expenses.Total),
		decimal.NewFromFloat(invested),
	), nil
}

// IncomeAllocationBreakdown 收入分配，只输出金额为正的项（超支时没有 Savings）
func (e *Engine) IncomeAllocationBreakdown(ctx context.Context, startDate, endDate string) ([]AllocationItem, error) {
	s, err := e.MoneyFlowSummary(ctx, startDate, endDate)
	if err != nil {
		return nil, err
	}
	items := make([]AllocationItem, 0, 3)
	if s.TotalExpenses > 0 {
		items = append(items, AllocationItem{Name: "Expenses", Value: s.TotalExpenses, Percentage: s.ExpensePercentage, Color: colorExpenses})
	}
	if s.TotalInvestments > 0 {
		items = append(items, AllocationItem{Name: "Investments", Value: s.TotalInvestments, Percentage: s.InvestmentPercentage, Color: colorInvestments})
	}
	if s.LiquidSavings > 0 {
		items = append(items, AllocationItem{Name: "Savings", Value: s.LiquidSavings, Percentage: s.SavingsPercentage, Color: colorSavings})
	}
	return items, nil
}

// MonthlyFlow 某年 12 个月的资金流，按月份升序，无数据的月份为 0
func (e *Engine) MonthlyFlow(ctx context.Context, year int) ([]FlowStat, error) {
	start := fmt.Sprintf("%04d-01-01", year)
	end := fmt.Sprintf("%04d-12-31", year)
	periods := make([]string, 0, 12)
	for m := 1; m <= 12; m++ {
		periods = append(periods, fmt.Sprintf("%04d-%02d", year, m))
	}
	return e.flow(ctx, start, end, store.PeriodMonth, periods)
}

// YearlyFlow [startYear, endYear] 每年的资金流，按年份升序
func (e *Engine) YearlyFlow(ctx context.Context, startYear, endYear int) ([]FlowStat, error) {
	if endYear < startYear {
		return []FlowStat{}, nil
	}
	periods := make([]string, 0, endYear-startYear+1)
	for y := startYear; y <= endYear; y++ {
		periods = append(periods, strconv.Itoa(y))
	}
	return e.flow(ctx, fmt.Sprintf("%04d-01-01", startYear), fmt.Sprintf("%04d-12-31", endYear), store.PeriodYear, periods)
}

func (e *Engine) flow(ctx context.Context, start, end string, p store.Period, periods []string) ([]FlowStat, error) {
	income, err := e.ledger.SumByPeriod(ctx, Filter{StartDate: start, EndDate: end, Type: models.TransactionIncome}, p, 0)
	if err != nil {
		return nil, err
	}
	expenses, err := e.ledger.SumByPeriod(ctx, Filter{StartDate: start, EndDate: end, Type: models.TransactionExpense}, p, 0)
	if err != nil {
		return nil, err
	}
	invested, err := e.investments.SumByPeriod(ctx, store.InvestmentFilter{StartDate: start, EndDate: end}, p)
	if err != nil {
		return nil, err
	}

	in, ex, iv := byBucket(income), byBucket(expenses), byBucket(invested)
	out := make([]FlowStat, 0, len(periods))
	for _, period := range periods {
		s := newSummary(in[period], ex[period], iv[period])
		out = append(out, FlowStat{
			Period:      period,
			Income:      s.TotalIncome,
			Expenses:    s.TotalExpenses,
			Investments: s.TotalInvestments,
			Savings:     s.LiquidSavings,
		})
	}
	return out, nil
}

func byBucket(sums []store.GroupSum) map[string]decimal.Decimal {
	m := make(map[string]decimal.Decimal, len(sums))
	for _, s := range sums {
		m[s.Bucket] = decimal.NewFromFloat(s.Total)
	}
	return m
}
