// Package analytics 基于收支与投资仓储计算统计指标：类别汇总、按日/月/年分桶、
// 统一流水以及收入去向（资金流）汇总。所有方法均为只读，存储错误原样向上返回。
package analytics

import (
	"context"

	"moneyflow/models"
	"moneyflow/store"
)

// LedgerReader 统计所需的收支读取能力
type LedgerReader interface {
	List(ctx context.Context, f store.EntryFilter, limit, offset int) ([]store.EntryRow, error)
	SumByCategory(ctx context.Context, f store.EntryFilter) ([]store.GroupSum, error)
	SumByPeriod(ctx context.Context, f store.EntryFilter, p store.Period, limit int) ([]store.GroupSum, error)
	Totals(ctx context.Context, f store.EntryFilter) (store.GroupSum, error)
}

// InvestmentReader 统计所需的投资读取能力
type InvestmentReader interface {
	List(ctx context.Context, f store.InvestmentFilter, limit, offset int) ([]store.InvestmentRow, error)
	TotalInvested(ctx context.Context, f store.InvestmentFilter) (float64, error)
	SumByType(ctx context.Context, f store.InvestmentFilter) ([]store.GroupSum, error)
	SumByPeriod(ctx context.Context, f store.InvestmentFilter, p store.Period) ([]store.GroupSum, error)
}

// CategoryLabeler 按 ID 提供类别名称、图标、颜色（含已停用类别）
type CategoryLabeler interface {
	Labels(ctx context.Context) (map[string]models.Category, error)
}

// TypeLabeler 按 ID 提供投资类型名称、图标
type TypeLabeler interface {
	Labels(ctx context.Context) (map[string]models.InvestmentType, error)
}

// Filter 统计过滤条件；CategoryIDs 为空切片时不按类别过滤，日期两端包含
type Filter = store.EntryFilter

// Engine 统计引擎，不缓存，每次调用都从仓储重新计算
type Engine struct {
	ledger      LedgerReader
	categories  CategoryLabeler
	investments InvestmentReader
	types       TypeLabeler
}

// NewEngine 创建统计引擎
func NewEngine(ledger LedgerReader, categories CategoryLabeler, investments InvestmentReader, types TypeLabeler) *Engine {
	return &Engine{
		ledger:      ledger,
		categories:  categories,
		investments: investments,
		types:       types,
	}
}
