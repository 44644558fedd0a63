// Package portfolio 按持仓名称汇总投资投入，结合最近一次市值快照计算收益、收益率与年化收益率。
package portfolio

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"moneyflow/models"
	"moneyflow/store"

	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc/pool"
)

const (
	daysPerYear = 365.25
	// 持有时间不足约 36 天时不计算年化收益率
	minCAGRYears = 0.1
)

// HoldingReader 持仓汇总与投入明细
type HoldingReader interface {
	GroupByHolding(ctx context.Context, f store.InvestmentFilter) ([]store.HoldingAggregate, error)
	List(ctx context.Context, f store.InvestmentFilter, limit, offset int) ([]store.InvestmentRow, error)
}

// SnapshotSource 市值快照
type SnapshotSource interface {
	Latest(ctx context.Context, name string) (*models.ValuationSnapshot, error)
	History(ctx context.Context, name string, limit int) ([]models.ValuationSnapshot, error)
	Record(ctx context.Context, name string, value float64) (*models.ValuationSnapshot, error)
}

// Filter 持仓过滤条件
type Filter struct {
	TypeID       string `form:"type_id" json:"type_id,omitempty"`
	NameContains string `form:"name" json:"name,omitempty"`
}

// Item 单个持仓的估值；没有市值或投入为 0 时收益相关字段为 nil
type Item struct {
	Name                string   `json:"name"`
	TypeID              string   `json:"type_id"`
	TypeName            *string  `json:"type_name"`
	TypeIcon            *string  `json:"type_icon"`
	TotalInvested       float64  `json:"total_invested"`
	CurrentValue        *float64 `json:"current_value"`
	Profit              *float64 `json:"profit"`
	ProfitPercentage    *float64 `json:"profit_percentage"`
	CAGR                *float64 `json:"cagr"`
	TransactionCount    int64    `json:"transaction_count"`
	FirstInvestmentDate string   `json:"first_investment_date"`
	LastInvestmentDate  string   `json:"last_investment_date"`
}

// TypeLabel 显示用类型名称
func (i Item) TypeLabel() string {
	if i.TypeName == nil || *i.TypeName == "" {
		return models.OtherTypeLabel
	}
	return *i.TypeName
}

// Summary 组合汇总
// TotalInvested 包含全部持仓；市值、收益与收益率只统计已记录市值的持仓
type Summary struct {
	TotalInvested         float64 `json:"total_invested"`
	TotalCurrentValue     float64 `json:"total_current_value"`
	TotalProfit           float64 `json:"total_profit"`
	TotalProfitPercentage float64 `json:"total_profit_percentage"`
	Items                 []Item  `json:"items"`
}

// HoldingDetail 单个持仓的明细
type HoldingDetail struct {
	Name          string                     `json:"name"`
	Items         []Item                     `json:"items"` // 同名不同类型时有多行
	Contributions []store.InvestmentRow      `json:"contributions"`
	History       []models.ValuationSnapshot `json:"history"`
}

// Engine 持仓估值引擎，每次调用都重新计算
type Engine struct {
	holdings    HoldingReader
	snapshots   SnapshotSource
	concurrency int

	// Now 当前时间，用于计算持有年限
	Now func() time.Time
}

// NewEngine 创建估值引擎，concurrency 为并发查询快照的上限
func NewEngine(holdings HoldingReader, snapshots SnapshotSource, concurrency int) *Engine {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Engine{
		holdings:    holdings,
		snapshots:   snapshots,
		concurrency: concurrency,
		Now:         time.Now,
	}
}

// Summary 计算组合估值，持仓按投入总额倒序
func (e *Engine) Summary(ctx context.Context, f Filter) (*Summary, error) {
	groups, err := e.holdings.GroupByHolding(ctx, store.InvestmentFilter{TypeID: f.TypeID, NameContains: f.NameContains})
	if err != nil {
		return nil, err
	}
	items, err := e.value(ctx, groups)
	if err != nil {
		return nil, err
	}
	return summarize(items), nil
}

// Holding 单个持仓的估值、投入明细与市值历史
func (e *Engine) Holding(ctx context.Context, name string) (*HoldingDetail, error) {
	groups, err := e.holdings.GroupByHolding(ctx, store.InvestmentFilter{Name: name})
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("%w: holding %q", store.ErrNotFound, name)
	}
	items, err := e.value(ctx, groups)
	if err != nil {
		return nil, err
	}
	contributions, err := e.holdings.List(ctx, store.InvestmentFilter{Name: name}, 0, 0)
	if err != nil {
		return nil, err
	}
	history, err := e.snapshots.History(ctx, name, 0)
	if err != nil {
		return nil, err
	}
	return &HoldingDetail{Name: name, Items: items, Contributions: contributions, History: history}, nil
}

// RecordValue 为已存在的持仓追加一条市值快照
func (e *Engine) RecordValue(ctx context.Context, name string, value float64) (*models.ValuationSnapshot, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: investment name is required", store.ErrInvalidInput)
	}
	if value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, fmt.Errorf("%w: value must be a non-negative number", store.ErrInvalidInput)
	}
	groups, err := e.holdings.GroupByHolding(ctx, store.InvestmentFilter{Name: name})
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("%w: holding %q", store.ErrNotFound, name)
	}
	return e.snapshots.Record(ctx, name, value)
}

// value 并发查询每个持仓的最近市值；任一查询失败即取消其余查询并返回该错误
func (e *Engine) value(ctx context.Context, groups []store.HoldingAggregate) ([]Item, error) {
	now := e.Now().UTC()
	items := make([]Item, len(groups))
	p := pool.New().
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError().
		WithMaxGoroutines(e.concurrency)
	for i, g := range groups {
		p.Go(func(ctx context.Context) error {
			snap, err := e.snapshots.Latest(ctx, g.Name)
			if err != nil {
				return err
			}
			var current *float64
			if snap != nil {
				v := snap.CurrentValue
				current = &v
			}
			items[i] = valuate(g, current, now)
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

func valuate(g store.HoldingAggregate, current *float64, now time.Time) Item {
	item := Item{
		Name:                g.Name,
		TypeID:              g.TypeID,
		TypeName:            g.TypeName,
		TypeIcon:            g.TypeIcon,
		TotalInvested:       g.TotalInvested,
		CurrentValue:        current,
		TransactionCount:    g.TransactionCount,
		FirstInvestmentDate: g.FirstDate,
		LastInvestmentDate:  g.LastDate,
	}
	if current == nil || g.TotalInvested <= 0 {
		return item
	}

	invested := decimal.NewFromFloat(g.TotalInvested)
	profit := decimal.NewFromFloat(*current).Sub(invested)
	profitF := profit.InexactFloat64()
	pct := profit.Div(invested).Mul(decimal.NewFromInt(100)).InexactFloat64()
	item.Profit = &profitF
	item.ProfitPercentage = &pct
	item.CAGR = cagr(*current, g.TotalInvested, g.FirstDate, now)
	return item
}

// cagr 年化收益率（百分比），持有不足 0.1 年或结果非有限数时返回 nil
func cagr(current, invested float64, firstDate string, now time.Time) *float64 {
	first, err := time.Parse(models.DateLayout, firstDate)
	if err != nil {
		return nil
	}
	years := now.Sub(first).Hours() / 24 / daysPerYear
	if years < minCAGRYears {
		return nil
	}
	v := (math.Pow(current/invested, 1/years) - 1) * 100
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func summarize(items []Item) *Summary {
	invested := decimal.Zero
	investedWithValue := decimal.Zero
	currentTotal := decimal.Zero
	for _, it := range items {
		ti := decimal.NewFromFloat(it.TotalInvested)
		invested = invested.Add(ti)
		if it.CurrentValue != nil {
			investedWithValue = investedWithValue.Add(ti)
			currentTotal = currentTotal.Add(decimal.NewFromFloat(*it.CurrentValue))
		}
	}
	profit := currentTotal.Sub(investedWithValue)
	s := &Summary{
		TotalInvested:     invested.InexactFloat64(),
		TotalCurrentValue: currentTotal.InexactFloat64(),
		TotalProfit:       profit.InexactFloat64(),
		Items:             items,
	}
	if investedWithValue.IsPositive() {
		s.TotalProfitPercentage = profit.Div(investedWithValue).Mul(decimal.NewFromInt(100)).InexactFloat64()
	}
	return s
}
