package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"moneyflow/models"
	"moneyflow/store"
)

// Kind 统一流水中的记录来源
type Kind string

const (
	KindAll        Kind = "all"
	KindIncome     Kind = "income"
	KindExpense    Kind = "expense"
	KindInvestment Kind = "investment"
)

// UnifiedFilter 统一流水过滤条件，Kind 为空等同于 all
type UnifiedFilter struct {
	StartDate string `form:"start_date" json:"start_date,omitempty"`
	EndDate   string `form:"end_date" json:"end_date,omitempty"`
	Kind      Kind   `form:"kind" json:"kind,omitempty"`
}

// Transaction 统一流水中的一条记录
type Transaction struct {
	ID             string    `json:"id"`
	Kind           Kind      `json:"type"`
	Amount         float64   `json:"amount"`
	Date           string    `json:"date"`
	Title          *string   `json:"title,omitempty"`
	CategoryID     string    `json:"category_id,omitempty"`
	CategoryName   *string   `json:"category_name,omitempty"`
	CategoryIcon   *string   `json:"category_icon,omitempty"`
	CategoryColor  *string   `json:"category_color,omitempty"`
	InvestmentName string    `json:"investment_name,omitempty"`
	TypeID         string    `json:"type_id,omitempty"`
	TypeName       *string   `json:"type_name,omitempty"`
	TypeIcon       *string   `json:"type_icon,omitempty"`
	Notes          *string   `json:"notes,omitempty"`
	ImageRef       *string   `json:"image_ref,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UnifiedTransactions 合并收支与投资记录，整体按 (日期, 创建时间) 倒序后再分页
// limit<=0 表示不限制条数
func (e *Engine) UnifiedTransactions(ctx context.Context, f UnifiedFilter, limit, offset int) ([]Transaction, error) {
	kind := f.Kind
	if kind == "" {
		kind = KindAll
	}

	var entryType models.TransactionType
	includeLedger, includeInvestments := true, true
	switch kind {
	case KindAll:
	case KindIncome:
		entryType = models.TransactionIncome
		includeInvestments = false
	case KindExpense:
		entryType = models.TransactionExpense
		includeInvestments = false
	case KindInvestment:
		includeLedger = false
	default:
		return nil, fmt.Errorf("%w: unknown transaction kind %q", store.ErrInvalidInput, f.Kind)
	}

	merged := make([]Transaction, 0)
	if includeLedger {
		rows, err := e.ledger.List(ctx, store.EntryFilter{StartDate: f.StartDate, EndDate: f.EndDate, Type: entryType}, 0, 0)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			merged = append(merged, Transaction{
				ID:            r.ID,
				Kind:          Kind(r.TransactionType),
				Amount:        r.Amount,
				Date:          r.Date,
				Title:         r.Title,
				CategoryID:    r.CategoryID,
				CategoryName:  r.CategoryName,
				CategoryIcon:  r.CategoryIcon,
				CategoryColor: r.CategoryColor,
				Notes:         r.Notes,
				ImageRef:      r.ImageRef,
				CreatedAt:     r.CreatedAt,
				UpdatedAt:     r.UpdatedAt,
			})
		}
	}
	if includeInvestments {
		rows, err := e.investments.List(ctx, store.InvestmentFilter{StartDate: f.StartDate, EndDate: f.EndDate}, 0, 0)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			merged = append(merged, Transaction{
				ID:             r.ID,
				Kind:           KindInvestment,
				Amount:         r.Amount,
				Date:           r.Date,
				InvestmentName: r.Name,
				TypeID:         r.TypeID,
				TypeName:       r.TypeName,
				TypeIcon:       r.TypeIcon,
				Notes:          r.Notes,
				ImageRef:       r.ImageRef,
				CreatedAt:      r.CreatedAt,
				UpdatedAt:      r.UpdatedAt,
			})
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Date != merged[j].Date {
			return merged[i].Date > merged[j].Date
		}
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})

	if offset > 0 {
		if offset >= len(merged) {
			return []Transaction{}, nil
		}
		merged = merged[offset:]
	}
	if limit > 0 && limit < len(merged) {
		merged = merged[:limit]
	}
	return merged, nil
}
