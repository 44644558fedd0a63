// Package store 提供收支、类别、投资、投资类型与市值快照的仓储实现。
// 所有查询通过 gorm 组合条件并绑定参数，不拼接用户输入。
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"moneyflow/database"
	"moneyflow/models"

	"gorm.io/gorm"
)

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("record not found")
	// ErrInvalidInput 入参不合法（金额、日期、类型等）
	ErrInvalidInput = errors.New("invalid input")
	// ErrDefaultCategory 默认类别/类型不可删除
	ErrDefaultCategory = errors.New("default items cannot be deleted")
)

// Attachments 图片附件服务
type Attachments interface {
	Persist(sourceRef string) (string, error)
	Delete(ref string) (bool, error)
}

// GroupSum 分组聚合结果
type GroupSum struct {
	Bucket string  `json:"bucket"`
	Total  float64 `json:"total"`
	Count  int64   `json:"count"`
}

// Period 时间分桶粒度
type Period int

const (
	PeriodDay Period = iota
	PeriodMonth
	PeriodYear
)

// bucketExpr 日期列为 YYYY-MM-DD 文本，按前缀截取即可分桶，sqlite 与 mysql 通用
func (p Period) bucketExpr(column string) string {
	switch p {
	case PeriodMonth:
		return "SUBSTR(" + column + ", 1, 7)"
	case PeriodYear:
		return "SUBSTR(" + column + ", 1, 4)"
	default:
		return column
	}
}

// session 返回绑定上下文的会话；句柄为空视为存储不可用
func session(ctx context.Context, db *gorm.DB) (*gorm.DB, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: persistence not initialized", database.ErrStoreUnavailable)
	}
	return db.WithContext(ctx), nil
}

func col(alias, name string) string {
	if alias == "" {
		return name
	}
	return alias + "." + name
}

// EntryFilter 收支查询条件，字段为空表示不限制
// CategoryIDs 为空切片与 nil 等价（不按类别过滤）
type EntryFilter struct {
	StartDate   string                 `form:"start_date" json:"start_date,omitempty"`
	EndDate     string                 `form:"end_date" json:"end_date,omitempty"`
	CategoryIDs []string               `form:"category_ids" json:"category_ids,omitempty"`
	Type        models.TransactionType `form:"type" json:"type,omitempty"`
}

// Scope 以 gorm scope 形式应用过滤条件，日期边界两端包含
func (f EntryFilter) Scope(alias string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.StartDate != "" {
			db = db.Where(col(alias, "date")+" >= ?", f.StartDate)
		}
		if f.EndDate != "" {
			db = db.Where(col(alias, "date")+" <= ?", f.EndDate)
		}
		if len(f.CategoryIDs) > 0 {
			db = db.Where(col(alias, "category_id")+" IN ?", f.CategoryIDs)
		}
		if f.Type != "" {
			db = db.Where(col(alias, "type")+" = ?", f.Type)
		}
		return db
	}
}

// InvestmentFilter 投资记录查询条件
type InvestmentFilter struct {
	StartDate    string `form:"start_date" json:"start_date,omitempty"`
	EndDate      string `form:"end_date" json:"end_date,omitempty"`
	TypeID       string `form:"type_id" json:"type_id,omitempty"`
	Name         string `form:"-" json:"-"` // 精确匹配持仓名称
	NameContains string `form:"name" json:"name,omitempty"`
}

func (f InvestmentFilter) Scope(alias string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.StartDate != "" {
			db = db.Where(col(alias, "date")+" >= ?", f.StartDate)
		}
		if f.EndDate != "" {
			db = db.Where(col(alias, "date")+" <= ?", f.EndDate)
		}
		if f.TypeID != "" {
			db = db.Where(col(alias, "type_id")+" = ?", f.TypeID)
		}
		if f.Name != "" {
			db = db.Where(col(alias, "name")+" = ?", f.Name)
		}
		if f.NameContains != "" {
			db = db.Where(col(alias, "name")+" LIKE ? ESCAPE '!'", "%"+likeEscaper.Replace(f.NameContains)+"%")
		}
		return db
	}
}

// likeEscaper 转义 LIKE 通配符；转义符用 '!'，sqlite 与 mysql 字面量写法一致
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func paginate(limit, offset int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if limit > 0 {
			db = db.Limit(limit)
			if offset > 0 {
				db = db.Offset(offset)
			}
		}
		return db
	}
}

// ValidateDate 校验 YYYY-MM-DD 日期
func ValidateDate(s string) error {
	if _, err := time.Parse(models.DateLayout, s); err != nil {
		return fmt.Errorf("%w: invalid date %q", ErrInvalidInput, s)
	}
	return nil
}

// ValidateAmount 金额必须为正数
func ValidateAmount(amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: amount must be positive, got %v", ErrInvalidInput, amount)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return database.Classify(err)
}

func nonEmpty(s *string) bool {
	return s != nil && *s != ""
}
