package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransactionType 账目类型：支出 / 收入
type TransactionType string

const (
	TransactionExpense TransactionType = "expense"
	TransactionIncome  TransactionType = "income"
)

// Valid 是否为合法的账目类型
func (t TransactionType) Valid() bool {
	return t == TransactionExpense || t == TransactionIncome
}

// DateLayout 日期列统一使用 ISO 日历日期，不含时间
const DateLayout = "2006-01-02"

// LedgerEntry 收支记录模型
type LedgerEntry struct {
	ID              string          `json:"id" gorm:"primaryKey;size:36"`
	Title           *string         `json:"title,omitempty" gorm:"size:120"`
	Amount          float64         `json:"amount" gorm:"type:decimal(12,2);not null"`
	CategoryID      string          `json:"category_id" gorm:"size:36;index;not null"`
	TransactionType TransactionType `json:"type" gorm:"column:type;size:16;index;not null;default:expense"`
	Notes           *string         `json:"notes,omitempty" gorm:"size:500"`
	ImageRef        *string         `json:"image_ref,omitempty" gorm:"size:255"`
	Date            string          `json:"date" gorm:"size:10;index;not null"` // YYYY-MM-DD
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// TableName 设置表名
func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

// BeforeCreate 生成主键
func (e *LedgerEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
