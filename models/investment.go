package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InvestmentContribution 投资投入记录
// 同名记录视为同一持仓（定投），Name 不是外键
type InvestmentContribution struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Name      string    `json:"name" gorm:"size:120;index;not null"`
	TypeID    string    `json:"type_id" gorm:"size:36;index;not null"`
	Amount    float64   `json:"amount" gorm:"type:decimal(12,2);not null"`
	Notes     *string   `json:"notes,omitempty" gorm:"size:500"`
	ImageRef  *string   `json:"image_ref,omitempty" gorm:"size:255"`
	Date      string    `json:"date" gorm:"size:10;index;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (InvestmentContribution) TableName() string {
	return "investments"
}

func (i *InvestmentContribution) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// InvestmentType 投资类型（股票、加密货币等），与持仓身份无关
type InvestmentType struct {
	ID       string `json:"id" gorm:"primaryKey;size:36"`
	Name     string `json:"name" gorm:"size:50;not null"`
	Icon     string `json:"icon" gorm:"size:50;not null"`
	IsCustom bool   `json:"is_custom" gorm:"default:false"`
	IsActive bool   `json:"is_active" gorm:"default:true;index"`
}

func (InvestmentType) TableName() string {
	return "investment_types"
}

func (t *InvestmentType) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// ValuationSnapshot 持仓市值快照，只追加不修改
type ValuationSnapshot struct {
	ID             string    `json:"id" gorm:"primaryKey;size:36"`
	InvestmentName string    `json:"investment_name" gorm:"size:120;index;not null"`
	CurrentValue   float64   `json:"current_value" gorm:"type:decimal(14,2);not null"`
	RecordedAt     time.Time `json:"recorded_at" gorm:"index;not null"`
}

func (ValuationSnapshot) TableName() string {
	return "investment_values"
}

func (v *ValuationSnapshot) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}
