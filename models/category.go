package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category 收支类别
// 类别只做软删除（IsActive=false），历史记录仍可引用
type Category struct {
	ID              string          `json:"id" gorm:"primaryKey;size:36"`
	Name            string          `json:"name" gorm:"size:50;not null"`
	Icon            string          `json:"icon" gorm:"size:50;not null"`
	Color           string          `json:"color" gorm:"size:20;default:#64748b"`
	TransactionType TransactionType `json:"type" gorm:"column:type;size:16;index;not null;default:expense"`
	IsCustom        bool            `json:"is_custom" gorm:"default:false"`
	IsActive        bool            `json:"is_active" gorm:"default:true;index"`
	SortOrder       int             `json:"sort_order" gorm:"default:0;index"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (Category) TableName() string {
	return "categories"
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
