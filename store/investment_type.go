package store

import (
	"context"
	"fmt"
	"strings"

	"moneyflow/database"
	"moneyflow/models"

	"gorm.io/gorm"
)

// InvestmentTypeRegistry 投资类型仓储
type InvestmentTypeRegistry struct {
	db *gorm.DB
}

func NewInvestmentTypeRegistry(db *gorm.DB) *InvestmentTypeRegistry {
	return &InvestmentTypeRegistry{db: db}
}

// List 获取投资类型，activeOnly 为 false 时包含已停用类型
func (r *InvestmentTypeRegistry) List(ctx context.Context, activeOnly bool) ([]models.InvestmentType, error) {
	tx, err := session(ctx, r.db)
	if err != nil {
		return nil, err
	}
	q := tx.Model(&models.InvestmentType{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	types := make([]models.InvestmentType, 0)
	if err := q.Order("is_custom ASC").Order("name ASC").Find(&types).Error; err != nil {
		return nil, database.Classify(err)
	}
	return types, nil
}

func (r *InvestmentTypeRegistry) Get(ctx context.Context, id string) (*models.InvestmentType, error) {
	tx, err := session(ctx, r.db)
	if err != nil {
		return nil, err
	}
	var t models.InvestmentType
	if err := tx.Where("id = ?", id).First(&t).Error; err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

// Create 新建自定义投资类型
func (r *InvestmentTypeRegistry) Create(ctx context.Context, name, icon string) (*models.InvestmentType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if icon == "" {
		icon = "💰"
	}
	tx, err := session(ctx, r.db)
	if err != nil {
		return nil, err
	}
	t := models.InvestmentType{Name: name, Icon: icon, IsCustom: true, IsActive: true}
	if err := tx.Create(&t).Error; err != nil {
		return nil, database.Classify(err)
	}
	return &t, nil
}

// Update 修改名称或图标，空字符串表示不修改
func (r *InvestmentTypeRegistry) Update(ctx context.Context, id, name, icon string) (*models.InvestmentType, error) {
	if _, err := r.Get(ctx, id); err != nil {
		return nil, err
	}
	tx, err := session(ctx, r.db)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if n := strings.TrimSpace(name); n != "" {
		updates["name"] = n
	}
	if icon != "" {
		updates["icon"] = icon
	}
	if len(updates) > 0 {
		if err := tx.Model(&models.InvestmentType{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return nil, database.Classify(err)
		}
	}
	return r.Get(ctx, id)
}

// Deactivate 停用自定义投资类型
func (r *InvestmentTypeRegistry) Deactivate(ctx context.Context, id string) error {
	t, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if !t.IsCustom {
		return ErrDefaultCategory
	}
	tx, err := session(ctx, r.db)
	if err != nil {
		return err
	}
	return database.Classify(tx.Model(&models.InvestmentType{}).Where("id = ?", id).Update("is_active", false).Error)
}

// Labels 全部投资类型按 ID 索引
func (r *InvestmentTypeRegistry) Labels(ctx context.Context) (map[string]models.InvestmentType, error) {
	types, err := r.List(ctx, false)
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.InvestmentType, len(types))
	for _, t := range types {
		out[t.ID] = t
	}
	return out, nil
}
