package store

import (
	"context"
	"fmt"
	"strings"

	"moneyflow/database"
	"moneyflow/models"

	"gorm.io/gorm"
)

// CategoryInput 新建或修改类别的参数，nil 表示不修改
type CategoryInput struct {
	Name  *string `json:"name"`
	Icon  *string `json:"icon"`
	Color *string `json:"color"`
}

// CategoryRegistry 收支类别仓储
type CategoryRegistry struct {
	db *gorm.DB
}

func NewCategoryRegistry(db *gorm.DB) *CategoryRegistry {
	return &CategoryRegistry{db: db}
}

func (r *CategoryRegistry) list(ctx context.Context, typ models.TransactionType, activeOnly bool) ([]models.Category, error) {
	tx, err := session(ctx, r.db)
	if err != nil {
		return nil, err
	}
	q := tx.Model(&models.Category{})
	if typ != "" {
		q = q.Where("type = ?", typ)
	}
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	cats := make([]models.Category, 0)
	if err := q.Order("sort_order ASC").Order("name ASC").Find(&cats).Error; err != nil {
		return nil, database.Classify(err)
	}
	return cats, nil
}

// ListActive 获取启用的类别，typ 为空时返回全部类型
func (r *CategoryRegistry) ListActive(ctx context.Context, typ models.TransactionType) ([]models.Category, error) {
	return r.list(ctx, typ, true)
}

// ListAll 获取全部类别（含已停用），用于给历史记录补充名称
func (r *CategoryRegistry) ListAll(ctx context.Context, typ models.TransactionType) ([]models.Category, error) {
	return r.list(ctx, typ, false)
}

// Get 按 ID 获取类别
func (r *CategoryRegistry) Get(ctx context.Context, id string) (*models.Category, error) {
	tx, err := session(ctx, r.db)
	if err != nil {
		return nil, err
	}
	var cat models.Category
	if err := tx.Where("id = ?", id).First(&cat).Error; err != nil {
		return nil, notFound(err)
	}
	return &cat, nil
}

// Create 新建自定义类别，排在同类型类别末尾
func (r *CategoryRegistry) Create(ctx context.Context, typ models.TransactionType, in CategoryInput) (*models.Category, error) {
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: unknown transaction type %q", ErrInvalidInput, typ)
	}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	tx, err := session(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var maxOrder int
	if err := tx.Model(&models.Category{}).Where("type = ?", typ).Select("COALESCE(MAX(sort_order), -1)").Scan(&maxOrder).Error; err != nil {
		return nil, database.Classify(err)
	}

	cat := models.Category{
		Name:            strings.TrimSpace(*in.Name),
		Icon:            "📦",
		Color:           "#64748b",
		TransactionType: typ,
		IsCustom:        true,
		IsActive:        true,
		SortOrder:       maxOrder + 1,
	}
	if in.Icon != nil && *in.Icon != "" {
		cat.Icon = *in.Icon
	}
	if in.Color != nil && *in.Color != "" {
		cat.Color = *in.Color
	}
	if err := tx.Create(&cat).Error; err != nil {
		return nil, database.Classify(err)
	}
	return &cat, nil
}

// Update 修改类别名称、图标或颜色
func (r *CategoryRegistry) Update(ctx context.Context, id string, in CategoryInput) (*models.Category, error) {
	tx, err := session(ctx, r.db)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
		}
		updates["name"] = name
	}
	if in.Icon != nil {
		updates["icon"] = *in.Icon
	}
	if in.Color != nil {
		updates["color"] = *in.Color
	}
	if _, err := r.Get(ctx, id); err != nil {
		return nil, err
	}
	if len(updates) > 0 {
		if err := tx.Model(&models.Category{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return nil, database.Classify(err)
		}
	}
	return r.Get(ctx, id)
}

// Deactivate 停用自定义类别；默认类别返回 ErrDefaultCategory
func (r *CategoryRegistry) Deactivate(ctx context.Context, id string) error {
	cat, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if !cat.IsCustom {
		return ErrDefaultCategory
	}
	tx, err := session(ctx, r.db)
	if err != nil {
		return err
	}
	return database.Classify(tx.Model(&models.Category{}).Where("id = ?", id).Update("is_active", false).Error)
}

// Reorder 按传入顺序重写 sort_order
func (r *CategoryRegistry) Reorder(ctx context.Context, ids []string) error {
	tx, err := session(ctx, r.db)
	if err != nil {
		return err
	}
	err = tx.Transaction(func(tx *gorm.DB) error {
		// mysql 对未变化的行返回 0 affected rows，存在性需单独校验
		for i, id := range ids {
			var n int64
			if err := tx.Model(&models.Category{}).Where("id = ?", id).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return fmt.Errorf("%w: category %s", ErrNotFound, id)
			}
			if err := tx.Model(&models.Category{}).Where("id = ?", id).Update("sort_order", i).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return database.Classify(err)
}

// Labels 全部类别按 ID 索引
func (r *CategoryRegistry) Labels(ctx context.Context) (map[string]models.Category, error) {
	cats, err := r.ListAll(ctx, "")
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.Category, len(cats))
	for _, c := range cats {
		out[c.ID] = c
	}
	return out, nil
}
