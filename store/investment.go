package store

import (
	"context"
	"fmt"
	"log"
	"strings"

	"moneyflow/database"
	"moneyflow/models"

	"gorm.io/gorm"
)

// InvestmentRow 投资记录及类型信息
type InvestmentRow struct {
	models.InvestmentContribution
	TypeName *string `json:"type_name,omitempty"`
	TypeIcon *string `json:"type_icon,omitempty"`
}

// InvestmentUpdate 投资记录的可更新字段
type InvestmentUpdate struct {
	Name     *string  `json:"name"`
	TypeID   *string  `json:"type_id"`
	Amount   *float64 `json:"amount"`
	Notes    *string  `json:"notes"`
	ImageRef *string  `json:"image_ref"`
	Date     *string  `json:"date"`
}

// HoldingAggregate 同名投资记录的汇总
type HoldingAggregate struct {
	Name             string  `json:"name"`
	TypeID           string  `json:"type_id"`
	TypeName         *string `json:"type_name"`
	TypeIcon         *string `json:"type_icon"`
	TotalInvested    float64 `json:"total_invested"`
	TransactionCount int64   `json:"transaction_count"`
	FirstDate        string  `json:"first_date"`
	LastDate         string  `json:"last_date"`
}

// InvestmentStore 投资记录仓储
type InvestmentStore struct {
	db     *gorm.DB
	images Attachments
}

func NewInvestmentStore(db *gorm.DB, images Attachments) *InvestmentStore {
	return &InvestmentStore{db: db, images: images}
}

func (s *InvestmentStore) joined(tx *gorm.DB) *gorm.DB {
	return tx.Table("investments AS i").
		Select("i.*, t.name AS type_name, t.icon AS type_icon").
		Joins("LEFT JOIN investment_types t ON t.id = i.type_id")
}

func validateInvestment(in *models.InvestmentContribution) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if in.TypeID == "" {
		return fmt.Errorf("%w: type_id is required", ErrInvalidInput)
	}
	if err := ValidateAmount(in.Amount); err != nil {
		return err
	}
	return ValidateDate(in.Date)
}

// Create 新增投资记录
func (s *InvestmentStore) Create(ctx context.Context, in *models.InvestmentContribution) error {
	if err := validateInvestment(in); err != nil {
		return err
	}
	tx, err := session(ctx, s.db)
	if err != nil {
		return err
	}
	if nonEmpty(in.ImageRef) && s.images != nil {
		ref, err := s.images.Persist(*in.ImageRef)
		if err != nil {
			return fmt.Errorf("保存图片失败: %w", err)
		}
		in.ImageRef = &ref
	}
	return database.Classify(tx.Create(in).Error)
}

// Get 按 ID 获取投资记录
func (s *InvestmentStore) Get(ctx context.Context, id string) (*InvestmentRow, error) {
	tx, err := session(ctx, s.db)
	if err != nil {
		return nil, err
	}
	var rows []InvestmentRow
	if err := s.joined(tx).Where("i.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, database.Classify(err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

// Update 更新投资记录
func (s *InvestmentStore) Update(ctx context.Context, id string, in InvestmentUpdate) (*InvestmentRow, error) {
	tx, err := session(ctx, s.db)
	if err != nil {
		return nil, err
	}
	var existing models.InvestmentContribution
	if err := tx.Where("id = ?", id).First(&existing).Error; err != nil {
		return nil, notFound(err)
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
		}
		updates["name"] = name
	}
	if in.TypeID != nil {
		if *in.TypeID == "" {
			return nil, fmt.Errorf("%w: type_id is required", ErrInvalidInput)
		}
		updates["type_id"] = *in.TypeID
	}
	if in.Amount != nil {
		if err := ValidateAmount(*in.Amount); err != nil {
			return nil, err
		}
		updates["amount"] = *in.Amount
	}
	if in.Notes != nil {
		updates["notes"] = in.Notes
	}
	if in.Date != nil {
		if err := ValidateDate(*in.Date); err != nil {
			return nil, err
		}
		updates["date"] = *in.Date
	}

	var staleImage *string
	if in.ImageRef != nil && (existing.ImageRef == nil || *in.ImageRef != *existing.ImageRef) {
		newRef := *in.ImageRef
		if newRef != "" && s.images != nil {
			if newRef, err = s.images.Persist(newRef); err != nil {
				return nil, fmt.Errorf("保存图片失败: %w", err)
			}
		}
		if newRef == "" {
			updates["image_ref"] = nil
		} else {
			updates["image_ref"] = newRef
		}
		staleImage = existing.ImageRef
	}

	if len(updates) > 0 {
		if err := tx.Model(&models.InvestmentContribution{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return nil, database.Classify(err)
		}
	}
	s.dropImage(staleImage)
	return s.Get(ctx, id)
}

// Delete 删除投资记录及其图片
func (s *InvestmentStore) Delete(ctx context.Context, id string) error {
	tx, err := session(ctx, s.db)
	if err != nil {
		return err
	}
	var existing models.InvestmentContribution
	if err := tx.Where("id = ?", id).First(&existing).Error; err != nil {
		return notFound(err)
	}
	if err := tx.Where("id = ?", id).Delete(&models.InvestmentContribution{}).Error; err != nil {
		return database.Classify(err)
	}
	s.dropImage(existing.ImageRef)
	return nil
}

func (s *InvestmentStore) dropImage(ref *string) {
	if !nonEmpty(ref) || s.images == nil {
		return
	}
	if _, err := s.images.Delete(*ref); err != nil {
		log.Printf("警告: 删除图片 %s 失败: %v", *ref, err)
	}
}

// List 按条件查询投资记录，按日期、创建时间倒序
func (s *InvestmentStore) List(ctx context.Context, f InvestmentFilter, limit, offset int) ([]InvestmentRow, error) {
	tx, err := session(ctx, s.db)
	if err != nil {
		return nil, err
	}
	rows := make([]InvestmentRow, 0)
	err = s.joined(tx).
		Scopes(f.Scope("i"), paginate(limit, offset)).
		Order("i.date DESC").
		Order("i.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, database.Classify(err)
	}
	return rows, nil
}

// TotalInvested 满足条件的投入总额
func (s *InvestmentStore) TotalInvested(ctx context.Context, f InvestmentFilter) (float64, error) {
	tx, err := session(ctx, s.db)
	if err != nil {
		return 0, err
	}
	var total float64
	err = tx.Table("investments AS i").
		Select("COALESCE(SUM(i.amount), 0)").
		Scopes(f.Scope("i")).
		Scan(&total).Error
	if err != nil {
		return 0, database.Classify(err)
	}
	return total, nil
}

// GroupByHolding 按 (名称, 类型) 汇总持仓，投入总额倒序
func (s *InvestmentStore) GroupByHolding(ctx context.Context, f InvestmentFilter) ([]HoldingAggregate, error) {
	tx, err := session(ctx, s.db)
	if err != nil {
		return nil, err
	}
	rows := make([]HoldingAggregate, 0)
	err = tx.Table("investments AS i").
		Select(`i.name AS name, i.type_id AS type_id, t.name AS type_name, t.icon AS type_icon,
			COALESCE(SUM(i.amount), 0) AS total_invested, COUNT(i.id) AS transaction_count,
			MIN(i.date) AS first_date, MAX(i.date) AS last_date`).
		Joins("LEFT JOIN investment_types t ON t.id = i.type_id").
		Scopes(f.Scope("i")).
		Group("i.name, i.type_id, t.name, t.icon").
		Order("total_invested DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, database.Classify(err)
	}
	return rows, nil
}

// SumByType 按投资类型分组求和
func (s *InvestmentStore) SumByType(ctx context.Context, f InvestmentFilter) ([]GroupSum, error) {
	tx, err := session(ctx, s.db)
	if err != nil {
		return nil, err
	}
	rows := make([]GroupSum, 0)
	err = tx.Table("investments AS i").
		Select("i.type_id AS bucket, COALESCE(SUM(i.amount), 0) AS total, COUNT(i.id) AS count").
		Scopes(f.Scope("i")).
		Group("i.type_id").
		Scan(&rows).Error
	if err != nil {
		return nil, database.Classify(err)
	}
	return rows, nil
}

// SumByPeriod 按日/月/年分组求和，桶按时间倒序
func (s *InvestmentStore) SumByPeriod(ctx context.Context, f InvestmentFilter, p Period) ([]GroupSum, error) {
	tx, err := session(ctx, s.db)
	if err != nil {
		return nil, err
	}
	expr := p.bucketExpr("i.date")
	rows := make([]GroupSum, 0)
	err = tx.Table("investments AS i").
		Select(expr + " AS bucket, COALESCE(SUM(i.amount), 0) AS total, COUNT(i.id) AS count").
		Scopes(f.Scope("i")).
		Group(expr).
		Order("bucket DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, database.Classify(err)
	}
	return rows, nil
}
