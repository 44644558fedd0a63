package store

import (
	"context"
	"fmt"
	"log"

	"moneyflow/database"
	"moneyflow/models"

	"gorm.io/gorm"
)

// EntryRow 收支记录及其类别信息（类别已删除或不存在时为 nil）
type EntryRow struct {
	models.LedgerEntry
	CategoryName  *string `json:"category_name,omitempty"`
	CategoryIcon  *string `json:"category_icon,omitempty"`
	CategoryColor *string `json:"category_color,omitempty"`
}

// EntryUpdate 收支记录的可更新字段，nil 表示不修改
type EntryUpdate struct {
	Title           *string                 `json:"title"`
	Amount          *float64                `json:"amount"`
	CategoryID      *string                 `json:"category_id"`
	TransactionType *models.TransactionType `json:"type"`
	Notes           *string                 `json:"notes"`
	ImageRef        *string                 `json:"image_ref"`
	Date            *string                 `json:"date"`
}

// LedgerStore 收支记录仓储
type LedgerStore struct {
	db     *gorm.DB
	images Attachments
}

// NewLedgerStore 创建收支记录仓储，images 可为 nil（不处理附件）
func NewLedgerStore(db *gorm.DB, images Attachments) *LedgerStore {
	return &LedgerStore{db: db, images: images}
}

const entryRowColumns = "e.*, c.name AS category_name, c.icon AS category_icon, c.color AS category_color"

func (s *LedgerStore) joined(tx *gorm.DB) *gorm.DB {
	return tx.Table("ledger_entries AS e").
		Select(entryRowColumns).
		Joins("LEFT JOIN categories c ON c.id = e.category_id")
}

func validateEntry(e *models.LedgerEntry) error {
	if err := ValidateAmount(e.Amount); err != nil {
		return err
	}
	if err := ValidateDate(e.Date); err != nil {
		return err
	}
	if !e.TransactionType.Valid() {
		return fmt.Errorf("%w: unknown transaction type %q", ErrInvalidInput, e.TransactionType)
	}
	if e.CategoryID == "" {
		return fmt.Errorf("%w: category_id is required", ErrInvalidInput)
	}
	return nil
}

// Create 新增收支记录
func (s *LedgerStore) Create(ctx context.Context, entry *models.LedgerEntry) error {
	if entry.TransactionType == "" {
		entry.TransactionType = models.TransactionExpense
	}
	if err := validateEntry(entry); err != nil {
		return err
	}
	tx, err := session(ctx, s.db)
	if err != nil {
		return err
	}
	if nonEmpty(entry.ImageRef) && s.images != nil {
		ref, err := s.images.Persist(*entry.ImageRef)
		if err != nil {
			return fmt.Errorf("保存图片失败: %w", err)
		}
		entry.ImageRef = &ref
	}
	return database.Classify(tx.Create(entry).Error)
}

// Get 按 ID 获取收支记录
func (s *LedgerStore) Get(ctx context.Context, id string) (*EntryRow, error) {
	tx, err := session(ctx, s.db)
	if err != nil {
		return nil, err
	}
	var rows []EntryRow
	if err := s.joined(tx).Where("e.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, database.Classify(err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

// Update 更新收支记录，替换图片时删除旧图片
func (s *LedgerStore) Update(ctx context.Context, id string, in EntryUpdate) (*EntryRow, error) {
	tx, err := session(ctx, s.db)
	if err != nil {
		return nil, err
	}

	var existing models.LedgerEntry
	if err := tx.Where("id = ?", id).First(&existing).Error; err != nil {
		return nil, notFound(err)
	}

	updates := map[string]interface{}{}
	if in.Title != nil {
		updates["title"] = in.Title
	}
	if in.Amount != nil {
		if err := ValidateAmount(*in.Amount); err != nil {
			return nil, err
		}
		updates["amount"] = *in.Amount
	}
	if in.CategoryID != nil {
		if *in.CategoryID == "" {
			return nil, fmt.Errorf("%w: category_id is required", ErrInvalidInput)
		}
		updates["category_id"] = *in.CategoryID
	}
	if in.TransactionType != nil {
		if !in.TransactionType.Valid() {
			return nil, fmt.Errorf("%w: unknown transaction type %q", ErrInvalidInput, *in.TransactionType)
		}
		updates["type"] = *in.TransactionType
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
		if err := tx.Model(&models.LedgerEntry{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return nil, database.Classify(err)
		}
	}
	s.dropImage(staleImage)

	return s.Get(ctx, id)
}

// Delete 删除收支记录及其图片
func (s *LedgerStore) Delete(ctx context.Context, id string) error {
	tx, err := session(ctx, s.db)
	if err != nil {
		return err
	}
	var existing models.LedgerEntry
	if err := tx.Where("id = ?", id).First(&existing).Error; err != nil {
		return notFound(err)
	}
	if err := tx.Where("id = ?", id).Delete(&models.LedgerEntry{}).Error; err != nil {
		return database.Classify(err)
	}
	s.dropImage(existing.ImageRef)
	return nil
}

func (s *LedgerStore) dropImage(ref *string) {
	if !nonEmpty(ref) || s.images == nil {
		return
	}
	if _, err := s.images.Delete(*ref); err != nil {
		log.Printf("警告: 删除图片 %s 失败: %v", *ref, err)
	}
}

// List 按条件查询收支记录，按日期、创建时间倒序；limit<=0 表示不分页
func (s *LedgerStore) List(ctx context.Context, f EntryFilter, limit, offset int) ([]EntryRow, error) {
	tx, err := session(ctx, s.db)
	if err != nil {
		return nil, err
	}
	rows := make([]EntryRow, 0)
	err = s.joined(tx).
		Scopes(f.Scope("e"), paginate(limit, offset)).
		Order("e.date DESC").
		Order("e.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, database.Classify(err)
	}
	return rows, nil
}

// Count 统计满足条件的记录数
func (s *LedgerStore) Count(ctx context.Context, f EntryFilter) (int64, error) {
	tx, err := session(ctx, s.db)
	if err != nil {
		return 0, err
	}
	var total int64
	if err := tx.Table("ledger_entries AS e").Scopes(f.Scope("e")).Count(&total).Error; err != nil {
		return 0, database.Classify(err)
	}
	return total, nil
}

// SumByCategory 按类别 ID 分组求和（不关联类别表，已删除类别的记录也会计入）
func (s *LedgerStore) SumByCategory(ctx context.Context, f EntryFilter) ([]GroupSum, error) {
	tx, err := session(ctx, s.db)
	if err != nil {
		return nil, err
	}
	rows := make([]GroupSum, 0)
	err = tx.Table("ledger_entries AS e").
		Select("e.category_id AS bucket, COALESCE(SUM(e.amount), 0) AS total, COUNT(e.id) AS count").
		Scopes(f.Scope("e")).
		Group("e.category_id").
		Scan(&rows).Error
	if err != nil {
		return nil, database.Classify(err)
	}
	return rows, nil
}

// SumByPeriod 按日/月/年分组求和，桶按时间倒序；limit>0 时只取最近的若干桶
func (s *LedgerStore) SumByPeriod(ctx context.Context, f EntryFilter, p Period, limit int) ([]GroupSum, error) {
	tx, err := session(ctx, s.db)
	if err != nil {
		return nil, err
	}
	expr := p.bucketExpr("e.date")
	q := tx.Table("ledger_entries AS e").
		Select(expr + " AS bucket, COALESCE(SUM(e.amount), 0) AS total, COUNT(e.id) AS count").
		Scopes(f.Scope("e")).
		Group(expr).
		Order("bucket DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	rows := make([]GroupSum, 0)
	if err := q.Scan(&rows).Error; err != nil {
		return nil, database.Classify(err)
	}
	return rows, nil
}

// Totals 满足条件的金额总和与记录数
func (s *LedgerStore) Totals(ctx context.Context, f EntryFilter) (GroupSum, error) {
	tx, err := session(ctx, s.db)
	if err != nil {
		return GroupSum{}, err
	}
	var out GroupSum
	err = tx.Table("ledger_entries AS e").
		Select("COALESCE(SUM(e.amount), 0) AS total, COUNT(e.id) AS count").
		Scopes(f.Scope("e")).
		Scan(&out).Error
	if err != nil {
		return GroupSum{}, database.Classify(err)
	}
	return out, nil
}
