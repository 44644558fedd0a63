package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"moneyflow/database"
	"moneyflow/models"

	"gorm.io/gorm"
)

// SnapshotStore 持仓市值快照，只追加
type SnapshotStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSnapshotStore(db *gorm.DB) *SnapshotStore {
	return &SnapshotStore{db: db, now: time.Now}
}

// WithClock 替换记录时间来源
func (s *SnapshotStore) WithClock(now func() time.Time) *SnapshotStore {
	s.now = now
	return s
}

// Record 追加一条市值快照，记录时间为当前时间
func (s *SnapshotStore) Record(ctx context.Context, name string, value float64) (*models.ValuationSnapshot, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: investment name is required", ErrInvalidInput)
	}
	if value < 0 {
		return nil, fmt.Errorf("%w: value must not be negative, got %v", ErrInvalidInput, value)
	}
	tx, err := session(ctx, s.db)
	if err != nil {
		return nil, err
	}
	snap := models.ValuationSnapshot{
		InvestmentName: name,
		CurrentValue:   value,
		RecordedAt:     s.now().UTC(),
	}
	if err := tx.Create(&snap).Error; err != nil {
		return nil, database.Classify(err)
	}
	return &snap, nil
}

// Latest 最近一次快照，没有快照时返回 (nil, nil)
func (s *SnapshotStore) Latest(ctx context.Context, name string) (*models.ValuationSnapshot, error) {
	tx, err := session(ctx, s.db)
	if err != nil {
		return nil, err
	}
	var snaps []models.ValuationSnapshot
	err = tx.Where("investment_name = ?", name).
		Order("recorded_at DESC").
		Limit(1).
		Find(&snaps).Error
	if err != nil {
		return nil, database.Classify(err)
	}
	if len(snaps) == 0 {
		return nil, nil
	}
	return &snaps[0], nil
}

// History 快照历史，最新在前；limit<=0 表示全部
func (s *SnapshotStore) History(ctx context.Context, name string, limit int) ([]models.ValuationSnapshot, error) {
	tx, err := session(ctx, s.db)
	if err != nil {
		return nil, err
	}
	q := tx.Where("investment_name = ?", name).Order("recorded_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	snaps := make([]models.ValuationSnapshot, 0)
	if err := q.Find(&snaps).Error; err != nil {
		return nil, database.Classify(err)
	}
	return snaps, nil
}
