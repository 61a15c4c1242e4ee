package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/yuqie6/codepulse/internal/schema"
	"gorm.io/gorm"
)

// SyncRunRepository 同步执行记录仓储
type SyncRunRepository struct {
	db *gorm.DB
}

func NewSyncRunRepository(db *gorm.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

func (r *SyncRunRepository) Create(ctx context.Context, run *schema.SyncRun) error {
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("写入同步记录失败: %w", err)
	}
	return nil
}

// GetRecent 最近 N 次同步
func (r *SyncRunRepository) GetRecent(ctx context.Context, limit int) ([]schema.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []schema.SyncRun
	err := r.db.WithContext(ctx).Order("started_at DESC, id DESC").Limit(limit).Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("查询同步记录失败: %w", err)
	}
	return runs, nil
}

// GetByDate 某天的同步记录，date 按 loc 解释（与同步时使用的上游时区一致）
func (r *SyncRunRepository) GetByDate(ctx context.Context, date string, loc *time.Location) ([]schema.SyncRun, error) {
	startMs, endMs, err := DayRange(date, loc)
	if err != nil {
		return nil, err
	}
	var runs []schema.SyncRun
	err = r.db.WithContext(ctx).
		Where("started_at >= ? AND started_at <= ?", startMs, endMs).
		Order("started_at ASC").
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("查询同步记录失败: %w", err)
	}
	return runs, nil
}
