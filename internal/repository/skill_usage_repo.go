package repository

import (
	"context"
	"fmt"

	"github.com/yuqie6/codepulse/internal/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SkillUsageStat 用量 + 技能名
type SkillUsageStat struct {
	SkillID int64
	Name    string
	Date    string
	Seconds int64
}

type SkillUsageRepository struct {
	db *gorm.DB
}

func NewSkillUsageRepository(db *gorm.DB) *SkillUsageRepository {
	return &SkillUsageRepository{db: db}
}

// Upsert 同一技能同一天只保留一条，秒数以最新推送为准
func (r *SkillUsageRepository) Upsert(ctx context.Context, usage *schema.SkillUsage) error {
	if usage == nil {
		return fmt.Errorf("usage 不能为空")
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "skill_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"seconds", "updated_at"}),
	}).Create(usage).Error
	if err != nil {
		return fmt.Errorf("写入技能用量失败: %w", err)
	}
	return nil
}

// ListByDate 按日期列出用量（按秒数降序）
func (r *SkillUsageRepository) ListByDate(ctx context.Context, date string) ([]SkillUsageStat, error) {
	const sql = `
SELECT
  u.skill_id AS skill_id,
  s.name AS name,
  u.date AS date,
  u.seconds AS seconds
FROM skill_usages u
JOIN skills s ON s.id = u.skill_id
WHERE u.date = ?
ORDER BY u.seconds DESC, s.name_lower ASC
`
	var out []SkillUsageStat
	if err := r.db.WithContext(ctx).Raw(sql, date).Scan(&out).Error; err != nil {
		return nil, fmt.Errorf("查询技能用量失败: %w", err)
	}
	return out, nil
}
