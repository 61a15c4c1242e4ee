package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yuqie6/codepulse/internal/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SkillRepository 本地技能库仓储
type SkillRepository struct {
	db *gorm.DB
}

// NewSkillRepository 创建仓储
func NewSkillRepository(db *gorm.DB) *SkillRepository {
	return &SkillRepository{db: db}
}

// GetByID 根据 ID 获取技能，不存在返回 nil, nil
func (r *SkillRepository) GetByID(ctx context.Context, id int64) (*schema.Skill, error) {
	var skill schema.Skill
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&skill).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询技能失败: %w", err)
	}
	return &skill, nil
}

// FindByName 大小写无关的精确匹配
func (r *SkillRepository) FindByName(ctx context.Context, name string) ([]schema.Skill, error) {
	var skills []schema.Skill
	err := r.db.WithContext(ctx).
		Where("name_lower = ?", strings.ToLower(strings.TrimSpace(name))).
		Order("id ASC").
		Find(&skills).Error
	if err != nil {
		return nil, fmt.Errorf("查询技能失败: %w", err)
	}
	return skills, nil
}

// Upsert 按 name_lower 插入或更新技能
func (r *SkillRepository) Upsert(ctx context.Context, skill *schema.Skill) error {
	if skill == nil || strings.TrimSpace(skill.Name) == "" {
		return fmt.Errorf("技能名不能为空")
	}
	skill.NameLower = strings.ToLower(strings.TrimSpace(skill.Name))
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name_lower"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "category", "updated_at"}),
	}).Create(skill).Error
}

// GetAll 获取所有技能
func (r *SkillRepository) GetAll(ctx context.Context) ([]schema.Skill, error) {
	var skills []schema.Skill
	err := r.db.WithContext(ctx).Order("name_lower ASC").Find(&skills).Error
	if err != nil {
		return nil, fmt.Errorf("查询技能失败: %w", err)
	}
	return skills, nil
}

// Delete 删除技能及其用量
func (r *SkillRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("skill_id = ?", id).Delete(&schema.SkillUsage{}).Error; err != nil {
			return fmt.Errorf("删除技能用量失败: %w", err)
		}
		if err := tx.Delete(&schema.Skill{}, id).Error; err != nil {
			return fmt.Errorf("删除技能失败: %w", err)
		}
		return nil
	})
}

// Count 统计技能数量
func (r *SkillRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&schema.Skill{}).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("统计技能失败: %w", err)
	}
	return count, nil
}
