package cms

import (
	"context"
	"fmt"
	"strconv"

	"github.com/yuqie6/codepulse/internal/model"
	"github.com/yuqie6/codepulse/internal/repository"
	"github.com/yuqie6/codepulse/internal/schema"
)

// LocalCatalog 使用本地 SQLite 技能库作为 CMS
type LocalCatalog struct {
	skills *repository.SkillRepository
	usages *repository.SkillUsageRepository
}

func NewLocalCatalog(skills *repository.SkillRepository, usages *repository.SkillUsageRepository) *LocalCatalog {
	return &LocalCatalog{skills: skills, usages: usages}
}

func (c *LocalCatalog) FindSkillByName(ctx context.Context, name string) ([]model.SkillRef, error) {
	skills, err := c.skills.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	refs := make([]model.SkillRef, 0, len(skills))
	for _, s := range skills {
		refs = append(refs, model.SkillRef{ID: strconv.FormatInt(s.ID, 10), Name: s.Name})
	}
	return refs, nil
}

func (c *LocalCatalog) UpsertUsage(ctx context.Context, usage model.SkillUsage) error {
	id, err := strconv.ParseInt(usage.SkillID, 10, 64)
	if err != nil {
		return notFound(usage.SkillID)
	}
	skill, err := c.skills.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if skill == nil {
		return notFound(usage.SkillID)
	}
	if err := c.usages.Upsert(ctx, &schema.SkillUsage{
		SkillID: id,
		Date:    usage.Date,
		Seconds: usage.Seconds,
	}); err != nil {
		return fmt.Errorf("写入本地技能用量失败: %w", err)
	}
	return nil
}

func (c *LocalCatalog) Close() error { return nil }
