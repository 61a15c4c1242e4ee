package service

import (
	"context"

	"github.com/yuqie6/codepulse/internal/eventbus"
	"github.com/yuqie6/codepulse/internal/model"
	"github.com/yuqie6/codepulse/internal/schema"
)

// 仓储/外部依赖的最小接口集合（ISP）

// ActivityProvider 上游活动统计
type ActivityProvider interface {
	FetchSummaries(ctx context.Context, date string) (*model.SummaryPayload, error)
}

// SkillCatalog 技能 CMS：按名查找 + 推送用量
type SkillCatalog interface {
	FindSkillByName(ctx context.Context, name string) ([]model.SkillRef, error)
	UpsertUsage(ctx context.Context, usage model.SkillUsage) error
}

// SkillSyncer 由缓存编排器触发的后台同步
type SkillSyncer interface {
	SyncDetached(languages []model.UsageEntry) bool
}

type SyncRunRepository interface {
	Create(ctx context.Context, run *schema.SyncRun) error
}

type EventPublisher interface {
	Publish(evt eventbus.Event)
}

// statusCoder CMS 后端返回的带状态码错误（由 cms 包实现）
type statusCoder interface {
	HTTPStatus() int
	ResponseBody() []byte
}
