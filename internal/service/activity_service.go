package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/yuqie6/codepulse/internal/eventbus"
	"github.com/yuqie6/codepulse/internal/model"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultCacheTTL = 300 * time.Second

	refreshKey = "today"
)

// ActivityServiceConfig 缓存编排配置；TTL 与在线阈值相互独立
type ActivityServiceConfig struct {
	TTL        time.Duration
	Thresholds PresenceThresholds
	Location   *time.Location
	Publisher  EventPublisher // 可选
}

// ActivityService 持有唯一的快照缓存槽位
// 槽位整体替换，读者拿到的永远是完整快照的副本。
type ActivityService struct {
	provider   ActivityProvider
	syncer     SkillSyncer
	publisher  EventPublisher
	ttl        time.Duration
	thresholds PresenceThresholds
	loc        *time.Location

	slot    atomic.Pointer[model.ActivitySnapshot]
	group   singleflight.Group
	fetches atomic.Int64
}

func NewActivityService(provider ActivityProvider, syncer SkillSyncer, cfg ActivityServiceConfig) *ActivityService {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultCacheTTL
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &ActivityService{
		provider:   provider,
		syncer:     syncer,
		publisher:  cfg.Publisher,
		ttl:        cfg.TTL,
		thresholds: cfg.Thresholds.normalized(),
		loc:        cfg.Location,
	}
}

// GetSnapshot 返回当前快照；缓存命中时也会按 now 重新推导在线状态
// 上游失败直接返回错误，不回退到旧缓存，也不写入缓存。
func (s *ActivityService) GetSnapshot(ctx context.Context, now time.Time) (*model.ActivitySnapshot, error) {
	if cached := s.fresh(now); cached != nil {
		return s.present(cached, now), nil
	}

	// 并发刷新合并为一次上游请求；刷新本身不随单个调用方取消
	ch := s.group.DoChan(refreshKey, func() (any, error) {
		if cached := s.fresh(now); cached != nil {
			return cached, nil
		}
		return s.refresh(context.WithoutCancel(ctx), now)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return s.present(res.Val.(*model.ActivitySnapshot), now), nil
	}
}

// Peek 返回缓存中的快照（不触发拉取），无缓存时返回 nil
func (s *ActivityService) Peek(now time.Time) *model.ActivitySnapshot {
	cached := s.slot.Load()
	if cached == nil {
		return nil
	}
	return s.present(cached, now)
}

// Fetches 累计上游请求次数
func (s *ActivityService) Fetches() int64 {
	return s.fetches.Load()
}

func (s *ActivityService) TTL() time.Duration {
	return s.ttl
}

func (s *ActivityService) fresh(now time.Time) *model.ActivitySnapshot {
	cached := s.slot.Load()
	if cached == nil || now.Sub(cached.FetchedAt) >= s.ttl {
		return nil
	}
	return cached
}

func (s *ActivityService) refresh(ctx context.Context, now time.Time) (*model.ActivitySnapshot, error) {
	if s.provider == nil {
		return nil, fmt.Errorf("未配置上游活动统计")
	}

	date := DateIn(now, s.loc)
	s.fetches.Add(1)
	payload, err := s.provider.FetchSummaries(ctx, date)
	if err != nil {
		slog.Warn("拉取上游活动统计失败", "date", date, "error", err)
		return nil, fmt.Errorf("获取活动统计失败: %w", err)
	}

	prev := s.slot.Load()
	merged := MergeSnapshot(payload, prev, now, s.loc)
	merged.Status = ClassifyStatus(now.Sub(merged.LastActivityAt), s.thresholds)
	s.slot.Store(merged)

	slog.Debug("活动快照已刷新",
		"date", date,
		"total_seconds", merged.TotalSeconds,
		"status", merged.Status,
		"activity_advanced", merged.LastActivityAt.Equal(now),
	)

	if s.syncer != nil {
		s.syncer.SyncDetached(merged.Clone().Languages)
	}
	if s.publisher != nil {
		s.publisher.Publish(eventbus.Event{
			Type: eventbus.TypeActivityRefreshed,
			Data: map[string]any{
				"cached_at":        merged.FetchedAt.Format(time.RFC3339),
				"last_activity_at": merged.LastActivityAt.Format(time.RFC3339),
				"status":           string(merged.Status),
				"total_seconds":    merged.TotalSeconds,
			},
		})
	}
	return merged, nil
}

func (s *ActivityService) present(cached *model.ActivitySnapshot, now time.Time) *model.ActivitySnapshot {
	out := cached.Clone()
	out.Status = ClassifyStatus(now.Sub(out.LastActivityAt), s.thresholds)
	return out
}
