package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/yuqie6/codepulse/internal/eventbus"
	"github.com/yuqie6/codepulse/internal/model"
	"github.com/yuqie6/codepulse/internal/schema"
)

const (
	DefaultSyncRunTimeout = 120 * time.Second

	TriggerRefresh = "refresh"
	TriggerManual  = "manual"

	otherLanguage = "other"
)

// SkillSyncConfig 技能同步配置
type SkillSyncConfig struct {
	Enabled    bool
	RunTimeout time.Duration
	Location   *time.Location
	Runs       SyncRunRepository // 可选
	Publisher  EventPublisher    // 可选
	Now        func() time.Time  // 测试注入
}

// SyncReport 一次同步的统计
type SyncReport struct {
	RunID      string    `json:"run_id"`
	Trigger    string    `json:"trigger"`
	Date       string    `json:"date"`
	Total      int       `json:"total"`
	Pushed     int       `json:"pushed"`
	Skipped    int       `json:"skipped"`
	Missing    int       `json:"missing"`
	Failed     int       `json:"failed"`
	Evicted    int       `json:"evicted"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Disabled   bool      `json:"disabled"`
}

type syncOutcome int

const (
	outcomePushed syncOutcome = iota
	outcomeSkipped
	outcomeMissing
	outcomeFailed
)

// SkillSyncService 将语言用量同步到技能 CMS
// 条目严格串行处理；任何单条失败只记录日志，不中断批次。
type SkillSyncService struct {
	catalog    SkillCatalog
	cache      *SkillResolutionCache
	runs       SyncRunRepository
	publisher  EventPublisher
	loc        *time.Location
	runTimeout time.Duration
	now        func() time.Time

	enabled atomic.Bool
	wg      sync.WaitGroup

	mu      sync.Mutex
	running bool
	pending *syncBatch // 运行期间到达的最新一批，旧的直接被覆盖
}

// syncBatch 一批待同步的语言，日期在入队时确定
type syncBatch struct {
	date      string
	languages []model.UsageEntry
}

func NewSkillSyncService(catalog SkillCatalog, cache *SkillResolutionCache, cfg SkillSyncConfig) *SkillSyncService {
	if cache == nil {
		cache = NewSkillResolutionCache()
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = DefaultSyncRunTimeout
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	s := &SkillSyncService{
		catalog:    catalog,
		cache:      cache,
		runs:       cfg.Runs,
		publisher:  cfg.Publisher,
		loc:        cfg.Location,
		runTimeout: cfg.RunTimeout,
		now:        cfg.Now,
	}
	s.enabled.Store(cfg.Enabled && catalog != nil)
	return s
}

// SetEnabled 热切换同步开关（配置重载时调用）
func (s *SkillSyncService) SetEnabled(enabled bool) {
	if s == nil {
		return
	}
	enabled = enabled && s.catalog != nil
	if s.enabled.Swap(enabled) != enabled {
		slog.Info("技能同步开关变更", "enabled", enabled)
	}
}

func (s *SkillSyncService) Enabled() bool {
	return s != nil && s.enabled.Load()
}

// Cache 返回技能解析缓存（CLI 展示用）
func (s *SkillSyncService) Cache() *SkillResolutionCache {
	if s == nil {
		return nil
	}
	return s.cache
}

// SyncDetached 后台执行一次同步，不阻塞调用方
// 同一时刻只有一个后台任务；已有任务在跑时只保留最新一批，当前任务结束后接着执行。
// 返回 false 表示同步未启用。
func (s *SkillSyncService) SyncDetached(languages []model.UsageEntry) bool {
	if !s.Enabled() {
		slog.Debug("技能同步未启用，跳过")
		return false
	}

	langs := make([]model.UsageEntry, len(languages))
	copy(langs, languages)
	batch := &syncBatch{date: DateIn(s.now(), s.loc), languages: langs}

	s.mu.Lock()
	if s.running {
		replaced := s.pending != nil
		s.pending = batch
		s.mu.Unlock()
		slog.Debug("已有技能同步任务在执行，本批排队等待", "date", batch.date, "replaced", replaced)
		return true
	}
	s.running = true
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		for batch != nil {
			s.runDetached(batch)
			batch = s.nextBatch()
		}
	}()
	return true
}

// nextBatch 取出排队的批次；没有时将任务标记为结束
func (s *SkillSyncService) nextBatch() *syncBatch {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.pending
	s.pending = nil
	if next == nil {
		s.running = false
	}
	return next
}

func (s *SkillSyncService) runDetached(batch *syncBatch) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("技能同步任务 panic", "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
	defer cancel()
	s.run(ctx, TriggerRefresh, batch.date, batch.languages)
}

// Wait 等待后台同步任务结束（测试用）
func (s *SkillSyncService) Wait() {
	if s == nil {
		return
	}
	s.wg.Wait()
}

// WaitContext 等待后台同步结束，ctx 先结束时返回 false（未完成的任务随进程退出）
func (s *SkillSyncService) WaitContext(ctx context.Context) bool {
	if s == nil {
		return true
	}
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}

// SyncAll 同步执行并返回统计；未启用时返回 Disabled 报告
func (s *SkillSyncService) SyncAll(ctx context.Context, languages []model.UsageEntry) SyncReport {
	if !s.Enabled() {
		slog.Debug("技能同步未启用，跳过")
		return SyncReport{Trigger: TriggerManual, Total: len(languages), Disabled: true}
	}
	return s.run(ctx, TriggerManual, DateIn(s.now(), s.loc), languages)
}

func (s *SkillSyncService) run(ctx context.Context, trigger, date string, languages []model.UsageEntry) SyncReport {
	started := s.now()
	report := SyncReport{
		RunID:     uuid.NewString(),
		Trigger:   trigger,
		Date:      date,
		Total:     len(languages),
		StartedAt: started,
	}
	logger := slog.With("run_id", report.RunID, "trigger", trigger)
	logger.Debug("开始技能同步", "languages", len(languages), "date", report.Date)

	for i, entry := range languages {
		if err := ctx.Err(); err != nil {
			remaining := len(languages) - i
			report.Skipped += remaining
			logger.Warn("技能同步被中断", "remaining", remaining, "error", err)
			break
		}
		outcome, evicted := s.syncOne(ctx, logger, report.Date, entry)
		if evicted {
			report.Evicted++
		}
		switch outcome {
		case outcomePushed:
			report.Pushed++
		case outcomeSkipped:
			report.Skipped++
		case outcomeMissing:
			report.Missing++
		default:
			report.Failed++
		}
	}

	report.FinishedAt = s.now()
	logger.Info("技能同步完成",
		"pushed", report.Pushed,
		"skipped", report.Skipped,
		"missing", report.Missing,
		"failed", report.Failed,
		"evicted", report.Evicted,
	)

	s.persist(ctx, logger, report)
	s.publish(report)
	return report
}

// syncOne 处理单个语言条目；panic 在此处收敛为失败
func (s *SkillSyncService) syncOne(ctx context.Context, logger *slog.Logger, date string, entry model.UsageEntry) (outcome syncOutcome, evicted bool) {
	name := strings.TrimSpace(entry.Name)
	if entry.Placeholder || name == "" || strings.EqualFold(name, otherLanguage) {
		return outcomeSkipped, false
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("同步技能时发生 panic", "skill", name, "panic", r)
			outcome, evicted = outcomeFailed, false
		}
	}()

	id, outcome, ok := s.resolve(ctx, logger, name)
	if !ok {
		return outcome, false
	}

	usage := model.SkillUsage{
		SkillID: id,
		Date:    date,
		Seconds: int64(math.Round(finiteSeconds(entry.TotalSeconds))),
	}
	if err := s.catalog.UpsertUsage(ctx, usage); err != nil {
		kind, msg := classifyErr(err)
		if kind == CMSErrorNotFound {
			// CMS 端技能被删除或尚未发布，清掉缓存以便下次重新解析
			logger.Info("CMS 未找到技能记录，已清除解析缓存", "skill", name, "skill_id", id)
			return outcomeMissing, s.cache.Evict(name)
		}
		logger.Error("推送技能用量失败", "skill", name, "skill_id", id, "kind", kind.String(), "message", msg)
		return outcomeFailed, false
	}

	logger.Debug("技能用量已推送", "skill", name, "skill_id", id, "seconds", usage.Seconds)
	return outcomePushed, false
}

// resolve 解析技能标识；ok=false 时 outcome 说明跳过原因
func (s *SkillSyncService) resolve(ctx context.Context, logger *slog.Logger, name string) (string, syncOutcome, bool) {
	if r, hit := s.cache.Lookup(name); hit {
		if r.Missing {
			return "", outcomeMissing, false
		}
		return r.ID, outcomePushed, true
	}

	refs, err := s.catalog.FindSkillByName(ctx, name)
	if err != nil {
		_, msg := classifyErr(err)
		logger.Error("查询 CMS 技能失败", "skill", name, "message", msg)
		return "", outcomeFailed, false
	}
	if len(refs) == 0 {
		logger.Warn("CMS 中缺少该技能，请手动添加", "skill", name)
		s.cache.StoreMissing(name)
		return "", outcomeMissing, false
	}

	id := pickSkillID(refs, name)
	if id == "" {
		logger.Error("CMS 返回的技能记录缺少 id", "skill", name)
		return "", outcomeFailed, false
	}
	s.cache.StoreID(name, id)
	return id, outcomePushed, true
}

// pickSkillID 多个匹配时优先取名称完全一致（忽略大小写）的记录
func pickSkillID(refs []model.SkillRef, name string) string {
	for _, r := range refs {
		if strings.EqualFold(strings.TrimSpace(r.Name), name) && r.ID != "" {
			return r.ID
		}
	}
	for _, r := range refs {
		if r.ID != "" {
			return r.ID
		}
	}
	return ""
}

func (s *SkillSyncService) persist(ctx context.Context, logger *slog.Logger, report SyncReport) {
	if s.runs == nil {
		return
	}
	// 同步本身可能已超时，记录写入单独给一个短超时
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	run := &schema.SyncRun{
		RunID:      report.RunID,
		Trigger:    report.Trigger,
		StartedAt:  report.StartedAt.UnixMilli(),
		FinishedAt: report.FinishedAt.UnixMilli(),
		Total:      report.Total,
		Pushed:     report.Pushed,
		Skipped:    report.Skipped,
		Missing:    report.Missing,
		Failed:     report.Failed,
	}
	if err := s.runs.Create(pctx, run); err != nil {
		logger.Warn("保存同步记录失败", "error", err)
	}
}

func (s *SkillSyncService) publish(report SyncReport) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(eventbus.Event{
		Type: eventbus.TypeSkillsSynced,
		Data: map[string]any{
			"run_id":  report.RunID,
			"trigger": report.Trigger,
			"date":    report.Date,
			"pushed":  report.Pushed,
			"skipped": report.Skipped,
			"missing": report.Missing,
			"failed":  report.Failed,
		},
	})
}

func (r SyncReport) String() string {
	if r.Disabled {
		return "sync disabled"
	}
	return fmt.Sprintf("total=%d pushed=%d skipped=%d missing=%d failed=%d", r.Total, r.Pushed, r.Skipped, r.Missing, r.Failed)
}
