package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/yuqie6/codepulse/internal/cms"
	"github.com/yuqie6/codepulse/internal/eventbus"
	"github.com/yuqie6/codepulse/internal/pkg/config"
	"github.com/yuqie6/codepulse/internal/repository"
	"github.com/yuqie6/codepulse/internal/service"
	"github.com/yuqie6/codepulse/internal/wakatime"
)

// Core 持有跨二进制共享的核心依赖
type Core struct {
	Cfg       *config.Config
	DB        *repository.Database
	Hub       *eventbus.Hub
	LogCloser io.Closer
	LogLevel  *slog.LevelVar

	Repos struct {
		Skill      *repository.SkillRepository
		SkillUsage *repository.SkillUsageRepository
		SyncRun    *repository.SyncRunRepository
	}

	Clients struct {
		WakaTime *wakatime.Client
		Catalog  cms.Catalog // 同步未启用时为 nil
	}

	Services struct {
		Sync     *service.SkillSyncService
		Activity *service.ActivityService
	}
}

// NewCore 加载配置、初始化日志后构建核心依赖
func NewCore(cfgPath string) (*Core, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	logCloser, level := config.SetupLogger(config.LoggerOptions{
		Level:     cfg.App.LogLevel,
		Path:      cfg.App.LogPath,
		Component: filepath.Base(os.Args[0]),
	})

	c, err := NewCoreWithConfig(cfg)
	if err != nil {
		if logCloser != nil {
			_ = logCloser.Close()
		}
		return nil, err
	}
	c.LogCloser = logCloser
	c.LogLevel = level
	return c, nil
}

// NewCoreWithConfig 使用已加载的配置构建（不改动全局日志）
func NewCoreWithConfig(cfg *config.Config) (*Core, error) {
	if cfg == nil {
		return nil, fmt.Errorf("cfg 不能为空")
	}

	db, err := repository.NewDatabase(cfg.Storage.DBPath)
	if err != nil {
		return nil, err
	}

	c := &Core{Cfg: cfg, DB: db, Hub: eventbus.NewHub()}

	// Repos
	c.Repos.Skill = repository.NewSkillRepository(db.DB)
	c.Repos.SkillUsage = repository.NewSkillUsageRepository(db.DB)
	c.Repos.SyncRun = repository.NewSyncRunRepository(db.DB)

	// Clients
	c.Clients.WakaTime = wakatime.NewClient(&wakatime.Config{
		APIKey:   cfg.Upstream.APIKey,
		BaseURL:  cfg.Upstream.BaseURL,
		Timezone: cfg.Upstream.Timezone,
		Timeout:  time.Duration(cfg.Upstream.TimeoutSec) * time.Second,
	})
	if !c.Clients.WakaTime.IsConfigured() {
		slog.Warn("未配置上游 API Key，活动接口将返回错误")
	}

	catalog, err := cms.Open(context.Background(), cfg, db.DB)
	if err != nil {
		// CMS 不可用只影响同步，不阻断启动
		slog.Warn("初始化技能 CMS 失败，技能同步已禁用", "driver", cfg.CMS.Driver, "error", err)
		catalog = nil
	}
	c.Clients.Catalog = catalog

	loc := c.Clients.WakaTime.Location()

	// Services
	var syncCatalog service.SkillCatalog
	if catalog != nil {
		syncCatalog = catalog
	}
	c.Services.Sync = service.NewSkillSyncService(syncCatalog, service.NewSkillResolutionCache(), service.SkillSyncConfig{
		Enabled:    catalog != nil,
		RunTimeout: time.Duration(cfg.Sync.RunTimeoutSec) * time.Second,
		Location:   loc,
		Runs:       c.Repos.SyncRun,
		Publisher:  c.Hub,
	})
	c.Services.Activity = service.NewActivityService(c.Clients.WakaTime, c.Services.Sync, service.ActivityServiceConfig{
		TTL:        time.Duration(cfg.Cache.TTLSec) * time.Second,
		Thresholds: service.PresenceThresholdsFromMinutes(cfg.Presence.AvailableMin, cfg.Presence.AwayMin),
		Location:   loc,
		Publisher:  c.Hub,
	})

	slog.Info("核心依赖已就绪",
		"cms_driver", cfg.CMS.Driver,
		"sync_enabled", c.Services.Sync.Enabled(),
		"cache_ttl_sec", cfg.Cache.TTLSec,
	)
	return c, nil
}

// ApplyConfig 应用热更新的配置：仅同步开关与日志级别
// 上游、CMS 后端和缓存参数变更需要重启
func (c *Core) ApplyConfig(cfg *config.Config) {
	if c == nil || cfg == nil {
		return
	}
	if c.LogLevel != nil {
		c.LogLevel.Set(config.ParseLevel(cfg.App.LogLevel))
	}
	c.Services.Sync.SetEnabled(cfg.SyncEnabled() && c.Clients.Catalog != nil)
}

const syncDrainTimeout = 5 * time.Second

// Close 关闭核心依赖资源；在途的后台同步最多等待 5 秒
func (c *Core) Close() error {
	if c == nil {
		return nil
	}
	if c.Services.Sync != nil {
		ctx, cancel := context.WithTimeout(context.Background(), syncDrainTimeout)
		if !c.Services.Sync.WaitContext(ctx) {
			slog.Warn("技能同步未在退出前完成，下次刷新会重新同步")
		}
		cancel()
	}
	if c.Clients.Catalog != nil {
		_ = c.Clients.Catalog.Close()
	}
	var dbErr error
	if c.DB != nil {
		dbErr = c.DB.Close()
	}
	if c.LogCloser != nil {
		_ = c.LogCloser.Close()
	}
	return dbErr
}
