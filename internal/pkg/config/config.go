package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Presence PresenceConfig `mapstructure:"presence"`
	CMS      CMSConfig      `mapstructure:"cms"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Storage  StorageConfig  `mapstructure:"storage"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name     string `mapstructure:"name"`
	Version  string `mapstructure:"version"`
	LogLevel string `mapstructure:"log_level"`
	LogPath  string `mapstructure:"log_path"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	ListenAddr  string `mapstructure:"listen_addr"`
	AllowOrigin string `mapstructure:"allow_origin"`
}

// UpstreamConfig 上游统计服务（WakaTime 兼容）配置
type UpstreamConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	Timezone   string `mapstructure:"timezone"`
	TimeoutSec int    `mapstructure:"timeout_sec"`
}

// CacheConfig 快照缓存配置
type CacheConfig struct {
	TTLSec int `mapstructure:"ttl_sec"`
}

// PresenceConfig 在线状态阈值（与缓存时长相互独立）
type PresenceConfig struct {
	AvailableMin int `mapstructure:"available_min"`
	AwayMin      int `mapstructure:"away_min"`
}

// CMSConfig 技能 CMS 配置
type CMSConfig struct {
	Driver     string          `mapstructure:"driver"` // http | sqlite | firestore
	BaseURL    string          `mapstructure:"base_url"`
	APIToken   string          `mapstructure:"api_token"`
	TimeoutSec int             `mapstructure:"timeout_sec"`
	Firestore  FirestoreConfig `mapstructure:"firestore"`
}

// FirestoreConfig Firestore 后端配置
type FirestoreConfig struct {
	ProjectID       string `mapstructure:"project_id"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

// SyncConfig 技能同步配置
type SyncConfig struct {
	Disabled      bool `mapstructure:"disabled"`
	RunTimeoutSec int  `mapstructure:"run_timeout_sec"`
}

// StorageConfig 存储配置
type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// SyncEnabled 同步是否可用：未显式关闭，且 CMS 后端具备凭据
func (c *Config) SyncEnabled() bool {
	if c == nil || c.Sync.Disabled {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(c.CMS.Driver)) {
	case "sqlite":
		return true
	case "firestore":
		return strings.TrimSpace(c.CMS.Firestore.ProjectID) != ""
	default:
		return strings.TrimSpace(c.CMS.APIToken) != "" && strings.TrimSpace(c.CMS.BaseURL) != ""
	}
}

// Load 加载配置文件
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// 支持环境变量
	v.SetEnvPrefix("CODEPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok || errors.Is(err, fs.ErrNotExist) {
			slog.Warn("配置文件未找到，使用默认配置")
		} else {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	} else {
		slog.Info("加载配置文件", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// 处理环境变量占位符
	cfg.Upstream.APIKey = expandEnv(cfg.Upstream.APIKey)
	cfg.CMS.APIToken = expandEnv(cfg.CMS.APIToken)
	applyConventionalEnv(&cfg)

	cfg.Storage.DBPath = resolvePath(cfg.Storage.DBPath)

	return &cfg, nil
}

// Default 返回默认配置（用于首次启动写入 config.yaml）
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.name", "codepulse")
	v.SetDefault("app.version", "0.1.0")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_path", "")

	// Server
	v.SetDefault("server.listen_addr", "127.0.0.1:8787")
	v.SetDefault("server.allow_origin", "")

	// Upstream
	v.SetDefault("upstream.base_url", "https://wakatime.com/api/v1")
	v.SetDefault("upstream.api_key", "")
	v.SetDefault("upstream.timezone", "")
	v.SetDefault("upstream.timeout_sec", 30)

	// Cache / Presence
	v.SetDefault("cache.ttl_sec", 300)
	v.SetDefault("presence.available_min", 15)
	v.SetDefault("presence.away_min", 60)

	// CMS
	v.SetDefault("cms.driver", "http")
	v.SetDefault("cms.base_url", "")
	v.SetDefault("cms.api_token", "")
	v.SetDefault("cms.timeout_sec", 15)
	v.SetDefault("cms.firestore.project_id", "")
	v.SetDefault("cms.firestore.credentials_file", "")

	// Sync
	v.SetDefault("sync.disabled", false)
	v.SetDefault("sync.run_timeout_sec", 120)

	// Storage
	v.SetDefault("storage.db_path", "./data/codepulse.db")
}

// applyConventionalEnv 兼容常见的环境变量名（仅在配置为空时生效）
func applyConventionalEnv(cfg *Config) {
	if cfg.Upstream.APIKey == "" {
		cfg.Upstream.APIKey = strings.TrimSpace(os.Getenv("WAKATIME_API_KEY"))
	}
	if cfg.CMS.APIToken == "" {
		cfg.CMS.APIToken = strings.TrimSpace(os.Getenv("CMS_API_TOKEN"))
	}
	if v := strings.ToLower(strings.TrimSpace(os.Getenv("DISABLE_SKILL_SYNC"))); v == "1" || v == "true" || v == "yes" {
		cfg.Sync.Disabled = true
	}
}

// expandEnv 展开环境变量占位符 ${VAR}
func expandEnv(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		envVar := s[2 : len(s)-1]
		return os.Getenv(envVar)
	}
	return s
}

// resolvePath 解析相对路径为绝对路径
func resolvePath(path string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}

	exe, err := os.Executable()
	if err != nil {
		return path
	}

	exeDir := filepath.Dir(exe)
	return filepath.Join(exeDir, path)
}

// LoggerOptions 日志配置
type LoggerOptions struct {
	Level     string
	Path      string
	Component string
}

// ParseLevel 解析日志级别，未知值回退到 info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupLogger 根据配置设置全局日志；返回的 Closer 用于关闭日志文件
func SetupLogger(opts LoggerOptions) (io.Closer, *slog.LevelVar) {
	lv := new(slog.LevelVar)
	lv.Set(ParseLevel(opts.Level))

	var (
		w      io.Writer = os.Stdout
		closer io.Closer
	)
	if p := strings.TrimSpace(opts.Path); p != "" {
		p = resolvePath(p)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err == nil {
			if f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
				w = io.MultiWriter(os.Stdout, f)
				closer = f
			}
		}
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: lv})
	logger := slog.New(handler)
	if opts.Component != "" {
		logger = logger.With("component", opts.Component)
	}
	slog.SetDefault(logger)
	return closer, lv
}
