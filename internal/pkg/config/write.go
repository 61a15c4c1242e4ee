package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

func DefaultConfigPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("获取可执行文件路径失败: %w", err)
	}
	exeDir := filepath.Dir(exe)
	return filepath.Join(exeDir, "config", "config.yaml"), nil
}

func WriteFile(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("cfg 不能为空")
	}
	if path == "" {
		return fmt.Errorf("path 不能为空")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建配置目录失败: %w", err)
	}

	payload := map[string]any{
		"app": map[string]any{
			"name":      cfg.App.Name,
			"version":   cfg.App.Version,
			"log_level": cfg.App.LogLevel,
			"log_path":  cfg.App.LogPath,
		},
		"server": map[string]any{
			"listen_addr":  cfg.Server.ListenAddr,
			"allow_origin": cfg.Server.AllowOrigin,
		},
		"upstream": map[string]any{
			"base_url":    cfg.Upstream.BaseURL,
			"api_key":     cfg.Upstream.APIKey,
			"timezone":    cfg.Upstream.Timezone,
			"timeout_sec": cfg.Upstream.TimeoutSec,
		},
		"cache": map[string]any{
			"ttl_sec": cfg.Cache.TTLSec,
		},
		"presence": map[string]any{
			"available_min": cfg.Presence.AvailableMin,
			"away_min":      cfg.Presence.AwayMin,
		},
		"cms": map[string]any{
			"driver":      cfg.CMS.Driver,
			"base_url":    cfg.CMS.BaseURL,
			"api_token":   cfg.CMS.APIToken,
			"timeout_sec": cfg.CMS.TimeoutSec,
			"firestore": map[string]any{
				"project_id":       cfg.CMS.Firestore.ProjectID,
				"credentials_file": cfg.CMS.Firestore.CredentialsFile,
			},
		},
		"sync": map[string]any{
			"disabled":        cfg.Sync.Disabled,
			"run_timeout_sec": cfg.Sync.RunTimeoutSec,
		},
		"storage": map[string]any{
			"db_path": cfg.Storage.DBPath,
		},
	}

	b, err := yaml.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	// 包含密钥，仅当前用户可读
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}
	return nil
}
