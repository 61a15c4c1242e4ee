package cms

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yuqie6/codepulse/internal/model"
	"github.com/yuqie6/codepulse/internal/pkg/config"
	"github.com/yuqie6/codepulse/internal/repository"
	"gorm.io/gorm"
)

const (
	DriverHTTP      = "http"
	DriverSQLite    = "sqlite"
	DriverFirestore = "firestore"
)

// Catalog 技能 CMS 后端
type Catalog interface {
	FindSkillByName(ctx context.Context, name string) ([]model.SkillRef, error)
	UpsertUsage(ctx context.Context, usage model.SkillUsage) error
	Close() error
}

// Open 按配置创建 CMS 后端；同步未启用时返回 nil, nil
func Open(ctx context.Context, cfg *config.Config, db *gorm.DB) (Catalog, error) {
	if cfg == nil || !cfg.SyncEnabled() {
		return nil, nil
	}

	switch driver := strings.ToLower(strings.TrimSpace(cfg.CMS.Driver)); driver {
	case DriverSQLite:
		if db == nil {
			return nil, fmt.Errorf("sqlite CMS 需要数据库连接")
		}
		return NewLocalCatalog(repository.NewSkillRepository(db), repository.NewSkillUsageRepository(db)), nil
	case DriverFirestore:
		c, err := NewFirestoreCatalog(ctx, FirestoreConfig{
			ProjectID:       cfg.CMS.Firestore.ProjectID,
			CredentialsFile: cfg.CMS.Firestore.CredentialsFile,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	case DriverHTTP, "":
		c, err := NewHTTPCatalog(HTTPConfig{
			BaseURL:  cfg.CMS.BaseURL,
			APIToken: cfg.CMS.APIToken,
			Timeout:  time.Duration(cfg.CMS.TimeoutSec) * time.Second,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("未知的 CMS driver: %s", driver)
	}
}
