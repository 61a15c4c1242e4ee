package bootstrap

import (
	"testing"
	"time"

	"github.com/yuqie6/codepulse/internal/pkg/config"
)

func TestNewCoreWithConfigSQLiteCatalog(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.DBPath = ":memory:"
	cfg.CMS.Driver = "sqlite"

	c, err := NewCoreWithConfig(cfg)
	if err != nil {
		t.Fatalf("NewCoreWithConfig error: %v", err)
	}
	defer c.Close()

	if c.Clients.Catalog == nil {
		t.Fatalf("sqlite catalog should be opened")
	}
	if !c.Services.Sync.Enabled() {
		t.Fatalf("sync should be enabled for sqlite driver")
	}

	off := *cfg
	off.Sync.Disabled = true
	c.ApplyConfig(&off)
	if c.Services.Sync.Enabled() {
		t.Fatalf("sync should be disabled after reload")
	}
	c.ApplyConfig(cfg)
	if !c.Services.Sync.Enabled() {
		t.Fatalf("sync should be re-enabled after reload")
	}
}

func TestNewCoreWithConfigWithoutCredentials(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.DBPath = ":memory:"

	c, err := NewCoreWithConfig(cfg)
	if err != nil {
		t.Fatalf("NewCoreWithConfig error: %v", err)
	}
	defer c.Close()

	if c.Clients.Catalog != nil || c.Services.Sync.Enabled() {
		t.Fatalf("sync should stay disabled without CMS token")
	}
	if c.Clients.WakaTime.IsConfigured() {
		t.Fatalf("upstream should not be configured without api key")
	}
	if c.Services.Activity.Peek(time.Now()) != nil {
		t.Fatalf("cache should start empty")
	}
}
