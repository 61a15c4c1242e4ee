package cms

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuqie6/codepulse/internal/pkg/config"
	"github.com/yuqie6/codepulse/internal/testutil"
)

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()

	cfg := config.Default()
	c, err := Open(ctx, cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, c, "http without token should disable sync")

	cfg.CMS.BaseURL = "http://cms.local"
	cfg.CMS.APIToken = "tok"
	c, err = Open(ctx, cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &HTTPCatalog{}, c)

	cfg = config.Default()
	cfg.CMS.Driver = "sqlite"
	c, err = Open(ctx, cfg, testutil.OpenTestDB(t))
	require.NoError(t, err)
	assert.IsType(t, &LocalCatalog{}, c)

	_, err = Open(ctx, cfg, nil)
	assert.Error(t, err)

	cfg.CMS.Driver = "ftp"
	cfg.CMS.APIToken = "tok"
	cfg.CMS.BaseURL = "http://x"
	_, err = Open(ctx, cfg, nil)
	assert.Error(t, err)

	cfg = config.Default()
	cfg.CMS.Driver = "sqlite"
	cfg.Sync.Disabled = true
	c, err = Open(ctx, cfg, testutil.OpenTestDB(t))
	require.NoError(t, err)
	assert.Nil(t, c)
}
