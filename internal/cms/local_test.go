package cms

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuqie6/codepulse/internal/model"
	"github.com/yuqie6/codepulse/internal/repository"
	"github.com/yuqie6/codepulse/internal/schema"
	"github.com/yuqie6/codepulse/internal/testutil"
)

func TestLocalCatalogRoundTrip(t *testing.T) {
	db := testutil.OpenTestDB(t)
	skills := repository.NewSkillRepository(db)
	usages := repository.NewSkillUsageRepository(db)
	c := NewLocalCatalog(skills, usages)
	ctx := context.Background()

	go1 := schema.NewSkill("Go", "language")
	require.NoError(t, skills.Upsert(ctx, go1))

	refs, err := c.FindSkillByName(ctx, "  GO ")
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, strconv.FormatInt(go1.ID, 10), refs[0].ID)

	require.NoError(t, c.UpsertUsage(ctx, model.SkillUsage{SkillID: refs[0].ID, Date: "2026-10-14", Seconds: 60}))
	require.NoError(t, c.UpsertUsage(ctx, model.SkillUsage{SkillID: refs[0].ID, Date: "2026-10-14", Seconds: 90}))

	stats, err := usages.ListByDate(ctx, "2026-10-14")
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, int64(90), stats[0].Seconds)
	assert.Equal(t, "Go", stats[0].Name)
}

func TestLocalCatalogUnknownSkillIs404(t *testing.T) {
	db := testutil.OpenTestDB(t)
	c := NewLocalCatalog(repository.NewSkillRepository(db), repository.NewSkillUsageRepository(db))

	for _, id := range []string{"999", "not-a-number"} {
		err := c.UpsertUsage(context.Background(), model.SkillUsage{SkillID: id, Date: "2026-10-14", Seconds: 1})
		var se *StatusError
		require.True(t, errors.As(err, &se), "id=%s err=%v", id, err)
		assert.Equal(t, 404, se.Status)
	}
}
