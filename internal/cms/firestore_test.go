package cms

import (
	"context"
	"errors"
	"os"
	"testing"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuqie6/codepulse/internal/model"
)

func getTestFirestore(t *testing.T) *FirestoreCatalog {
	t.Helper()

	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set, skipping integration test")
	}

	client, err := firestore.NewClient(context.Background(), "test-project")
	require.NoError(t, err)
	c := NewFirestoreCatalogWithClient(client)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestFirestoreCatalogRoundTrip(t *testing.T) {
	c := getTestFirestore(t)
	ctx := context.Background()

	id, err := c.AddSkill(ctx, "Elixir")
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = c.client.Collection(skillsCollection).Doc(id).Delete(ctx)
		_, _ = c.client.Collection(skillUsageCollection).Doc(id + "_2026-10-14").Delete(ctx)
	})

	refs, err := c.FindSkillByName(ctx, "elixir")
	require.NoError(t, err)
	require.NotEmpty(t, refs)
	assert.Equal(t, id, refs[0].ID)

	require.NoError(t, c.UpsertUsage(ctx, model.SkillUsage{SkillID: id, Date: "2026-10-14", Seconds: 42}))
	got, err := c.GetUsage(ctx, id, "2026-10-14")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(42), got.Seconds)
}

func TestFirestoreCatalogMissingSkillIs404(t *testing.T) {
	c := getTestFirestore(t)

	err := c.UpsertUsage(context.Background(), model.SkillUsage{SkillID: "does-not-exist", Date: "2026-10-14"})
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 404, se.Status)
}

func TestNewFirestoreCatalogRequiresProject(t *testing.T) {
	_, err := NewFirestoreCatalog(context.Background(), FirestoreConfig{})
	assert.Error(t, err)
}
