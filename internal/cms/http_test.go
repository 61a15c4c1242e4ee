package cms

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuqie6/codepulse/internal/model"
)

func newTestHTTPCatalog(t *testing.T, h http.HandlerFunc) *HTTPCatalog {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewHTTPCatalog(HTTPConfig{BaseURL: srv.URL + "/", APIToken: "tok"})
	require.NoError(t, err)
	return c
}

func TestHTTPCatalogFindSkillByName(t *testing.T) {
	c := newTestHTTPCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/skills", r.URL.Path)
		assert.Equal(t, "TypeScript", r.URL.Query().Get("filters[name][$eqi]"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"data":[{"id":7,"name":"TypeScript"},{"id":"abc","attributes":{"name":"typescript"}},{"name":"no id"}]}`)
	})

	refs, err := c.FindSkillByName(context.Background(), "TypeScript")
	require.NoError(t, err)
	assert.Equal(t, []model.SkillRef{
		{ID: "7", Name: "TypeScript"},
		{ID: "abc", Name: "typescript"},
	}, refs)
}

func TestHTTPCatalogFindEmpty(t *testing.T) {
	c := newTestHTTPCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":[]}`)
	})
	refs, err := c.FindSkillByName(context.Background(), "Zig")
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestHTTPCatalogUpsertUsage(t *testing.T) {
	var got map[string]model.SkillUsage
	c := newTestHTTPCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/skill-usages/upsert", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	})

	err := c.UpsertUsage(context.Background(), model.SkillUsage{SkillID: "7", Date: "2026-10-14", Seconds: 120})
	require.NoError(t, err)
	assert.Equal(t, model.SkillUsage{SkillID: "7", Date: "2026-10-14", Seconds: 120}, got["data"])
}

func TestHTTPCatalogStatusError(t *testing.T) {
	c := newTestHTTPCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"message":"Not Found"}}`)
	})

	err := c.UpsertUsage(context.Background(), model.SkillUsage{SkillID: "1", Date: "2026-10-14"})
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 404, se.HTTPStatus())
	assert.JSONEq(t, `{"error":{"message":"Not Found"}}`, string(se.ResponseBody()))
}

func TestNewHTTPCatalogValidates(t *testing.T) {
	_, err := NewHTTPCatalog(HTTPConfig{APIToken: "tok"})
	assert.Error(t, err)
	_, err = NewHTTPCatalog(HTTPConfig{BaseURL: "http://cms"})
	assert.Error(t, err)
}
