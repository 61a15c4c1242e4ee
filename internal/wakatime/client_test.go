package wakatime

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBody = `{
  "data": [{
    "range": {"start": "2026-10-14T00:00:00Z", "end": "2026-10-14T23:59:59Z", "date": "2026-10-14", "text": "Today", "timezone": "UTC"},
    "grand_total": {"total_seconds": 3600, "digital": "1:00", "decimal": "1.00", "text": "1 hr", "hours": 1, "minutes": 0},
    "categories": [{"name": "Coding", "total_seconds": 3600, "digital": "1:00", "percent": 100}],
    "editors": [{"name": "VS Code", "total_seconds": 3600}],
    "operating_systems": [{"name": "Linux", "total_seconds": 3600}],
    "languages": [{"name": "Go", "total_seconds": 2400.5, "percent": 66.7}, {"name": "Other", "total_seconds": "1199.5"}]
  }]
}`

func TestFetchSummariesSendsAuthAndParses(t *testing.T) {
	var gotAuth, gotCache, gotStart, gotEnd, gotTZ string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/current/summaries", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotCache = r.Header.Get("Cache-Control")
		gotStart = r.URL.Query().Get("start")
		gotEnd = r.URL.Query().Get("end")
		gotTZ = r.URL.Query().Get("timezone")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleBody))
	}))
	defer srv.Close()

	c := NewClient(&Config{APIKey: "waka_key", BaseURL: srv.URL + "/", Timezone: "UTC"})
	payload, err := c.FetchSummaries(context.Background(), "2026-10-14")
	require.NoError(t, err)

	assert.Equal(t, "Basic "+base64.StdEncoding.EncodeToString([]byte("waka_key")), gotAuth)
	assert.Equal(t, "no-cache", gotCache)
	assert.Equal(t, "2026-10-14", gotStart)
	assert.Equal(t, "2026-10-14", gotEnd)
	assert.Equal(t, "UTC", gotTZ)

	assert.Equal(t, 3600.0, payload.GrandTotal.TotalSeconds)
	assert.Equal(t, "Today", payload.Range.Text)
	require.Len(t, payload.Languages, 2)
	assert.Equal(t, 2400.5, payload.Languages[0].TotalSeconds)
	assert.Equal(t, 1199.5, payload.Languages[1].TotalSeconds, "numeric strings are accepted")
	require.Len(t, payload.OperatingSystems, 1)
	assert.Nil(t, payload.OperatingSystems[0].LastUsed)
}

func TestFetchSummariesNon2xxReturnsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"bad key"}`))
	}))
	defer srv.Close()

	c := NewClient(&Config{APIKey: "x", BaseURL: srv.URL})
	_, err := c.FetchSummaries(context.Background(), "2026-10-14")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, apiErr.Error(), "401")
}

func TestFetchSummariesEmptyData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": []}`))
	}))
	defer srv.Close()

	c := NewClient(&Config{APIKey: "x", BaseURL: srv.URL})
	payload, err := c.FetchSummaries(context.Background(), "2026-10-14")
	require.NoError(t, err)
	assert.Empty(t, payload.Languages)
}

func TestFetchSummariesNonArrayDataIsEmpty(t *testing.T) {
	for _, body := range []string{`{"data": {}}`, `{"data": "x"}`, `{"data": null}`, `{}`} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))

		c := NewClient(&Config{APIKey: "x", BaseURL: srv.URL})
		payload, err := c.FetchSummaries(context.Background(), "2026-10-14")
		srv.Close()

		require.NoError(t, err, body)
		require.NotNil(t, payload, body)
		assert.Empty(t, payload.Languages, body)
	}
}

func TestAPIErrorTruncatesBodyByRune(t *testing.T) {
	e := &APIError{StatusCode: http.StatusBadGateway, Body: strings.Repeat("码", 300)}
	msg := e.Error()
	assert.True(t, utf8.ValidString(msg))
	assert.Equal(t, 200, strings.Count(msg, "码"))
	assert.True(t, strings.HasSuffix(msg, "..."))

	short := &APIError{StatusCode: http.StatusBadGateway, Body: "网关错误"}
	assert.Equal(t, "上游接口错误: HTTP 502: 网关错误", short.Error())
}

func TestFetchSummariesInvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	}))
	defer srv.Close()

	c := NewClient(&Config{APIKey: "x", BaseURL: srv.URL})
	_, err := c.FetchSummaries(context.Background(), "2026-10-14")
	assert.Error(t, err)
}

func TestFetchSummariesRequiresKey(t *testing.T) {
	c := NewClient(&Config{})
	assert.False(t, c.IsConfigured())
	_, err := c.FetchSummaries(context.Background(), "2026-10-14")
	assert.Error(t, err)
}

func TestDecodeDayMalformedFieldsBecomeZero(t *testing.T) {
	p := decodeDay([]byte(`{"grand_total": "nope", "languages": [{"name": 5, "total_seconds": {}}, "junk"], "editors": "x"}`))
	assert.Equal(t, 0.0, p.GrandTotal.TotalSeconds)
	require.Len(t, p.Languages, 1)
	assert.Equal(t, "5", p.Languages[0].Name)
	assert.Equal(t, 0.0, p.Languages[0].TotalSeconds)
	assert.Nil(t, p.Editors)
}

func TestDecodeDayNonFiniteNumbersBecomeZero(t *testing.T) {
	p := decodeDay([]byte(`{"grand_total": {"total_seconds": "NaN", "hours": "Infinity"},
		"languages": [{"name": "Go", "total_seconds": "Infinity", "percent": "-Inf"}, {"name": "Rust", "total_seconds": " +Inf "}]}`))
	assert.Equal(t, 0.0, p.GrandTotal.TotalSeconds)
	assert.Equal(t, 0, p.GrandTotal.Hours)
	require.Len(t, p.Languages, 2)
	for _, l := range p.Languages {
		assert.Equal(t, 0.0, l.TotalSeconds, l.Name)
		assert.Equal(t, 0.0, l.Percent, l.Name)
	}
}

func TestLocationFallsBackToLocal(t *testing.T) {
	assert.Equal(t, time.Local, NewClient(&Config{Timezone: "Not/AZone"}).Location())
	assert.Equal(t, time.Local, NewClient(&Config{}).Location())
	assert.Equal(t, "UTC", NewClient(&Config{Timezone: "UTC"}).Location().String())
}
