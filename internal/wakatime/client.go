package wakatime

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yuqie6/codepulse/internal/model"
)

const (
	defaultBaseURL    = "https://wakatime.com/api/v1"
	errorBodyMaxRunes = 200
)

// Client WakaTime 兼容的 summaries 接口客户端
type Client struct {
	apiKey   string
	baseURL  string
	timezone string
	client   *http.Client
}

// Config 配置
type Config struct {
	APIKey   string
	BaseURL  string
	Timezone string
	Timeout  time.Duration
}

// APIError 上游返回非 2xx
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	body := truncateRunes(strings.TrimSpace(e.Body), errorBodyMaxRunes)
	if body == "" {
		return fmt.Sprintf("上游接口错误: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("上游接口错误: HTTP %d: %s", e.StatusCode, body)
}

// NewClient 创建客户端
func NewClient(cfg *Config) *Client {
	if cfg == nil {
		cfg = &Config{}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		apiKey:   strings.TrimSpace(cfg.APIKey),
		baseURL:  baseURL,
		timezone: strings.TrimSpace(cfg.Timezone),
		client:   &http.Client{Timeout: timeout},
	}
}

// IsConfigured 检查是否已配置
func (c *Client) IsConfigured() bool {
	return c != nil && c.apiKey != ""
}

// Location 返回配置的时区，未配置或无效时使用本地时区
func (c *Client) Location() *time.Location {
	if c == nil || c.timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

type summariesResponse struct {
	Data json.RawMessage `json:"data"`
}

// FetchSummaries 拉取某一天（start=end=date）的汇总
func (c *Client) FetchSummaries(ctx context.Context, date string) (*model.SummaryPayload, error) {
	if !c.IsConfigured() {
		return nil, fmt.Errorf("上游 API Key 未配置")
	}

	q := url.Values{}
	q.Set("start", date)
	q.Set("end", date)
	if c.timezone != "" {
		q.Set("timezone", c.timezone)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/users/current/summaries?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}

	auth := base64.StdEncoding.EncodeToString([]byte(c.apiKey))
	httpReq.Header.Set("Authorization", "Basic "+auth)
	httpReq.Header.Set("Accept", "application/json")
	// 始终直连网络，不使用任何中间缓存
	httpReq.Header.Set("Cache-Control", "no-cache")
	httpReq.Header.Set("Pragma", "no-cache")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("发送请求失败: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Error("上游接口错误", "status", resp.StatusCode, "date", date)
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var parsed summariesResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("解析响应失败: %w", err)
	}

	// data 不是数组时按空数据处理，与字段级的宽松解析一致
	var days []json.RawMessage
	if err := json.Unmarshal(parsed.Data, &days); err != nil || len(days) == 0 {
		slog.Debug("上游返回空 data", "date", date)
		return &model.SummaryPayload{}, nil
	}

	payload := decodeDay(days[0])
	slog.Debug("上游汇总拉取成功",
		"date", date,
		"languages", len(payload.Languages),
		"total_seconds", payload.GrandTotal.TotalSeconds,
	)
	return payload, nil
}

// truncateRunes 按 rune 截断，避免切开多字节字符
func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
