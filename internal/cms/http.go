package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yuqie6/codepulse/internal/model"
)

const maxResponseBytes = 1 << 20

// HTTPConfig REST CMS 配置
type HTTPConfig struct {
	BaseURL  string
	APIToken string
	Timeout  time.Duration
}

// HTTPCatalog REST 集合接口的技能 CMS
type HTTPCatalog struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewHTTPCatalog(cfg HTTPConfig) (*HTTPCatalog, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("CMS base_url 不能为空")
	}
	if strings.TrimSpace(cfg.APIToken) == "" {
		return nil, fmt.Errorf("CMS api_token 不能为空")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPCatalog{
		baseURL: base,
		token:   strings.TrimSpace(cfg.APIToken),
		client:  &http.Client{Timeout: timeout},
	}, nil
}

type skillListResponse struct {
	Data []struct {
		ID         json.RawMessage `json:"id"`
		Name       string          `json:"name"`
		Attributes struct {
			Name string `json:"name"`
		} `json:"attributes"`
	} `json:"data"`
}

// FindSkillByName 按名称做大小写无关精确匹配
func (c *HTTPCatalog) FindSkillByName(ctx context.Context, name string) ([]model.SkillRef, error) {
	q := url.Values{}
	q.Set("filters[name][$eqi]", name)
	endpoint := c.baseURL + "/api/skills?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("创建 CMS 请求失败: %w", err)
	}
	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var resp skillListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("解析 CMS 响应失败: %w", err)
	}

	refs := make([]model.SkillRef, 0, len(resp.Data))
	for _, d := range resp.Data {
		id := rawID(d.ID)
		if id == "" {
			continue
		}
		n := d.Name
		if n == "" {
			n = d.Attributes.Name
		}
		refs = append(refs, model.SkillRef{ID: id, Name: n})
	}
	return refs, nil
}

// UpsertUsage 推送单日用量；成功时响应体可以为空
func (c *HTTPCatalog) UpsertUsage(ctx context.Context, usage model.SkillUsage) error {
	payload, err := json.Marshal(map[string]any{"data": usage})
	if err != nil {
		return fmt.Errorf("序列化技能用量失败: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/skill-usages/upsert", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("创建 CMS 请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	_, err = c.do(req)
	return err
}

func (c *HTTPCatalog) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

// do 发送请求并完整读取响应体；非 2xx 返回 *StatusError
func (c *HTTPCatalog) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求 CMS 失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("读取 CMS 响应失败: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Status: resp.StatusCode, Body: body}
	}
	return body, nil
}

// rawID 兼容数字与字符串形式的 id
func rawID(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return ""
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return strings.TrimSpace(str)
	}
	return s
}
