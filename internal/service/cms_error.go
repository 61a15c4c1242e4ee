package service

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// CMSErrorKind CMS 响应错误分类
type CMSErrorKind int

const (
	CMSErrorUnknown CMSErrorKind = iota
	CMSErrorNotFound
	CMSErrorTransient
)

const (
	cmsMessageMaxRunes = 200
	unknownCMSMessage  = "unknown error"
)

func (k CMSErrorKind) String() string {
	switch k {
	case CMSErrorNotFound:
		return "not_found"
	case CMSErrorTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// ClassifyCMSError 根据状态码与响应体分类，并提取可读的错误信息
// 提取顺序：JSON 字符串 > error.message > error(字符串) > message > 截断原文 > "unknown error"
func ClassifyCMSError(status int, body []byte) (CMSErrorKind, string) {
	return classifyStatus(status), extractCMSMessage(body)
}

func classifyStatus(status int) CMSErrorKind {
	switch {
	case status == http.StatusNotFound:
		return CMSErrorNotFound
	case status == http.StatusRequestTimeout,
		status == http.StatusTooEarly,
		status == http.StatusTooManyRequests,
		status >= 500 && status <= 599:
		return CMSErrorTransient
	default:
		return CMSErrorUnknown
	}
}

func extractCMSMessage(body []byte) string {
	raw := strings.TrimSpace(string(body))
	if raw == "" {
		return unknownCMSMessage
	}

	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
		switch v := parsed.(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return truncateRunes(s, cmsMessageMaxRunes)
			}
		case map[string]any:
			if msg := messageFromObject(v); msg != "" {
				return truncateRunes(msg, cmsMessageMaxRunes)
			}
		}
	}
	return truncateRunes(raw, cmsMessageMaxRunes)
}

func messageFromObject(obj map[string]any) string {
	switch e := obj["error"].(type) {
	case map[string]any:
		if s, ok := e["message"].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	case string:
		if s := strings.TrimSpace(e); s != "" {
			return s
		}
	}
	if s, ok := obj["message"].(string); ok && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s)
	}
	return ""
}

// classifyErr 对任意错误分类；非 CMS 状态错误（网络异常等）视为 Unknown
func classifyErr(err error) (CMSErrorKind, string) {
	var sc statusCoder
	if errors.As(err, &sc) {
		return ClassifyCMSError(sc.HTTPStatus(), sc.ResponseBody())
	}
	if err == nil {
		return CMSErrorUnknown, unknownCMSMessage
	}
	return CMSErrorUnknown, truncateRunes(err.Error(), cmsMessageMaxRunes)
}
