package dto

import "github.com/yuqie6/codepulse/internal/model"

// 注意：本包承载对外 HTTP 契约，字段名与线上客户端保持一致。

type ActivityResponseDTO struct {
	CachedAt string          `json:"cached_at"`
	Data     ActivityDataDTO `json:"data"`
	Status   string          `json:"status"`
}

type ActivityDataDTO struct {
	Range            model.SummaryRange `json:"range"`
	Editors          []model.UsageEntry `json:"editors"`
	OperatingSystems []model.UsageEntry `json:"operating_systems"`
	Categories       []model.UsageEntry `json:"categories"`
	Languages        []model.UsageEntry `json:"languages"`
	GrandTotal       model.GrandTotal   `json:"grand_total"`
}

type ErrorDTO struct {
	Error string `json:"error"`
}

type HealthDTO struct {
	OK        bool   `json:"ok"`
	Name      string `json:"name"`
	Version   string `json:"version"`
	StartedAt string `json:"started_at"`
	CachedAt  string `json:"cached_at,omitempty"`
	Status    string `json:"status,omitempty"`
}
