package model

import "time"

// PresenceStatus 在线状态（由最近一次活动时间推导）
type PresenceStatus string

const (
	StatusAvailable PresenceStatus = "available"
	StatusAway      PresenceStatus = "away"
	StatusBusy      PresenceStatus = "busy"
)

// UsageEntry 单个分类条目（编辑器 / 语言 / 系统 / 分类）
// 展示字段原样透传上游，不在本地重算。
type UsageEntry struct {
	Name         string     `json:"name"`
	TotalSeconds float64    `json:"total_seconds"`
	Digital      string     `json:"digital"`
	Decimal      string     `json:"decimal"`
	Text         string     `json:"text"`
	Hours        int        `json:"hours"`
	Minutes      int        `json:"minutes"`
	Seconds      int        `json:"seconds"`
	Percent      float64    `json:"percent"`
	LastUsed     *time.Time `json:"last_used,omitempty"` // 仅 operating_systems 使用
	Placeholder  bool       `json:"-"`                   // 上游该分类为空时的占位条目
}

// SummaryRange 上游统计窗口
type SummaryRange struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	Date     string `json:"date"`
	Text     string `json:"text"`
	Timezone string `json:"timezone"`
}

// GrandTotal 当日总计
type GrandTotal struct {
	TotalSeconds float64 `json:"total_seconds"`
	Digital      string  `json:"digital"`
	Decimal      string  `json:"decimal"`
	Text         string  `json:"text"`
	Hours        int     `json:"hours"`
	Minutes      int     `json:"minutes"`
}

// SummaryPayload 上游 summaries 接口 data[] 中的单日数据
type SummaryPayload struct {
	Range            SummaryRange `json:"range"`
	GrandTotal       GrandTotal   `json:"grand_total"`
	Categories       []UsageEntry `json:"categories"`
	Editors          []UsageEntry `json:"editors"`
	OperatingSystems []UsageEntry `json:"operating_systems"`
	Languages        []UsageEntry `json:"languages"`
}

// ActivitySnapshot 进程内缓存的活动快照
// FetchedAt 是缓存时钟，LastActivityAt 是在线状态时钟，两者不能混用。
type ActivitySnapshot struct {
	FetchedAt        time.Time
	LastActivityAt   time.Time
	TotalSeconds     float64
	Status           PresenceStatus
	Range            SummaryRange
	GrandTotal       GrandTotal
	Categories       []UsageEntry
	Editors          []UsageEntry
	OperatingSystems []UsageEntry
	Languages        []UsageEntry
}

// Clone 深拷贝快照，调用方修改副本不会影响缓存槽位
func (s *ActivitySnapshot) Clone() *ActivitySnapshot {
	if s == nil {
		return nil
	}
	out := *s
	out.Categories = cloneEntries(s.Categories)
	out.Editors = cloneEntries(s.Editors)
	out.OperatingSystems = cloneEntries(s.OperatingSystems)
	out.Languages = cloneEntries(s.Languages)
	return &out
}

func cloneEntries(in []UsageEntry) []UsageEntry {
	if in == nil {
		return nil
	}
	out := make([]UsageEntry, len(in))
	copy(out, in)
	for i := range out {
		if in[i].LastUsed != nil {
			t := *in[i].LastUsed
			out[i].LastUsed = &t
		}
	}
	return out
}
