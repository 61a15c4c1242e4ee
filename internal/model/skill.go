package model

// SkillUsage 推送到 CMS 的单条技能用量
type SkillUsage struct {
	SkillID string `json:"skill"`
	Date    string `json:"date"` // YYYY-MM-DD
	Seconds int64  `json:"seconds"`
}

// SkillRef CMS 中的技能记录引用
type SkillRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
