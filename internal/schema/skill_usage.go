package schema

import "time"

// SkillUsage 某技能在某天的累计用量（秒），按 (skill_id, date) 幂等覆盖
type SkillUsage struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	SkillID   int64     `gorm:"not null;uniqueIndex:uniq_skill_usage_day,priority:1"`
	Date      string    `gorm:"size:10;not null;index;uniqueIndex:uniq_skill_usage_day,priority:2"` // YYYY-MM-DD
	Seconds   int64     `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (SkillUsage) TableName() string {
	return "skill_usages"
}
