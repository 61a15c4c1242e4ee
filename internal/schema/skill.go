package schema

import (
	"strings"
	"time"
)

// Skill 本地 CMS 的技能记录（sqlite 后端）
// 数据量级：百级
type Skill struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Name      string    `gorm:"size:100;not null"`                // 显示名: Go, TypeScript
	NameLower string    `gorm:"size:100;not null;uniqueIndex"`    // 大小写无关匹配用
	Category  string    `gorm:"size:50;index;default:'language'"` // language, framework, tool
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Skill) TableName() string {
	return "skills"
}

// NewSkill 创建技能记录
func NewSkill(name, category string) *Skill {
	name = strings.TrimSpace(name)
	if category == "" {
		category = "language"
	}
	return &Skill{
		Name:      name,
		NameLower: strings.ToLower(name),
		Category:  category,
	}
}
