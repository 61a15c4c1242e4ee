package schema

import "time"

// SyncRun 一次技能同步的执行记录（仅用于排查，写入失败不影响同步）
type SyncRun struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	RunID      string    `gorm:"size:36;uniqueIndex;not null"`
	Trigger    string    `gorm:"size:16;index"`  // refresh | manual
	StartedAt  int64     `gorm:"index;not null"` // Unix ms
	FinishedAt int64     `gorm:"not null"`
	Total      int       `gorm:"not null;default:0"`
	Pushed     int       `gorm:"not null;default:0"`
	Skipped    int       `gorm:"not null;default:0"`
	Missing    int       `gorm:"not null;default:0"`
	Failed     int       `gorm:"not null;default:0"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (SyncRun) TableName() string {
	return "sync_runs"
}
