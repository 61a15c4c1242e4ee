package service

import (
	"time"

	"github.com/yuqie6/codepulse/internal/model"
)

const (
	DefaultAvailableWithin = 15 * time.Minute
	DefaultAwayWithin      = 60 * time.Minute
)

// PresenceThresholds 在线状态阈值，闭区间归入较低档
type PresenceThresholds struct {
	Available time.Duration
	Away      time.Duration
}

// DefaultPresenceThresholds 15 分钟内 available，60 分钟内 away
func DefaultPresenceThresholds() PresenceThresholds {
	return PresenceThresholds{Available: DefaultAvailableWithin, Away: DefaultAwayWithin}
}

// PresenceThresholdsFromMinutes 从配置分钟数构建，非正值回退默认
func PresenceThresholdsFromMinutes(availableMin, awayMin int) PresenceThresholds {
	return PresenceThresholds{
		Available: time.Duration(availableMin) * time.Minute,
		Away:      time.Duration(awayMin) * time.Minute,
	}.normalized()
}

func (t PresenceThresholds) normalized() PresenceThresholds {
	if t.Available <= 0 {
		t.Available = DefaultAvailableWithin
	}
	if t.Away <= 0 {
		t.Away = DefaultAwayWithin
	}
	if t.Away < t.Available {
		t.Away = t.Available
	}
	return t
}

// ClassifyStatus 根据距上次活动的时长推导在线状态
func ClassifyStatus(elapsed time.Duration, th PresenceThresholds) model.PresenceStatus {
	th = th.normalized()
	switch {
	case elapsed <= th.Available:
		return model.StatusAvailable
	case elapsed <= th.Away:
		return model.StatusAway
	default:
		return model.StatusBusy
	}
}
