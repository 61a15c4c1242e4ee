package repository

import (
	"fmt"
	"time"
)

// DayRange 将 YYYY-MM-DD 解析为 loc 下该日的毫秒区间 [start, end]（闭区间）
// loc 为空时使用本地时区。按日历日计算，夏令时切换日不一定是 24 小时。
func DayRange(date string, loc *time.Location) (startMs int64, endMs int64, err error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return 0, 0, fmt.Errorf("解析日期失败: %w", err)
	}
	next := time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, loc)
	return t.UnixMilli(), next.UnixMilli() - 1, nil
}
