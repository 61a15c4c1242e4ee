package service

import "time"

const dateLayout = "2006-01-02"

// DateIn 返回 t 在 loc 时区下的 YYYY-MM-DD；loc 为空时使用本地时区
func DateIn(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(dateLayout)
}

// dayBounds 返回 t 所在自然日的起止时刻（闭区间，精确到秒）
func dayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.Local
	}
	lt := t.In(loc)
	start := time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1).Add(-time.Second)
	return start, end
}
