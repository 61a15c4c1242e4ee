package service

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/yuqie6/codepulse/internal/model"
)

const (
	placeholderName  = "None"
	unknownTimezone  = "Unknown"
	zeroDigital      = "0:00"
	zeroDecimal      = "0.00"
	zeroDurationText = "0 secs"
)

// MergeSnapshot 将新拉取的数据与上一份快照对账，生成新快照
// 不会失败：缺失或异常字段以零值替代。Status 由调用方在读取时推导。
func MergeSnapshot(fresh *model.SummaryPayload, prev *model.ActivitySnapshot, now time.Time, loc *time.Location) *model.ActivitySnapshot {
	if fresh == nil {
		fresh = &model.SummaryPayload{}
	}

	out := &model.ActivitySnapshot{
		FetchedAt:  now,
		Range:      normalizeRange(fresh.Range, now, loc),
		GrandTotal: normalizeGrandTotal(fresh.GrandTotal),
		Categories: normalizeEntries(fresh.Categories),
		Editors:    normalizeEntries(fresh.Editors),
		Languages:  normalizeEntries(fresh.Languages),
	}
	out.TotalSeconds = snapshotTotal(out.GrandTotal, out.Categories)

	// 首次拉取视为有活动；之后仅当总时长严格增加才推进活动时间
	if prev == nil || out.TotalSeconds > prev.TotalSeconds {
		out.LastActivityAt = now
	} else {
		out.LastActivityAt = prev.LastActivityAt
	}

	var prevOS []model.UsageEntry
	if prev != nil {
		prevOS = prev.OperatingSystems
	}
	out.OperatingSystems = reconcileOperatingSystems(normalizeEntries(fresh.OperatingSystems), prevOS, now)

	out.Categories = withPlaceholder(out.Categories)
	out.Editors = withPlaceholder(out.Editors)
	out.OperatingSystems = withPlaceholder(out.OperatingSystems)
	out.Languages = withPlaceholder(out.Languages)
	return out
}

// snapshotTotal 优先使用 grand_total，缺失时退化为分类求和
func snapshotTotal(gt model.GrandTotal, categories []model.UsageEntry) float64 {
	if gt.TotalSeconds > 0 {
		return gt.TotalSeconds
	}
	var sum float64
	for _, c := range categories {
		sum += c.TotalSeconds
	}
	return finiteSeconds(sum)
}

// finiteSeconds 负数与非有限值（NaN、±Inf）归零，保证快照可以被 JSON 编码
func finiteSeconds(f float64) float64 {
	if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// reconcileOperatingSystems 按名称（区分大小写）继承 last_used，用量增加或首次出现时记为 now
func reconcileOperatingSystems(fresh, prev []model.UsageEntry, now time.Time) []model.UsageEntry {
	prevByName := make(map[string]model.UsageEntry, len(prev))
	for _, p := range prev {
		if p.Placeholder {
			continue
		}
		prevByName[p.Name] = p
	}

	for i := range fresh {
		old, seen := prevByName[fresh[i].Name]
		switch {
		case !seen, fresh[i].TotalSeconds > old.TotalSeconds, old.LastUsed == nil:
			t := now
			fresh[i].LastUsed = &t
		default:
			t := *old.LastUsed
			fresh[i].LastUsed = &t
		}
	}

	sort.SliceStable(fresh, func(i, j int) bool {
		a, b := fresh[i].LastUsed, fresh[j].LastUsed
		switch {
		case a == nil && b == nil:
			return fresh[i].Name < fresh[j].Name
		case a == nil:
			return false
		case b == nil:
			return true
		case !a.Equal(*b):
			return a.After(*b)
		default:
			return fresh[i].Name < fresh[j].Name
		}
	})
	return fresh
}

func normalizeEntries(in []model.UsageEntry) []model.UsageEntry {
	out := make([]model.UsageEntry, 0, len(in))
	for _, e := range in {
		e.TotalSeconds = finiteSeconds(e.TotalSeconds)
		e.Percent = finiteSeconds(e.Percent)
		if strings.TrimSpace(e.Digital) == "" {
			e.Digital = zeroDigital
		}
		e.LastUsed = nil
		e.Placeholder = false
		out = append(out, e)
	}
	return out
}

func withPlaceholder(in []model.UsageEntry) []model.UsageEntry {
	if len(in) > 0 {
		return in
	}
	return []model.UsageEntry{{
		Name:        placeholderName,
		Digital:     zeroDigital,
		Decimal:     zeroDecimal,
		Text:        zeroDurationText,
		Placeholder: true,
	}}
}

func normalizeGrandTotal(gt model.GrandTotal) model.GrandTotal {
	gt.TotalSeconds = finiteSeconds(gt.TotalSeconds)
	if strings.TrimSpace(gt.Digital) == "" {
		gt.Digital = zeroDigital
	}
	if strings.TrimSpace(gt.Decimal) == "" {
		gt.Decimal = zeroDecimal
	}
	if strings.TrimSpace(gt.Text) == "" {
		gt.Text = zeroDurationText
	}
	return gt
}

func normalizeRange(r model.SummaryRange, now time.Time, loc *time.Location) model.SummaryRange {
	start, end := dayBounds(now, loc)
	if strings.TrimSpace(r.Date) == "" {
		r.Date = DateIn(now, loc)
	}
	if strings.TrimSpace(r.Start) == "" {
		r.Start = start.Format(time.RFC3339)
	}
	if strings.TrimSpace(r.End) == "" {
		r.End = end.Format(time.RFC3339)
	}
	if strings.TrimSpace(r.Text) == "" {
		r.Text = "Today"
	}
	if strings.TrimSpace(r.Timezone) == "" {
		r.Timezone = unknownTimezone
	}
	return r
}
