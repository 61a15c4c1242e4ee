package wakatime

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/yuqie6/codepulse/internal/model"
)

// decodeDay 宽松解析单日数据：字段类型不符时置零值，不整体失败
func decodeDay(raw json.RawMessage) *model.SummaryPayload {
	out := &model.SummaryPayload{}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return out
	}

	if r, ok := m["range"].(map[string]any); ok {
		out.Range = model.SummaryRange{
			Start:    toString(r["start"]),
			End:      toString(r["end"]),
			Date:     toString(r["date"]),
			Text:     toString(r["text"]),
			Timezone: toString(r["timezone"]),
		}
	}
	if g, ok := m["grand_total"].(map[string]any); ok {
		out.GrandTotal = model.GrandTotal{
			TotalSeconds: toFloat(g["total_seconds"]),
			Digital:      toString(g["digital"]),
			Decimal:      toString(g["decimal"]),
			Text:         toString(g["text"]),
			Hours:        toInt(g["hours"]),
			Minutes:      toInt(g["minutes"]),
		}
	}

	out.Categories = toEntries(m["categories"])
	out.Editors = toEntries(m["editors"])
	out.OperatingSystems = toEntries(m["operating_systems"])
	out.Languages = toEntries(m["languages"])
	return out
}

func toEntries(raw any) []model.UsageEntry {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]model.UsageEntry, 0, len(items))
	for _, it := range items {
		e, ok := it.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, model.UsageEntry{
			Name:         toString(e["name"]),
			TotalSeconds: toFloat(e["total_seconds"]),
			Digital:      toString(e["digital"]),
			Decimal:      toString(e["decimal"]),
			Text:         toString(e["text"]),
			Hours:        toInt(e["hours"]),
			Minutes:      toInt(e["minutes"]),
			Seconds:      toInt(e["seconds"]),
			Percent:      toFloat(e["percent"]),
		})
	}
	return out
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return ""
	}
}

// toFloat 非数字、NaN 与 ±Inf 一律视为 0（ParseFloat 会接受 "NaN"、"Infinity"）
func toFloat(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func toInt(v any) int {
	return int(toFloat(v))
}
