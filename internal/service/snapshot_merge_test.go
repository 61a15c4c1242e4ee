package service

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/yuqie6/codepulse/internal/model"
)

func payloadWithTotal(total float64, oses ...model.UsageEntry) *model.SummaryPayload {
	return &model.SummaryPayload{
		Range:            model.SummaryRange{Date: "2026-10-14", Timezone: "UTC"},
		GrandTotal:       model.GrandTotal{TotalSeconds: total, Digital: "1:00"},
		Categories:       []model.UsageEntry{{Name: "Coding", TotalSeconds: total}},
		Editors:          []model.UsageEntry{{Name: "VS Code", TotalSeconds: total}},
		OperatingSystems: oses,
		Languages:        []model.UsageEntry{{Name: "Go", TotalSeconds: total}},
	}
}

func findEntry(entries []model.UsageEntry, name string) *model.UsageEntry {
	for i := range entries {
		if entries[i].Name == name {
			return &entries[i]
		}
	}
	return nil
}

func TestMergeSnapshotFirstFetchCountsAsActivity(t *testing.T) {
	now := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)
	got := MergeSnapshot(payloadWithTotal(3600), nil, now, time.UTC)

	if !got.FetchedAt.Equal(now) || !got.LastActivityAt.Equal(now) {
		t.Fatalf("fetched=%v activity=%v, want both %v", got.FetchedAt, got.LastActivityAt, now)
	}
	if got.TotalSeconds != 3600 {
		t.Fatalf("total=%v, want 3600", got.TotalSeconds)
	}
	if got.Status != "" {
		t.Fatalf("status should be left empty by merge, got %q", got.Status)
	}
}

func TestMergeSnapshotActivityMonotonic(t *testing.T) {
	t0 := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)
	t1 := t0.Add(10 * time.Minute)

	prev := MergeSnapshot(payloadWithTotal(3600), nil, t0, time.UTC)

	same := MergeSnapshot(payloadWithTotal(3600), prev, t1, time.UTC)
	if !same.LastActivityAt.Equal(t0) {
		t.Fatalf("unchanged total: activity=%v, want %v", same.LastActivityAt, t0)
	}

	less := MergeSnapshot(payloadWithTotal(1200), prev, t1, time.UTC)
	if !less.LastActivityAt.Equal(t0) {
		t.Fatalf("smaller total: activity=%v, want %v", less.LastActivityAt, t0)
	}

	more := MergeSnapshot(payloadWithTotal(3601), prev, t1, time.UTC)
	if !more.LastActivityAt.Equal(t1) {
		t.Fatalf("bigger total: activity=%v, want %v", more.LastActivityAt, t1)
	}
}

func TestMergeSnapshotTotalFallsBackToCategories(t *testing.T) {
	now := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)
	p := &model.SummaryPayload{
		Categories: []model.UsageEntry{
			{Name: "Coding", TotalSeconds: 100},
			{Name: "Debugging", TotalSeconds: 50},
		},
	}
	got := MergeSnapshot(p, nil, now, time.UTC)
	if got.TotalSeconds != 150 {
		t.Fatalf("total=%v, want 150", got.TotalSeconds)
	}
}

func TestMergeSnapshotOSLastUsed(t *testing.T) {
	t0 := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)
	t1 := t0.Add(5 * time.Minute)

	prev := MergeSnapshot(payloadWithTotal(300,
		model.UsageEntry{Name: "Linux", TotalSeconds: 200},
		model.UsageEntry{Name: "Mac", TotalSeconds: 100},
	), nil, t0, time.UTC)

	got := MergeSnapshot(payloadWithTotal(400,
		model.UsageEntry{Name: "Linux", TotalSeconds: 200},
		model.UsageEntry{Name: "Mac", TotalSeconds: 150},
		model.UsageEntry{Name: "Windows", TotalSeconds: 50},
	), prev, t1, time.UTC)

	linux := findEntry(got.OperatingSystems, "Linux")
	if linux == nil || linux.LastUsed == nil || !linux.LastUsed.Equal(t0) {
		t.Fatalf("linux lastUsed=%v, want carried %v", linux, t0)
	}
	mac := findEntry(got.OperatingSystems, "Mac")
	if mac == nil || mac.LastUsed == nil || !mac.LastUsed.Equal(t1) {
		t.Fatalf("mac lastUsed=%v, want %v", mac, t1)
	}
	win := findEntry(got.OperatingSystems, "Windows")
	if win == nil || win.LastUsed == nil || !win.LastUsed.Equal(t1) {
		t.Fatalf("windows lastUsed=%v, want %v", win, t1)
	}

	// 按 last_used 倒序，相同时按名称
	wantOrder := []string{"Mac", "Windows", "Linux"}
	for i, name := range wantOrder {
		if got.OperatingSystems[i].Name != name {
			t.Fatalf("order[%d]=%q, want %q (all=%v)", i, got.OperatingSystems[i].Name, name, got.OperatingSystems)
		}
	}
}

func TestMergeSnapshotOSMatchIsCaseSensitive(t *testing.T) {
	t0 := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Minute)

	prev := MergeSnapshot(payloadWithTotal(10, model.UsageEntry{Name: "linux", TotalSeconds: 10}), nil, t0, time.UTC)
	got := MergeSnapshot(payloadWithTotal(10, model.UsageEntry{Name: "Linux", TotalSeconds: 10}), prev, t1, time.UTC)

	e := findEntry(got.OperatingSystems, "Linux")
	if e == nil || e.LastUsed == nil || !e.LastUsed.Equal(t1) {
		t.Fatalf("differently-cased name should be treated as new, got %v", e)
	}
}

func TestMergeSnapshotDoesNotAliasPrevious(t *testing.T) {
	t0 := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)
	prev := MergeSnapshot(payloadWithTotal(10, model.UsageEntry{Name: "Linux", TotalSeconds: 10}), nil, t0, time.UTC)
	got := MergeSnapshot(payloadWithTotal(10, model.UsageEntry{Name: "Linux", TotalSeconds: 10}), prev, t0.Add(time.Minute), time.UTC)

	*got.OperatingSystems[0].LastUsed = time.Time{}
	if !prev.OperatingSystems[0].LastUsed.Equal(t0) {
		t.Fatalf("previous snapshot was mutated through shared pointer")
	}
}

func TestMergeSnapshotEmptyCollectionsGetPlaceholder(t *testing.T) {
	now := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)
	got := MergeSnapshot(&model.SummaryPayload{}, nil, now, time.UTC)

	for name, entries := range map[string][]model.UsageEntry{
		"categories":        got.Categories,
		"editors":           got.Editors,
		"operating_systems": got.OperatingSystems,
		"languages":         got.Languages,
	} {
		if len(entries) != 1 {
			t.Fatalf("%s len=%d, want 1", name, len(entries))
		}
		e := entries[0]
		if !e.Placeholder || e.Name != "None" || e.TotalSeconds != 0 || e.Digital != "0:00" {
			t.Fatalf("%s placeholder=%+v", name, e)
		}
	}
}

func TestMergeSnapshotDefaultsMissingFields(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	now := time.Date(2026, 10, 14, 20, 0, 0, 0, time.UTC) // 次日 04:00 (UTC+8)

	got := MergeSnapshot(nil, nil, now, loc)
	if got.Range.Date != "2026-10-15" {
		t.Fatalf("range.date=%q, want 2026-10-15", got.Range.Date)
	}
	if got.Range.Timezone != "Unknown" {
		t.Fatalf("range.timezone=%q, want Unknown", got.Range.Timezone)
	}
	if got.GrandTotal.Digital != "0:00" || got.GrandTotal.TotalSeconds != 0 {
		t.Fatalf("grand_total=%+v", got.GrandTotal)
	}
	if got.Range.Start == "" || got.Range.End == "" {
		t.Fatalf("range start/end should be filled: %+v", got.Range)
	}

	neg := MergeSnapshot(&model.SummaryPayload{
		Languages: []model.UsageEntry{{Name: "Go", TotalSeconds: -5}},
	}, nil, now, loc)
	if neg.Languages[0].TotalSeconds != 0 || neg.Languages[0].Digital != "0:00" {
		t.Fatalf("negative seconds should clamp, got %+v", neg.Languages[0])
	}
}

func TestMergeSnapshotNonFiniteValuesBecomeZero(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	got := MergeSnapshot(&model.SummaryPayload{
		GrandTotal: model.GrandTotal{TotalSeconds: math.NaN()},
		Categories: []model.UsageEntry{{Name: "Coding", TotalSeconds: math.Inf(1)}},
		Languages:  []model.UsageEntry{{Name: "Go", TotalSeconds: math.Inf(-1), Percent: math.NaN()}},
	}, nil, now, time.UTC)

	if got.TotalSeconds != 0 || got.GrandTotal.TotalSeconds != 0 {
		t.Fatalf("total=%v grand_total=%v, want 0", got.TotalSeconds, got.GrandTotal.TotalSeconds)
	}
	if got.Categories[0].TotalSeconds != 0 || got.Languages[0].TotalSeconds != 0 || got.Languages[0].Percent != 0 {
		t.Fatalf("entries should be zeroed: %+v %+v", got.Categories[0], got.Languages[0])
	}
	if _, err := json.Marshal(got); err != nil {
		t.Fatalf("merged snapshot must encode: %v", err)
	}

	// 分类求和溢出同样归零
	overflow := MergeSnapshot(&model.SummaryPayload{
		Categories: []model.UsageEntry{{Name: "a", TotalSeconds: math.MaxFloat64}, {Name: "b", TotalSeconds: math.MaxFloat64}},
	}, nil, now, time.UTC)
	if overflow.TotalSeconds != 0 {
		t.Fatalf("overflowing sum=%v, want 0", overflow.TotalSeconds)
	}
}
