package model

import (
	"testing"
	"time"
)

func TestActivitySnapshotCloneIsDeep(t *testing.T) {
	used := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	src := &ActivitySnapshot{
		Status:           StatusAvailable,
		Languages:        []UsageEntry{{Name: "Go", TotalSeconds: 10}},
		OperatingSystems: []UsageEntry{{Name: "Linux", LastUsed: &used}},
	}

	got := src.Clone()
	got.Status = StatusBusy
	got.Languages[0].Name = "Rust"
	*got.OperatingSystems[0].LastUsed = used.Add(time.Hour)

	if src.Status != StatusAvailable {
		t.Fatalf("status leaked into source: %s", src.Status)
	}
	if src.Languages[0].Name != "Go" {
		t.Fatalf("languages share backing array")
	}
	if !src.OperatingSystems[0].LastUsed.Equal(used) {
		t.Fatalf("last_used pointer shared")
	}
}

func TestActivitySnapshotCloneNil(t *testing.T) {
	var s *ActivitySnapshot
	if s.Clone() != nil {
		t.Fatalf("Clone(nil) should be nil")
	}
}
