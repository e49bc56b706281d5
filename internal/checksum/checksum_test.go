package checksum

import (
	"testing"

	"github.com/starford/studylog/internal/models"
)

func TestSum_Stable(t *testing.T) {
	a := Sum([]byte(`{"date":"2024-01-01"}`))
	b := Sum([]byte(`{"date":"2024-01-01"}`))
	if a != b {
		t.Errorf("Sum not stable: %q vs %q", a, b)
	}
	if len(a) != 16 {
		t.Errorf("len(Sum) = %d, want 16", len(a))
	}
	if Sum([]byte("x")) == a {
		t.Error("different content should hash differently")
	}
	if len(Short([]byte("x"))) != 8 {
		t.Error("Short should be 8 hex digits")
	}
}

func TestSnapshot_OrderInsensitive(t *testing.T) {
	files := []models.LogFile{
		{Path: "202401/2024-01-01.json", Checksum: "aa"},
		{Path: "202401/2024-01-02.json", Checksum: "bb"},
	}
	reversed := []models.LogFile{files[1], files[0]}
	if Snapshot(files) != Snapshot(reversed) {
		t.Error("snapshot should not depend on order")
	}

	changed := []models.LogFile{files[0], {Path: files[1].Path, Checksum: "cc"}}
	if Snapshot(files) == Snapshot(changed) {
		t.Error("snapshot should change when a checksum changes")
	}
	if Snapshot(files) == Snapshot(files[:1]) {
		t.Error("snapshot should change when a file disappears")
	}
}
