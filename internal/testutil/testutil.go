// Package testutil provides shared test helpers for log directories.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/studylog/internal/storage"
)

// LogDir creates a temporary logs directory with a storage.Provider.
func LogDir(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// WriteLog writes content to rel under dir, creating folders as needed.
func WriteLog(t *testing.T, dir, rel, content string) {
	t.Helper()
	full := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// SampleLogs writes one file per schema generation plus one undated file.
func SampleLogs(t *testing.T, dir string) {
	t.Helper()
	WriteLog(t, dir, "202401/2024-01-10.json", `{
  "date": "2024-01-10",
  "study": [{"subject": "Math", "focus": "Algebra", "detail": "practice"}],
  "toshin": [{"subject": "English", "course": "Reading", "koma": 2}],
  "notes": "tired"
}`)
	WriteLog(t, dir, "2024-01-11.json", `{"date": "2024-01-11", "toshinKoma": 3, "plan": "review", "notes": ""}`)
	WriteLog(t, dir, "202401/2024-01-12.json", `{"date": "2024-01-12", "toshinToday": ["Math", "Math", "English"], "details": []}`)
	WriteLog(t, dir, "202401/broken.json", `{"plan": "no date"}`)
}
