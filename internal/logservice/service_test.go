package logservice

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/starford/studylog/internal/apperr"
	"github.com/starford/studylog/internal/testutil"
)

func TestRecords_NormalizesAndSkips(t *testing.T) {
	dir, store := testutil.LogDir(t)
	testutil.SampleLogs(t, dir)
	testutil.WriteLog(t, dir, "202401/not-json.json", `{`)

	svc := NewService(store, testutil.Logger(), "logs")
	records, stats, err := svc.Records(context.Background())
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if stats.Files != 5 || stats.Records != 3 || stats.Skipped != 2 {
		t.Errorf("stats = %+v", stats)
	}
	var dates []string
	for _, r := range records {
		dates = append(dates, r.Date)
	}
	if !reflect.DeepEqual(dates, []string{"2024-01-10", "2024-01-11", "2024-01-12"}) {
		t.Errorf("dates = %v", dates)
	}
	if !reflect.DeepEqual(records[1].ToshinToday, []string{"東進"}) {
		t.Errorf("2024-01-11 toshinToday = %v", records[1].ToshinToday)
	}
}

func TestRecords_DuplicateFirstWins(t *testing.T) {
	dir, store := testutil.LogDir(t)
	testutil.WriteLog(t, dir, "202401/2024-01-01.json", `{"date":"2024-01-01","details":["first"]}`)
	testutil.WriteLog(t, dir, "202401/2024-01-02.json", `{"date":"2024-01-01","details":["second"]}`)

	svc := NewService(store, testutil.Logger(), "logs")
	records, stats, err := svc.Records(context.Background())
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(records) != 1 || records[0].Details[0] != "first" {
		t.Errorf("records = %+v", records)
	}
	if stats.Duplicates != 1 {
		t.Errorf("Duplicates = %d, want 1", stats.Duplicates)
	}
}

func TestRecord_NotFound(t *testing.T) {
	dir, store := testutil.LogDir(t)
	testutil.SampleLogs(t, dir)
	svc := NewService(store, testutil.Logger(), "logs")

	r, err := svc.Record(context.Background(), "2024-01-12")
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if !reflect.DeepEqual(r.ToshinToday, []string{"Math", "English"}) {
		t.Errorf("toshinToday = %v", r.ToshinToday)
	}

	_, err = svc.Record(context.Background(), "2030-01-01")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestValidate_UsesLabelInPaths(t *testing.T) {
	dir, store := testutil.LogDir(t)
	testutil.WriteLog(t, dir, "202401/2024-01-01.json", `{"date":"2024-01-01","bogus":1}`)

	svc := NewService(store, testutil.Logger(), "content/logs")
	report, err := svc.Validate(context.Background())
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if report.Files != 1 || len(report.Issues) != 1 {
		t.Fatalf("report = %+v", report)
	}
	want := "content/logs/202401/2024-01-01.json has unknown field: bogus"
	if report.Issues[0].Message != want {
		t.Errorf("message = %q, want %q", report.Issues[0].Message, want)
	}
}

func TestSnapshot_ChangesOnEdit(t *testing.T) {
	dir, store := testutil.LogDir(t)
	testutil.WriteLog(t, dir, "202401/2024-01-01.json", `{"date":"2024-01-01"}`)
	svc := NewService(store, testutil.Logger(), "logs")

	a, err := svc.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	b, _ := svc.Snapshot()
	if a != b {
		t.Error("snapshot should be stable without changes")
	}
	testutil.WriteLog(t, dir, "202401/2024-01-01.json", `{"date":"2024-01-01","details":["x"]}`)
	c, _ := svc.Snapshot()
	if a == c {
		t.Error("snapshot should change after an edit")
	}
}
