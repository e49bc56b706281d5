package site

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/starford/studylog/internal/models"
)

func rec(date string, toshin []string, details []string) models.LogRecord {
	r := models.EmptyRecord(date)
	if toshin != nil {
		r.ToshinToday = toshin
	}
	if details != nil {
		r.Details = details
	}
	return r
}

func TestEmbedJSON_EscapesScriptClose(t *testing.T) {
	p := NewWeekPayload("2024-01-10", []models.LogRecord{
		rec("2024-01-10", nil, []string{"</script><script>alert(1)</script>", "a & b"}),
	})
	js, err := EmbedJSON(p)
	if err != nil {
		t.Fatalf("EmbedJSON: %v", err)
	}
	if strings.ContainsAny(string(js), "<>") {
		t.Errorf("payload contains raw angle brackets: %s", js)
	}

	var back WeekPayload
	if err := json.Unmarshal([]byte(js), &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Logs[0].Details[0] != "</script><script>alert(1)</script>" {
		t.Errorf("detail = %q", back.Logs[0].Details[0])
	}
}

func TestNewWeekPayload_EmptyListsSerialize(t *testing.T) {
	js, err := EmbedJSON(NewWeekPayload("2024-01-10", nil))
	if err != nil {
		t.Fatalf("EmbedJSON: %v", err)
	}
	if string(js) != `{"today":"2024-01-10","logs":[]}` {
		t.Errorf("payload = %s", js)
	}

	js, _ = EmbedJSON(NewWeekPayload("2024-01-10", []models.LogRecord{models.EmptyRecord("2024-01-09")}))
	if !strings.Contains(string(js), `{"date":"2024-01-09","toshinToday":[],"details":[]}`) {
		t.Errorf("payload = %s", js)
	}
}

func TestMonths_IncludesToday(t *testing.T) {
	got := Months("2024-03-05", []models.LogRecord{
		rec("2024-01-31", nil, nil),
		rec("2023-12-01", nil, nil),
		rec("2024-01-02", nil, nil),
	})
	want := []string{"2023-12", "2024-01", "2024-03"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Months = %v, want %v", got, want)
	}
}

func TestNewMonthPayload_Flags(t *testing.T) {
	p := NewMonthPayload("2024-01-10", []models.LogRecord{
		rec("2024-01-01", []string{"Math"}, nil),
		rec("2024-01-02", nil, []string{"read"}),
	})
	js, err := EmbedJSON(p)
	if err != nil {
		t.Fatalf("EmbedJSON: %v", err)
	}
	want := `{"today":"2024-01-10","months":["2024-01"],"logs":[` +
		`{"date":"2024-01-01","hasToshin":true,"hasDetail":false},` +
		`{"date":"2024-01-02","hasToshin":false,"hasDetail":true}]}`
	if string(js) != want {
		t.Errorf("payload = %s\nwant      %s", js, want)
	}
}
