// Package site renders the static study-log site: the JSON payloads embedded
// in pages, the week and month view controllers, the HTML templates and the
// browser assets that replay the same calendar logic.
package site

import (
	"encoding/json"
	"fmt"
	"html/template"
	"sort"

	"github.com/starford/studylog/internal/aggregate"
	"github.com/starford/studylog/internal/calendar"
	"github.com/starford/studylog/internal/models"
)

// WeekPayload is embedded in the week page. Logs holds the whole dataset so
// the browser can page to any week offline.
type WeekPayload struct {
	Today string             `json:"today"`
	Logs  []models.LogRecord `json:"logs"`
}

// MonthPayload is embedded in the month page.
type MonthPayload struct {
	Today  string               `json:"today"`
	Months []string             `json:"months"`
	Logs   []aggregate.DayFlags `json:"logs"`
}

// NewWeekPayload builds the week payload from date-ordered records.
func NewWeekPayload(today string, records []models.LogRecord) WeekPayload {
	logs := make([]models.LogRecord, 0, len(records))
	logs = append(logs, records...)
	return WeekPayload{Today: today, Logs: logs}
}

// NewMonthPayload builds the month payload from date-ordered records.
func NewMonthPayload(today string, records []models.LogRecord) MonthPayload {
	return MonthPayload{
		Today:  today,
		Months: Months(today, records),
		Logs:   aggregate.MonthFlags(records),
	}
}

// Months returns the sorted distinct YYYY-MM values of records plus the
// month containing today.
func Months(today string, records []models.LogRecord) []string {
	set := map[string]struct{}{calendar.MonthOf(today): {}}
	for _, r := range records {
		set[calendar.MonthOf(r.Date)] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for m := range set {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// EmbedJSON serializes v for inlining inside a <script type="application/json">
// element. encoding/json escapes <, > and & as \u003c, \u003e and \u0026,
// so the output can never close the surrounding script tag.
func EmbedJSON(v any) (template.JS, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("site: encode payload: %w", err)
	}
	return template.JS(data), nil
}
