// Package aggregate derives week and month summaries from log records.
package aggregate

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/starford/studylog/internal/models"
)

// TopSubjectsLimit caps the ranked subject list shown for a week.
const TopSubjectsLimit = 3

// Ranked is one entry of a frequency ranking.
type Ranked struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// WeekSummary holds the figures shown above the week strip.
type WeekSummary struct {
	ToshinDays  int      `json:"toshinDays"`
	DetailCount int      `json:"detailCount"`
	TopSubjects []Ranked `json:"topSubjects"`
}

// Week summarizes a window of days. Absent days are expected as empty
// records (see Window).
func Week(days []models.LogRecord) WeekSummary {
	var s WeekSummary
	var subjects []string
	for _, d := range days {
		if d.HasToshin() {
			s.ToshinDays++
		}
		s.DetailCount += len(d.Details)
		subjects = append(subjects, d.ToshinToday...)
	}
	s.TopSubjects = TopN(subjects, TopSubjectsLimit)
	return s
}

// Window looks up each date in byDate, substituting an empty record for
// dates without a log.
func Window(byDate map[string]models.LogRecord, dates []string) []models.LogRecord {
	out := make([]models.LogRecord, len(dates))
	for i, d := range dates {
		if r, ok := byDate[d]; ok {
			out[i] = r
		} else {
			out[i] = models.EmptyRecord(d)
		}
	}
	return out
}

// Index maps records by date. Later records with the same date are ignored.
func Index(records []models.LogRecord) map[string]models.LogRecord {
	m := make(map[string]models.LogRecord, len(records))
	for _, r := range records {
		if _, ok := m[r.Date]; !ok {
			m[r.Date] = r
		}
	}
	return m
}

// DayFlags marks which dots a month calendar cell shows.
type DayFlags struct {
	Date      string `json:"date"`
	HasToshin bool   `json:"hasToshin"`
	HasDetail bool   `json:"hasDetail"`
}

// MonthFlags returns presence flags for every record, in input order.
func MonthFlags(records []models.LogRecord) []DayFlags {
	out := make([]DayFlags, 0, len(records))
	for _, r := range records {
		out = append(out, DayFlags{Date: r.Date, HasToshin: r.HasToshin(), HasDetail: r.HasDetail()})
	}
	return out
}

// TopN ranks items by descending frequency, breaking ties by Japanese
// collation order. n <= 0 returns the full ranking.
func TopN(items []string, n int) []Ranked {
	counts := make(map[string]int)
	for _, it := range items {
		counts[it]++
	}
	ranked := make([]Ranked, 0, len(counts))
	for name, c := range counts {
		ranked = append(ranked, Ranked{Name: name, Count: c})
	}

	col := collate.New(language.Japanese)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		if c := col.CompareString(ranked[i].Name, ranked[j].Name); c != 0 {
			return c < 0
		}
		return ranked[i].Name < ranked[j].Name
	})

	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
