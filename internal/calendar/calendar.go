// Package calendar implements the date arithmetic shared by the site builder
// and the browser scripts: epoch days, Monday-first weeks, and month grids.
//
// All arithmetic runs on UTC midnights so that DST transitions never shift a
// date. The only timezone-aware operation is Today, which takes the location
// and the instant explicitly.
package calendar

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/starford/studylog/internal/apperr"
)

// Layout is the ISO calendar date layout used for every date in the dataset.
const Layout = "2006-01-02"

const secondsPerDay = 86400

var (
	dateRe  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	monthRe = regexp.MustCompile(`^\d{4}-\d{2}$`)
)

// IsValidDate reports whether s is a YYYY-MM-DD string naming a real
// proleptic-Gregorian date.
func IsValidDate(s string) bool {
	if !dateRe.MatchString(s) {
		return false
	}
	y, _ := strconv.Atoi(s[0:4])
	m, _ := strconv.Atoi(s[5:7])
	d, _ := strconv.Atoi(s[8:10])
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	return t.Year() == y && int(t.Month()) == m && t.Day() == d
}

// ToEpochDay returns the number of days between 1970-01-01 and date.
func ToEpochDay(date string) (int, error) {
	if !IsValidDate(date) {
		return 0, fmt.Errorf("calendar: %q: %w", date, apperr.ErrInvalidDate)
	}
	t, err := time.ParseInLocation(Layout, date, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("calendar: %q: %w", date, apperr.ErrInvalidDate)
	}
	return int(t.Unix() / secondsPerDay), nil
}

// FromEpochDay is the inverse of ToEpochDay.
func FromEpochDay(n int) string {
	return time.Unix(int64(n)*secondsPerDay, 0).UTC().Format(Layout)
}

// MondayIndex returns the weekday of an epoch day with Monday = 0 and
// Sunday = 6. 1970-01-01 was a Thursday.
func MondayIndex(epochDay int) int {
	return ((epochDay+3)%7 + 7) % 7
}

// StartOfWeekMonday rounds epochDay down to the Monday of its week.
func StartOfWeekMonday(epochDay int) int {
	return epochDay - MondayIndex(epochDay)
}

// LoadLocation resolves the timezone used for "today". Hosts without tzdata
// still get Japan time for Asia/Tokyo, which has had no DST since 1951.
func LoadLocation(name string) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err == nil {
		return loc, nil
	}
	if name == "Asia/Tokyo" {
		return time.FixedZone("JST", 9*60*60), nil
	}
	return nil, fmt.Errorf("calendar: load location %q: %w", name, err)
}

// Today returns the calendar date of now as observed in loc.
func Today(loc *time.Location, now time.Time) string {
	return now.In(loc).Format(Layout)
}

// WeekDates returns the seven dates of the week that lies offset whole weeks
// before the week containing today. Offset 0 is the current week.
func WeekDates(today string, offset int) ([]string, error) {
	if offset < 0 {
		return nil, fmt.Errorf("calendar: negative week offset %d", offset)
	}
	epoch, err := ToEpochDay(today)
	if err != nil {
		return nil, err
	}
	start := StartOfWeekMonday(epoch) - offset*7
	dates := make([]string, 7)
	for i := range dates {
		dates[i] = FromEpochDay(start + i)
	}
	return dates, nil
}

// WeekOffsetOf returns how many whole weeks the week containing date lies
// before the week containing today. It is negative for future weeks.
func WeekOffsetOf(today, date string) (int, error) {
	t, err := ToEpochDay(today)
	if err != nil {
		return 0, err
	}
	d, err := ToEpochDay(date)
	if err != nil {
		return 0, err
	}
	return (StartOfWeekMonday(t) - StartOfWeekMonday(d)) / 7, nil
}

// MonthOf returns the YYYY-MM prefix of a date.
func MonthOf(date string) string {
	if len(date) < 7 {
		return ""
	}
	return date[:7]
}

// IsValidMonth reports whether s is a YYYY-MM string with month 01..12.
func IsValidMonth(s string) bool {
	if !monthRe.MatchString(s) {
		return false
	}
	m, _ := strconv.Atoi(s[5:7])
	return m >= 1 && m <= 12
}

// DaysInMonth returns the length of the month, accounting for leap years.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthGrid describes a Monday-first month calendar: Leading blank cells
// followed by one cell per entry in Dates.
type MonthGrid struct {
	Month   string
	Leading int
	Dates   []string
}

// NewMonthGrid lays out month (YYYY-MM) on a seven-column Monday-first grid.
func NewMonthGrid(month string) (MonthGrid, error) {
	if !IsValidMonth(month) {
		return MonthGrid{}, fmt.Errorf("calendar: month %q: %w", month, apperr.ErrInvalidDate)
	}
	y, _ := strconv.Atoi(month[0:4])
	m, _ := strconv.Atoi(month[5:7])

	first, err := ToEpochDay(month + "-01")
	if err != nil {
		return MonthGrid{}, err
	}
	n := DaysInMonth(y, time.Month(m))
	dates := make([]string, n)
	for i := range dates {
		dates[i] = FromEpochDay(first + i)
	}
	return MonthGrid{Month: month, Leading: MondayIndex(first), Dates: dates}, nil
}
