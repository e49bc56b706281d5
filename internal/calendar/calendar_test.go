package calendar

import (
	"errors"
	"testing"
	"time"

	"github.com/starford/studylog/internal/apperr"
)

func TestIsValidDate(t *testing.T) {
	valid := []string{"2024-02-29", "2023-12-31", "1970-01-01", "2000-02-29"}
	for _, s := range valid {
		if !IsValidDate(s) {
			t.Errorf("IsValidDate(%q) = false, want true", s)
		}
	}
	invalid := []string{"2023-02-29", "2024-02-30", "2024-13-01", "2024-00-10", "2024-01-00", "1900-02-29", "2024-1-01", "20240101", "", " 2024-01-01"}
	for _, s := range invalid {
		if IsValidDate(s) {
			t.Errorf("IsValidDate(%q) = true, want false", s)
		}
	}
}

func TestEpochDayRoundTrip(t *testing.T) {
	for _, d := range []string{"1970-01-01", "1969-12-31", "2024-02-29", "2024-03-01", "1900-03-01", "2099-12-31"} {
		n, err := ToEpochDay(d)
		if err != nil {
			t.Fatalf("ToEpochDay(%q): %v", d, err)
		}
		if got := FromEpochDay(n); got != d {
			t.Errorf("FromEpochDay(ToEpochDay(%q)) = %q", d, got)
		}
	}

	// Walk every day over several years, including leap days.
	start, _ := ToEpochDay("2019-01-01")
	end, _ := ToEpochDay("2025-01-01")
	for n := start; n < end; n++ {
		d := FromEpochDay(n)
		if !IsValidDate(d) {
			t.Fatalf("FromEpochDay(%d) = %q is not valid", n, d)
		}
		back, err := ToEpochDay(d)
		if err != nil || back != n {
			t.Fatalf("ToEpochDay(%q) = %d, %v, want %d", d, back, err, n)
		}
	}
}

func TestToEpochDay_Invalid(t *testing.T) {
	_, err := ToEpochDay("2023-02-29")
	if !errors.Is(err, apperr.ErrInvalidDate) {
		t.Errorf("err = %v, want ErrInvalidDate", err)
	}
}

func TestEpochDayKnownValues(t *testing.T) {
	if n, _ := ToEpochDay("1970-01-01"); n != 0 {
		t.Errorf("epoch of 1970-01-01 = %d, want 0", n)
	}
	if n, _ := ToEpochDay("1970-01-05"); n != 4 {
		t.Errorf("epoch of 1970-01-05 = %d, want 4", n)
	}
}

func TestStartOfWeekMonday(t *testing.T) {
	start, _ := ToEpochDay("1969-06-01")
	end, _ := ToEpochDay("2026-06-01")
	for n := start; n < end; n++ {
		s := StartOfWeekMonday(n)
		if s > n || n-s > 6 {
			t.Fatalf("StartOfWeekMonday(%d) = %d out of range", n, s)
		}
		if StartOfWeekMonday(s) != s {
			t.Fatalf("StartOfWeekMonday not idempotent at %d", n)
		}
		wd := time.Unix(int64(s)*secondsPerDay, 0).UTC().Weekday()
		if wd != time.Monday {
			t.Fatalf("StartOfWeekMonday(%d) is %s", n, wd)
		}
	}
}

func TestStartOfWeekMonday_SameForWholeWeek(t *testing.T) {
	mon, _ := ToEpochDay("2024-01-08")
	for i := 0; i < 7; i++ {
		if got := StartOfWeekMonday(mon + i); got != mon {
			t.Errorf("StartOfWeekMonday(%s) = %s, want 2024-01-08", FromEpochDay(mon+i), FromEpochDay(got))
		}
	}
	if got := StartOfWeekMonday(mon + 7); got == mon {
		t.Error("next Monday must start a new week")
	}
}

func TestToday(t *testing.T) {
	loc, err := LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	// 2024-01-10 16:30 UTC is already 2024-01-11 in Tokyo.
	now := time.Date(2024, 1, 10, 16, 30, 0, 0, time.UTC)
	if got := Today(loc, now); got != "2024-01-11" {
		t.Errorf("Today = %q, want 2024-01-11", got)
	}
	if got := Today(time.UTC, now); got != "2024-01-10" {
		t.Errorf("Today(UTC) = %q, want 2024-01-10", got)
	}
}

func TestLoadLocation_Unknown(t *testing.T) {
	if _, err := LoadLocation("Nowhere/Special"); err == nil {
		t.Error("expected error for unknown zone")
	}
}

func TestWeekDates(t *testing.T) {
	dates, err := WeekDates("2024-01-10", 0)
	if err != nil {
		t.Fatalf("WeekDates: %v", err)
	}
	if len(dates) != 7 || dates[0] != "2024-01-08" || dates[6] != "2024-01-14" {
		t.Errorf("dates = %v", dates)
	}

	prev, err := WeekDates("2024-01-10", 1)
	if err != nil {
		t.Fatalf("WeekDates: %v", err)
	}
	if prev[0] != "2024-01-01" || prev[6] != "2024-01-07" {
		t.Errorf("prev = %v", prev)
	}

	if _, err := WeekDates("2024-01-10", -1); err == nil {
		t.Error("expected error for negative offset")
	}
}

func TestWeekOffsetOf(t *testing.T) {
	cases := []struct {
		date string
		want int
	}{
		{"2024-01-14", 0},
		{"2024-01-08", 0},
		{"2024-01-07", 1},
		{"2023-12-25", 2},
		{"2024-01-15", -1},
	}
	for _, c := range cases {
		got, err := WeekOffsetOf("2024-01-10", c.date)
		if err != nil {
			t.Fatalf("WeekOffsetOf(%q): %v", c.date, err)
		}
		if got != c.want {
			t.Errorf("WeekOffsetOf(%q) = %d, want %d", c.date, got, c.want)
		}
	}
}

func TestIsValidMonth(t *testing.T) {
	if !IsValidMonth("2024-02") {
		t.Error("2024-02 should be valid")
	}
	for _, s := range []string{"2024-13", "2024-00", "2024-2", "202402", ""} {
		if IsValidMonth(s) {
			t.Errorf("IsValidMonth(%q) = true", s)
		}
	}
}

func TestNewMonthGrid_LeapFebruary(t *testing.T) {
	g, err := NewMonthGrid("2024-02")
	if err != nil {
		t.Fatalf("NewMonthGrid: %v", err)
	}
	if len(g.Dates) != 29 {
		t.Errorf("len(Dates) = %d, want 29", len(g.Dates))
	}
	// 2024-02-01 was a Thursday.
	if g.Leading != 3 {
		t.Errorf("Leading = %d, want 3", g.Leading)
	}
	if g.Dates[0] != "2024-02-01" || g.Dates[28] != "2024-02-29" {
		t.Errorf("Dates = %v", g.Dates)
	}
}

func TestNewMonthGrid_Lengths(t *testing.T) {
	cases := map[string]int{"2023-02": 28, "2024-04": 30, "2024-12": 31, "1900-02": 28, "2000-02": 29}
	for month, want := range cases {
		g, err := NewMonthGrid(month)
		if err != nil {
			t.Fatalf("NewMonthGrid(%q): %v", month, err)
		}
		if len(g.Dates) != want {
			t.Errorf("%s: len = %d, want %d", month, len(g.Dates), want)
		}
	}
	// 2024-04-01 was a Monday.
	g, _ := NewMonthGrid("2024-04")
	if g.Leading != 0 {
		t.Errorf("2024-04 Leading = %d, want 0", g.Leading)
	}
	// 2024-09-01 was a Sunday.
	g, _ = NewMonthGrid("2024-09")
	if g.Leading != 6 {
		t.Errorf("2024-09 Leading = %d, want 6", g.Leading)
	}
}

func TestNewMonthGrid_Invalid(t *testing.T) {
	if _, err := NewMonthGrid("2024-13"); err == nil {
		t.Error("expected error")
	}
}
