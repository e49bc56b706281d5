package site

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/starford/studylog/internal/aggregate"
	"github.com/starford/studylog/internal/calendar"
	"github.com/starford/studylog/internal/models"
)

// Weekdays are the Monday-first short weekday labels.
var Weekdays = [7]string{"月", "火", "水", "木", "金", "土", "日"}

// Weekday returns the short label of date, or "" when date is invalid.
func Weekday(date string) string {
	n, err := calendar.ToEpochDay(date)
	if err != nil {
		return ""
	}
	return Weekdays[calendar.MondayIndex(n)]
}

// ParseWeekOffset reads the w query parameter. Anything other than a
// non-negative decimal integer means the current week.
func ParseWeekOffset(raw string) int {
	if raw == "" || strings.TrimLeft(raw, "0123456789") != "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// WeekQuery returns the query string for offset; the current week has none.
func WeekQuery(offset int) string {
	if offset <= 0 {
		return ""
	}
	return "?w=" + strconv.Itoa(offset)
}

// WeekController holds the state of the week page: the week offset and the
// day whose detail is shown. It is the Go counterpart of assets/week.js and
// renders the initial HTML.
type WeekController struct {
	today    string
	byDate   map[string]models.LogRecord
	offset   int
	selected string
}

// NewWeekController starts at offset with no explicit selection. A negative
// offset is treated as 0.
func NewWeekController(today string, byDate map[string]models.LogRecord, offset int) (*WeekController, error) {
	if !calendar.IsValidDate(today) {
		return nil, fmt.Errorf("site: today %q is not a valid date", today)
	}
	if offset < 0 {
		offset = 0
	}
	return &WeekController{today: today, byDate: byDate, offset: offset}, nil
}

// Offset returns the number of weeks before the current one.
func (c *WeekController) Offset() int { return c.offset }

// Older pages one week into the past and clears the selection.
func (c *WeekController) Older() {
	c.offset++
	c.selected = ""
}

// Newer pages one week forward. It does nothing at the current week and
// reports whether the offset changed.
func (c *WeekController) Newer() bool {
	if c.offset == 0 {
		return false
	}
	c.offset--
	c.selected = ""
	return true
}

// Select shows date in the detail panel. Dates outside the visible week are
// ignored.
func (c *WeekController) Select(date string) bool {
	for _, d := range c.dates() {
		if d == date {
			c.selected = date
			return true
		}
	}
	return false
}

func (c *WeekController) dates() []string {
	dates, _ := calendar.WeekDates(c.today, c.offset)
	return dates
}

// WeekDay is one card of the week strip.
type WeekDay struct {
	models.LogRecord
	Weekday  string
	Selected bool
}

// WeekView is everything the week page shows for the current state.
type WeekView struct {
	Offset      int
	Dates       []string
	Days        []WeekDay
	Summary     aggregate.WeekSummary
	Selected    string
	SelectedDay models.LogRecord
	CanNewer    bool
	Query       string
}

// Range is the "first - last" label of the window.
func (v WeekView) Range() string { return v.Dates[0] + " - " + v.Dates[6] }

// View recomputes the window, its summary and the selected day.
func (c *WeekController) View() WeekView {
	dates := c.dates()
	days := aggregate.Window(c.byDate, dates)

	selected := c.selected
	if selected == "" {
		selected = dates[0]
		for _, d := range dates {
			if d == c.today {
				selected = d
				break
			}
		}
	}

	v := WeekView{
		Offset:   c.offset,
		Dates:    dates,
		Summary:  aggregate.Week(days),
		Selected: selected,
		CanNewer: c.offset > 0,
		Query:    WeekQuery(c.offset),
	}
	v.Days = make([]WeekDay, len(days))
	for i, d := range days {
		v.Days[i] = WeekDay{LogRecord: d, Weekday: Weekday(d.Date), Selected: d.Date == selected}
		if d.Date == selected {
			v.SelectedDay = d
		}
	}
	return v
}

// MonthQuery returns the query string selecting month.
func MonthQuery(month string) string { return "?m=" + month }

// MonthController holds the selected month of the month page. It is the Go
// counterpart of assets/month.js.
type MonthController struct {
	months   []string
	flags    map[string]aggregate.DayFlags
	selected string
}

// NewMonthController selects query when it names a known month, otherwise
// the month of today, falling back to the last known month.
func NewMonthController(today string, months []string, flags []aggregate.DayFlags, query string) *MonthController {
	c := &MonthController{
		months: months,
		flags:  make(map[string]aggregate.DayFlags, len(flags)),
	}
	for _, f := range flags {
		c.flags[f.Date] = f
	}

	want := calendar.MonthOf(today)
	if c.known(query) {
		want = query
	}
	if !c.known(want) && len(months) > 0 {
		want = months[len(months)-1]
	}
	c.selected = want
	return c
}

func (c *MonthController) known(month string) bool {
	for _, m := range c.months {
		if m == month {
			return true
		}
	}
	return false
}

// Months returns the selectable months in ascending order.
func (c *MonthController) Months() []string { return c.months }

// Selected returns the shown month.
func (c *MonthController) Selected() string { return c.selected }

// Select switches to month if it is known.
func (c *MonthController) Select(month string) bool {
	if !c.known(month) {
		return false
	}
	c.selected = month
	return true
}

// MonthCell is one day of the month grid.
type MonthCell struct {
	Day       int
	Date      string
	Linked    bool
	HasToshin bool
	HasDetail bool
}

// Dotted reports whether the cell shows any presence dot.
func (c MonthCell) Dotted() bool { return c.HasToshin || c.HasDetail }

// MonthView is the grid for the selected month.
type MonthView struct {
	Month   string
	Headers [7]string
	Leading int
	Cells   []MonthCell
	Query   string
}

// Blanks returns a slice of Leading elements for ranging in templates.
func (v MonthView) Blanks() []struct{} { return make([]struct{}, v.Leading) }

// View lays out the selected month.
func (c *MonthController) View() (MonthView, error) {
	grid, err := calendar.NewMonthGrid(c.selected)
	if err != nil {
		return MonthView{}, err
	}
	v := MonthView{
		Month:   grid.Month,
		Headers: Weekdays,
		Leading: grid.Leading,
		Cells:   make([]MonthCell, len(grid.Dates)),
		Query:   MonthQuery(grid.Month),
	}
	for i, d := range grid.Dates {
		f, ok := c.flags[d]
		v.Cells[i] = MonthCell{Day: i + 1, Date: d, Linked: ok, HasToshin: f.HasToshin, HasDetail: f.HasDetail}
	}
	return v, nil
}
