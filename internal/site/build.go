package site

import (
	"fmt"
	"html/template"
	"log/slog"
	"path"
	"sort"

	"github.com/starford/studylog/internal/aggregate"
	"github.com/starford/studylog/internal/calendar"
	"github.com/starford/studylog/internal/models"
	"github.com/starford/studylog/internal/storage"
)

// Options control a site build.
type Options struct {
	// Title is the site name shown in the header and page titles.
	Title string
	// Today is frozen into every page; the browser never recomputes it.
	Today string
	// TZLabel names the timezone of Today in the week range caption.
	TZLabel string
	// LiveReload injects the preview reload script.
	LiveReload bool
	Logger     *slog.Logger
}

// Result summarizes a finished build.
type Result struct {
	Pages    int
	DayPages int
	Records  int
	Bytes    int64
}

type weekPage struct {
	View    WeekView
	Payload template.JS
}

type monthPage struct {
	View    MonthView
	Months  []string
	Payload template.JS
}

type dayPage struct {
	Record   models.LogRecord
	Weekday  string
	Prev     string
	Next     string
	WeekHref string
}

// builder writes pages into out and keeps the running totals.
type builder struct {
	out    storage.Provider
	r      *renderer
	opts   Options
	result Result
}

func (b *builder) write(name string, data []byte) error {
	if err := b.out.Write(name, data); err != nil {
		return fmt.Errorf("site: write %s: %w", name, err)
	}
	b.result.Bytes += int64(len(data))
	return nil
}

func (b *builder) page(file, kind string, p page) error {
	p.SiteTitle = b.opts.Title
	p.TZLabel = b.opts.TZLabel
	p.LiveReload = b.opts.LiveReload
	html, err := b.r.render(kind, p)
	if err != nil {
		return err
	}
	if err := b.write(file, html); err != nil {
		return err
	}
	b.result.Pages++
	return nil
}

// Build renders the whole site for records into out. out is expected to be
// empty; the caller clears it so that each run fully replaces the site.
// Records must carry valid dates; duplicates after the first are ignored.
func Build(records []models.LogRecord, out storage.Provider, opts Options) (Result, error) {
	if !calendar.IsValidDate(opts.Today) {
		return Result{}, fmt.Errorf("site: today %q is not a valid date", opts.Today)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	byDate := aggregate.Index(records)
	sorted := make([]models.LogRecord, 0, len(byDate))
	for _, r := range byDate {
		sorted = append(sorted, r)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date < sorted[j].Date })

	r, err := newRenderer()
	if err != nil {
		return Result{}, err
	}
	b := &builder{out: out, r: r, opts: opts}
	b.result.Records = len(sorted)

	for name, data := range r.assets {
		if name == "reload.js" && !opts.LiveReload {
			continue
		}
		if err := b.write(path.Join("assets", name), data); err != nil {
			return Result{}, err
		}
	}

	navToday := ""
	if _, ok := byDate[opts.Today]; ok {
		navToday = opts.Today
	}

	if err := b.weekPage(byDate, sorted, navToday); err != nil {
		return Result{}, err
	}
	if err := b.monthPage(sorted, navToday); err != nil {
		return Result{}, err
	}
	for i, rec := range sorted {
		dp := dayPage{Record: rec, Weekday: Weekday(rec.Date)}
		if i > 0 {
			dp.Prev = sorted[i-1].Date
		}
		if i < len(sorted)-1 {
			dp.Next = sorted[i+1].Date
		}
		if off, err := calendar.WeekOffsetOf(opts.Today, rec.Date); err == nil && off >= 0 {
			dp.WeekHref = "index.html" + WeekQuery(off)
		}
		err := b.page(path.Join("day", rec.Date, "index.html"), "day", page{
			Title:    rec.Date + " | " + opts.Title,
			Base:     "../../",
			NavToday: navToday,
			Data:     dp,
		})
		if err != nil {
			return Result{}, err
		}
		b.result.DayPages++
	}

	err = b.page("404.html", "404", page{Title: "Not Found | " + opts.Title, NavToday: navToday})
	if err != nil {
		return Result{}, err
	}

	opts.Logger.Info("site: built",
		slog.Int("pages", b.result.Pages),
		slog.Int("day_pages", b.result.DayPages),
		slog.Int64("bytes", b.result.Bytes))
	return b.result, nil
}

func (b *builder) weekPage(byDate map[string]models.LogRecord, records []models.LogRecord, navToday string) error {
	ctrl, err := NewWeekController(b.opts.Today, byDate, 0)
	if err != nil {
		return err
	}
	payload, err := EmbedJSON(NewWeekPayload(b.opts.Today, records))
	if err != nil {
		return err
	}
	return b.page("index.html", "week", page{
		Title:    "Week | " + b.opts.Title,
		NavToday: navToday,
		Data:     weekPage{View: ctrl.View(), Payload: payload},
	})
}

func (b *builder) monthPage(records []models.LogRecord, navToday string) error {
	mp := NewMonthPayload(b.opts.Today, records)
	ctrl := NewMonthController(b.opts.Today, mp.Months, mp.Logs, "")
	view, err := ctrl.View()
	if err != nil {
		return err
	}
	payload, err := EmbedJSON(mp)
	if err != nil {
		return err
	}
	return b.page("month.html", "month", page{
		Title:    "Month | " + b.opts.Title,
		NavToday: navToday,
		Data:     monthPage{View: view, Months: ctrl.Months(), Payload: payload},
	})
}
