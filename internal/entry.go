// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/starford/studylog/internal/apperr"
	"github.com/starford/studylog/internal/calendar"
	"github.com/starford/studylog/internal/logservice"
	"github.com/starford/studylog/internal/mcpserver"
	"github.com/starford/studylog/internal/preview"
	"github.com/starford/studylog/internal/site"
	"github.com/starford/studylog/internal/storage"
	"github.com/starford/studylog/internal/validate"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{now: time.Now}
	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := app.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if app.today != "" && !calendar.IsValidDate(app.today) {
		return nil, fmt.Errorf("today %q is not a valid YYYY-MM-DD date", app.today)
	}

	if app.logger == nil {
		// stdout stays free for command output and the MCP stdio transport.
		app.logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: app.config.App.LogLevel,
		}))
	}
	return app, nil
}

// clock returns "today" and the timezone label to show next to it.
func (a *application) clock() (string, string, error) {
	loc, err := a.config.Site.Location()
	if err != nil {
		return "", "", err
	}
	now := a.now().In(loc)
	if a.today != "" {
		return a.today, now.Format("MST"), nil
	}
	return calendar.Today(loc, now), now.Format("MST"), nil
}

// logService opens the logs directory. With create set a missing directory
// is created so that an empty dataset still builds; otherwise it is an
// apperr.ErrNotFound error.
func (a *application) logService(create bool) (*logservice.Service, error) {
	dir := a.config.Content.LogsDir
	if create {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create logs dir: %w", err)
		}
	} else if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("missing logs directory %s: %w", dir, apperr.ErrNotFound)
	}
	store, err := storage.NewFS(dir)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	return logservice.NewService(store, a.logger, dir), nil
}

// build renders the site into a staged directory and swaps it in only when
// every page was written, so a failed build keeps the previous site.
func (a *application) build(ctx context.Context, svc *logservice.Service, liveReload bool) (site.Result, error) {
	records, stats, err := svc.Records(ctx)
	if err != nil {
		return site.Result{}, fmt.Errorf("load logs: %w", err)
	}
	if stats.Skipped > 0 || stats.Duplicates > 0 {
		a.logger.Warn("build: some logs were not rendered",
			slog.Int("skipped", stats.Skipped),
			slog.Int("duplicates", stats.Duplicates))
	}

	today, tz, err := a.clock()
	if err != nil {
		return site.Result{}, err
	}

	outDir := a.config.Site.OutDir
	staged, err := storage.Stage(outDir)
	if err != nil {
		return site.Result{}, err
	}
	out, err := storage.NewFS(staged)
	if err != nil {
		_ = os.RemoveAll(staged)
		return site.Result{}, fmt.Errorf("init output: %w", err)
	}

	res, err := site.Build(records, out, site.Options{
		Title:      a.config.Site.Title,
		Today:      today,
		TZLabel:    tz,
		LiveReload: liveReload,
		Logger:     a.logger,
	})
	if err != nil {
		_ = os.RemoveAll(staged)
		return site.Result{}, err
	}
	if err := storage.Promote(staged, outDir); err != nil {
		_ = os.RemoveAll(staged)
		return site.Result{}, err
	}
	return res, nil
}

// Build renders the static site once.
func Build(ctx context.Context, opts ...Option) (site.Result, error) {
	app, err := newApplication(opts)
	if err != nil {
		return site.Result{}, err
	}
	svc, err := app.logService(true)
	if err != nil {
		return site.Result{}, err
	}
	app.logger.Info("build: starting",
		slog.String("logs_dir", app.config.Content.LogsDir),
		slog.String("out_dir", app.config.Site.OutDir))
	return app.build(ctx, svc, false)
}

// Validate checks every log file strictly. The report lists all issues;
// callers decide how to present them.
func Validate(ctx context.Context, opts ...Option) (*validate.Report, error) {
	app, err := newApplication(opts)
	if err != nil {
		return nil, err
	}
	svc, err := app.logService(false)
	if err != nil {
		return nil, err
	}
	report, err := svc.Validate(ctx)
	if err != nil {
		return nil, fmt.Errorf("validate logs: %w", err)
	}
	app.logger.Debug("validate: done",
		slog.Int("files", report.Files),
		slog.Int("issues", len(report.Issues)))
	return report, nil
}

// Serve builds the site with live reload and serves it locally, rebuilding
// whenever the logs change.
func Serve(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	svc, err := app.logService(true)
	if err != nil {
		return err
	}

	app.logger.Info("Configuration loaded",
		slog.String("http_address", app.config.App.HTTP.Address()),
		slog.String("logs_dir", app.config.Content.LogsDir),
		slog.String("out_dir", app.config.Site.OutDir),
		slog.String("log_level", app.config.App.LogLevel.String()))

	srv := preview.New(app.config.Site.OutDir, app.config.Content.LogsDir,
		func(ctx context.Context) (int, error) {
			res, err := app.build(ctx, svc, true)
			return res.Pages, err
		},
		svc.Snapshot,
		app.logger)
	defer srv.Close()

	return srv.Run(ctx, app.config.App.HTTP.Address())
}

// ServeMCP exposes the logs as MCP tools on stdin/stdout.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	svc, err := app.logService(false)
	if err != nil {
		return err
	}
	today := func() string {
		d, _, err := app.clock()
		if err != nil {
			app.logger.Error("mcp: resolve today failed", slog.String("error", err.Error()))
			return calendar.Today(time.UTC, app.now())
		}
		return d
	}
	app.logger.Info("mcp: serving on stdio", slog.String("logs_dir", app.config.Content.LogsDir))
	return mcpserver.New(svc, today).ServeStdio()
}
