package internal

import (
	"log/slog"
	"time"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	logger *slog.Logger
	now    func() time.Time
	today  string
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithLogger replaces the default JSON logger on stderr.
func WithLogger(logger *slog.Logger) Option {
	return func(a *application) {
		a.logger = logger
	}
}

// WithClock sets the clock used to resolve "today".
func WithClock(now func() time.Time) Option {
	return func(a *application) {
		a.now = now
	}
}

// WithToday freezes "today" to date (YYYY-MM-DD), overriding the clock.
func WithToday(date string) Option {
	return func(a *application) {
		a.today = date
	}
}
