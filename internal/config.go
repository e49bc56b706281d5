package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/studylog/internal/calendar"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Content ContentConfig     `yaml:"content"`
	Site    SiteConfig        `yaml:"site"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Content.Validate(); err != nil {
		return err
	}
	if err := c.Site.Validate(); err != nil {
		return err
	}
	// out_dir is replaced wholesale on every build.
	return validation.ValidateStruct(&c.Site,
		validation.Field(&c.Site.OutDir, validation.By(notAncestorOf(c.Content.LogsDir))),
	)
}

// notAncestorOf rejects a directory that equals or contains dir.
func notAncestorOf(dir string) validation.RuleFunc {
	return func(value interface{}) error {
		out, _ := value.(string)
		outAbs, err := filepath.Abs(out)
		if err != nil {
			return err
		}
		dirAbs, err := filepath.Abs(dir)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(outAbs, dirAbs)
		if err != nil {
			return nil
		}
		if rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
			return errors.New("must not be or contain the logs directory")
		}
		return nil
	}
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds the preview server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// ContentConfig points at the raw daily logs.
type ContentConfig struct {
	LogsDir string `yaml:"logs_dir"`
}

// Validate validates the content configuration.
func (c *ContentConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.LogsDir, validation.Required),
	)
}

// SiteConfig controls the generated site.
//
// Timezone decides which calendar date counts as "today". It is resolved
// once per build and frozen into the pages.
type SiteConfig struct {
	OutDir   string `yaml:"out_dir"`
	Title    string `yaml:"title"`
	Timezone string `yaml:"timezone"`
}

// Validate validates the site configuration.
func (c *SiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.OutDir, validation.Required),
		validation.Field(&c.Title, validation.Required),
		validation.Field(&c.Timezone, validation.Required, validation.By(validTimezone)),
	)
}

func validTimezone(value interface{}) error {
	name, _ := value.(string)
	if _, err := calendar.LoadLocation(name); err != nil {
		return errors.New("must be a known IANA timezone")
	}
	return nil
}

// Location returns the timezone used for "today".
func (c *SiteConfig) Location() (*time.Location, error) {
	return calendar.LoadLocation(c.Timezone)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Content: ContentConfig{
			LogsDir: "./content/logs",
		},
		Site: SiteConfig{
			OutDir:   "./_site",
			Title:    "Study Record",
			Timezone: "Asia/Tokyo",
		},
	}
}
