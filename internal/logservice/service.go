// Package logservice coordinates the raw log storage with normalization and
// validation. Every consumer (site build, preview, MCP) loads logs through it.
package logservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/starford/studylog/internal/apperr"
	"github.com/starford/studylog/internal/checksum"
	"github.com/starford/studylog/internal/models"
	"github.com/starford/studylog/internal/schema"
	"github.com/starford/studylog/internal/storage"
	"github.com/starford/studylog/internal/validate"
)

// Service loads log files from a storage.Provider.
type Service struct {
	store  storage.Provider
	logger *slog.Logger
	label  string
}

// NewService creates a log service. label prefixes file paths in validation
// messages, typically the configured logs directory.
func NewService(store storage.Provider, logger *slog.Logger, label string) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger, label: label}
}

// LoadStats counts what happened to the listed files during Records.
type LoadStats struct {
	Files      int
	Records    int
	Skipped    int
	Duplicates int
}

// Records reads and normalizes every log, sorted by date. Files that cannot
// be read, are not JSON objects, or lack a valid date are logged and skipped.
// When two files declare the same date the first by path wins.
func (s *Service) Records(ctx context.Context) ([]models.LogRecord, LoadStats, error) {
	var stats LoadStats
	files, err := s.store.List("")
	if err != nil {
		return nil, stats, err
	}
	stats.Files = len(files)

	seen := make(map[string]string, len(files))
	records := make([]models.LogRecord, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		data, err := s.store.Read(f.Path)
		if err != nil {
			s.logger.Warn("load: read failed", slog.String("path", f.Path), slog.String("error", err.Error()))
			stats.Skipped++
			continue
		}
		rec, err := schema.Normalize(data)
		if err != nil {
			s.logger.Warn("load: record skipped",
				slog.String("path", f.Path),
				slog.String("reason", skipReason(err)),
				slog.String("error", err.Error()))
			stats.Skipped++
			continue
		}
		if first, dup := seen[rec.Date]; dup {
			s.logger.Warn("load: duplicate date skipped",
				slog.String("path", f.Path),
				slog.String("date", rec.Date),
				slog.String("kept", first))
			stats.Duplicates++
			continue
		}
		seen[rec.Date] = f.Path
		records = append(records, rec)
	}

	sort.SliceStable(records, func(i, j int) bool { return records[i].Date < records[j].Date })
	stats.Records = len(records)
	s.logger.Debug("load: done",
		slog.Int("files", stats.Files),
		slog.Int("records", stats.Records),
		slog.Int("skipped", stats.Skipped))
	return records, stats, nil
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, apperr.ErrMalformedJSON):
		return "malformed json"
	case errors.Is(err, apperr.ErrNotObject):
		return "root is not an object"
	case errors.Is(err, apperr.ErrInvalidDate):
		return "missing or invalid date"
	default:
		return "unknown"
	}
}

// Record returns the normalized record for date.
func (s *Service) Record(ctx context.Context, date string) (models.LogRecord, error) {
	records, _, err := s.Records(ctx)
	if err != nil {
		return models.LogRecord{}, err
	}
	for _, r := range records {
		if r.Date == date {
			return r, nil
		}
	}
	return models.LogRecord{}, fmt.Errorf("record %s: %w", date, apperr.ErrNotFound)
}

// Validate runs the strict validator over every listed file.
func (s *Service) Validate(ctx context.Context) (*validate.Report, error) {
	files, err := s.store.List("")
	if err != nil {
		return nil, err
	}
	inputs := make([]validate.File, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := s.store.Read(f.Path)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, validate.File{Path: filepath.Join(s.label, f.Path), Data: data})
	}
	return validate.Files(inputs), nil
}

// Snapshot fingerprints the current set of log files. It changes whenever a
// file is added, removed, or edited.
func (s *Service) Snapshot() (string, error) {
	files, err := s.store.List("")
	if err != nil {
		return "", err
	}
	return checksum.Snapshot(files), nil
}
