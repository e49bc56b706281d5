// Package models defines the domain types for the study log.
package models

import "time"

// GenericToshin names the lesson activity when a legacy record only carries
// a session count.
const GenericToshin = "東進"

// LogRecord is the canonical, schema-independent view of one day's log.
// Slices are never nil so that the record always serializes with [] lists.
type LogRecord struct {
	Date        string   `json:"date"`
	ToshinToday []string `json:"toshinToday"`
	Details     []string `json:"details"`
}

// EmptyRecord returns the record used for a date with no log.
func EmptyRecord(date string) LogRecord {
	return LogRecord{Date: date, ToshinToday: []string{}, Details: []string{}}
}

// HasToshin reports whether any lesson activity was logged.
func (r LogRecord) HasToshin() bool { return len(r.ToshinToday) > 0 }

// HasDetail reports whether any free-text detail was logged.
func (r LogRecord) HasDetail() bool { return len(r.Details) > 0 }

// LogFile is a lightweight description of one raw log file, returned by list
// operations.
type LogFile struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
