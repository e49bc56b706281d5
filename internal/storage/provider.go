// Package storage defines the file-system abstraction for raw logs and
// generated output.
package storage

import "github.com/starford/studylog/internal/models"

// Provider is the interface for log and site file operations.
type Provider interface {
	// List returns metadata for every .json log under dir (relative to root),
	// in both the YYYYMM/YYYY-MM-DD.json and the flat YYYY-MM-DD.json layout.
	List(dir string) ([]models.LogFile, error)
	// Read returns the raw bytes of the file at path (relative to root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to root).
	Write(path string, content []byte) error
}
