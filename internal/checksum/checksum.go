// Package checksum computes content fingerprints for log files and assets.
package checksum

import (
	"fmt"
	"sort"

	"github.com/zeebo/xxh3"

	"github.com/starford/studylog/internal/models"
)

// Sum returns the hex-encoded XXH3 digest of data.
func Sum(data []byte) string {
	return fmt.Sprintf("%016x", xxh3.Hash(data))
}

// Short returns the first eight hex digits of Sum, used for asset URLs.
func Short(data []byte) string {
	return Sum(data)[:8]
}

// Snapshot fingerprints a set of files by path and checksum. Two listings of
// the same content yield the same value regardless of order.
func Snapshot(files []models.LogFile) string {
	sorted := make([]models.LogFile, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	h := xxh3.New()
	for _, f := range sorted {
		_, _ = h.Write([]byte(f.Path))
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(f.Checksum))
		_, _ = h.Write([]byte{'\n'})
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
