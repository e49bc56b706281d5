// Package validate checks raw log files against the current on-disk schema.
//
// Validation is strict where normalization is lenient: every unknown field,
// wrong type, or date inconsistency becomes an Issue. All files are checked
// before the report is returned so a single run lists every problem.
package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/starford/studylog/internal/apperr"
	"github.com/starford/studylog/internal/calendar"
	"github.com/starford/studylog/internal/schema"
)

// ErrFailed is returned by Report.Err when at least one issue was found.
var ErrFailed = errors.New("validation failed")

// Kind classifies an Issue.
type Kind int

const (
	// KindStructural covers unknown fields, wrong types and missing fields.
	KindStructural Kind = iota + 1
	// KindDate covers invalid dates, filename or folder mismatches and duplicates.
	KindDate
	// KindMalformedJSON means the file could not be parsed at all.
	KindMalformedJSON
)

func (k Kind) String() string {
	switch k {
	case KindStructural:
		return "structural"
	case KindDate:
		return "date"
	case KindMalformedJSON:
		return "malformed-json"
	default:
		return "unknown"
	}
}

// Issue is one violation found in one file.
type Issue struct {
	Path    string
	Kind    Kind
	Message string
}

func (i Issue) String() string { return i.Message }

// File is a raw log file to validate. Path is used verbatim in messages.
type File struct {
	Path string
	Data []byte
}

// Report is the outcome of a validation run.
type Report struct {
	Files  int
	Issues []Issue
}

// Err returns ErrFailed wrapped with the issue count, or nil.
func (r *Report) Err() error {
	if len(r.Issues) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d error(s)", ErrFailed, len(r.Issues))
}

// Count returns the number of issues of the given kind.
func (r *Report) Count(k Kind) int {
	n := 0
	for _, i := range r.Issues {
		if i.Kind == k {
			n++
		}
	}
	return n
}

var (
	stemRe   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	folderRe = regexp.MustCompile(`^\d{6}$`)

	rootFields   = set("date", "plan", "notes", "toshinKoma", "study", "toshin", "toshinToday", "details")
	studyFields  = set("subject", "focus", "detail", "tags")
	toshinFields = set("subject", "course", "koma", "memo")
)

func set(keys ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		m[k] = struct{}{}
	}
	return m
}

// checker accumulates issues for a single file.
type checker struct {
	path   string
	issues []Issue
}

func (c *checker) add(k Kind, format string, args ...any) {
	c.issues = append(c.issues, Issue{Path: c.path, Kind: k, Message: fmt.Sprintf(format, args...)})
}

// Files validates every file and the cross-file duplicate-date rule.
func Files(files []File) *Report {
	report := &Report{Files: len(files)}
	seen := make(map[string]string, len(files))

	for _, f := range files {
		c := &checker{path: f.Path}
		date, hasDate := c.file(f)

		if hasDate {
			if first, dup := seen[date]; dup {
				c.add(KindDate, "Duplicate date %s: %s and %s", date, first, f.Path)
			} else {
				seen[date] = f.Path
			}
		}
		report.Issues = append(report.Issues, c.issues...)
	}
	return report
}

// file runs the per-file checks and returns the declared date when it is a
// string, valid or not.
func (c *checker) file(f File) (string, bool) {
	stem := strings.TrimSuffix(filepath.Base(f.Path), ".json")
	folder := filepath.Base(filepath.Dir(f.Path))

	if !stemRe.MatchString(stem) {
		c.add(KindDate, "%s filename must be YYYY-MM-DD.json", f.Path)
	}
	if !folderRe.MatchString(folder) {
		c.add(KindDate, "%s must be inside a YYYYMM month folder", f.Path)
	}

	doc, err := schema.Parse(f.Data)
	if err != nil {
		if errors.Is(err, apperr.ErrNotObject) {
			c.add(KindStructural, "%s root must be an object", f.Path)
		} else {
			reason := strings.TrimPrefix(err.Error(), apperr.ErrMalformedJSON.Error()+": ")
			c.add(KindMalformedJSON, "%s is not valid JSON: %s", f.Path, reason)
		}
		return "", false
	}

	c.root(doc)

	date, ok := doc.String("date")
	if !ok {
		return "", false
	}
	if date != stem {
		c.add(KindDate, "%s date mismatch: filename=%s, date=%s", f.Path, stem, date)
	}
	if calendar.IsValidDate(date) {
		if want := date[0:4] + date[5:7]; folder != want {
			c.add(KindDate, "%s date mismatch: folder=%s, date=%s", f.Path, folder, date)
		}
	}
	return date, true
}

func (c *checker) root(doc schema.Document) {
	for _, key := range unknownKeys(doc, rootFields) {
		c.add(KindStructural, "%s has unknown field: %s", c.path, key)
	}

	if date, ok := doc.String("date"); !ok || !calendar.IsValidDate(date) {
		c.add(KindDate, "%s.date must be a valid YYYY-MM-DD string", c.path)
	}

	for _, key := range []string{"plan", "notes"} {
		if raw, ok := doc[key]; ok {
			if _, isStr := schema.AsString(raw); !isStr {
				c.add(KindStructural, "%s.%s must be a string", c.path, key)
			}
		}
	}

	if raw, ok := doc["toshinKoma"]; ok {
		if n, isInt := schema.AsInteger(raw); !isInt || n < 0 {
			c.add(KindStructural, "%s.toshinKoma must be an integer >= 0", c.path)
		}
	}

	for _, key := range []string{"toshinToday", "details"} {
		if raw, ok := doc[key]; ok {
			c.stringList(fmt.Sprintf("%s.%s", c.path, key), raw)
		}
	}

	if raw, ok := doc["study"]; ok {
		c.items("study", raw, c.studyItem)
	}
	if raw, ok := doc["toshin"]; ok {
		c.items("toshin", raw, c.toshinItem)
	}
}

func (c *checker) items(key string, raw json.RawMessage, check func(prefix string, item schema.Document)) {
	items, ok := schema.AsArray(raw)
	if !ok {
		c.add(KindStructural, "%s.%s must be an array", c.path, key)
		return
	}
	for idx, item := range items {
		prefix := fmt.Sprintf("%s %s[%d]", c.path, key, idx)
		obj, ok := schema.AsObject(item)
		if !ok {
			c.add(KindStructural, "%s must be an object", prefix)
			continue
		}
		check(prefix, obj)
	}
}

func (c *checker) studyItem(prefix string, item schema.Document) {
	for _, key := range unknownKeys(item, studyFields) {
		c.add(KindStructural, "%s has unknown field: %s", prefix, key)
	}
	for _, key := range []string{"subject", "focus", "detail"} {
		c.nonEmptyString(prefix+"."+key, item[key])
	}
	if raw, ok := item["tags"]; ok {
		c.stringList(prefix+".tags", raw)
	}
}

func (c *checker) toshinItem(prefix string, item schema.Document) {
	for _, key := range unknownKeys(item, toshinFields) {
		c.add(KindStructural, "%s has unknown field: %s", prefix, key)
	}
	for _, key := range []string{"subject", "course"} {
		c.nonEmptyString(prefix+"."+key, item[key])
	}
	if n, ok := schema.AsInteger(item["koma"]); !ok || n < 1 {
		c.add(KindStructural, "%s.koma must be an integer >= 1", prefix)
	}
	if raw, ok := item["memo"]; ok {
		if _, isStr := schema.AsString(raw); !isStr {
			c.add(KindStructural, "%s.memo must be a string", prefix)
		}
	}
}

func (c *checker) nonEmptyString(field string, raw json.RawMessage) {
	if s, ok := schema.AsString(raw); !ok || strings.TrimSpace(s) == "" {
		c.add(KindStructural, "%s must be a non-empty string", field)
	}
}

func (c *checker) stringList(field string, raw json.RawMessage) {
	items, ok := schema.AsArray(raw)
	if !ok {
		c.add(KindStructural, "%s must be an array", field)
		return
	}
	for idx, item := range items {
		c.nonEmptyString(fmt.Sprintf("%s[%d]", field, idx), item)
	}
}

func unknownKeys(doc schema.Document, allowed map[string]struct{}) []string {
	var out []string
	for key := range doc {
		if _, ok := allowed[key]; !ok {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}
