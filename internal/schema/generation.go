package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/starford/studylog/internal/apperr"
	"github.com/starford/studylog/internal/calendar"
	"github.com/starford/studylog/internal/models"
)

// Generation identifies which on-disk shape a file uses.
type Generation int

const (
	// GenStudy is {date, study:[{subject,focus,detail,tags?}], toshin:[{subject,course,koma,memo?}], notes}.
	GenStudy Generation = iota + 1
	// GenPlan is {date, plan, notes, toshinKoma, study?, toshin?}.
	GenPlan
	// GenCurrent is {date, toshinToday?, details?, plan?, notes?, toshin?}.
	GenCurrent
)

func (g Generation) String() string {
	switch g {
	case GenStudy:
		return "study"
	case GenPlan:
		return "plan"
	case GenCurrent:
		return "current"
	default:
		return "unknown"
	}
}

// Variant is one decoded log file of a known generation.
type Variant interface {
	Generation() Generation
	Date() string
	Record() models.LogRecord
}

// Detect infers the generation of doc from the fields it carries.
func Detect(doc Document) Generation {
	if doc.Has("toshinToday") || doc.Has("details") {
		return GenCurrent
	}
	if anyItemHas(doc["study"], "focus") && anyItemHas(doc["toshin"], "koma") {
		return GenStudy
	}
	return GenPlan
}

func anyItemHas(raw json.RawMessage, key string) bool {
	items, _ := AsArray(raw)
	for _, item := range items {
		if obj, ok := AsObject(item); ok && obj.Has(key) {
			return true
		}
	}
	return false
}

// Decode parses data and decodes it as the generation Detect selects.
// It only fails when the file is not a JSON object or its date is missing or
// not a real calendar date. Every other field degrades to empty.
func Decode(data []byte) (Variant, error) {
	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	date, _ := doc.String("date")
	if !calendar.IsValidDate(date) {
		return nil, fmt.Errorf("date %q: %w", date, apperr.ErrInvalidDate)
	}

	switch Detect(doc) {
	case GenStudy:
		return decodeStudy(date, doc), nil
	case GenCurrent:
		return decodeCurrent(date, doc), nil
	default:
		return decodePlan(date, doc), nil
	}
}

// Normalize decodes data and maps it to the canonical record.
func Normalize(data []byte) (models.LogRecord, error) {
	v, err := Decode(data)
	if err != nil {
		return models.LogRecord{}, err
	}
	return v.Record(), nil
}

type studyLog struct {
	date       string
	subjects   []string
	plan       string
	notes      string
	toshinKoma int64
}

// decodeStudy also reads plan and toshinKoma: a plan-style file whose
// arrays carry focus and koma is detected as this generation.
func decodeStudy(date string, doc Document) studyLog {
	plan, _ := doc.String("plan")
	notes, _ := doc.String("notes")
	koma, _ := AsInteger(doc["toshinKoma"])
	return studyLog{
		date:       date,
		subjects:   toshinSubjects(doc["toshin"]),
		plan:       plan,
		notes:      notes,
		toshinKoma: koma,
	}
}

func (studyLog) Generation() Generation { return GenStudy }
func (l studyLog) Date() string         { return l.date }

// Record never folds study[].detail into Details.
func (l studyLog) Record() models.LogRecord {
	return models.LogRecord{
		Date:        l.date,
		ToshinToday: firstNonEmpty(l.subjects, komaFallback(l.toshinKoma)),
		Details:     firstNonEmpty(planNotes(l.plan, l.notes)),
	}
}

type planLog struct {
	date       string
	plan       string
	notes      string
	subjects   []string
	toshinKoma int64
}

func decodePlan(date string, doc Document) planLog {
	plan, _ := doc.String("plan")
	notes, _ := doc.String("notes")
	koma, _ := AsInteger(doc["toshinKoma"])
	return planLog{
		date:       date,
		plan:       plan,
		notes:      notes,
		subjects:   toshinSubjects(doc["toshin"]),
		toshinKoma: koma,
	}
}

func (planLog) Generation() Generation { return GenPlan }
func (l planLog) Date() string         { return l.date }

func (l planLog) Record() models.LogRecord {
	return models.LogRecord{
		Date:        l.date,
		ToshinToday: firstNonEmpty(l.subjects, komaFallback(l.toshinKoma)),
		Details:     firstNonEmpty(planNotes(l.plan, l.notes)),
	}
}

type currentLog struct {
	date        string
	toshinToday []string
	details     []string
	plan        string
	notes       string
	subjects    []string
	toshinKoma  int64
}

func decodeCurrent(date string, doc Document) currentLog {
	plan, _ := doc.String("plan")
	notes, _ := doc.String("notes")
	koma, _ := AsInteger(doc["toshinKoma"])
	return currentLog{
		date:        date,
		toshinToday: dedupe(trimmedStrings(doc["toshinToday"])),
		details:     trimmedStrings(doc["details"]),
		plan:        plan,
		notes:       notes,
		subjects:    toshinSubjects(doc["toshin"]),
		toshinKoma:  koma,
	}
}

func (currentLog) Generation() Generation { return GenCurrent }
func (l currentLog) Date() string         { return l.date }

func (l currentLog) Record() models.LogRecord {
	return models.LogRecord{
		Date:        l.date,
		ToshinToday: firstNonEmpty(l.toshinToday, l.subjects, komaFallback(l.toshinKoma)),
		Details:     firstNonEmpty(l.details, planNotes(l.plan, l.notes)),
	}
}

// trimmedStrings returns the non-empty trimmed strings of a JSON array,
// skipping any element that is not a string.
func trimmedStrings(raw json.RawMessage) []string {
	items, _ := AsArray(raw)
	var out []string
	for _, item := range items {
		s, ok := AsString(item)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// toshinSubjects returns the distinct subjects of a toshin[] array in
// first-seen order.
func toshinSubjects(raw json.RawMessage) []string {
	items, _ := AsArray(raw)
	var out []string
	for _, item := range items {
		obj, ok := AsObject(item)
		if !ok {
			continue
		}
		s, _ := obj.String("subject")
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return dedupe(out)
}

func komaFallback(koma int64) []string {
	if koma >= 1 {
		return []string{models.GenericToshin}
	}
	return nil
}

func planNotes(plan, notes string) []string {
	var out []string
	if p := strings.TrimSpace(plan); p != "" {
		out = append(out, p)
	}
	if n := strings.TrimSpace(notes); n != "" {
		out = append(out, n)
	}
	return out
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// firstNonEmpty returns the first non-empty candidate, or an empty non-nil
// slice.
func firstNonEmpty(candidates ...[]string) []string {
	for _, c := range candidates {
		if len(c) > 0 {
			return c
		}
	}
	return []string{}
}
