// Package schema maps the on-disk log shapes onto the canonical LogRecord.
//
// Three generations of the file format coexist on disk. None of them carries
// a version field, so the generation is inferred from the fields present
// (see Detect) and each generation has its own decoder and mapping.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/starford/studylog/internal/apperr"
)

// Document is a parsed JSON object with its values left undecoded.
type Document map[string]json.RawMessage

// Parse decodes data into a Document. It fails with apperr.ErrMalformedJSON
// when data is not JSON and apperr.ErrNotObject when the root is not an
// object.
func Parse(data []byte) (Document, error) {
	if !json.Valid(data) {
		var probe any
		err := json.Unmarshal(data, &probe)
		return nil, fmt.Errorf("%w: %v", apperr.ErrMalformedJSON, err)
	}
	doc, ok := AsObject(data)
	if !ok {
		return nil, apperr.ErrNotObject
	}
	return doc, nil
}

// Has reports whether key is present, whatever its value.
func (d Document) Has(key string) bool {
	_, ok := d[key]
	return ok
}

// String returns the string value of key.
func (d Document) String(key string) (string, bool) {
	raw, ok := d[key]
	if !ok {
		return "", false
	}
	return AsString(raw)
}

func kind(raw json.RawMessage) byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

// AsObject decodes raw as a JSON object. null is not an object.
func AsObject(raw json.RawMessage) (Document, bool) {
	if kind(raw) != '{' {
		return nil, false
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil || doc == nil {
		return nil, false
	}
	return doc, true
}

// AsArray decodes raw as a JSON array.
func AsArray(raw json.RawMessage) ([]json.RawMessage, bool) {
	if kind(raw) != '[' {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	return items, true
}

// AsString decodes raw as a JSON string.
func AsString(raw json.RawMessage) (string, bool) {
	if kind(raw) != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// AsInteger decodes raw as an integral JSON number. 2 and 2.0 are integers,
// 2.5 and "2" are not.
func AsInteger(raw json.RawMessage) (int64, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, false
	}
	num, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	if n, err := num.Int64(); err == nil {
		return n, true
	}
	f, err := num.Float64()
	if err != nil || math.Trunc(f) != f || math.Abs(f) > math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}
