// Package ingest normalizes heterogeneous tabular and record files
// (CSV, TSV, JSON, JSONL) into flat, ordered key-value records.
//
// Values in a loaded record are always one of: nil, bool, int64, float64,
// or string. Nested JSON structures are flattened to their compact JSON
// text. Field order from the source file is preserved, because preview
// display and field suggestions depend on it.
package ingest

import (
	"fmt"
	"strings"
)

// Record is a single logical input row: an insertion-ordered mapping from
// field name to a normalized scalar. Records are immutable once loaded.
type Record struct {
	keys   []string
	values map[string]any
}

// NewRecord creates an empty record.
func NewRecord() *Record {
	return &Record{values: make(map[string]any)}
}

// Set stores a value, appending the key to the iteration order if new.
func (r *Record) Set(key string, value any) {
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Get returns the value for key and whether the key exists.
func (r *Record) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Keys returns the field names in source order.
func (r *Record) Keys() []string {
	return r.keys
}

// Len returns the number of fields.
func (r *Record) Len() int {
	return len(r.keys)
}

// StringValue returns the trimmed string form of the value for key.
// nil yields "". Numbers and bools use their canonical Go formatting.
func (r *Record) StringValue(key string) string {
	v, ok := r.values[key]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}
