package ingest

import (
	"encoding/json"
	"strconv"
	"strings"
)

// orderedObject is a JSON object with its key order intact.
// It exists only inside the JSON/JSONL decode path; records flatten it
// to compact JSON text before it escapes this package.
type orderedObject struct {
	keys   []string
	values map[string]any
}

// decodeOrderedValue reads one JSON value off the decoder, keeping object
// key order. The decoder must have UseNumber set so numeric literals
// survive verbatim until normalization.
func decodeOrderedValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil // string, json.Number, bool, or nil
	}

	switch delim {
	case '{':
		obj := &orderedObject{values: make(map[string]any)}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, _ := keyTok.(string)
			val, err := decodeOrderedValue(dec)
			if err != nil {
				return nil, err
			}
			if _, exists := obj.values[key]; !exists {
				obj.keys = append(obj.keys, key)
			}
			obj.values[key] = val
		}
		if _, err := dec.Token(); err != nil { // consume '}'
			return nil, err
		}
		return obj, nil

	case '[':
		arr := []any{}
		for dec.More() {
			val, err := decodeOrderedValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, val)
		}
		if _, err := dec.Token(); err != nil { // consume ']'
			return nil, err
		}
		return arr, nil
	}

	return nil, nil
}

// normalizeScalar coerces a decoded JSON leaf to one of
// {nil, bool, int64, float64, string}.
func normalizeScalar(v any) any {
	switch val := v.(type) {
	case nil, bool, string:
		return val
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	default:
		return val
	}
}

// flattenObject turns a decoded JSON object into a Record. Nested objects
// and arrays become their compact JSON text; empty ones become "".
func flattenObject(obj *orderedObject) *Record {
	rec := NewRecord()
	for _, key := range obj.keys {
		switch val := obj.values[key].(type) {
		case *orderedObject:
			if len(val.keys) == 0 {
				rec.Set(key, "")
			} else {
				rec.Set(key, compactJSON(val))
			}
		case []any:
			if len(val) == 0 {
				rec.Set(key, "")
			} else {
				rec.Set(key, compactJSON(val))
			}
		default:
			rec.Set(key, normalizeScalar(val))
		}
	}
	return rec
}

// compactJSON serializes a decoded value back to JSON text, preserving
// object key order.
func compactJSON(v any) string {
	var sb strings.Builder
	writeJSON(&sb, v)
	return sb.String()
}

func writeJSON(sb *strings.Builder, v any) {
	switch val := v.(type) {
	case *orderedObject:
		sb.WriteByte('{')
		for i, key := range val.keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(quoteJSON(key))
			sb.WriteByte(':')
			writeJSON(sb, val.values[key])
		}
		sb.WriteByte('}')
	case []any:
		sb.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeJSON(sb, item)
		}
		sb.WriteByte(']')
	case json.Number:
		sb.WriteString(val.String())
	case nil:
		sb.WriteString("null")
	case bool:
		sb.WriteString(strconv.FormatBool(val))
	case string:
		sb.WriteString(quoteJSON(val))
	default:
		b, err := json.Marshal(val)
		if err != nil {
			sb.WriteString(`null`)
			return
		}
		sb.Write(b)
	}
}

func quoteJSON(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(b)
}
