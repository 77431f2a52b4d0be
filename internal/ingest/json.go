package ingest

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"

	"github.com/Aman-CERP/semdex/internal/errors"
)

// JSONLoader loads whole-file JSON documents.
//
// Record extraction: a top-level array of objects yields one record per
// object. A top-level object is searched, in key order, for its first
// array-of-objects value; without one the object itself becomes a single
// record. Anything else has no record set and fails the load.
type JSONLoader struct{}

func (l *JSONLoader) Format() Format { return FormatJSON }

func (l *JSONLoader) Sniff(head []byte, ext string) bool {
	if ext != ".json" {
		return false
	}
	trimmed := strings.TrimSpace(string(head))
	return strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")
}

func (l *JSONLoader) Load(path string) ([]*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	value, err := decodeOrderedValue(dec)
	if err != nil {
		return nil, errors.ParseError("JSON", 0, err)
	}

	objects := recordSetFrom(value)
	if len(objects) == 0 {
		return nil, errors.New(errors.ErrCodeNoRecords,
			"JSON file has no array of objects or single object", nil)
	}

	records := make([]*Record, 0, len(objects))
	for _, obj := range objects {
		records = append(records, flattenObject(obj))
	}
	return records, nil
}

func (l *JSONLoader) Preview(path string, maxRows int) ([]*Record, error) {
	return previewOf(l, path, maxRows)
}

// recordSetFrom extracts the objects that make up the record set.
func recordSetFrom(value any) []*orderedObject {
	switch v := value.(type) {
	case []any:
		return objectsOf(v)
	case *orderedObject:
		for _, key := range v.keys {
			if arr, ok := v.values[key].([]any); ok {
				if objs := objectsOf(arr); objs != nil {
					return objs
				}
			}
		}
		if len(v.keys) == 0 {
			return nil
		}
		return []*orderedObject{v}
	}
	return nil
}

// objectsOf returns the object elements of arr, but only when the first
// element is an object; a leading scalar means arr is not a record set.
func objectsOf(arr []any) []*orderedObject {
	if len(arr) == 0 {
		return nil
	}
	if _, ok := arr[0].(*orderedObject); !ok {
		return nil
	}
	objs := make([]*orderedObject, 0, len(arr))
	for _, item := range arr {
		if obj, ok := item.(*orderedObject); ok {
			objs = append(objs, obj)
		}
	}
	return objs
}
