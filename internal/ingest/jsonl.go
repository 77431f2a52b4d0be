package ingest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"strings"

	"github.com/Aman-CERP/semdex/internal/errors"
)

// maxLineBytes bounds a single JSONL line (16MB).
const maxLineBytes = 16 * 1024 * 1024

// JSONLLoader loads newline-delimited JSON. One malformed line aborts the
// whole load with its line number; blank lines and non-object values are
// skipped.
type JSONLLoader struct{}

func (l *JSONLLoader) Format() Format { return FormatJSONL }

func (l *JSONLLoader) Sniff(head []byte, ext string) bool {
	if ext != ".jsonl" && ext != ".ndjson" {
		return false
	}
	trimmed := strings.TrimSpace(string(head))
	if trimmed == "" {
		return true // empty file is valid JSONL
	}
	first, _, _ := strings.Cut(trimmed, "\n")
	return json.Valid([]byte(first))
}

func (l *JSONLLoader) Load(path string) ([]*Record, error) {
	return l.load(path, 0)
}

func (l *JSONLLoader) Preview(path string, maxRows int) ([]*Record, error) {
	if maxRows <= 0 {
		maxRows = DefaultPreviewRows
	}
	return l.load(path, maxRows)
}

// load parses up to maxRows records (0 means all).
func (l *JSONLLoader) load(path string, maxRows int) ([]*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	var records []*Record
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		dec := json.NewDecoder(bytes.NewReader([]byte(line)))
		dec.UseNumber()
		value, err := decodeOrderedValue(dec)
		if err != nil {
			return nil, errors.ParseError("JSONL", lineNo, err)
		}

		obj, ok := value.(*orderedObject)
		if !ok {
			continue // scalar or array line is not a record
		}
		records = append(records, flattenObject(obj))

		if maxRows > 0 && len(records) >= maxRows {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.ParseError("JSONL", lineNo, err)
	}

	return records, nil
}
