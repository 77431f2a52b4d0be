package ingest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"strings"
)

// QuickCount estimates the record count of a file without a full parse.
// It seeds a queued job's total before the pipeline loads the file for
// real. Returns 0 when the file cannot be read; the estimate is not
// authoritative and is overwritten once records are loaded.
func QuickCount(path string, format Format) int {
	switch format {
	case FormatCSV, FormatTSV:
		lines := countLines(path, false)
		if lines > 0 {
			return lines - 1 // header row
		}
		return 0
	case FormatJSONL:
		return countLines(path, true)
	case FormatJSON:
		return countJSON(path)
	}
	return 0
}

func countLines(path string, skipBlank bool) int {
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	count := 0
	for scanner.Scan() {
		if skipBlank && strings.TrimSpace(scanner.Text()) == "" {
			continue
		}
		count++
	}
	return count
}

func countJSON(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	value, err := decodeOrderedValue(dec)
	if err != nil {
		return 0
	}

	switch v := value.(type) {
	case []any:
		return len(v)
	case *orderedObject:
		for _, key := range v.keys {
			if arr, ok := v.values[key].([]any); ok {
				return len(arr)
			}
		}
		return 1
	}
	return 0
}
