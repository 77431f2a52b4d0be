package ingest

import (
	"os"
	"path/filepath"
	"strings"
)

// Format identifies a supported input file format.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatTSV   Format = "tsv"
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
)

// sniffHeadBytes caps how much of a file Detect reads.
const sniffHeadBytes = 8192

// Detect sniffs a file's head bytes and extension to pick a format.
// Returns false if the file is absent or no loader recognizes it.
//
// Loaders are tried in a fixed order: JSONL before JSON because a JSONL
// file's first line must independently parse as JSON while the extension
// alone is ambiguous, and JSON before the delimited formats so JSON content
// is never misread as delimited text.
func Detect(path string) (Format, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()

	head := make([]byte, sniffHeadBytes)
	n, err := f.Read(head)
	if err != nil && n == 0 {
		head = nil
	}
	head = head[:n]

	ext := strings.ToLower(filepath.Ext(path))
	for _, loader := range Loaders() {
		if loader.Sniff(head, ext) {
			return loader.Format(), true
		}
	}
	return "", false
}

// ParseFormat converts a format name to a Format.
func ParseFormat(name string) (Format, bool) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case FormatCSV:
		return FormatCSV, true
	case FormatTSV:
		return FormatTSV, true
	case FormatJSON:
		return FormatJSON, true
	case FormatJSONL, Format("ndjson"):
		return FormatJSONL, true
	}
	return "", false
}
