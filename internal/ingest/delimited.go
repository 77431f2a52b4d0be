package ingest

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/Aman-CERP/semdex/internal/errors"
)

// CSVLoader loads comma-delimited files.
type CSVLoader struct{}

func (l *CSVLoader) Format() Format { return FormatCSV }

func (l *CSVLoader) Sniff(head []byte, ext string) bool {
	if ext != ".csv" {
		return false
	}
	return sniffDelimited(head, ',', false)
}

func (l *CSVLoader) Load(path string) ([]*Record, error) {
	return loadDelimited(path, FormatCSV, ',')
}

func (l *CSVLoader) Preview(path string, maxRows int) ([]*Record, error) {
	return previewOf(l, path, maxRows)
}

// TSVLoader loads tab-delimited files.
type TSVLoader struct{}

func (l *TSVLoader) Format() Format { return FormatTSV }

func (l *TSVLoader) Sniff(head []byte, ext string) bool {
	if ext != ".tsv" {
		return false
	}
	return sniffDelimited(head, '\t', true)
}

func (l *TSVLoader) Load(path string) ([]*Record, error) {
	return loadDelimited(path, FormatTSV, '\t')
}

func (l *TSVLoader) Preview(path string, maxRows int) ([]*Record, error) {
	return previewOf(l, path, maxRows)
}

// sniffDelimited checks that the first line tokenizes under the delimiter.
// requireDelim additionally demands the delimiter be present, so arbitrary
// single-column text is not mistaken for TSV.
func sniffDelimited(head []byte, delim rune, requireDelim bool) bool {
	first, _, _ := strings.Cut(string(head), "\n")
	if requireDelim && !strings.ContainsRune(first, delim) {
		return false
	}
	r := csv.NewReader(strings.NewReader(first))
	r.Comma = delim
	if _, err := r.Read(); err != nil && err != io.EOF {
		return false
	}
	return true
}

// loadDelimited parses a delimited file best-effort: the header row is
// required, malformed data rows are skipped, short rows are padded with
// empty cells. Cell values stay strings; missing cells become "".
func loadDelimited(path string, format Format, delim rune) ([]*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = delim
	r.FieldsPerRecord = -1 // row length handled below
	r.LazyQuotes = false

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, errors.ParseError(string(format), 1, err)
	}
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(h)
	}

	var records []*Record
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Best-effort mode: a malformed row is dropped, never fatal.
			continue
		}
		if len(row) > len(columns) {
			// Extra cells mean a malformed row under this header.
			continue
		}

		rec := NewRecord()
		for i, col := range columns {
			var cell string
			if i < len(row) {
				cell = strings.TrimSpace(row[i])
			}
			rec.Set(col, cell)
		}
		records = append(records, rec)
	}

	return records, nil
}
