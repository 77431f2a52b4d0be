package ingest

import (
	"github.com/Aman-CERP/semdex/internal/errors"
)

// Preview is what a caller needs to configure an indexing job for a file:
// the detected format, the column list in source order, a sample of
// records, and field suggestions derived from the sample.
type Preview struct {
	Format              Format
	Columns             []string
	Records             []*Record
	SuggestedTextFields []string
	SuggestedIDField    string
}

// PreviewFile detects a file's format and loads a preview with field
// suggestions. Fails with a format error when no loader matches and a
// parse error when the matched loader cannot read the sample.
func PreviewFile(path string, maxRows int) (*Preview, error) {
	format, ok := Detect(path)
	if !ok {
		return nil, errors.FormatError(path)
	}

	loader, err := LoaderFor(format)
	if err != nil {
		return nil, err
	}

	records, err := loader.Preview(path, maxRows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New(errors.ErrCodeNoRecords, "no records found in file", nil)
	}

	columns := records[0].Keys()
	return &Preview{
		Format:              format,
		Columns:             columns,
		Records:             records,
		SuggestedTextFields: SuggestTextFields(records, columns),
		SuggestedIDField:    SuggestIDField(columns),
	}, nil
}

// LoadRecords loads all records from a file in a known format.
func LoadRecords(path string, format Format) ([]*Record, error) {
	loader, err := LoaderFor(format)
	if err != nil {
		return nil, err
	}
	return loader.Load(path)
}
