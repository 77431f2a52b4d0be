package ingest

import (
	"fmt"

	"github.com/Aman-CERP/semdex/internal/errors"
)

// DefaultPreviewRows is how many records Preview returns by default.
const DefaultPreviewRows = 25

// Loader parses one file format into an ordered sequence of records.
//
// Error policy differs by format and is deliberate: JSON and JSONL abort
// the whole load on the first grammar violation (with the offending line
// number for JSONL), while CSV and TSV skip malformed rows best-effort.
// The asymmetry mirrors the upstream ingestion behavior and is preserved.
type Loader interface {
	// Format returns the format this loader handles.
	Format() Format

	// Sniff reports whether the head bytes and extension look like this
	// loader's format. ext includes the dot and is lower-cased.
	Sniff(head []byte, ext string) bool

	// Load parses the full file eagerly.
	Load(path string) ([]*Record, error)

	// Preview parses at most maxRows records.
	Preview(path string, maxRows int) ([]*Record, error)
}

// Loaders returns the registered loaders in sniffing order:
// JSONL, JSON, CSV, TSV. Order matters; see Detect.
func Loaders() []Loader {
	return []Loader{
		&JSONLLoader{},
		&JSONLoader{},
		&CSVLoader{},
		&TSVLoader{},
	}
}

// LoaderFor returns the loader for a format.
func LoaderFor(format Format) (Loader, error) {
	for _, l := range Loaders() {
		if l.Format() == format {
			return l, nil
		}
	}
	return nil, errors.ValidationError(fmt.Sprintf("unknown format: %s", format), nil)
}

// previewOf loads eagerly and truncates; loaders without a cheaper
// streaming path share it.
func previewOf(l Loader, path string, maxRows int) ([]*Record, error) {
	if maxRows <= 0 {
		maxRows = DefaultPreviewRows
	}
	records, err := l.Load(path)
	if err != nil {
		return nil, err
	}
	if len(records) > maxRows {
		records = records[:maxRows]
	}
	return records, nil
}
