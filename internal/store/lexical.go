package store

import (
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
)

// titleBoost double-weights title matches in lexical queries.
const titleBoost = 2.0

// lexicalDoc is the shape indexed into Bleve. Metadata values are
// stringified and analyzed as keywords so filters are exact-match.
type lexicalDoc struct {
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	Metadata map[string]string `json:"metadata"`
}

// newLexicalMapping maps title and body as analyzed text and metadata
// fields as keywords.
func newLexicalMapping() (mapping.IndexMapping, error) {
	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("title", bleve.NewTextFieldMapping())
	docMapping.AddFieldMappingsAt("body", bleve.NewTextFieldMapping())

	metaMapping := bleve.NewDocumentMapping()
	metaMapping.DefaultAnalyzer = keyword.Name
	docMapping.AddSubDocumentMapping("metadata", metaMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	return indexMapping, nil
}

// newLexicalIndex opens or creates a Bleve index. An empty path creates an
// in-memory index.
func newLexicalIndex(path string) (bleve.Index, error) {
	indexMapping, err := newLexicalMapping()
	if err != nil {
		return nil, fmt.Errorf("failed to create index mapping: %w", err)
	}

	if path == "" {
		return bleve.NewMemOnly(indexMapping)
	}

	idx, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		idx, err = bleve.New(path, indexMapping)
	} else if err != nil {
		// A half-written index is unrecoverable; clear and recreate.
		if removeErr := os.RemoveAll(path); removeErr != nil {
			return nil, fmt.Errorf("lexical index corrupted at %s and cannot remove: %w (original error: %v)",
				path, removeErr, err)
		}
		idx, err = bleve.New(path, indexMapping)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create/open index: %w", err)
	}
	return idx, nil
}

// buildLexicalQuery builds the ranked full-text query: fuzzy matches over
// title (double-weighted) and body, ANDed with exact-match metadata terms.
func buildLexicalQuery(text string, filters map[string]any) query.Query {
	titleMatch := bleve.NewMatchQuery(text)
	titleMatch.SetField("title")
	titleMatch.SetBoost(titleBoost)
	titleMatch.SetFuzziness(1)

	bodyMatch := bleve.NewMatchQuery(text)
	bodyMatch.SetField("body")
	bodyMatch.SetFuzziness(1)

	primary := bleve.NewDisjunctionQuery(titleMatch, bodyMatch)
	if len(filters) == 0 {
		return primary
	}

	conjuncts := []query.Query{primary}
	for key, value := range filters {
		term := bleve.NewTermQuery(filterValueString(value))
		term.SetField("metadata." + key)
		conjuncts = append(conjuncts, term)
	}
	return bleve.NewConjunctionQuery(conjuncts...)
}

// toLexicalDoc converts a Document for indexing.
func toLexicalDoc(doc *Document) lexicalDoc {
	meta := make(map[string]string, len(doc.Metadata))
	for k, v := range doc.Metadata {
		meta[k] = filterValueString(v)
	}
	return lexicalDoc{Title: doc.Title, Body: doc.Body, Metadata: meta}
}
