// Package store defines the search-store contract the pipeline and
// retriever depend on, and provides a local engine implementing it with
// Bleve (lexical, BM25) and HNSW (vector) indexes per collection.
package store

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// SnippetLength is how many body characters a hit's snippet keeps.
const SnippetLength = 200

// Document is the unit stored in the search engine. Its embedding always
// has the owning collection's fixed dimension, set once at collection
// creation from the embedding model in use.
type Document struct {
	DocID      string
	Collection string
	Title      string
	Body       string
	Metadata   map[string]any
	SourceFile string
	RowNumber  int
	CreatedAt  time.Time
	Embedding  []float32
}

// Hit is one ranked search result.
type Hit struct {
	DocID    string
	Title    string
	Snippet  string
	Metadata map[string]any
	Score    float64
	Body     string
}

// BulkFailure describes one document that a bulk upsert rejected.
type BulkFailure struct {
	DocID  string
	Reason string
}

// SearchStore is the external engine contract: bulk upsert, term-filtered
// lexical query, and k-nearest-neighbor vector query over a named
// collection. Filters are exact-match metadata constraints ANDed with the
// primary query.
type SearchStore interface {
	// CollectionExists reports whether the collection has been created.
	CollectionExists(ctx context.Context, name string) (bool, error)

	// CreateCollection creates a collection with a fixed embedding
	// dimension. Creating an existing collection is a no-op.
	CreateCollection(ctx context.Context, name string, dimensions int) error

	// DeleteCollection removes a collection and its documents.
	DeleteCollection(ctx context.Context, name string) error

	// BulkUpsert indexes documents, returning the success count and the
	// per-document failures. A transport-level error fails the whole call.
	BulkUpsert(ctx context.Context, name string, docs []*Document) (int, []BulkFailure, error)

	// VectorQuery returns the k nearest documents to vector, best first.
	VectorQuery(ctx context.Context, name string, vector []float32, k int, filters map[string]any) ([]*Hit, error)

	// LexicalQuery returns up to size documents ranked by relevance to
	// text, best first. Title matches are double-weighted and matching
	// is fuzzy.
	LexicalQuery(ctx context.Context, name string, text string, filters map[string]any, size int) ([]*Hit, error)

	// Close releases all collection resources.
	Close() error
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// SafeCollectionName derives a storage-safe name: characters outside
// [A-Za-z0-9_-] become "_", leading/trailing "_" are trimmed, the empty
// result falls back to "default", and the whole thing is lower-cased with
// a "collection_" prefix.
func SafeCollectionName(name string) string {
	safe := unsafeNameChars.ReplaceAllString(name, "_")
	safe = strings.Trim(safe, "_")
	if safe == "" {
		safe = "default"
	}
	return strings.ToLower("collection_" + safe)
}

// Snippet truncates body to SnippetLength characters, appending an
// ellipsis when something was cut.
func Snippet(body string) string {
	if len(body) <= SnippetLength {
		return body
	}
	return body[:SnippetLength] + "..."
}

// filterValueString canonicalizes a filter or metadata value for
// exact-match comparison in the lexical index.
func filterValueString(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}
