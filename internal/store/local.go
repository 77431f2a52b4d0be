package store

import (
	"context"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
)

// ErrCollectionNotFound is returned by queries against a collection that
// was never created.
var ErrCollectionNotFound = errors.New("collection not found")

func init() {
	// Metadata maps hold interface values; gob needs the concrete types
	// registered before documents round-trip through docs.gob.
	gob.Register("")
	gob.Register(int(0))
	gob.Register(int64(0))
	gob.Register(float64(0))
	gob.Register(false)
	gob.Register(time.Time{})
}

// manifest records the fixed per-collection settings on disk.
type manifest struct {
	Name       string `json:"name"`
	Dimensions int    `json:"dimensions"`
}

// collection bundles the three per-collection stores: a Bleve index for
// lexical search, an HNSW graph for vector search, and the document map
// that is the source of truth for hit construction.
type collection struct {
	mu         sync.RWMutex
	safeName   string
	dimensions int
	dir        string // "" = in-memory only
	lexical    bleve.Index
	vectors    *vectorIndex
	docs       map[string]*Document
}

// LocalStore is the embedded search engine. One directory per collection
// under dataDir/collections; an empty dataDir keeps everything in memory.
type LocalStore struct {
	mu          sync.RWMutex
	dataDir     string
	logger      *slog.Logger
	collections map[string]*collection
	closed      bool
}

var _ SearchStore = (*LocalStore)(nil)

// NewLocalStore opens the engine rooted at dataDir, reloading any
// collections a previous run persisted. An empty dataDir disables
// persistence.
func NewLocalStore(dataDir string, logger *slog.Logger) (*LocalStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &LocalStore{
		dataDir:     dataDir,
		logger:      logger,
		collections: make(map[string]*collection),
	}
	if dataDir == "" {
		return s, nil
	}

	root := filepath.Join(dataDir, "collections")
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		coll, err := openCollection(filepath.Join(root, entry.Name()))
		if err != nil {
			logger.Warn("skipping unreadable collection",
				"collection", entry.Name(), "error", err)
			continue
		}
		s.collections[coll.safeName] = coll
	}
	return s, nil
}

// collectionDir returns the on-disk home for a safe collection name, or ""
// when the store is in-memory.
func (s *LocalStore) collectionDir(safeName string) string {
	if s.dataDir == "" {
		return ""
	}
	return filepath.Join(s.dataDir, "collections", safeName)
}

// CollectionExists reports whether the collection has been created.
func (s *LocalStore) CollectionExists(ctx context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false, errors.New("store is closed")
	}
	_, ok := s.collections[SafeCollectionName(name)]
	return ok, nil
}

// CreateCollection creates a collection with a fixed embedding dimension.
// Creating an existing collection is a no-op.
func (s *LocalStore) CreateCollection(ctx context.Context, name string, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("invalid dimensions: %d", dimensions)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("store is closed")
	}

	safeName := SafeCollectionName(name)
	if _, ok := s.collections[safeName]; ok {
		return nil
	}

	dir := s.collectionDir(safeName)
	var lexicalPath string
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create collection directory: %w", err)
		}
		lexicalPath = filepath.Join(dir, "lexical")
		m := manifest{Name: safeName, Dimensions: dimensions}
		data, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, "manifest.json"), data, 0o644); err != nil {
			return fmt.Errorf("failed to write manifest: %w", err)
		}
	}

	lexical, err := newLexicalIndex(lexicalPath)
	if err != nil {
		return fmt.Errorf("failed to create lexical index: %w", err)
	}

	s.collections[safeName] = &collection{
		safeName:   safeName,
		dimensions: dimensions,
		dir:        dir,
		lexical:    lexical,
		vectors:    newVectorIndex(dimensions),
		docs:       make(map[string]*Document),
	}
	s.logger.Info("collection created",
		"collection", safeName, "dimensions", dimensions)
	return nil
}

// DeleteCollection removes a collection and its documents. Deleting a
// collection that does not exist is a no-op.
func (s *LocalStore) DeleteCollection(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("store is closed")
	}

	safeName := SafeCollectionName(name)
	coll, ok := s.collections[safeName]
	if !ok {
		return nil
	}
	if err := coll.lexical.Close(); err != nil {
		s.logger.Warn("failed to close lexical index",
			"collection", safeName, "error", err)
	}
	delete(s.collections, safeName)

	if coll.dir != "" {
		if err := os.RemoveAll(coll.dir); err != nil {
			return fmt.Errorf("failed to remove collection directory: %w", err)
		}
	}
	s.logger.Info("collection deleted", "collection", safeName)
	return nil
}

// BulkUpsert indexes documents, returning the success count and the
// per-document failures. Re-indexing an existing doc id replaces it.
func (s *LocalStore) BulkUpsert(ctx context.Context, name string, docs []*Document) (int, []BulkFailure, error) {
	coll, err := s.getCollection(name)
	if err != nil {
		return 0, nil, err
	}

	coll.mu.Lock()
	defer coll.mu.Unlock()

	var failures []BulkFailure
	batch := coll.lexical.NewBatch()
	accepted := make([]*Document, 0, len(docs))
	for _, doc := range docs {
		if len(doc.Embedding) != coll.dimensions {
			failures = append(failures, BulkFailure{
				DocID: doc.DocID,
				Reason: fmt.Sprintf("embedding has %d dimensions, collection expects %d",
					len(doc.Embedding), coll.dimensions),
			})
			continue
		}
		if err := batch.Index(doc.DocID, toLexicalDoc(doc)); err != nil {
			failures = append(failures, BulkFailure{DocID: doc.DocID, Reason: err.Error()})
			continue
		}
		accepted = append(accepted, doc)
	}

	if err := coll.lexical.Batch(batch); err != nil {
		return 0, nil, fmt.Errorf("lexical batch failed: %w", err)
	}
	for _, doc := range accepted {
		if err := coll.vectors.add(doc.DocID, doc.Embedding); err != nil {
			return 0, nil, fmt.Errorf("vector add failed: %w", err)
		}
		coll.docs[doc.DocID] = doc
	}

	if err := coll.persistLocked(); err != nil {
		return 0, nil, fmt.Errorf("failed to persist collection: %w", err)
	}
	return len(accepted), failures, nil
}

// VectorQuery returns the k nearest documents to vector, best first.
// Metadata filters are applied after the graph search, with over-fetch to
// compensate.
func (s *LocalStore) VectorQuery(ctx context.Context, name string, vector []float32, k int, filters map[string]any) ([]*Hit, error) {
	coll, err := s.getCollection(name)
	if err != nil {
		return nil, err
	}

	coll.mu.RLock()
	defer coll.mu.RUnlock()

	fetch := k
	if len(filters) > 0 {
		fetch = min(k*4, coll.vectors.count())
		if fetch < k {
			fetch = k
		}
	}

	raw, err := coll.vectors.search(vector, fetch)
	if err != nil {
		return nil, err
	}

	hits := make([]*Hit, 0, k)
	for _, r := range raw {
		doc, ok := coll.docs[r.id]
		if !ok {
			continue
		}
		if !metadataMatches(doc.Metadata, filters) {
			continue
		}
		hits = append(hits, hitFrom(doc, r.score))
		if len(hits) == k {
			break
		}
	}
	return hits, nil
}

// LexicalQuery returns up to size documents ranked by BM25 relevance to
// text, best first.
func (s *LocalStore) LexicalQuery(ctx context.Context, name string, text string, filters map[string]any, size int) ([]*Hit, error) {
	coll, err := s.getCollection(name)
	if err != nil {
		return nil, err
	}

	coll.mu.RLock()
	defer coll.mu.RUnlock()

	request := bleve.NewSearchRequestOptions(buildLexicalQuery(text, filters), size, 0, false)
	result, err := coll.lexical.SearchInContext(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("lexical search failed: %w", err)
	}

	hits := make([]*Hit, 0, len(result.Hits))
	for _, match := range result.Hits {
		doc, ok := coll.docs[match.ID]
		if !ok {
			continue
		}
		hits = append(hits, hitFrom(doc, match.Score))
	}
	return hits, nil
}

// DocumentCount returns how many documents the collection holds.
func (s *LocalStore) DocumentCount(name string) (int, error) {
	coll, err := s.getCollection(name)
	if err != nil {
		return 0, err
	}
	coll.mu.RLock()
	defer coll.mu.RUnlock()
	return len(coll.docs), nil
}

// Close releases all collection resources.
func (s *LocalStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var firstErr error
	for name, coll := range s.collections {
		if err := coll.lexical.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close collection %s: %w", name, err)
		}
	}
	return firstErr
}

func (s *LocalStore) getCollection(name string) (*collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errors.New("store is closed")
	}
	coll, ok := s.collections[SafeCollectionName(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}
	return coll, nil
}

// persistLocked writes the vector index and document map to the
// collection directory. Caller holds coll.mu. In-memory collections skip
// persistence; the Bleve index persists itself.
func (c *collection) persistLocked() error {
	if c.dir == "" {
		return nil
	}
	if err := c.vectors.save(filepath.Join(c.dir, "vectors.hnsw")); err != nil {
		return err
	}
	return saveDocs(filepath.Join(c.dir, "docs.gob"), c.docs)
}

// openCollection reloads one persisted collection directory.
func openCollection(dir string) (*collection, error) {
	data, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	lexical, err := newLexicalIndex(filepath.Join(dir, "lexical"))
	if err != nil {
		return nil, err
	}

	vectors, err := loadVectorIndex(filepath.Join(dir, "vectors.hnsw"))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			_ = lexical.Close()
			return nil, err
		}
		vectors = newVectorIndex(m.Dimensions)
	}

	docs, err := loadDocs(filepath.Join(dir, "docs.gob"))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			_ = lexical.Close()
			return nil, err
		}
		docs = make(map[string]*Document)
	}

	return &collection{
		safeName:   m.Name,
		dimensions: m.Dimensions,
		dir:        dir,
		lexical:    lexical,
		vectors:    vectors,
		docs:       docs,
	}, nil
}

func saveDocs(path string, docs map[string]*Document) error {
	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create docs file: %w", err)
	}
	if err := gob.NewEncoder(file).Encode(docs); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to encode docs: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}

func loadDocs(path string) (map[string]*Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var docs map[string]*Document
	if err := gob.NewDecoder(file).Decode(&docs); err != nil {
		return nil, fmt.Errorf("failed to decode docs: %w", err)
	}
	return docs, nil
}

// metadataMatches reports whether every filter key compares equal to the
// document's metadata after canonicalization.
func metadataMatches(meta map[string]any, filters map[string]any) bool {
	for key, want := range filters {
		got, ok := meta[key]
		if !ok {
			return false
		}
		if filterValueString(got) != filterValueString(want) {
			return false
		}
	}
	return true
}

func hitFrom(doc *Document, score float64) *Hit {
	return &Hit{
		DocID:    doc.DocID,
		Title:    doc.Title,
		Snippet:  Snippet(doc.Body),
		Metadata: doc.Metadata,
		Score:    score,
		Body:     doc.Body,
	}
}
