package store

import (
	"bufio"
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/coder/hnsw"
)

// vectorIndex wraps a coder/hnsw graph with string document ids.
// String ids are mapped to sequential uint64 keys; deletion is lazy
// (mappings dropped, node orphaned) because removing the last graph node
// breaks coder/hnsw.
type vectorIndex struct {
	mu         sync.RWMutex
	graph      *hnsw.Graph[uint64]
	dimensions int

	idMap   map[string]uint64
	keyMap  map[uint64]string
	nextKey uint64
}

// vectorMetadata is the gob-persisted sidecar of a vector index.
type vectorMetadata struct {
	IDMap      map[string]uint64
	NextKey    uint64
	Dimensions int
}

// vectorHit is a raw nearest-neighbor match.
type vectorHit struct {
	id    string
	score float64
}

func newVectorIndex(dimensions int) *vectorIndex {
	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = 16
	graph.EfSearch = 20
	graph.Ml = 0.25

	return &vectorIndex{
		graph:      graph,
		dimensions: dimensions,
		idMap:      make(map[string]uint64),
		keyMap:     make(map[uint64]string),
	}
}

// add inserts or replaces one vector.
func (v *vectorIndex) add(id string, vector []float32) error {
	if len(vector) != v.dimensions {
		return fmt.Errorf("vector has %d dimensions, index expects %d",
			len(vector), v.dimensions)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if existingKey, exists := v.idMap[id]; exists {
		// Lazy delete: orphan the old key instead of mutating the graph.
		delete(v.keyMap, existingKey)
		delete(v.idMap, id)
	}

	key := v.nextKey
	v.nextKey++

	vec := make([]float32, len(vector))
	copy(vec, vector)
	normalizeInPlace(vec)

	v.graph.Add(hnsw.MakeNode(key, vec))
	v.idMap[id] = key
	v.keyMap[key] = id
	return nil
}

// search returns the k nearest ids with cosine similarity scores.
func (v *vectorIndex) search(query []float32, k int) ([]vectorHit, error) {
	if len(query) != v.dimensions {
		return nil, fmt.Errorf("query has %d dimensions, index expects %d",
			len(query), v.dimensions)
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	if v.graph.Len() == 0 {
		return nil, nil
	}

	normalized := make([]float32, len(query))
	copy(normalized, query)
	normalizeInPlace(normalized)

	nodes := v.graph.Search(normalized, k)
	hits := make([]vectorHit, 0, len(nodes))
	for _, node := range nodes {
		id, exists := v.keyMap[node.Key]
		if !exists {
			continue // lazily deleted
		}
		distance := v.graph.Distance(normalized, node.Value)
		hits = append(hits, vectorHit{
			id: id,
			// Cosine distance ranges 0-2; map to similarity 0-1.
			score: 1.0 - float64(distance)/2.0,
		})
	}
	return hits, nil
}

func (v *vectorIndex) count() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.idMap)
}

// save writes the graph and id mappings next to path, atomically.
func (v *vectorIndex) save(path string) error {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create index file: %w", err)
	}
	if err := v.graph.Export(file); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to export graph: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	meta := vectorMetadata{IDMap: v.idMap, NextKey: v.nextKey, Dimensions: v.dimensions}
	metaTmp := path + ".meta.tmp"
	metaFile, err := os.Create(metaTmp)
	if err != nil {
		return fmt.Errorf("failed to create metadata file: %w", err)
	}
	if err := gob.NewEncoder(metaFile).Encode(meta); err != nil {
		_ = metaFile.Close()
		_ = os.Remove(metaTmp)
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	if err := metaFile.Close(); err != nil {
		_ = os.Remove(metaTmp)
		return err
	}
	return os.Rename(metaTmp, path+".meta")
}

// load restores a saved vector index.
func loadVectorIndex(path string) (*vectorIndex, error) {
	metaFile, err := os.Open(path + ".meta")
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata file: %w", err)
	}
	defer metaFile.Close()

	var meta vectorMetadata
	if err := gob.NewDecoder(metaFile).Decode(&meta); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}

	v := newVectorIndex(meta.Dimensions)
	v.idMap = meta.IDMap
	v.nextKey = meta.NextKey
	for id, key := range v.idMap {
		v.keyMap[key] = id
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index file: %w", err)
	}
	defer file.Close()

	// coder/hnsw Import requires an io.ByteReader
	if err := v.graph.Import(bufio.NewReader(file)); err != nil {
		return nil, fmt.Errorf("failed to import graph: %w", err)
	}
	return v, nil
}

// normalizeInPlace normalizes a vector to unit length in place.
func normalizeInPlace(v []float32) {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	if sumSquares == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(sumSquares))
	for i := range v {
		v[i] *= inv
	}
}
