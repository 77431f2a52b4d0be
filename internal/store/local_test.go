package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// testVector returns a unit-ish 4-dim vector biased toward one axis so
// nearest-neighbor order is predictable.
func testVector(axis int) []float32 {
	v := []float32{0.1, 0.1, 0.1, 0.1}
	v[axis] = 1.0
	return v
}

func testDoc(id string, axis int, body string) *Document {
	return &Document{
		DocID:     id,
		Title:     "doc " + id,
		Body:      body,
		Metadata:  map[string]any{"source_file": "test.csv"},
		CreatedAt: time.Now().UTC(),
		Embedding: testVector(axis),
	}
}

func TestSafeCollectionName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple", "products", "collection_products"},
		{"mixed case lowered", "MyData", "collection_mydata"},
		{"spaces and punctuation", "My Data! (v2)", "collection_my_data___v2"},
		{"leading trailing underscores trimmed", "__data__", "collection_data"},
		{"all unsafe falls back", "???", "collection_default"},
		{"empty falls back", "", "collection_default"},
		{"hyphens kept", "my-data", "collection_my-data"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SafeCollectionName(tt.input))
		})
	}
}

func TestSnippet(t *testing.T) {
	short := "short body"
	assert.Equal(t, short, Snippet(short))

	long := ""
	for i := 0; i < 50; i++ {
		long += "0123456789"
	}
	got := Snippet(long)
	assert.Len(t, got, SnippetLength+3)
	assert.Equal(t, long[:SnippetLength]+"...", got)
}

func TestCreateCollection_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateCollection(ctx, "products", 4))
	require.NoError(t, s.CreateCollection(ctx, "products", 4))

	exists, err := s.CollectionExists(ctx, "products")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.CollectionExists(ctx, "other")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCreateCollection_InvalidDimensions(t *testing.T) {
	s := newTestStore(t)
	err := s.CreateCollection(context.Background(), "bad", 0)
	assert.Error(t, err)
}

func TestBulkUpsert_SuccessAndDimensionMismatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateCollection(ctx, "docs", 4))

	bad := testDoc("bad", 0, "body")
	bad.Embedding = []float32{1, 2} // wrong dimension

	count, failures, err := s.BulkUpsert(ctx, "docs", []*Document{
		testDoc("a", 0, "alpha body"),
		bad,
		testDoc("b", 1, "beta body"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	require.Len(t, failures, 1)
	assert.Equal(t, "bad", failures[0].DocID)
	assert.Contains(t, failures[0].Reason, "dimensions")
}

func TestBulkUpsert_ReplacesExisting(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateCollection(ctx, "docs", 4))

	_, _, err := s.BulkUpsert(ctx, "docs", []*Document{testDoc("a", 0, "original")})
	require.NoError(t, err)
	_, _, err = s.BulkUpsert(ctx, "docs", []*Document{testDoc("a", 0, "replaced")})
	require.NoError(t, err)

	n, err := s.DocumentCount("docs")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	hits, err := s.VectorQuery(ctx, "docs", testVector(0), 5, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "replaced", hits[0].Body)
}

func TestVectorQuery_NearestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateCollection(ctx, "docs", 4))

	_, _, err := s.BulkUpsert(ctx, "docs", []*Document{
		testDoc("a", 0, "alpha"),
		testDoc("b", 1, "beta"),
		testDoc("c", 2, "gamma"),
	})
	require.NoError(t, err)

	hits, err := s.VectorQuery(ctx, "docs", testVector(1), 2, nil)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "b", hits[0].DocID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestVectorQuery_MetadataFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateCollection(ctx, "docs", 4))

	a := testDoc("a", 0, "alpha")
	a.Metadata = map[string]any{"category": "books"}
	b := testDoc("b", 0, "beta")
	b.Metadata = map[string]any{"category": "films"}

	_, _, err := s.BulkUpsert(ctx, "docs", []*Document{a, b})
	require.NoError(t, err)

	hits, err := s.VectorQuery(ctx, "docs", testVector(0), 5,
		map[string]any{"category": "films"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "b", hits[0].DocID)

	hits, err = s.VectorQuery(ctx, "docs", testVector(0), 5,
		map[string]any{"category": "music"})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestVectorQuery_EmptyCollection(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateCollection(ctx, "docs", 4))

	hits, err := s.VectorQuery(ctx, "docs", testVector(0), 5, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestLexicalQuery_RanksAndFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateCollection(ctx, "docs", 4))

	wireless := testDoc("a", 0, "A wireless bluetooth headphone with noise cancellation")
	wireless.Metadata = map[string]any{"category": "audio"}
	keyboard := testDoc("b", 1, "A mechanical keyboard with RGB lighting")
	keyboard.Metadata = map[string]any{"category": "input"}

	_, _, err := s.BulkUpsert(ctx, "docs", []*Document{wireless, keyboard})
	require.NoError(t, err)

	hits, err := s.LexicalQuery(ctx, "docs", "wireless headphone", nil, 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "a", hits[0].DocID)

	hits, err = s.LexicalQuery(ctx, "docs", "wireless headphone",
		map[string]any{"category": "input"}, 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestLexicalQuery_TitleBoost(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateCollection(ctx, "docs", 4))

	inTitle := testDoc("title-hit", 0, "unrelated body text here")
	inTitle.Title = "espresso machine"
	inBody := testDoc("body-hit", 1, "this espresso machine grinds beans")
	inBody.Title = "kitchen appliance"

	_, _, err := s.BulkUpsert(ctx, "docs", []*Document{inTitle, inBody})
	require.NoError(t, err)

	hits, err := s.LexicalQuery(ctx, "docs", "espresso", nil, 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "title-hit", hits[0].DocID)
}

func TestQueries_UnknownCollection(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.VectorQuery(ctx, "missing", testVector(0), 5, nil)
	assert.ErrorIs(t, err, ErrCollectionNotFound)

	_, err = s.LexicalQuery(ctx, "missing", "query", nil, 5)
	assert.ErrorIs(t, err, ErrCollectionNotFound)

	_, _, err = s.BulkUpsert(ctx, "missing", nil)
	assert.ErrorIs(t, err, ErrCollectionNotFound)
}

func TestDeleteCollection(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateCollection(ctx, "docs", 4))
	require.NoError(t, s.DeleteCollection(ctx, "docs"))

	exists, err := s.CollectionExists(ctx, "docs")
	require.NoError(t, err)
	assert.False(t, exists)

	// Deleting again is a no-op.
	require.NoError(t, s.DeleteCollection(ctx, "docs"))
}

func TestLocalStore_Persistence(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := NewLocalStore(dir, nil)
	require.NoError(t, err)
	require.NoError(t, s.CreateCollection(ctx, "docs", 4))
	_, _, err = s.BulkUpsert(ctx, "docs", []*Document{
		testDoc("a", 0, "persisted alpha body"),
		testDoc("b", 1, "persisted beta body"),
	})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := NewLocalStore(dir, nil)
	require.NoError(t, err)
	defer reopened.Close()

	exists, err := reopened.CollectionExists(ctx, "docs")
	require.NoError(t, err)
	require.True(t, exists)

	n, err := reopened.DocumentCount("docs")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	hits, err := reopened.VectorQuery(ctx, "docs", testVector(0), 1, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a", hits[0].DocID)

	hits, err = reopened.LexicalQuery(ctx, "docs", "beta", nil, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "b", hits[0].DocID)
}

func TestLocalStore_ClosedRejectsOperations(t *testing.T) {
	s, err := NewLocalStore("", nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close()) // idempotent

	err = s.CreateCollection(context.Background(), "docs", 4)
	assert.Error(t, err)
}

func TestBulkUpsert_ManyDocuments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateCollection(ctx, "docs", 4))

	docs := make([]*Document, 0, 40)
	for i := 0; i < 40; i++ {
		docs = append(docs, testDoc(fmt.Sprintf("doc-%02d", i), i%4,
			fmt.Sprintf("body number %d", i)))
	}
	count, failures, err := s.BulkUpsert(ctx, "docs", docs)
	require.NoError(t, err)
	assert.Equal(t, 40, count)
	assert.Empty(t, failures)

	n, err := s.DocumentCount("docs")
	require.NoError(t, err)
	assert.Equal(t, 40, n)
}
