package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/semdex/internal/embed"
	semerrors "github.com/Aman-CERP/semdex/internal/errors"
	"github.com/Aman-CERP/semdex/internal/store"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		input    string
		expected Mode
		wantErr  bool
	}{
		{"vector", ModeVector, false},
		{"lexical", ModeLexical, false},
		{"hybrid", ModeHybrid, false},
		{"", ModeHybrid, false},
		{"  Hybrid  ", ModeHybrid, false},
		{"semantic", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			mode, err := ParseMode(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, semerrors.ErrCodeInvalidInput, semerrors.GetCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, mode)
		})
	}
}

// seedCorpus indexes a handful of documents whose embeddings come from
// the same static embedder the retriever queries with.
func seedCorpus(t *testing.T) (*Retriever, store.SearchStore) {
	t.Helper()
	ctx := context.Background()

	embedder := embed.NewStaticEmbedder()
	s, err := store.NewLocalStore("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.CreateCollection(ctx, "products", embedder.Dimensions()))

	bodies := map[string]string{
		"headphones": "Wireless bluetooth headphones with active noise cancellation",
		"keyboard":   "Mechanical keyboard with tactile switches and RGB lighting",
		"monitor":    "Ultrawide curved monitor for immersive gaming sessions",
	}
	docs := make([]*store.Document, 0, len(bodies))
	for id, body := range bodies {
		vec, err := embedder.Embed(ctx, body)
		require.NoError(t, err)
		docs = append(docs, &store.Document{
			DocID:     id,
			Title:     id,
			Body:      body,
			Metadata:  map[string]any{"kind": "product"},
			Embedding: vec,
		})
	}
	_, _, err = s.BulkUpsert(ctx, "products", docs)
	require.NoError(t, err)

	return NewRetriever(s, embedder, nil), s
}

func TestRetriever_VectorMode(t *testing.T) {
	r, _ := seedCorpus(t)

	hits, err := r.Search(context.Background(), Request{
		Collection: "products",
		Query:      "wireless bluetooth headphones noise cancellation",
		Mode:       ModeVector,
		K:          2,
	})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "headphones", hits[0].DocID)
	assert.LessOrEqual(t, len(hits), 2)
}

func TestRetriever_LexicalMode(t *testing.T) {
	r, _ := seedCorpus(t)

	hits, err := r.Search(context.Background(), Request{
		Collection: "products",
		Query:      "mechanical keyboard",
		Mode:       ModeLexical,
	})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "keyboard", hits[0].DocID)
}

func TestRetriever_HybridMode(t *testing.T) {
	r, _ := seedCorpus(t)

	hits, err := r.Search(context.Background(), Request{
		Collection: "products",
		Query:      "curved monitor gaming",
		Mode:       ModeHybrid,
		K:          3,
	})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "monitor", hits[0].DocID)
	// Hybrid scores are fused reciprocal ranks, bounded above by the
	// summed weights over the rank constant.
	assert.Less(t, hits[0].Score, 2.0/float64(RRFRankConstant))
}

func TestRetriever_EmptyQuery(t *testing.T) {
	r, _ := seedCorpus(t)

	_, err := r.Search(context.Background(), Request{
		Collection: "products",
		Query:      "   ",
		Mode:       ModeHybrid,
	})
	require.Error(t, err)
	assert.Equal(t, semerrors.ErrCodeInvalidInput, semerrors.GetCode(err))
}

func TestRetriever_UnknownCollection(t *testing.T) {
	r, _ := seedCorpus(t)

	_, err := r.Search(context.Background(), Request{
		Collection: "missing",
		Query:      "anything",
		Mode:       ModeHybrid,
	})
	require.Error(t, err)
	assert.Equal(t, semerrors.ErrCodeInvalidInput, semerrors.GetCode(err))
}

func TestRetriever_FiltersApplyToBothLegs(t *testing.T) {
	r, _ := seedCorpus(t)

	hits, err := r.Search(context.Background(), Request{
		Collection: "products",
		Query:      "mechanical keyboard",
		Mode:       ModeHybrid,
		Filters:    map[string]any{"kind": "furniture"},
	})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestRetriever_DefaultK(t *testing.T) {
	r, _ := seedCorpus(t)

	hits, err := r.Search(context.Background(), Request{
		Collection: "products",
		Query:      "gaming gear",
		Mode:       ModeLexical,
		K:          0,
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(hits), DefaultK)
}
