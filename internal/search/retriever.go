package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/semdex/internal/embed"
	semerrors "github.com/Aman-CERP/semdex/internal/errors"
	"github.com/Aman-CERP/semdex/internal/store"
)

// Mode selects the retrieval strategy.
type Mode string

const (
	ModeVector  Mode = "vector"
	ModeLexical Mode = "lexical"
	ModeHybrid  Mode = "hybrid"
)

// ParseMode validates a mode string, defaulting empty input to hybrid.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return ModeHybrid, nil
	case ModeVector:
		return ModeVector, nil
	case ModeLexical:
		return ModeLexical, nil
	case ModeHybrid:
		return ModeHybrid, nil
	default:
		return "", semerrors.ValidationError(
			fmt.Sprintf("invalid search mode %q (want vector, lexical, or hybrid)", s), nil)
	}
}

// DefaultK is the result count when a request leaves K unset.
const DefaultK = 10

// overFetchCap bounds how many candidates each hybrid leg retrieves.
const overFetchCap = 100

// Request describes one search.
type Request struct {
	Collection string
	Query      string
	Mode       Mode
	K          int
	Filters    map[string]any
}

// Retriever executes searches against a store, embedding queries as
// needed for the vector leg.
type Retriever struct {
	store    store.SearchStore
	embedder embed.Embedder
	logger   *slog.Logger

	vectorWeight  float64
	lexicalWeight float64
}

// NewRetriever wires a retriever with default hybrid weights.
func NewRetriever(s store.SearchStore, embedder embed.Embedder, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		store:         s,
		embedder:      embedder,
		logger:        logger,
		vectorWeight:  DefaultVectorWeight,
		lexicalWeight: DefaultLexicalWeight,
	}
}

// SetWeights overrides the hybrid fusion weights.
func (r *Retriever) SetWeights(vector, lexical float64) {
	r.vectorWeight = vector
	r.lexicalWeight = lexical
}

// Search runs the request and returns up to K hits, best first.
func (r *Retriever) Search(ctx context.Context, req Request) ([]*store.Hit, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, semerrors.ValidationError("query must not be empty", nil)
	}
	if req.K <= 0 {
		req.K = DefaultK
	}

	exists, err := r.store.CollectionExists(ctx, req.Collection)
	if err != nil {
		return nil, semerrors.StoreError("failed to check collection", err)
	}
	if !exists {
		return nil, semerrors.ValidationError(
			fmt.Sprintf("collection %q does not exist", req.Collection), nil)
	}

	switch req.Mode {
	case ModeVector:
		return r.vectorSearch(ctx, req.Collection, query, req.K, req.Filters)
	case ModeLexical:
		return r.lexicalSearch(ctx, req.Collection, query, req.K, req.Filters)
	case ModeHybrid, "":
		return r.hybridSearch(ctx, req.Collection, query, req.K, req.Filters)
	default:
		return nil, semerrors.ValidationError(
			fmt.Sprintf("invalid search mode %q", req.Mode), nil)
	}
}

func (r *Retriever) vectorSearch(ctx context.Context, collection, query string, k int, filters map[string]any) ([]*store.Hit, error) {
	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, semerrors.Wrap(semerrors.ErrCodeEmbedFailed, err)
	}
	hits, err := r.store.VectorQuery(ctx, collection, vector, k, filters)
	if err != nil {
		return nil, semerrors.StoreError("vector query failed", err)
	}
	return hits, nil
}

func (r *Retriever) lexicalSearch(ctx context.Context, collection, query string, k int, filters map[string]any) ([]*store.Hit, error) {
	hits, err := r.store.LexicalQuery(ctx, collection, query, filters, k)
	if err != nil {
		return nil, semerrors.StoreError("lexical query failed", err)
	}
	return hits, nil
}

// hybridSearch runs both legs concurrently, over-fetching so fusion has
// candidates to promote, then fuses and truncates to k.
func (r *Retriever) hybridSearch(ctx context.Context, collection, query string, k int, filters map[string]any) ([]*store.Hit, error) {
	fetch := min(3*k, overFetchCap)
	if fetch < k {
		fetch = k
	}

	var vectorHits, lexicalHits []*store.Hit
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hits, err := r.vectorSearch(gctx, collection, query, fetch, filters)
		if err != nil {
			return err
		}
		vectorHits = hits
		return nil
	})
	g.Go(func() error {
		hits, err := r.lexicalSearch(gctx, collection, query, fetch, filters)
		if err != nil {
			return err
		}
		lexicalHits = hits
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.logger.Debug("hybrid legs complete",
		"collection", collection,
		"vector_hits", len(vectorHits),
		"lexical_hits", len(lexicalHits))

	fused := FuseRRF(
		[][]*store.Hit{vectorHits, lexicalHits},
		[]float64{r.vectorWeight, r.lexicalWeight},
	)
	if len(fused) > k {
		fused = fused[:k]
	}
	return fused, nil
}
