// Package search implements retrieval over a store.SearchStore: pure
// vector search, pure lexical search, and hybrid search fusing both with
// reciprocal rank fusion.
package search

import (
	"sort"

	"github.com/Aman-CERP/semdex/internal/store"
)

// RRFRankConstant dampens the contribution of deep ranks in reciprocal
// rank fusion.
const RRFRankConstant = 60

// Default leg weights for hybrid fusion.
const (
	DefaultVectorWeight  = 0.5
	DefaultLexicalWeight = 0.5
)

// FuseRRF merges ranked result lists with weighted reciprocal rank
// fusion. A document's fused score is the sum over lists of
// weight/(RRFRankConstant+rank), with rank counted from 1; a document
// absent from a list simply contributes nothing for that list. Ties keep
// the order documents were first seen, scanning the lists in argument
// order.
func FuseRRF(lists [][]*store.Hit, weights []float64) []*store.Hit {
	type fused struct {
		hit   *store.Hit
		score float64
		seen  int // first-appearance order, tiebreaker
	}

	byID := make(map[string]*fused)
	order := 0
	for listIdx, list := range lists {
		weight := 1.0
		if listIdx < len(weights) {
			weight = weights[listIdx]
		}
		for rank, hit := range list {
			contribution := weight / float64(RRFRankConstant+rank+1)
			entry, ok := byID[hit.DocID]
			if !ok {
				entry = &fused{hit: hit, seen: order}
				order++
				byID[hit.DocID] = entry
			}
			entry.score += contribution
		}
	}

	entries := make([]*fused, 0, len(byID))
	for _, entry := range byID {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].score != entries[j].score {
			return entries[i].score > entries[j].score
		}
		return entries[i].seen < entries[j].seen
	})

	results := make([]*store.Hit, 0, len(entries))
	for _, entry := range entries {
		hit := *entry.hit
		hit.Score = entry.score
		results = append(results, &hit)
	}
	return results
}
