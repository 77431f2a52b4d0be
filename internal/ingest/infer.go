package ingest

import (
	"sort"
	"strings"
)

// Field suggestion tuning. The name hint dominates: a column literally
// called "text" or "body" beats any average-length signal.
const (
	maxSuggestedTextFields = 5
	avgLengthWeight        = 0.01
	nameHintWeight         = 50.0
)

// idLikeNames are column names that identify a record.
var idLikeNames = map[string]struct{}{
	"id":          {},
	"doc_id":      {},
	"uuid":        {},
	"_id":         {},
	"document_id": {},
}

// textLikeNames are column names that typically hold prose.
var textLikeNames = map[string]struct{}{
	"text":        {},
	"body":        {},
	"content":     {},
	"description": {},
	"title":       {},
	"name":        {},
}

// SuggestIDField returns the first column whose lower-cased, trimmed name
// looks like an identifier, or "" if none does.
func SuggestIDField(columns []string) string {
	for _, col := range columns {
		if _, ok := idLikeNames[strings.ToLower(strings.TrimSpace(col))]; ok {
			return col
		}
	}
	return ""
}

// SuggestTextFields scores each column over a record sample and returns up
// to five columns likely to hold text content, best first.
//
// Score = 0.01 * average non-empty string length + 50 * name hint.
// Columns scoring zero are dropped; ties keep original column order.
func SuggestTextFields(records []*Record, columns []string) []string {
	if len(records) == 0 || len(columns) == 0 {
		return nil
	}

	sample := records
	if len(sample) > DefaultPreviewRows {
		sample = sample[:DefaultPreviewRows]
	}

	type scored struct {
		column string
		score  float64
		order  int
	}
	scores := make([]scored, 0, len(columns))

	for order, col := range columns {
		var total, count float64
		for _, rec := range sample {
			s := rec.StringValue(col)
			if s == "" {
				continue
			}
			total += float64(len(s))
			count++
		}

		var score float64
		if count > 0 {
			score = total / count * avgLengthWeight
			if _, ok := textLikeNames[strings.ToLower(col)]; ok {
				score += nameHintWeight
			}
		}
		scores = append(scores, scored{column: col, score: score, order: order})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})

	var out []string
	for _, s := range scores {
		if s.score <= 0 {
			continue
		}
		out = append(out, s.column)
		if len(out) == maxSuggestedTextFields {
			break
		}
	}
	return out
}
