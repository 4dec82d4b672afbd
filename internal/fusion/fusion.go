// Package fusion combines ranked candidate lists with Reciprocal Rank
// Fusion.
package fusion

import (
	"sort"

	"github.com/rag-engine/ragctl/internal/domain"
)

// K is the RRF smoothing constant. It is fixed rather than configurable:
// the fused ranking is meant to be parameter-free in normal operation, and
// 60 is the value used throughout the retrieval pipeline's test scenarios.
const K = 60

// Fuse merges dense and lexical ranked-id lists (most relevant first) into
// a single ranking by Reciprocal Rank Fusion: score(id) = sum over the
// lists containing id of 1/(K + rank + 1), rank being 0-indexed. ids absent
// from a list contribute nothing from that list, per domain.Candidate's
// Has*Rank distinction. documents maps id to its content for ids that may
// only appear in one of the two input lists.
func Fuse(denseIDs, lexicalIDs []string, documents map[string]string) []domain.Candidate {
	candidates := make(map[string]*domain.Candidate)

	order := make([]string, 0, len(denseIDs)+len(lexicalIDs))
	get := func(id string) *domain.Candidate {
		c, ok := candidates[id]
		if !ok {
			c = &domain.Candidate{ID: id, Content: documents[id]}
			candidates[id] = c
			order = append(order, id)
		}
		return c
	}

	for rank, id := range denseIDs {
		c := get(id)
		c.DenseRank = rank
		c.HasDenseRank = true
	}
	for rank, id := range lexicalIDs {
		c := get(id)
		c.LexicalRank = rank
		c.HasLexicalRank = true
	}

	type scored struct {
		candidate domain.Candidate
		score     float64
		order     int
	}
	scoredList := make([]scored, 0, len(order))
	for i, id := range order {
		c := candidates[id]
		var score float64
		if c.HasDenseRank {
			score += 1.0 / float64(K+c.DenseRank+1)
		}
		if c.HasLexicalRank {
			score += 1.0 / float64(K+c.LexicalRank+1)
		}
		scoredList = append(scoredList, scored{candidate: *c, score: score, order: i})
	}

	sort.SliceStable(scoredList, func(i, j int) bool {
		if scoredList[i].score != scoredList[j].score {
			return scoredList[i].score > scoredList[j].score
		}
		return scoredList[i].order < scoredList[j].order
	})

	result := make([]domain.Candidate, len(scoredList))
	for i, s := range scoredList {
		result[i] = s.candidate
	}
	return result
}
