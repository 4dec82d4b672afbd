// Package bm25 scores a corpus snapshot with Okapi BM25. Unlike a
// persistent inverted index, the corpus is rebuilt in memory for each
// query from whatever documents the caller's filter selects.
package bm25

import (
	"math"
	"sort"
	"strings"
)

// Tokenize lowercases text and splits on whitespace.
func Tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// Doc is one corpus document available for lexical scoring.
type Doc struct {
	ID   string
	Text string
}

// Index is a BM25 corpus snapshot: the term statistics needed to score the
// documents it was built from against a query.
type Index struct {
	k1    float64
	b     float64
	docs  []string        // ids, in input order
	terms []map[string]int // term -> count, aligned with docs
	lens  []int
	avgLen float64
	df    map[string]int
}

// New builds an Index over docs using the given k1/b parameters.
func New(docs []Doc, k1, b float64) *Index {
	idx := &Index{
		k1:   k1,
		b:    b,
		docs: make([]string, len(docs)),
		terms: make([]map[string]int, len(docs)),
		lens: make([]int, len(docs)),
		df:   make(map[string]int),
	}

	var totalLen int
	for i, d := range docs {
		idx.docs[i] = d.ID
		tokens := Tokenize(d.Text)
		counts := make(map[string]int, len(tokens))
		for _, t := range tokens {
			counts[t]++
		}
		idx.terms[i] = counts
		idx.lens[i] = len(tokens)
		totalLen += len(tokens)
		for t := range counts {
			idx.df[t]++
		}
	}
	if len(docs) > 0 {
		idx.avgLen = float64(totalLen) / float64(len(docs))
	}
	return idx
}

// Search scores every document in the index against query and returns the
// top-n ids in descending score order. Documents scoring zero (no overlap
// with the query) are excluded; the reference implementation keeps them up
// to n, letting a near-empty corpus still contribute a low-rank RRF vote.
func (idx *Index) Search(query string, n int) []string {
	queryTokens := Tokenize(query)
	if len(idx.docs) == 0 || len(queryTokens) == 0 {
		return nil
	}

	type scored struct {
		id    string
		score float64
	}
	results := make([]scored, 0, len(idx.docs))
	for i, id := range idx.docs {
		score := idx.score(queryTokens, i)
		if score > 0 {
			results = append(results, scored{id: id, score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].score > results[j].score })
	if n > 0 && len(results) > n {
		results = results[:n]
	}
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.id
	}
	return ids
}

func (idx *Index) score(queryTokens []string, docIndex int) float64 {
	n := float64(len(idx.docs))
	docLen := float64(idx.lens[docIndex])
	counts := idx.terms[docIndex]

	var score float64
	for _, token := range queryTokens {
		tf := counts[token]
		if tf == 0 {
			continue
		}
		df := idx.df[token]
		if df == 0 {
			continue
		}
		idf := math.Log((n-float64(df)+0.5)/(float64(df)+0.5) + 1.0)
		denominator := float64(tf) + idx.k1*(1-idx.b+idx.b*(docLen/idx.avgLen))
		tfComponent := (float64(tf) * (idx.k1 + 1)) / denominator
		score += idf * tfComponent
	}
	return score
}
