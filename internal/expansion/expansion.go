// Package expansion implements the query-expansion orchestrator: it asks
// the chat backend for alternative phrasings of a query, retrieves for
// each, and fuses the results by document content.
package expansion

import (
	"context"
	"sort"
	"strings"

	"github.com/rag-engine/ragctl/internal/chat"
	"github.com/rag-engine/ragctl/internal/fusion"
	"github.com/rag-engine/ragctl/internal/logger"
)

// Config configures the expansion orchestrator.
type Config struct {
	Variants int // number of alternative phrasings to request, default 2
}

// DefaultConfig returns the spec's default of 2 alternative phrasings.
func DefaultConfig() Config {
	return Config{Variants: 2}
}

// Retriever runs hybrid retrieval for a single query and returns ordered
// document content.
type Retriever interface {
	RetrieveDocs(ctx context.Context, query string, useRerank bool) ([]string, error)
}

// Reranker reorders docs by relevance to query, returning at most topK.
type Reranker interface {
	Rerank(ctx context.Context, query string, docs []string, topK int) ([]string, error)
}

const (
	topKFused = 20
	topKFinal = 5
)

// Orchestrator drives chat-generated query variants through hybrid
// retrieval and fuses the results.
type Orchestrator struct {
	chat      chat.Client
	retriever Retriever
	reranker  Reranker
	cfg       Config
}

// New builds an Orchestrator. reranker may be nil.
func New(chatClient chat.Client, retriever Retriever, reranker Reranker, cfg Config) *Orchestrator {
	if cfg.Variants <= 0 {
		cfg.Variants = 2
	}
	return &Orchestrator{chat: chatClient, retriever: retriever, reranker: reranker, cfg: cfg}
}

// Expand runs the full query-expansion algorithm and returns at most
// topKFinal documents.
func (o *Orchestrator) Expand(ctx context.Context, query string, useRerank bool) ([]string, error) {
	variants := o.variants(ctx, query)

	if len(variants) == 1 {
		return o.retriever.RetrieveDocs(ctx, query, useRerank)
	}

	var allLists [][]string
	for _, v := range variants {
		docs, err := o.retriever.RetrieveDocs(ctx, v, false)
		if err != nil {
			logger.Warn("expansion variant retrieval failed", "variant", v, "error", err)
			continue
		}
		allLists = append(allLists, docs)
	}

	fused := fuseByContent(allLists, topKFused)

	if useRerank && o.reranker != nil && len(fused) > topKFinal {
		reranked, err := o.reranker.Rerank(ctx, query, fused, topKFinal)
		if err != nil {
			logger.Warn("expansion rerank failed, using fused order", "error", err)
		} else {
			return reranked, nil
		}
	}

	if len(fused) > topKFinal {
		fused = fused[:topKFinal]
	}
	return fused, nil
}

// variants asks the chat backend for alternative phrasings, filters and
// dedupes them, and prepends the original query. Any failure degrades to
// [query] alone.
func (o *Orchestrator) variants(ctx context.Context, query string) []string {
	prompt := []chat.Message{
		{Role: "system", Content: "Generate alternative phrasings of the user's question, one per line, in the same language as the question. Do not number them or add commentary."},
		{Role: "user", Content: query},
	}

	reply, err := o.chat.Generate(ctx, prompt)
	if err != nil {
		logger.Warn("query expansion chat call failed, using original query only", "error", err)
		return []string{query}
	}

	out := []string{query}
	seen := map[string]bool{strings.ToLower(strings.TrimSpace(query)): true}
	for _, line := range strings.Split(reply, "\n") {
		candidate := strings.TrimSpace(line)
		if len(candidate) <= 5 {
			continue
		}
		key := strings.ToLower(candidate)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, candidate)
		if len(out) >= o.cfg.Variants+1 {
			break
		}
	}
	return out
}

// fuseByContent applies RRF across multiple ranked document-content lists,
// keyed on the content string itself rather than any chunk id, since
// independent retrievals over different query variants share no id view.
func fuseByContent(lists [][]string, topN int) []string {
	type entry struct {
		content string
		score   float64
		order   int
	}
	scores := make(map[string]*entry)
	order := make([]string, 0)

	for _, list := range lists {
		for rank, content := range list {
			e, ok := scores[content]
			if !ok {
				e = &entry{content: content, order: len(order)}
				scores[content] = e
				order = append(order, content)
			}
			e.score += 1.0 / float64(fusion.K+rank+1)
		}
	}

	entries := make([]*entry, 0, len(order))
	for _, c := range order {
		entries = append(entries, scores[c])
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].score != entries[j].score {
			return entries[i].score > entries[j].score
		}
		return entries[i].order < entries[j].order
	})

	if topN > 0 && len(entries) > topN {
		entries = entries[:topN]
	}
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.content
	}
	return out
}
