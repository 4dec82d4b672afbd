// Package retrieval implements the hybrid dense+lexical retriever: dense
// vector search and in-memory BM25 fused by Reciprocal Rank Fusion, with
// optional cross-encoder reranking of the fused result.
package retrieval

import (
	"context"

	"github.com/rag-engine/ragctl/internal/bm25"
	"github.com/rag-engine/ragctl/internal/domain"
	"github.com/rag-engine/ragctl/internal/fusion"
	"github.com/rag-engine/ragctl/internal/logger"
	"github.com/rag-engine/ragctl/internal/vectorstore"
)

// TopKRetrieve is how many candidates each of the dense and lexical arms
// contribute before fusion.
const TopKRetrieve = 20

// TopKFinal is how many documents the retriever returns, reranked or not.
const TopKFinal = 5

// Embedder embeds a single query string.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Reranker reorders docs by relevance to query, returning at most topK.
type Reranker interface {
	Rerank(ctx context.Context, query string, docs []string, topK int) ([]string, error)
}

// Retriever runs the hybrid retrieval algorithm against a single
// collection.
type Retriever struct {
	collection vectorstore.Collection
	embedder   Embedder
	reranker   Reranker
	k1, b      float64
}

// New builds a Retriever. reranker may be nil; it is only consulted when
// the caller sets UseRerank.
func New(collection vectorstore.Collection, embedder Embedder, reranker Reranker, bm25K1, bm25B float64) *Retriever {
	return &Retriever{collection: collection, embedder: embedder, reranker: reranker, k1: bm25K1, b: bm25B}
}

// Options configures a single Retrieve call.
type Options struct {
	Filter     domain.Filter
	UseRerank  bool
}

// Retrieve runs embed → dense search → lexical search → RRF fuse →
// materialize → optional rerank, returning at most TopKFinal documents.
func (r *Retriever) Retrieve(ctx context.Context, query string, opts Options) ([]string, error) {
	embedding, err := r.embedder.Embed(ctx, query)
	var denseIDs []string
	documents := make(map[string]string)
	if err != nil {
		logger.Warn("dense embedding failed, continuing with lexical only", "error", err)
	} else {
		ids, docs, qerr := r.collection.Query(ctx, embedding, TopKRetrieve, opts.Filter)
		if qerr != nil {
			logger.Warn("dense search failed, continuing with lexical only", "error", qerr)
		} else {
			denseIDs = ids
			for i, id := range ids {
				documents[id] = docs[i]
			}
		}
	}

	corpusIDs, corpusDocs, err := r.collection.Get(ctx, opts.Filter)
	if err != nil {
		logger.Warn("corpus fetch for lexical search failed", "error", err)
	}
	var lexicalIDs []string
	if len(corpusIDs) > 0 {
		docs := make([]bm25.Doc, len(corpusIDs))
		for i, id := range corpusIDs {
			docs[i] = bm25.Doc{ID: id, Text: corpusDocs[i]}
			documents[id] = corpusDocs[i]
		}
		idx := bm25.New(docs, r.k1, r.b)
		lexicalIDs = idx.Search(query, TopKRetrieve)
	}

	if len(denseIDs) == 0 && len(lexicalIDs) == 0 {
		return []string{}, nil
	}

	fused := fusion.Fuse(denseIDs, lexicalIDs, documents)
	if len(fused) > TopKRetrieve {
		fused = fused[:TopKRetrieve]
	}

	ordered := make([]string, 0, len(fused))
	for _, c := range fused {
		if c.Content == "" {
			continue
		}
		ordered = append(ordered, c.Content)
	}

	if opts.UseRerank && r.reranker != nil && len(ordered) > TopKFinal {
		reranked, err := r.reranker.Rerank(ctx, query, ordered, TopKFinal)
		if err != nil {
			logger.Warn("rerank failed, falling back to fused order", "error", err)
		} else {
			return reranked, nil
		}
	}

	if len(ordered) > TopKFinal {
		ordered = ordered[:TopKFinal]
	}
	return ordered, nil
}
