// Package reranker reorders retrieved documents by cross-encoder
// relevance to a query, against an external scoring backend.
package reranker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/rag-engine/ragctl/internal/errors"
	"github.com/rag-engine/ragctl/internal/logger"
)

// Reranker reorders docs by relevance to query, returning at most topK of
// them, most relevant first.
type Reranker interface {
	Rerank(ctx context.Context, query string, docs []string, topK int) ([]string, error)
}

// CrossEncoderClient scores each (query, doc) pair and returns parallel
// relevance scores, one per doc.
type CrossEncoderClient interface {
	Score(ctx context.Context, query string, docs []string) ([]float64, error)
}

// CrossEncoderReranker implements Reranker against a CrossEncoderClient,
// degrading to the first topK inputs on any client failure.
type CrossEncoderReranker struct {
	client CrossEncoderClient
}

// New builds a CrossEncoderReranker over client.
func New(client CrossEncoderClient) *CrossEncoderReranker {
	return &CrossEncoderReranker{client: client}
}

var _ Reranker = (*CrossEncoderReranker)(nil)

// Rerank scores docs against query and returns the topK by descending
// score, breaking ties by input order. On any scoring failure it logs a
// rerank_fallback event and returns the first topK inputs unchanged.
func (r *CrossEncoderReranker) Rerank(ctx context.Context, query string, docs []string, topK int) ([]string, error) {
	if len(docs) == 0 {
		return docs, nil
	}

	scores, err := r.client.Score(ctx, query, docs)
	if err != nil || len(scores) != len(docs) {
		if err == nil {
			err = fmt.Errorf("cross-encoder returned %d scores for %d docs", len(scores), len(docs))
		}
		unavailable := errors.RerankUnavailable(err)
		logger.Event("rerank_fallback", map[string]any{"query": query, "doc_count": len(docs), "error": unavailable.Error()})
		return firstN(docs, topK), nil
	}

	type scored struct {
		doc   string
		score float64
		index int
	}
	ranked := make([]scored, len(docs))
	for i, d := range docs {
		ranked[i] = scored{doc: d, score: scores[i], index: i}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].index < ranked[j].index
	})

	out := make([]string, 0, topK)
	for i := 0; i < len(ranked) && i < topK; i++ {
		out = append(out, ranked[i].doc)
	}
	return out, nil
}

func firstN(docs []string, n int) []string {
	if n <= 0 || n >= len(docs) {
		return docs
	}
	return docs[:n]
}

// HTTPCrossEncoderClient calls an external cross-encoder scoring service
// over HTTP, in the style of internal/embeddings's Ollama client.
type HTTPCrossEncoderClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient builds an HTTPCrossEncoderClient against baseURL.
func NewHTTPClient(baseURL string) *HTTPCrossEncoderClient {
	return &HTTPCrossEncoderClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type scoreRequest struct {
	Query string   `json:"query"`
	Docs  []string `json:"docs"`
}

type scoreResponse struct {
	Scores []float64 `json:"scores"`
}

// Score POSTs {query, docs} to <baseURL>/rerank and expects {scores}.
func (c *HTTPCrossEncoderClient) Score(ctx context.Context, query string, docs []string) ([]float64, error) {
	body, err := json.Marshal(scoreRequest{Query: query, Docs: docs})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cross-encoder service returned %d", resp.StatusCode)
	}

	var res scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, err
	}
	return res.Scores, nil
}
