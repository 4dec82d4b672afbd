// Package embeddings provides the Embedder contract used by the indexer
// and retriever, plus an Ollama-backed implementation.
package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rag-engine/ragctl/internal/errors"
	"github.com/rag-engine/ragctl/internal/logger"
)

// Embedder turns text into a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// fallbackModel is retried once, with a fresh request, whenever the
// configured model fails — it is small and nearly always present on an
// Ollama install, so it buys one more chance before giving up entirely.
const fallbackModel = "all-minilm"

// OllamaEmbedder implements Embedder using Ollama's /api/embeddings.
type OllamaEmbedder struct {
	baseURL    string
	model      string
	client     *http.Client
	numWorkers int
	sem        chan struct{}
}

// NewOllamaEmbedder creates an embedder with default parallelism (4 workers,
// 16 concurrent requests across all callers).
func NewOllamaEmbedder(baseURL, model string) *OllamaEmbedder {
	return NewOllamaEmbedderWithConfig(baseURL, model, 4, 16)
}

// NewOllamaEmbedderWithConfig creates an embedder with explicit concurrency
// limits: numWorkers per EmbedBatch call, maxConcurrent across all requests.
func NewOllamaEmbedderWithConfig(baseURL, model string, numWorkers, maxConcurrent int) *OllamaEmbedder {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if maxConcurrent <= 0 {
		maxConcurrent = numWorkers * 2
	}
	return &OllamaEmbedder{
		baseURL:    baseURL,
		model:      model,
		numWorkers: numWorkers,
		sem:        make(chan struct{}, maxConcurrent),
		client:     &http.Client{Timeout: 60 * time.Second},
	}
}

type embeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

// maxEmbeddingChars truncates text before sending it to the embedding
// endpoint so an oversized chunk never fails outright on a context-length
// error from the model.
const maxEmbeddingChars = 8000

func truncateForEmbedding(text string) string {
	text = strings.ToValidUTF8(text, "�")
	if utf8.RuneCountInString(text) <= maxEmbeddingChars {
		return text
	}
	runes := []rune(text)
	truncated := string(runes[:maxEmbeddingChars])
	logger.Debug("truncated chunk for embedding", "original_runes", len(runes), "truncated_runes", maxEmbeddingChars)
	return truncated
}

// Embed generates an embedding for a single text, retrying once against
// fallbackModel if the configured model's request fails.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	select {
	case e.sem <- struct{}{}:
		defer func() { <-e.sem }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	text = truncateForEmbedding(text)
	emb, err := e.embedWith(ctx, e.model, text)
	if err == nil {
		return emb, nil
	}
	if e.model == fallbackModel {
		return nil, errors.EmbeddingUnavailable(err)
	}
	logger.Warn("embedding model failed, retrying with fallback", "model", e.model, "fallback", fallbackModel, "error", err)
	emb, fallbackErr := e.embedWith(ctx, fallbackModel, text)
	if fallbackErr != nil {
		return nil, errors.EmbeddingUnavailable(fallbackErr)
	}
	return emb, nil
}

func (e *OllamaEmbedder) embedWith(ctx context.Context, model, text string) ([]float32, error) {
	reqBody := embeddingRequest{Model: model, Prompt: text}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "marshal embedding request")
	}

	url := fmt.Sprintf("%s/api/embeddings", e.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "create embedding request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeExternal, "send request to Ollama")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, errors.New(errors.ErrorTypeExternal, fmt.Sprintf("Ollama embeddings returned %d: %s", resp.StatusCode, string(body)))
	}

	var res embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "decode embedding response")
	}
	return res.Embedding, nil
}

type embeddingJob struct {
	index int
	text  string
}

type embeddingResult struct {
	index     int
	embedding []float32
	err       error
}

// EmbedBatch generates embeddings for multiple texts in parallel using a
// worker pool, preserving input order in the result.
func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	logger.Debug("generating batch embeddings", "count", len(texts), "workers", e.numWorkers)

	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	jobs := make(chan embeddingJob, len(texts))
	results := make(chan embeddingResult, len(texts))

	var wg sync.WaitGroup
	numWorkers := e.numWorkers
	if numWorkers > len(texts) {
		numWorkers = len(texts)
	}
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				emb, err := e.Embed(ctx, job.text)
				results <- embeddingResult{index: job.index, embedding: emb, err: err}
			}
		}()
	}

	for i, text := range texts {
		jobs <- embeddingJob{index: i, text: text}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	ordered := make([][]float32, len(texts))
	for res := range results {
		if res.err != nil {
			return nil, fmt.Errorf("embedding worker failed on index %d: %w", res.index, res.err)
		}
		ordered[res.index] = res.embedding
	}
	return ordered, nil
}
