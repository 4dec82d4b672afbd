// Package vectorstore defines the Collection contract the retrieval
// pipeline stores and queries embeddings through, plus an in-memory
// reference implementation and a Qdrant-backed one.
package vectorstore

import (
	"context"

	"github.com/rag-engine/ragctl/internal/domain"
)

// Record is one embedded chunk ready to be added to a Collection.
type Record struct {
	ID        string
	Embedding []float32
	Document  string
	Source    string
	FileType  string
	ChunkID   int
	Page      int
	Section   string
}

// Collection is the vector store contract: a named collection configured
// for cosine similarity, supporting filtered get/query and delete-by-filter.
type Collection interface {
	// Create (re)creates the collection with the given vector dimension,
	// configured for cosine distance.
	Create(ctx context.Context, dim int) error
	// Delete drops the collection entirely.
	Delete(ctx context.Context) error
	// GetOrCreate ensures the collection exists, creating it with dim if
	// absent.
	GetOrCreate(ctx context.Context, dim int) error
	// Get returns the ids and documents of every record matching filter.
	Get(ctx context.Context, filter domain.Filter) (ids []string, documents []string, err error)
	// Query returns the top-n ids and documents by cosine similarity to
	// embedding, restricted to filter.
	Query(ctx context.Context, embedding []float32, n int, filter domain.Filter) (ids []string, documents []string, err error)
	// Add upserts records; duplicate ids within a single call collapse to
	// one record (last write wins), matching content-addressed dedup.
	Add(ctx context.Context, records []Record) error
	// DeleteByFilter removes every record matching filter.
	DeleteByFilter(ctx context.Context, filter domain.Filter) error
	// Count returns the number of records currently stored.
	Count(ctx context.Context) (int, error)
}
