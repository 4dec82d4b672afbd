package retrieval

import (
	"context"
	"testing"

	"github.com/rag-engine/ragctl/internal/domain"
	"github.com/rag-engine/ragctl/internal/vectorstore"
)

type stubEmbedder struct {
	vec []float32
	err error
}

func (s stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return s.vec, s.err
}

type stubReranker struct {
	reordered []string
	err       error
	called    bool
}

func (s *stubReranker) Rerank(ctx context.Context, query string, docs []string, topK int) ([]string, error) {
	s.called = true
	if s.err != nil {
		return nil, s.err
	}
	return s.reordered, nil
}

func seedCollection(t *testing.T) *vectorstore.MemoryCollection {
	t.Helper()
	c := vectorstore.NewMemory()
	ctx := context.Background()
	c.GetOrCreate(ctx, 2)
	records := []vectorstore.Record{
		{ID: "a", Embedding: []float32{1, 0}, Document: "fox and dog content", Source: "f1.txt", FileType: "txt"},
		{ID: "b", Embedding: []float32{0.9, 0.1}, Document: "unrelated cooking content", Source: "f2.txt", FileType: "txt"},
		{ID: "c", Embedding: []float32{0, 1}, Document: "another dog story", Source: "f3.txt", FileType: "txt"},
	}
	c.Add(ctx, records)
	return c
}

func TestRetrieveCombinesDenseAndLexical(t *testing.T) {
	c := seedCollection(t)
	r := New(c, stubEmbedder{vec: []float32{1, 0}}, nil, 1.2, 0.75)

	docs, err := r.Retrieve(context.Background(), "dog", Options{})
	if err != nil {
		t.Fatalf("Retrieve() error: %v", err)
	}
	if len(docs) == 0 {
		t.Fatal("expected at least one document")
	}
}

func TestRetrieveUsesRerankerWhenEnabled(t *testing.T) {
	c := seedCollection(t)
	rr := &stubReranker{reordered: []string{"reranked"}}
	r := New(c, stubEmbedder{vec: []float32{1, 0}}, rr, 1.2, 0.75)
	r.k1 = 1.2

	// three more records bring the fused list above TopKFinal, so the reranker runs
	c.Add(context.Background(), []vectorstore.Record{
		{ID: "d", Embedding: []float32{0.5, 0.5}, Document: "dog walking notes", Source: "f4.txt", FileType: "txt"},
		{ID: "e", Embedding: []float32{0.2, 0.8}, Document: "fox habitat notes", Source: "f5.txt", FileType: "txt"},
		{ID: "f", Embedding: []float32{0.7, 0.3}, Document: "cooking with herbs", Source: "f6.txt", FileType: "txt"},
	})
	docs, err := r.Retrieve(context.Background(), "dog fox cooking", Options{UseRerank: true})
	if err != nil {
		t.Fatalf("Retrieve() error: %v", err)
	}
	if !rr.called {
		t.Error("expected reranker to be called with more than TopKFinal candidates")
	}
	if len(docs) != 1 || docs[0] != "reranked" {
		t.Errorf("got %v, want the reranker's output [reranked]", docs)
	}
}

func TestRetrieveEmptyCorpusReturnsEmpty(t *testing.T) {
	c := vectorstore.NewMemory()
	c.GetOrCreate(context.Background(), 2)
	r := New(c, stubEmbedder{vec: []float32{1, 0}}, nil, 1.2, 0.75)

	docs, err := r.Retrieve(context.Background(), "anything", Options{})
	if err != nil {
		t.Fatalf("Retrieve() error: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("got %v, want empty", docs)
	}
}

func TestRetrieveFilterSelectsNothing(t *testing.T) {
	c := seedCollection(t)
	r := New(c, stubEmbedder{vec: []float32{1, 0}}, nil, 1.2, 0.75)

	docs, err := r.Retrieve(context.Background(), "dog", Options{Filter: domain.Filter{Source: "nonexistent.txt"}})
	if err != nil {
		t.Fatalf("Retrieve() error: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("got %v, want empty", docs)
	}
}

func TestRetrieveDenseFailureFallsBackToLexical(t *testing.T) {
	c := seedCollection(t)
	r := New(c, stubEmbedder{err: context.DeadlineExceeded}, nil, 1.2, 0.75)

	docs, err := r.Retrieve(context.Background(), "dog", Options{})
	if err != nil {
		t.Fatalf("Retrieve() error: %v", err)
	}
	if len(docs) == 0 {
		t.Error("expected lexical-only fallback to still return documents")
	}
}
