package reranker

import (
	"context"
	"errors"
	"testing"
)

type stubClient struct {
	scores []float64
	err    error
}

func (s stubClient) Score(ctx context.Context, query string, docs []string) ([]float64, error) {
	return s.scores, s.err
}

func TestRerankOrdersByScoreDescending(t *testing.T) {
	r := New(stubClient{scores: []float64{0.1, 0.9, 0.5}})
	docs := []string{"low", "high", "mid"}

	got, err := r.Rerank(context.Background(), "q", docs, 2)
	if err != nil {
		t.Fatalf("Rerank() error: %v", err)
	}
	want := []string{"high", "mid"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
		}
	}
}

func TestRerankTieBreaksByInputOrder(t *testing.T) {
	r := New(stubClient{scores: []float64{0.5, 0.5, 0.5}})
	docs := []string{"a", "b", "c"}

	got, err := r.Rerank(context.Background(), "q", docs, 3)
	if err != nil {
		t.Fatalf("Rerank() error: %v", err)
	}
	for i, d := range docs {
		if got[i] != d {
			t.Errorf("got %v, want stable order %v", got, docs)
		}
	}
}

func TestRerankFallsBackOnClientError(t *testing.T) {
	r := New(stubClient{err: errors.New("service down")})
	docs := []string{"a", "b", "c"}

	got, err := r.Rerank(context.Background(), "q", docs, 2)
	if err != nil {
		t.Fatalf("Rerank() should never error, got: %v", err)
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("got %v, want first 2 inputs unchanged", got)
	}
}

func TestRerankEmptyDocs(t *testing.T) {
	r := New(stubClient{scores: nil})
	got, err := r.Rerank(context.Background(), "q", nil, 5)
	if err != nil || len(got) != 0 {
		t.Errorf("got %v, %v, want empty, nil", got, err)
	}
}
