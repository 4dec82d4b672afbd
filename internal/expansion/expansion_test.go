package expansion

import (
	"context"
	"errors"
	"testing"

	"github.com/rag-engine/ragctl/internal/chat"
)

type stubChat struct {
	reply string
	err   error
}

func (s stubChat) Generate(ctx context.Context, messages []chat.Message) (string, error) {
	return s.reply, s.err
}

type stubRetriever struct {
	byQuery map[string][]string
	calls   []string
}

func (s *stubRetriever) RetrieveDocs(ctx context.Context, query string, useRerank bool) ([]string, error) {
	s.calls = append(s.calls, query)
	return s.byQuery[query], nil
}

func TestExpandFallsThroughWhenNoVariantsSurvive(t *testing.T) {
	retriever := &stubRetriever{byQuery: map[string][]string{"original query": {"doc1"}}}
	o := New(stubChat{reply: ""}, retriever, nil, DefaultConfig())

	docs, err := o.Expand(context.Background(), "original query", false)
	if err != nil {
		t.Fatalf("Expand() error: %v", err)
	}
	if len(docs) != 1 || docs[0] != "doc1" {
		t.Errorf("got %v", docs)
	}
	if len(retriever.calls) != 1 {
		t.Errorf("expected single plain retrieval, got calls %v", retriever.calls)
	}
}

func TestExpandFusesAcrossVariants(t *testing.T) {
	retriever := &stubRetriever{byQuery: map[string][]string{
		"original query":      {"shared doc", "only in original"},
		"alternative phrasing": {"shared doc", "only in alt"},
	}}
	o := New(stubChat{reply: "alternative phrasing"}, retriever, nil, DefaultConfig())

	docs, err := o.Expand(context.Background(), "original query", false)
	if err != nil {
		t.Fatalf("Expand() error: %v", err)
	}
	if len(docs) == 0 || docs[0] != "shared doc" {
		t.Errorf("expected doc shared by both variants to rank first, got %v", docs)
	}
}

func TestExpandDegradesOnChatFailure(t *testing.T) {
	retriever := &stubRetriever{byQuery: map[string][]string{"q": {"d1"}}}
	o := New(stubChat{err: errors.New("chat unavailable")}, retriever, nil, DefaultConfig())

	docs, err := o.Expand(context.Background(), "q", false)
	if err != nil {
		t.Fatalf("Expand() error: %v", err)
	}
	if len(docs) != 1 || docs[0] != "d1" {
		t.Errorf("got %v", docs)
	}
}

func TestVariantsFiltersShortAndDuplicateLines(t *testing.T) {
	o := New(stubChat{reply: "hi\nA reasonably long alternative phrasing\nORIGINAL QUERY"}, &stubRetriever{}, nil, DefaultConfig())
	variants := o.variants(context.Background(), "original query")

	if len(variants) != 2 {
		t.Fatalf("got %v, want [original query, A reasonably long alternative phrasing]", variants)
	}
	if variants[0] != "original query" {
		t.Errorf("expected original query first, got %v", variants)
	}
}
