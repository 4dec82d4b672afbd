package webcontext

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestExtractURLsDedupesAndStripsPunctuation(t *testing.T) {
	text := "see https://example.com/a) and https://example.com/a, also https://example.com/b."
	got := ExtractURLs(text)
	want := []string{"https://example.com/a", "https://example.com/b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractURLs() = %v, want %v", got, want)
	}
}

type stubSearch struct {
	results []SearchResult
	err     error
}

func (s stubSearch) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	return s.results, s.err
}

type stubFetcher struct {
	byURL map[string]string
	err   error
}

func (s stubFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.byURL[pageURL], nil
}

func TestBuildPrioritizesQueryURLs(t *testing.T) {
	fetcher := stubFetcher{byURL: map[string]string{
		"https://example.com": longText("query url content"),
	}}
	search := stubSearch{results: []SearchResult{
		{Href: "https://other.com", Title: "Other", Body: "snippet body"},
	}}
	b := New(search, fetcher)

	out := b.Build(context.Background(), "check https://example.com please")
	if out == "" {
		t.Fatal("expected non-empty context block")
	}
	firstSegment := out[:len("[1]")]
	if firstSegment != "[1]" {
		t.Errorf("expected first segment marker [1], got prefix %q", out[:20])
	}
}

func TestBuildSkipsAlreadyFetchedHref(t *testing.T) {
	fetcher := stubFetcher{byURL: map[string]string{
		"https://example.com": longText("fetched page content"),
	}}
	search := stubSearch{results: []SearchResult{
		{Href: "https://example.com", Title: "Example", Body: "snippet"},
	}}
	b := New(search, fetcher)

	out := b.Build(context.Background(), "see https://example.com")
	count := countSegments(out)
	if count != 1 {
		t.Errorf("expected deduped single segment, got %d in %q", count, out)
	}
}

func TestBuildReturnsEmptyOnNoResults(t *testing.T) {
	b := New(stubSearch{}, stubFetcher{})
	out := b.Build(context.Background(), "no urls here")
	if out != "" {
		t.Errorf("got %q, want empty", out)
	}
}

func TestBuildDegradesOnSearchError(t *testing.T) {
	b := New(stubSearch{err: errors.New("search down")}, stubFetcher{})
	out := b.Build(context.Background(), "anything")
	if out != "" {
		t.Errorf("got %q, want empty on search failure with no query urls", out)
	}
}

func longText(s string) string {
	for len(s) < 60 {
		s += " " + s
	}
	return s
}

func countSegments(s string) int {
	if s == "" {
		return 0
	}
	count := 1
	for i := 0; i+len("\n\n---\n\n") <= len(s); i++ {
		if s[i:i+len("\n\n---\n\n")] == "\n\n---\n\n" {
			count++
		}
	}
	return count
}
