package bm25

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	got := Tokenize("Hello,   World!\tIt's BM25.")
	want := []string{"hello,", "world!", "it's", "bm25."}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize() = %v, want %v", got, want)
	}
}

func TestSearchRanksMoreRelevantDocHigher(t *testing.T) {
	docs := []Doc{
		{ID: "1", Text: "the quick brown fox jumps over the lazy dog"},
		{ID: "2", Text: "a dog and a fox are both canines found in the wild"},
		{ID: "3", Text: "a completely unrelated document about cooking recipes"},
	}
	idx := New(docs, 1.2, 0.75)

	got := idx.Search("fox dog", 3)
	if len(got) < 2 {
		t.Fatalf("expected at least 2 matches, got %v", got)
	}
	if got[0] != "1" {
		t.Errorf("expected doc 1 to rank first, got %v", got)
	}
	for _, id := range got {
		if id == "3" {
			t.Errorf("unrelated doc 3 should not match, got %v", got)
		}
	}
}

func TestSearchEmptyCorpus(t *testing.T) {
	idx := New(nil, 1.2, 0.75)
	if got := idx.Search("anything", 5); got != nil {
		t.Errorf("got %v, want nil", got)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	idx := New([]Doc{{ID: "1", Text: "some text"}}, 1.2, 0.75)
	if got := idx.Search("", 5); got != nil {
		t.Errorf("got %v, want nil", got)
	}
}

func TestSearchRespectsLimit(t *testing.T) {
	docs := []Doc{
		{ID: "1", Text: "alpha beta"},
		{ID: "2", Text: "alpha gamma"},
		{ID: "3", Text: "alpha delta"},
	}
	idx := New(docs, 1.2, 0.75)
	got := idx.Search("alpha", 2)
	if len(got) != 2 {
		t.Errorf("got %d results, want 2", len(got))
	}
}
