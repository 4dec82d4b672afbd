package chunker

import (
	"reflect"
	"testing"

	"github.com/rag-engine/ragctl/internal/domain"
)

func TestRecursiveSplitScenario1(t *testing.T) {
	// chunk_size=20, overlap=4, input "aaaa. bbbb. cccc. dddd." (23 chars)
	// ladder ["\n\n","\n",". "," "] -> ["aaaa. bbbb. cccc.", "dddd."]
	got := recursiveSplit(charUnit{}, "aaaa. bbbb. cccc. dddd.", defaultSeparators, 20, 4)
	want := []string{"aaaa. bbbb. cccc.", "dddd."}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestRecursiveSplitFitsVerbatim(t *testing.T) {
	got := recursiveSplit(charUnit{}, "short text", defaultSeparators, 100, 20)
	want := []string{"short text"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestRecursiveSplitEmptyInput(t *testing.T) {
	got := recursiveSplit(charUnit{}, "   ", defaultSeparators, 100, 20)
	if len(got) != 0 {
		t.Errorf("expected zero chunks for whitespace-only input, got %v", got)
	}
}

func TestChunkerOnEmptyInput(t *testing.T) {
	c := New()
	chunks := c.Chunk(domain.Document{Text: "   ", Source: "/a.txt", FileType: "txt"})
	if len(chunks) != 0 {
		t.Errorf("expected zero chunks, got %d", len(chunks))
	}
}

func TestChunkerOnInputUnderChunkSize(t *testing.T) {
	c := New(WithChunkSize(512), WithOverlap(102))
	chunks := c.Chunk(domain.Document{Text: "a short document", Source: "/a.txt", FileType: "txt"})
	if len(chunks) != 1 {
		t.Errorf("expected exactly one chunk, got %d", len(chunks))
	}
}

func TestChunkInvariants(t *testing.T) {
	c := New(WithChunkSize(20), WithOverlap(4))
	chunks := c.Chunk(domain.Document{Text: "aaaa. bbbb. cccc. dddd.", Source: "/x/y.txt", FileType: "txt"})
	for _, ch := range chunks {
		if ch.Source == "" || ch.FileType == "" {
			t.Errorf("chunk missing required metadata: %+v", ch)
		}
		idx := -1
		for i := 0; i+3 <= len(ch.Content); i++ {
			if ch.Content[i:i+3] == "---" {
				idx = i
				break
			}
		}
		if idx == -1 {
			t.Errorf("chunk content missing --- separator: %q", ch.Content)
		}
	}
}

func TestChunkerMarkdownSections(t *testing.T) {
	c := New(WithChunkSize(512), WithOverlap(102))
	text := "# Intro\nhello there\n\n# Details\nmore text here"
	chunks := c.Chunk(domain.Document{Text: text, Source: "/doc.md", FileType: "md"})
	if len(chunks) != 2 {
		t.Fatalf("expected 2 section chunks, got %d: %+v", len(chunks), chunks)
	}
	if chunks[0].Section != "Intro" || chunks[1].Section != "Details" {
		t.Errorf("unexpected sections: %q, %q", chunks[0].Section, chunks[1].Section)
	}
}

func TestFinalStrideFallback(t *testing.T) {
	// No separators left to split on: single long run with no spaces/periods.
	text := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa" // 40 a's
	got := recursiveSplit(charUnit{}, text, nil, 10, 2)
	if len(got) == 0 {
		t.Fatal("expected stride fallback to produce chunks")
	}
	for _, g := range got {
		if len([]rune(g)) > 10 {
			t.Errorf("stride chunk exceeds chunk size: %q", g)
		}
	}
}
