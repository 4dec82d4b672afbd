package answer

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/rag-engine/ragctl/internal/chat"
	"github.com/rag-engine/ragctl/internal/domain"
)

func TestBuildContextBothPresent(t *testing.T) {
	got := BuildContext("doc text", "web text")
	want := "Documents:\ndoc text\n\n---\n\nWeb search results:\nweb text"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuildContextOnlyDocs(t *testing.T) {
	got := BuildContext("doc text", "")
	want := "Documents:\ndoc text"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuildContextEmpty(t *testing.T) {
	if got := BuildContext("", ""); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestMessagesPicksWebPromptWhenWebContextPresent(t *testing.T) {
	msgs := Messages("q", "ctx", true)
	if msgs[0].Content != SystemPromptWeb {
		t.Error("expected web system prompt")
	}
}

func TestMessagesPicksDocPromptWhenNoWebContext(t *testing.T) {
	msgs := Messages("q", "ctx", false)
	if msgs[0].Content != SystemPrompt {
		t.Error("expected doc system prompt")
	}
	wantUser := "Context:\n---\nctx\n---\n\nQuestion: q"
	if msgs[1].Content != wantUser {
		t.Errorf("got %q, want %q", msgs[1].Content, wantUser)
	}
}

func TestParseCitationsAllForms(t *testing.T) {
	text := "Claim one [1]. Claim two [file: docs/a.md]. Claim three [URL: https://example.com]."
	got := ParseCitations(text)
	want := []string{"1", "file:docs/a.md", "url:https://example.com"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseCitationsNone(t *testing.T) {
	if got := ParseCitations("no citations here"); len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
}

func TestCacheKey(t *testing.T) {
	got := CacheKey("what is x", domain.Filter{Source: "a.md"}, true)
	want := "what is x|a.md||web=true"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResearchCacheKeyHasDistinctPrefix(t *testing.T) {
	got := ResearchCacheKey("what is x", domain.Filter{})
	want := "research|what is x||"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if CacheKey("what is x", domain.Filter{}, false) == got {
		t.Error("research cache key must not collide with plain query cache key")
	}
}

type stubChat struct {
	reply string
	err   error
}

func (s stubChat) Generate(ctx context.Context, messages []chat.Message) (string, error) {
	return s.reply, s.err
}

func TestOrchestratorAnswerReturnsReplyAndCitations(t *testing.T) {
	o := New(stubChat{reply: "Answer with source [1]."})
	reply, cites, err := o.Answer(context.Background(), "q", []string{"doc a"}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "Answer with source [1]." {
		t.Errorf("got %q", reply)
	}
	if !reflect.DeepEqual(cites, []string{"1"}) {
		t.Errorf("got citations %v", cites)
	}
}

func TestOrchestratorAnswerPropagatesChatError(t *testing.T) {
	o := New(stubChat{err: errors.New("chat down")})
	_, _, err := o.Answer(context.Background(), "q", nil, "")
	if err == nil {
		t.Fatal("expected error")
	}
}
