package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rag-engine/ragctl/internal/errors"
)

func TestLoadPlainText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("hello world"), 0o644); err != nil {
		t.Fatal(err)
	}
	l := New()
	docs, err := l.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(docs) != 1 || docs[0].Text != "hello world" {
		t.Errorf("unexpected docs: %+v", docs)
	}
	if docs[0].FileType != "txt" {
		t.Errorf("got file type %q", docs[0].FileType)
	}
}

func TestLoadMarkdownSections(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.md")
	content := "# Intro\nhello\n\n## Details\nmore info"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	l := New()
	docs, err := l.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(docs))
	}
	if docs[0].Section != "Intro" || docs[1].Section != "Details" {
		t.Errorf("unexpected sections: %q, %q", docs[0].Section, docs[1].Section)
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.pdf")
	if err := os.WriteFile(path, []byte("%PDF-"), 0o644); err != nil {
		t.Fatal(err)
	}
	l := New()
	_, err := l.Load(context.Background(), path)
	if !errors.Is(err, errors.ErrorTypeFormatUnsupported) {
		t.Errorf("expected FormatUnsupported error, got %v", err)
	}
}

func TestLoadMissingSource(t *testing.T) {
	l := New()
	_, err := l.Load(context.Background(), "/nonexistent/path/x.txt")
	if !errors.Is(err, errors.ErrorTypeSourceMissing) {
		t.Errorf("expected SourceMissing error, got %v", err)
	}
}

func TestLoadEmptyFileReturnsNoDocuments(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.txt")
	if err := os.WriteFile(path, []byte("   \n  "), 0o644); err != nil {
		t.Fatal(err)
	}
	l := New()
	docs, err := l.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("expected zero documents for whitespace-only file, got %d", len(docs))
	}
}
