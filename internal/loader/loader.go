// Package loader implements the Loader contract for plain text and
// Markdown sources. PDF and Office documents are out of scope (spec.md §1
// treats those parsers as external collaborators); callers that need them
// can implement domain.Loader themselves and compose it with FileLoader.
package loader

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rag-engine/ragctl/internal/domain"
	"github.com/rag-engine/ragctl/internal/errors"
)

// FileLoader loads plain-text and Markdown files from disk.
type FileLoader struct{}

// New constructs a FileLoader.
func New() *FileLoader { return &FileLoader{} }

var _ domain.Loader = (*FileLoader)(nil)

// Load reads path and returns one document (plain text) or one document
// per ATX-delimited Markdown section, matching the reference loader's
// per-page/per-section contract for non-binary formats.
func (l *FileLoader) Load(ctx context.Context, path string) ([]domain.Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.SourceMissing(path)
	}
	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		return nil, errors.SourceMissing(abs)
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(abs), "."))
	fileType := ext
	if fileType == "" {
		fileType = "document"
	}

	switch ext {
	case "txt", "text":
		return l.loadPlain(abs, fileType)
	case "md", "markdown":
		return l.loadMarkdown(abs, fileType)
	default:
		return nil, errors.FormatUnsupported("unsupported format: ." + ext)
	}
}

func (l *FileLoader) loadPlain(abs, fileType string) ([]domain.Document, error) {
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeSourceMissing, "read "+abs)
	}
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return []domain.Document{{
		Text:     text,
		Source:   abs,
		FileType: fileType,
		FileName: filepath.Base(abs),
	}}, nil
}

func (l *FileLoader) loadMarkdown(abs, fileType string) ([]domain.Document, error) {
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeSourceMissing, "read "+abs)
	}
	text := string(data)
	sections := splitMarkdownBySection(text)
	var docs []domain.Document
	for _, s := range sections {
		if strings.TrimSpace(s.body) == "" {
			continue
		}
		docs = append(docs, domain.Document{
			Text:     s.body,
			Source:   abs,
			FileType: fileType,
			FileName: filepath.Base(abs),
			Section:  s.section,
		})
	}
	if len(docs) == 0 && strings.TrimSpace(text) != "" {
		docs = append(docs, domain.Document{Text: text, Source: abs, FileType: fileType, FileName: filepath.Base(abs)})
	}
	return docs, nil
}

type mdSection struct {
	section string
	body    string
}

// splitMarkdownBySection mirrors the reference loader's header-keyed
// segmentation: consecutive lines up to the next ATX heading form one
// section, carrying the heading text as metadata.
func splitMarkdownBySection(text string) []mdSection {
	lines := strings.Split(text, "\n")
	var sections []mdSection
	var header string
	var buf []string
	flush := func() {
		if len(buf) == 0 {
			return
		}
		sections = append(sections, mdSection{section: header, body: strings.Join(buf, "\n")})
	}
	for _, line := range lines {
		if h, ok := atxHeadingText(line); ok {
			flush()
			header = h
			buf = []string{line}
			continue
		}
		buf = append(buf, line)
	}
	flush()
	return sections
}

func atxHeadingText(line string) (string, bool) {
	trimmed := strings.TrimLeft(line, "#")
	hashes := len(line) - len(trimmed)
	if hashes == 0 || hashes > 6 {
		return "", false
	}
	if !strings.HasPrefix(trimmed, " ") {
		return "", false
	}
	return strings.TrimSpace(trimmed), true
}
