// Package domain holds the core data types shared across the retrieval
// pipeline: chunks, manifests, candidates, and the external collaborator
// interfaces (Loader, Embedder, chat client) that the pipeline is built
// against.
package domain

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
)

// Chunk is a passage emitted by the chunker, ready for embedding and
// storage.
type Chunk struct {
	ID       string
	Content  string
	Source   string
	FileType string
	ChunkID  int
	Page     int    // 0 means absent
	Section  string // "" means absent
}

// NewChunk builds the tag header, prepends it to body, and derives the
// content-addressed id. body must already be non-empty after stripping.
func NewChunk(body, source, fileType string, chunkID, page int, section string) Chunk {
	header := buildHeader(source, fileType, page, section)
	content := header + "\n---\n" + body
	return Chunk{
		ID:       ContentID(content),
		Content:  content,
		Source:   source,
		FileType: fileType,
		ChunkID:  chunkID,
		Page:     page,
		Section:  section,
	}
}

func buildHeader(source, fileType string, page int, section string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[file: %s] [type: %s] [source: %s]", source, fileType, filepath.Base(source))
	if page > 0 {
		fmt.Fprintf(&b, " [page: %d]", page)
	}
	if section != "" {
		fmt.Fprintf(&b, " [section: %s]", section)
	}
	return b.String()
}

// ContentID derives the first-12-hex-char MD5 chunk id from content.
// MD5 is used here only as a fast content fingerprint, not for security —
// it is the same construction the reference implementation uses, preserved
// so identical chunk content always collapses to the same id on upsert.
func ContentID(content string) string {
	sum := md5.Sum([]byte(content)) //nolint:gosec // content fingerprint, not a security boundary
	return hex.EncodeToString(sum[:])[:12]
}

// Document is one loadable unit of text plus its source metadata, produced
// by a Loader (one per PDF page, Markdown section, Word document, or plain
// text file).
type Document struct {
	Text     string
	Source   string
	FileType string
	FileName string
	Page     int    // 0 means absent
	Section  string // "" means absent
}

// Loader turns a filesystem path into one or more documents. Unsupported
// extensions must fail with a FormatUnsupported error.
type Loader interface {
	Load(ctx context.Context, path string) ([]Document, error)
}

// Filter is a sum type over the metadata predicates the vector store and
// BM25 corpus fetch support: exact equality on file type, and an
// anchored-prefix regex on source path.
type Filter struct {
	Source      string // exact source path match, if set
	SourcePrefix string // anchored prefix match (^prefix), if set
	FileType    string // exact file_type match, if set
}

// IsZero reports whether the filter selects everything.
func (f Filter) IsZero() bool {
	return f.Source == "" && f.SourcePrefix == "" && f.FileType == ""
}

// Matches reports whether a chunk's metadata satisfies the filter.
func (f Filter) Matches(source, fileType string) bool {
	if f.Source != "" && f.Source != source {
		return false
	}
	if f.SourcePrefix != "" && !strings.HasPrefix(source, f.SourcePrefix) {
		return false
	}
	if f.FileType != "" && f.FileType != fileType {
		return false
	}
	return true
}

// Candidate is a retrieval result tuple: id, content, and its rank (if any)
// in the dense and lexical lists. HasDenseRank/HasLexicalRank distinguish
// "absent from that list" from "rank 0" since RRF only sums over lists
// where the item actually appears.
type Candidate struct {
	ID             string
	Content        string
	DenseRank      int
	HasDenseRank   bool
	LexicalRank    int
	HasLexicalRank bool
}
