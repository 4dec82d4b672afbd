// Package indexer coordinates the indexing pipeline: load, chunk,
// embed, and upsert each source, tracking per-source content hashes in
// a manifest so unchanged sources are skipped on subsequent runs.
package indexer

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rag-engine/ragctl/internal/domain"
	"github.com/rag-engine/ragctl/internal/errors"
	"github.com/rag-engine/ragctl/internal/logger"
	"github.com/rag-engine/ragctl/internal/manifest"
	"github.com/rag-engine/ragctl/internal/vectorstore"
)

// Embedder generates embeddings for chunk content.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Chunker splits a loaded document into content-addressed chunks.
type Chunker interface {
	Chunk(doc domain.Document) []domain.Chunk
}

// Config controls indexing concurrency, batching, and the vector
// dimension used when a non-incremental run recreates the collection.
type Config struct {
	NumWorkers int
	BatchSize  int
	Dim        int
}

// DefaultConfig mirrors the teacher's indexer defaults.
func DefaultConfig() Config {
	return Config{NumWorkers: 4, BatchSize: 20, Dim: 768}
}

// Metrics summarizes one Index call.
type Metrics struct {
	mu            sync.Mutex
	SourcesIndexed int
	SourcesSkipped int
	SourcesErrored int
	ChunksCreated  int
	Duration       time.Duration
	start          time.Time
}

func newMetrics() *Metrics { return &Metrics{start: time.Now()} }

func (m *Metrics) recordSource(indexed, errored bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case errored:
		m.SourcesErrored++
	case indexed:
		m.SourcesIndexed++
	default:
		m.SourcesSkipped++
	}
}

func (m *Metrics) recordChunks(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChunksCreated += n
}

func (m *Metrics) finish() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Duration = time.Since(m.start)
}

// Log emits a single summary line, matching the teacher's
// one-line-per-run indexing metrics.
func (m *Metrics) Log() {
	m.mu.Lock()
	defer m.mu.Unlock()
	logger.Info("indexing metrics",
		"sources_indexed", m.SourcesIndexed,
		"sources_skipped", m.SourcesSkipped,
		"sources_errored", m.SourcesErrored,
		"chunks_created", m.ChunksCreated,
		"duration_ms", m.Duration.Milliseconds(),
	)
}

// Indexer coordinates Loader -> Chunker -> Embedder -> Collection upsert.
type Indexer struct {
	loader     domain.Loader
	chunker    Chunker
	embedder   Embedder
	collection vectorstore.Collection
	cfg        Config
}

// New builds an Indexer over the given collaborators.
func New(loader domain.Loader, c Chunker, embedder Embedder, collection vectorstore.Collection, cfg Config) *Indexer {
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = 4
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	return &Indexer{loader: loader, chunker: c, embedder: embedder, collection: collection, cfg: cfg}
}

// Result is the outcome of an Index call: its metrics.
type Result struct {
	Metrics *Metrics
}

// Index walks paths, loads and chunks each one, embeds and upserts new
// or changed content, and writes the manifest once at the end, after
// every worker has finished. A source's hash enters the manifest only
// after its chunks have been embedded and upserted, so a crash mid-run
// never leaves the manifest pointing at content that was never actually
// written to the collection. A
// non-incremental run first drops and recreates the collection, so
// sources no longer in paths don't linger as stale chunks.
func (idx *Indexer) Index(ctx context.Context, indexDir string, paths []string, incremental bool) (*Result, error) {
	metrics := newMetrics()
	defer func() {
		metrics.finish()
		metrics.Log()
	}()

	m, err := manifest.Load(indexDir)
	if err != nil {
		return nil, err
	}
	if !incremental {
		m = manifest.Manifest{}
		if err := idx.collection.Delete(ctx); err != nil {
			logger.Warn("failed to drop collection for non-incremental reindex", "error", err)
		}
		if err := idx.collection.Create(ctx, idx.cfg.Dim); err != nil {
			return nil, err
		}
	}

	files, err := expandPaths(paths)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.cfg.NumWorkers)
	for _, f := range files {
		f := f
		g.Go(func() error {
			idx.indexOne(gctx, f, m, incremental, metrics, &mu)
			return nil
		})
	}
	_ = g.Wait() // indexOne records per-source failures in metrics rather than returning them

	if err := manifest.Save(indexDir, m); err != nil {
		return nil, err
	}

	return &Result{Metrics: metrics}, nil
}

func (idx *Indexer) indexOne(ctx context.Context, path string, m manifest.Manifest, incremental bool, metrics *Metrics, mu *sync.Mutex) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if incremental {
		unchanged, err := m.Unchanged(path)
		if err != nil {
			logger.Warn("failed to hash source, indexing anyway", "path", path, "error", err)
		} else if unchanged {
			logger.Debug("source unchanged, skipping", "path", path)
			metrics.recordSource(false, false)
			return
		}
	}

	docs, err := idx.loader.Load(ctx, path)
	if err != nil {
		logger.Error("failed to load source", "path", path, "error", err)
		metrics.recordSource(false, true)
		return
	}

	var chunks []domain.Chunk
	for _, doc := range docs {
		chunks = append(chunks, idx.chunker.Chunk(doc)...)
	}
	if len(chunks) == 0 {
		logger.Debug("no chunks extracted from source", "path", path)
		metrics.recordSource(false, false)
		return
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	embeddings, err := idx.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		logger.Error("failed to embed source", "path", path, "error", err)
		metrics.recordSource(false, true)
		return
	}

	records := make([]vectorstore.Record, 0, len(chunks))
	for i, c := range chunks {
		records = append(records, vectorstore.Record{
			ID:        c.ID,
			Embedding: embeddings[i],
			Document:  c.Content,
			Source:    c.Source,
			FileType:  c.FileType,
			ChunkID:   c.ChunkID,
			Page:      c.Page,
			Section:   c.Section,
		})
	}

	if err := idx.collection.DeleteByFilter(ctx, domain.Filter{Source: path}); err != nil {
		logger.Warn("failed to delete stale chunks for source", "path", path, "error", err)
	}
	if err := idx.collection.Add(ctx, records); err != nil {
		logger.Error("failed to upsert chunks for source", "path", path, "error", err)
		metrics.recordSource(false, true)
		return
	}

	hash, err := manifest.HashFile(path)
	if err == nil {
		mu.Lock()
		m[path] = hash
		mu.Unlock()
	}

	metrics.recordSource(true, false)
	metrics.recordChunks(len(chunks))
	logger.Info("source indexed", "path", path, "chunks", len(chunks))
}

// expandPaths walks directories recursively and passes files through
// unchanged, skipping dotfiles and dot-directories.
func expandPaths(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, errors.SourceMissing(p)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		err = filepath.Walk(p, func(path string, fi os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			name := fi.Name()
			if fi.IsDir() {
				if name != "." && len(name) > 0 && name[0] == '.' {
					return filepath.SkipDir
				}
				return nil
			}
			if len(name) > 0 && name[0] == '.' {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}
