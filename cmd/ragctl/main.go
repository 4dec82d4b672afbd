// Command ragctl indexes documents and answers questions over them using
// a local hybrid dense+lexical retrieval pipeline.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rag-engine/ragctl/internal/answer"
	"github.com/rag-engine/ragctl/internal/cache"
	"github.com/rag-engine/ragctl/internal/chat"
	"github.com/rag-engine/ragctl/internal/chunker"
	"github.com/rag-engine/ragctl/internal/config"
	"github.com/rag-engine/ragctl/internal/domain"
	"github.com/rag-engine/ragctl/internal/embeddings"
	"github.com/rag-engine/ragctl/internal/expansion"
	"github.com/rag-engine/ragctl/internal/indexer"
	"github.com/rag-engine/ragctl/internal/loader"
	"github.com/rag-engine/ragctl/internal/logger"
	"github.com/rag-engine/ragctl/internal/reranker"
	"github.com/rag-engine/ragctl/internal/retrieval"
	"github.com/rag-engine/ragctl/internal/vectorstore"
	"github.com/rag-engine/ragctl/internal/webcontext"
)

// defaultEmbeddingDim matches nomic-embed-text's output width, the
// config package's default embedding model.
const defaultEmbeddingDim = 768

// globalFlags holds the persistent flags shared by every subcommand.
type globalFlags struct {
	indexDir     string
	chatModel    string
	embedModel   string
	filterSource string
	filterType   string
	noCache      bool
}

var flags globalFlags

var rootCmd = &cobra.Command{
	Use:   "ragctl",
	Short: "Index documents and answer questions over them with hybrid retrieval",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flags.indexDir, "index-dir", "", "index directory (defaults to RAG_INDEX_DIR or ~/.config/rag-engine/rag_index)")
	rootCmd.PersistentFlags().StringVar(&flags.chatModel, "model", "", "chat model name (overrides LLM_MODEL)")
	rootCmd.PersistentFlags().StringVar(&flags.embedModel, "embed-model", "", "embedding model name (overrides EMBEDDING_MODEL)")
	rootCmd.PersistentFlags().StringVar(&flags.filterSource, "filter-source", "", "restrict to sources whose path starts with this prefix")
	rootCmd.PersistentFlags().StringVar(&flags.filterType, "filter-type", "", "restrict to this file type")
	rootCmd.PersistentFlags().BoolVar(&flags.noCache, "no-cache", false, "bypass the answer cache")

	rootCmd.AddCommand(indexCmd, queryCmd, researchCmd, evalCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig applies CLI overrides on top of the environment-derived
// config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flags.indexDir != "" {
		cfg.IndexDir = flags.indexDir
	}
	if flags.chatModel != "" {
		cfg.ChatModel = flags.chatModel
	}
	if flags.embedModel != "" {
		cfg.EmbeddingModel = flags.embedModel
	}
	if err := os.MkdirAll(cfg.IndexDir, 0o755); err != nil {
		return nil, err
	}
	return cfg, nil
}

func currentFilter() domain.Filter {
	return domain.Filter{SourcePrefix: flags.filterSource, FileType: flags.filterType}
}

// services wires together every collaborator the CLI commands share.
type services struct {
	cfg        *config.Config
	collection vectorstore.Collection
	embedder   *embeddings.OllamaEmbedder
	chat       *chat.OllamaChat
	retriever  *retrieval.Retriever
	rerank     *reranker.CrossEncoderReranker
	expander   *expansion.Orchestrator
	webBuilder *webcontext.Builder
	cacheStore cache.Cache
	answerer   *answer.Orchestrator
}

func newServices(ctx context.Context, cfg *config.Config) (*services, error) {
	collection, err := vectorstore.NewQdrant(cfg.VectorStoreURL, cfg.CollectionName)
	if err != nil {
		logger.Warn("falling back to in-memory vector store", "error", err)
	}
	var coll vectorstore.Collection
	if err != nil {
		coll = vectorstore.NewMemory()
	} else {
		coll = collection
	}
	if err := coll.GetOrCreate(ctx, defaultEmbeddingDim); err != nil {
		return nil, err
	}

	embedder := embeddings.NewOllamaEmbedder(cfg.OllamaURL, cfg.EmbeddingModel)
	chatClient := chat.NewOllamaChat(cfg.OllamaURL, cfg.ChatModel)

	var rr *reranker.CrossEncoderReranker
	if cfg.RerankURL != "" {
		rr = reranker.New(reranker.NewHTTPClient(cfg.RerankURL))
	}

	retr := retrieval.New(coll, embedder, rerankerOrNil(rr), cfg.BM25K1, cfg.BM25B)

	expCfg := expansion.DefaultConfig()
	expCfg.Variants = cfg.ExpandVariants
	expander := expansion.New(chatClient, &retrieverDocsAdapter{retr}, rerankerOrNilExpansion(rr), expCfg)

	webBuilder := webcontext.New(webcontext.NewDuckDuckGoProvider(), webcontext.NewJinaFetcher())

	var cacheStore cache.Cache
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedis(cfg.RedisURL, secondsToDuration(cfg.CacheTTLSeconds))
		if err != nil {
			logger.Warn("failed to connect to redis cache, using in-process cache", "error", err)
			cacheStore = cache.NewMemory(secondsToDuration(cfg.CacheTTLSeconds))
		} else {
			cacheStore = rc
		}
	} else {
		cacheStore = cache.NewMemory(secondsToDuration(cfg.CacheTTLSeconds))
	}

	return &services{
		cfg:        cfg,
		collection: coll,
		embedder:   embedder,
		chat:       chatClient,
		retriever:  retr,
		rerank:     rr,
		expander:   expander,
		webBuilder: webBuilder,
		cacheStore: cacheStore,
		answerer:   answer.New(chatClient),
	}, nil
}

func rerankerOrNil(rr *reranker.CrossEncoderReranker) retrieval.Reranker {
	if rr == nil {
		return nil
	}
	return rr
}

func rerankerOrNilExpansion(rr *reranker.CrossEncoderReranker) expansion.Reranker {
	if rr == nil {
		return nil
	}
	return rr
}

// retrieverDocsAdapter narrows *retrieval.Retriever to expansion.Retriever.
type retrieverDocsAdapter struct {
	r *retrieval.Retriever
}

func (a *retrieverDocsAdapter) RetrieveDocs(ctx context.Context, query string, useRerank bool) ([]string, error) {
	return a.r.Retrieve(ctx, query, retrieval.Options{Filter: currentFilter(), UseRerank: useRerank})
}

// evalRetrieverAdapter narrows *retrieval.Retriever to eval.Retriever.
type evalRetrieverAdapter struct {
	r *retrieval.Retriever
}

func (a *evalRetrieverAdapter) Retrieve(ctx context.Context, query string, filter domain.Filter) ([]string, error) {
	return a.r.Retrieve(ctx, query, retrieval.Options{Filter: filter, UseRerank: true})
}

func secondsToDuration(s int) time.Duration {
	return time.Duration(s) * time.Second
}

func newIndexer(s *services) *indexer.Indexer {
	strategy := chunker.StrategyRecursive
	if s.cfg.ChunkStrategy == string(chunker.StrategySemantic) {
		strategy = chunker.StrategySemantic
	}
	c := chunker.New(
		chunker.WithStrategy(strategy),
		chunker.WithChunkSize(s.cfg.ChunkSize),
		chunker.WithOverlap(s.cfg.ChunkOverlap),
		chunker.WithTokens(s.cfg.ChunkUseTokens),
	)
	idxCfg := indexer.DefaultConfig()
	idxCfg.Dim = defaultEmbeddingDim
	return indexer.New(loader.New(), c, s.embedder, s.collection, idxCfg)
}
