package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rag-engine/ragctl/internal/answer"
	"github.com/rag-engine/ragctl/internal/logger"
	"github.com/rag-engine/ragctl/internal/retrieval"
)

var (
	researchContextOnly bool
	researchCitations   bool
)

var researchCmd = &cobra.Command{
	Use:   "research [question]",
	Short: "Answer a question using web search, optionally alongside indexed documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runResearch,
}

func init() {
	researchCmd.Flags().BoolVar(&researchContextOnly, "context-only", false, "print the assembled context block without calling the chat backend")
	researchCmd.Flags().BoolVar(&researchCitations, "citations", false, "print the parsed citation list after the answer")
}

func runResearch(cmd *cobra.Command, args []string) error {
	query := args[0]
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	svc, err := newServices(ctx, cfg)
	if err != nil {
		return err
	}

	// research runs without requiring a populated index: a retrieval
	// failure (e.g. empty or missing collection) degrades to web-only
	// context instead of aborting.
	docs, err := svc.retriever.Retrieve(ctx, query, retrieval.Options{Filter: currentFilter(), UseRerank: true})
	if err != nil {
		logger.Warn("document retrieval failed during research, continuing with web context only", "error", err)
		docs = nil
	}

	webContext := svc.webBuilder.Build(ctx, query)

	if researchContextOnly {
		docContext := answer.FormatDocuments(docs)
		fmt.Println(answer.BuildContext(docContext, webContext))
		return nil
	}

	cacheKey := answer.ResearchCacheKey(query, currentFilter())
	if !flags.noCache {
		if cached, ok := svc.cacheStore.Get(ctx, cacheKey); ok {
			fmt.Println(cached)
			return nil
		}
	}

	reply, cites, err := svc.answerer.Answer(ctx, query, docs, webContext)
	if err != nil {
		return err
	}

	if !flags.noCache {
		svc.cacheStore.Set(ctx, cacheKey, reply)
	}

	fmt.Println(reply)
	if researchCitations && len(cites) > 0 {
		fmt.Println("\n--- Cited sources:", strings.Join(cites, ", "))
	}
	return nil
}
