package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rag-engine/ragctl/internal/answer"
	"github.com/rag-engine/ragctl/internal/retrieval"
)

var (
	queryUseRerank  bool
	queryUseExpand  bool
	queryUseWeb     bool
	queryCitations  bool
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Answer a question from the indexed documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().BoolVar(&queryUseRerank, "rerank", true, "rerank retrieved documents with the cross-encoder, if configured")
	queryCmd.Flags().BoolVar(&queryUseExpand, "expand", false, "expand the query into alternative phrasings before retrieving")
	queryCmd.Flags().BoolVar(&queryUseWeb, "web", false, "augment document context with web search results")
	queryCmd.Flags().BoolVar(&queryCitations, "citations", false, "print the parsed citation list after the answer")
}

func runQuery(cmd *cobra.Command, args []string) error {
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

	cacheKey := answer.CacheKey(query, currentFilter(), queryUseWeb)
	if !flags.noCache {
		if cached, ok := svc.cacheStore.Get(ctx, cacheKey); ok {
			fmt.Println(cached)
			return nil
		}
	}

	var docs []string
	if queryUseExpand {
		docs, err = svc.expander.Expand(ctx, query, queryUseRerank)
	} else {
		docs, err = svc.retriever.Retrieve(ctx, query, retrieval.Options{Filter: currentFilter(), UseRerank: queryUseRerank})
	}
	if err != nil {
		return err
	}

	var webContext string
	if queryUseWeb {
		webContext = svc.webBuilder.Build(ctx, query)
	}

	reply, cites, err := svc.answerer.Answer(ctx, query, docs, webContext)
	if err != nil {
		return err
	}

	if !flags.noCache {
		svc.cacheStore.Set(ctx, cacheKey, reply)
	}

	fmt.Println(reply)
	if queryCitations && len(cites) > 0 {
		fmt.Println("\n--- Cited sources:", strings.Join(cites, ", "))
	}
	return nil
}
