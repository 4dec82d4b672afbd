package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rag-engine/ragctl/internal/errors"
	"github.com/rag-engine/ragctl/internal/eval"
)

var evalFile string
var evalEmitTSV bool

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Run a JSONL question/answer dataset through retrieval and scoring",
	RunE:  runEval,
}

func init() {
	evalCmd.Flags().StringVar(&evalFile, "eval-file", "eval.jsonl", "path to the JSONL evaluation dataset")
	evalCmd.Flags().BoolVar(&evalEmitTSV, "emit-tsv", false, "also write an external-scorer TSV (query, context, answer) to eval_ares_unlabeled.tsv")
}

func runEval(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	data, err := os.ReadFile(evalFile)
	if err != nil {
		fmt.Printf("Eval file not found: %s\n", evalFile)
		fmt.Println(`Create eval.jsonl with one JSON object per line: {"question": "...", "expected": "..."}`)
		return errors.EvalDatasetError("reading eval file", err)
	}
	rows, err := eval.ParseDataset(data)
	if err != nil {
		return err
	}

	svc, err := newServices(ctx, cfg)
	if err != nil {
		return err
	}
	count, err := svc.collection.Count(ctx)
	if err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("index is empty, run 'ragctl index' first")
	}

	evaluator := eval.New(&evalRetrieverAdapter{svc.retriever}, svc.answerer, currentFilter())
	results := evaluator.Run(ctx, rows)

	outPath := filepath.Join(cfg.IndexDir, "eval_results.json")
	if err := eval.WriteResults(outPath, results); err != nil {
		return err
	}

	if evalEmitTSV {
		tsvPath := filepath.Join(cfg.IndexDir, "eval_ares_unlabeled.tsv")
		if err := eval.WriteScorerTSV(tsvPath, results); err != nil {
			return err
		}
		fmt.Printf("Eval complete. %d runs (%d ok). Results: %s, scorer TSV: %s\n", len(results), eval.CountOK(results), outPath, tsvPath)
		return nil
	}

	fmt.Printf("Eval complete. %d runs (%d ok). Results: %s\n", len(results), eval.CountOK(results), outPath)
	return nil
}
