// Package eval implements the evaluation harness: it runs a JSONL
// question/expected-answer dataset through retrieval and the answer
// orchestrator, scoring each row and writing the results to disk.
package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rag-engine/ragctl/internal/answer"
	"github.com/rag-engine/ragctl/internal/domain"
	"github.com/rag-engine/ragctl/internal/errors"
	"github.com/rag-engine/ragctl/internal/logger"
)

// Row is one parsed line of the evaluation dataset. Question accepts
// either "question" or "q"; Expected accepts either "expected" or
// "expected_answer", matching the two historical field names the
// dataset format has used.
type Row struct {
	Question string `json:"question"`
	Expected string `json:"expected"`
}

// ParseDataset reads a JSONL evaluation file, one JSON object per
// non-blank line, tolerating the "q"/"question" and
// "expected"/"expected_answer" field aliases.
func ParseDataset(data []byte) ([]Row, error) {
	var rows []Row
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var raw map[string]any
		if err := json.Unmarshal([]byte(line), &raw); err != nil {
			return nil, errors.EvalDatasetError("invalid dataset line: "+line, err)
		}
		row := Row{
			Question: firstString(raw, "question", "q"),
			Expected: firstString(raw, "expected", "expected_answer"),
		}
		if row.Question == "" {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func firstString(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := raw[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// Metrics holds the per-row scoring computed for a generated answer.
type Metrics struct {
	HasExpected     bool    `json:"has_expected,omitempty"`
	AnswerRelevance float64 `json:"answer_relevance,omitempty"`
	CitationsCount  int     `json:"citations_count"`
}

// Result is one row's outcome: either a scored answer, or an error
// message if the row failed. Context carries the retrieved document
// context the answer was generated from, for the optional external-scorer
// TSV; it is not part of eval_results.json.
type Result struct {
	Question  string   `json:"question"`
	Answer    string   `json:"answer,omitempty"`
	Expected  string   `json:"expected,omitempty"`
	Citations []string `json:"citations,omitempty"`
	Metrics   *Metrics `json:"metrics,omitempty"`
	Error     string   `json:"error,omitempty"`
	Context   string   `json:"-"`
}

// ScoreRelevance implements the reference implementation's crude lexical
// overlap check: 1.0 if any word longer than 3 characters from the
// expected answer appears in the generated answer, case-insensitively,
// else 0.0.
func ScoreRelevance(expected, generated string) float64 {
	expLower := strings.ToLower(expected)
	ansLower := strings.ToLower(generated)
	for _, w := range strings.Fields(expLower) {
		if len(w) > 3 && strings.Contains(ansLower, w) {
			return 1.0
		}
	}
	return 0.0
}

// Retriever retrieves document content for a question, scoped to an
// optional Eval instance's filter.
type Retriever interface {
	Retrieve(ctx context.Context, query string, filter domain.Filter) ([]string, error)
}

// Evaluator runs a dataset through retrieval and the answer orchestrator,
// and scores each resulting answer.
type Evaluator struct {
	retriever Retriever
	answerer  *answer.Orchestrator
	filter    domain.Filter
}

// New builds an Evaluator over the given retriever and answer
// orchestrator, scoping retrieval to filter.
func New(retriever Retriever, answerer *answer.Orchestrator, filter domain.Filter) *Evaluator {
	return &Evaluator{retriever: retriever, answerer: answerer, filter: filter}
}

// Run evaluates every row in the dataset, continuing past per-row
// failures by recording them as error results rather than aborting.
func (e *Evaluator) Run(ctx context.Context, rows []Row) []Result {
	results := make([]Result, 0, len(rows))
	for _, row := range rows {
		results = append(results, e.runRow(ctx, row))
	}
	return results
}

func (e *Evaluator) runRow(ctx context.Context, row Row) Result {
	docs, err := e.retriever.Retrieve(ctx, row.Question, e.filter)
	if err != nil {
		logger.Warn("eval row retrieval failed", "question", row.Question, "error", err)
		return Result{Question: row.Question, Error: err.Error()}
	}

	docContext := answer.FormatDocuments(docs)
	ans, cites, err := e.answerer.Answer(ctx, row.Question, docs, "")
	if err != nil {
		return Result{Question: row.Question, Context: docContext, Error: err.Error()}
	}

	metrics := &Metrics{CitationsCount: len(cites)}
	if row.Expected != "" {
		metrics.HasExpected = true
		metrics.AnswerRelevance = ScoreRelevance(row.Expected, ans)
	}

	return Result{
		Question:  row.Question,
		Answer:    ans,
		Expected:  row.Expected,
		Citations: cites,
		Metrics:   metrics,
		Context:   docContext,
	}
}

// WriteResults marshals results as an indented JSON array to path,
// writing atomically via a temp file and rename.
func WriteResults(path string, results []Result) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// WriteScorerTSV writes an external-scorer TSV with columns
// query, context, answer — tabs and newlines within each field replaced
// by spaces so the row stays on one line.
func WriteScorerTSV(path string, results []Result) error {
	var b strings.Builder
	for _, r := range results {
		if r.Error != "" {
			continue
		}
		fmt.Fprintf(&b, "%s\t%s\t%s\n", tsvSanitize(r.Question), tsvSanitize(r.Context), tsvSanitize(r.Answer))
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(b.String()), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func tsvSanitize(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return s
}

// CountOK returns how many results completed without an error.
func CountOK(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Error == "" {
			n++
		}
	}
	return n
}
