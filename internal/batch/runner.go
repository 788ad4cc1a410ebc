// Package batch reads questions from a JSONL file, runs each one through
// the agent, and writes one result line per question in input order.
package batch

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"

	"retailqa/internal/agent"
	"retailqa/internal/models"
	"retailqa/internal/util"
)

// Runner drives one batch file end to end. Questions run sequentially; a
// failure in one never stops the rest.
type Runner struct {
	agent   *agent.Agent
	verbose bool
}

func NewRunner(a *agent.Agent, verbose bool) *Runner {
	return &Runner{agent: a, verbose: verbose}
}

// RunSummary is the per-run report written next to the result file.
type RunSummary struct {
	Input          string  `json:"input"`
	Output         string  `json:"output"`
	Questions      int     `json:"questions"`
	Errors         int     `json:"errors"`
	MeanConfidence float64 `json:"mean_confidence"`
}

// Run reads inputPath, answers every question, and atomically writes the
// results to outputPath plus a run summary alongside it. Returns the number
// of questions answered.
func (r *Runner) Run(ctx context.Context, inputPath, outputPath string) (int, error) {
	questions, err := ReadQuestions(inputPath)
	if err != nil {
		return 0, err
	}
	if len(questions) == 0 {
		return 0, fmt.Errorf("no questions in %s", inputPath)
	}

	results := make([]any, 0, len(questions))
	failed := 0
	var confSum float64
	for i, q := range questions {
		log.Printf("question %d/%d (%s): %s", i+1, len(questions), q.ID, util.DisplaySnippet(q.Question, 80))
		res, errored := r.answer(ctx, q)
		if errored {
			failed++
		}
		confSum += res.Confidence
		if r.verbose {
			log.Printf("question %s: confidence=%.2f sql=%q", q.ID, res.Confidence, util.DisplaySnippet(res.SQL, 80))
		}
		results = append(results, res)
	}

	if err := util.WriteJSONLinesAtomic(outputPath, results); err != nil {
		return 0, fmt.Errorf("write results: %w", err)
	}
	summary := RunSummary{
		Input:          inputPath,
		Output:         outputPath,
		Questions:      len(results),
		Errors:         failed,
		MeanConfidence: round2(confSum / float64(len(results))),
	}
	if err := util.WriteJSONAtomic(SummaryPath(outputPath), summary); err != nil {
		return 0, fmt.Errorf("write summary: %w", err)
	}
	return len(results), nil
}

// SummaryPath derives the summary file name from the result file name.
func SummaryPath(outputPath string) string {
	return strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + "_summary.json"
}

// answer runs one question, containing panics so a single malformed input
// cannot take down the batch. errored reports whether the run finished with
// an unresolved error or a panic.
func (r *Runner) answer(ctx context.Context, q models.Question) (res models.Result, errored bool) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("question %s: panic recovered: %v", q.ID, rec)
			res = models.Result{
				ID:          q.ID,
				FinalAnswer: nil,
				Confidence:  0,
				Explanation: fmt.Sprintf("processing failed: %v", rec),
				Citations:   []string{},
			}
			errored = true
		}
	}()

	ans := r.agent.Run(ctx, q.Question, q.FormatHint)
	if r.verbose {
		for _, line := range ans.Trace {
			log.Printf("question %s: %s", q.ID, line)
		}
	}

	explanation := ans.Explanation
	if ans.Err != "" {
		explanation = strings.TrimSpace(explanation + " Error: " + ans.Err)
	}
	citations := ans.Citations
	if citations == nil {
		citations = []string{}
	}
	return models.Result{
		ID:          q.ID,
		FinalAnswer: ans.FinalAnswer,
		SQL:         ans.SQL,
		Confidence:  round2(ans.Confidence),
		Explanation: explanation,
		Citations:   citations,
	}, ans.Err != ""
}

// ReadQuestions parses a JSONL question file. Malformed lines are logged
// and skipped; blank lines are ignored.
func ReadQuestions(path string) ([]models.Question, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open questions: %w", err)
	}
	defer f.Close()

	var out []models.Question
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var q models.Question
		if err := json.Unmarshal([]byte(line), &q); err != nil {
			log.Printf("questions %s line %d: skipping malformed record: %v", path, lineNo, err)
			continue
		}
		if q.ID == "" || q.Question == "" {
			log.Printf("questions %s line %d: skipping record with missing id or question", path, lineNo)
			continue
		}
		out = append(out, q)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}
	return out, nil
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
