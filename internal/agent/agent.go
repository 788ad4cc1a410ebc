// Package agent sequences retrieval, context extraction, query generation,
// execution, synthesis and validation as an explicit finite-state machine
// with a bounded repair loop.
package agent

import (
	"context"
	"log"

	"retailqa/internal/answer"
	"retailqa/internal/corpus"
	"retailqa/internal/extract"
	"retailqa/internal/providers"
	"retailqa/internal/retrieval"
	"retailqa/internal/router"
	"retailqa/internal/warehouse"
)

// Agent owns the pipeline collaborators. One question runs start-to-finish
// before the next begins; the retriever index is the only shared state and
// is read-only.
type Agent struct {
	router    *router.Router
	retriever *retrieval.Retriever
	llm       providers.LLMProvider
	db        warehouse.Executor
}

func New(chunks []corpus.Chunk, topK int, llm providers.LLMProvider, db warehouse.Executor) *Agent {
	return &Agent{
		router:    router.New(llm),
		retriever: retrieval.New(chunks, topK),
		llm:       llm,
		db:        db,
	}
}

// Run processes one question to completion and returns the final answer
// record.
func (a *Agent) Run(ctx context.Context, question, formatHint string) Answer {
	st := newState(question, formatHint)
	for stage := stageRouter; stage != stageEnd; stage = next(stage, st) {
		a.step(ctx, stage, st)
	}
	return Answer{
		FinalAnswer: st.FinalAnswer,
		SQL:         st.SQL,
		Confidence:  st.Confidence,
		Explanation: st.Explanation,
		Citations:   st.Citations,
		Trace:       st.Trace,
		Err:         st.Err,
	}
}

func (a *Agent) step(ctx context.Context, stage Stage, st *State) {
	switch stage {
	case stageRouter:
		st.trace("ROUTER: classifying query type")
		st.QueryType = a.router.Classify(ctx, st.Question)
		st.trace("ROUTER: classified as %s", st.QueryType)

	case stageRetriever:
		st.trace("RETRIEVER: fetching relevant documents")
		st.Chunks = a.retriever.Retrieve(st.Question)
		for _, c := range st.Chunks {
			st.cite(c.ID)
		}
		st.trace("RETRIEVER: found %d chunks", len(st.Chunks))

	case stagePlanner:
		st.trace("PLANNER: extracting context and constraints")
		st.Context = extract.From(st.Question, st.Chunks)
		st.trace("PLANNER: extracted %d items", len(st.Context))

	case stageNLToSQL:
		st.trace("NL2SQL: generating query")
		schema, err := a.db.Schema(ctx)
		if err != nil {
			log.Printf("nl_to_sql: schema dump failed: %v", err)
		}
		st.SQL = a.generateSQL(ctx, st, schema)
		st.trace("NL2SQL: generated: %s", firstLine(st.SQL))

	case stageExecutor:
		st.trace("EXECUTOR: executing query")
		st.Execution = a.db.Execute(ctx, st.SQL)
		if !st.Execution.Success {
			st.Err = st.Execution.Error
		}
		st.trace("EXECUTOR: success=%t", st.Execution.Success)

	case stageSynthesizer:
		st.trace("SYNTHESIZER: generating final answer")
		raw, explanation := a.synthesize(ctx, st)
		st.FinalAnswer = answer.Normalize(raw, st.FormatHint, st.Context)
		st.Explanation = explanation
		st.trace("SYNTHESIZER: done")

	case stageValidator:
		validate(st)

	case stageRepair:
		st.RepairCount++
		st.trace("REPAIR: attempt %d/%d", st.RepairCount, maxRepairs)
		st.Context.RecordExecutionError(st.Err)
		st.Err = ""
	}
}

// validate computes the validity signal and the confidence score. Validity
// failing records an error; only the repair-eligibility check in the
// transition table stops the pipeline.
func validate(st *State) {
	st.trace("VALIDATOR: checking response quality")

	valid := true
	if st.FinalAnswer == nil || st.FinalAnswer == "" {
		valid = false
	}
	if st.QueryType == router.TypeSQL || st.QueryType == router.TypeHybrid {
		if !st.Execution.Success {
			valid = false
		}
	}
	if !valid && st.Err == "" {
		if st.Execution.Error != "" {
			st.Err = st.Execution.Error
		} else {
			st.Err = "no valid answer generated"
		}
	}

	confidence := 0.5
	if len(st.Chunks) > 0 {
		var sum float64
		for _, c := range st.Chunks {
			sum += c.Score
		}
		confidence += 0.3 * (sum / float64(len(st.Chunks)))
	}
	if st.Execution.Success && len(st.Execution.Rows) > 0 {
		confidence += 0.2
	}
	confidence -= 0.15 * float64(st.RepairCount)
	if st.Err != "" {
		confidence -= 0.2
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	st.Confidence = confidence

	st.trace("VALIDATOR: valid=%t confidence=%.2f", valid, confidence)
}
