package agent

import (
	"fmt"

	"retailqa/internal/corpus"
	"retailqa/internal/extract"
	"retailqa/internal/router"
	"retailqa/internal/warehouse"
)

const maxRepairs = 2

// State is the unit of work threading through the pipeline. Every field is
// declared up front; one State is exclusively owned by one run.
type State struct {
	Question   string
	FormatHint string

	QueryType router.QueryType
	Chunks    []corpus.Chunk
	Context   extract.Context
	SQL       string
	Execution warehouse.ExecutionResult

	FinalAnswer any
	Explanation string
	Citations   []string
	Confidence  float64
	RepairCount int
	Trace       []string
	Err         string
}

func newState(question, formatHint string) *State {
	if formatHint == "" {
		formatHint = "str"
	}
	return &State{
		Question:   question,
		FormatHint: formatHint,
		Context:    extract.Context{},
	}
}

func (s *State) trace(format string, args ...any) {
	s.Trace = append(s.Trace, fmt.Sprintf(format, args...))
}

// cite appends a chunk identifier, preserving insertion order and
// suppressing duplicates.
func (s *State) cite(id string) {
	for _, c := range s.Citations {
		if c == id {
			return
		}
	}
	s.Citations = append(s.Citations, id)
}

// Answer is what a completed run hands back to the caller.
type Answer struct {
	FinalAnswer any      `json:"final_answer"`
	SQL         string   `json:"sql"`
	Confidence  float64  `json:"confidence"`
	Explanation string   `json:"explanation"`
	Citations   []string `json:"citations"`
	Trace       []string `json:"trace"`
	Err         string   `json:"error,omitempty"`
}
