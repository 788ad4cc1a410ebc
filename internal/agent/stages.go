package agent

import "retailqa/internal/router"

// Stage names the nodes of the pipeline state machine.
type Stage int

const (
	stageRouter Stage = iota
	stageRetriever
	stagePlanner
	stageNLToSQL
	stageExecutor
	stageSynthesizer
	stageValidator
	stageRepair
	stageEnd
)

func (s Stage) String() string {
	switch s {
	case stageRouter:
		return "router"
	case stageRetriever:
		return "retriever"
	case stagePlanner:
		return "planner"
	case stageNLToSQL:
		return "nl_to_sql"
	case stageExecutor:
		return "executor"
	case stageSynthesizer:
		return "synthesizer"
	case stageValidator:
		return "validator"
	case stageRepair:
		return "repair"
	case stageEnd:
		return "end"
	}
	return "unknown"
}

// next is the transition table of the state machine. Branches depend only on
// the classified query type and the repair-eligibility check.
func next(current Stage, st *State) Stage {
	switch current {
	case stageRouter:
		if st.QueryType == router.TypeSQL {
			return stagePlanner
		}
		return stageRetriever
	case stageRetriever:
		return stagePlanner
	case stagePlanner:
		if st.QueryType == router.TypeRAG {
			return stageSynthesizer
		}
		return stageNLToSQL
	case stageNLToSQL:
		return stageExecutor
	case stageExecutor:
		return stageSynthesizer
	case stageSynthesizer:
		return stageValidator
	case stageValidator:
		if st.Err != "" && st.RepairCount < maxRepairs {
			return stageRepair
		}
		return stageEnd
	case stageRepair:
		return stageNLToSQL
	}
	return stageEnd
}
