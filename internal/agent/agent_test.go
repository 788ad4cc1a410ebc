package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"retailqa/internal/corpus"
	"retailqa/internal/providers"
	"retailqa/internal/util"
	"retailqa/internal/warehouse"
)

// scriptedLLM replies per operation; a nil entry simulates an unavailable
// provider.
type scriptedLLM struct {
	replies map[string]string
	err     error
}

func (s scriptedLLM) Generate(ctx context.Context, req providers.GenerateRequest) (providers.GenerateResponse, providers.ProviderInfo, error) {
	info := providers.ProviderInfo{Name: "scripted"}
	if s.err != nil {
		return providers.GenerateResponse{}, info, s.err
	}
	return providers.GenerateResponse{Text: s.replies[req.Operation]}, info, nil
}

// fakeDB replays a fixed sequence of execution results.
type fakeDB struct {
	results []warehouse.ExecutionResult
	calls   int
}

func (f *fakeDB) Execute(ctx context.Context, query string) warehouse.ExecutionResult {
	i := f.calls
	f.calls++
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	return f.results[i]
}

func (f *fakeDB) Schema(ctx context.Context) (string, error) {
	return "Table: Orders\n- OrderID (INTEGER)\n- OrderDate (TEXT)\n", nil
}

func (f *fakeDB) Close() error { return nil }

func testChunks() []corpus.Chunk {
	return []corpus.Chunk{
		{ID: "product_policy::chunk0", Source: "product_policy.md", Content: "# Return Policy\nBeverages unopened: 14 days from delivery."},
		{ID: "marketing_calendar::chunk0", Source: "marketing_calendar.md", Content: "# Summer Beverages 1997\nCampaign window: 1997-06-01 to 1997-08-31."},
	}
}

func TestRunRAGPathSkipsDatabase(t *testing.T) {
	db := &fakeDB{results: []warehouse.ExecutionResult{{Success: true}}}
	llm := scriptedLLM{err: errors.New("connection refused")}
	a := New(testChunks(), 3, llm, db)

	got := a.Run(context.Background(), "According to the product policy, what is the return window for unopened Beverages?", "int")
	require.Equal(t, 0, db.calls, "rag path must not execute queries")
	require.Empty(t, got.SQL)
	require.Equal(t, 14, got.FinalAnswer)
	require.NotEmpty(t, got.Citations)
	require.Contains(t, got.Citations, "product_policy::chunk0")
	require.GreaterOrEqual(t, got.Confidence, 0.0)
	require.LessOrEqual(t, got.Confidence, 1.0)
	require.Empty(t, got.Err)
}

func TestRunSQLPathExecutesQuery(t *testing.T) {
	db := &fakeDB{results: []warehouse.ExecutionResult{{
		Success: true,
		Columns: []string{"n"},
		Rows:    [][]string{{"830"}},
	}}}
	llm := scriptedLLM{replies: map[string]string{
		providers.OpClassify:   "sql",
		providers.OpGenerateQL: "SELECT COUNT(*) FROM Orders",
		providers.OpSynthesize: "830",
	}}
	a := New(testChunks(), 3, llm, db)

	got := a.Run(context.Background(), "How many total orders in the database?", "int")
	require.Equal(t, 1, db.calls)
	require.Equal(t, "SELECT COUNT(*) FROM Orders;", got.SQL)
	require.Equal(t, 830, got.FinalAnswer)
	require.Empty(t, got.Citations, "sql path retrieves no documents")
	require.Empty(t, got.Err)
}

func TestRunRepairLoopBounded(t *testing.T) {
	db := &fakeDB{results: []warehouse.ExecutionResult{
		{Success: false, Error: "no such table: OrdersX"},
	}}
	llm := scriptedLLM{replies: map[string]string{
		providers.OpClassify:   "sql",
		providers.OpGenerateQL: "SELECT COUNT(*) FROM OrdersX",
		providers.OpSynthesize: "unknown",
	}}
	a := New(testChunks(), 3, llm, db)

	got := a.Run(context.Background(), "How many total orders in the database?", "int")
	require.Equal(t, 3, db.calls, "initial attempt plus two repairs")
	require.NotEmpty(t, got.Err, "exhausted repairs surface the error")
	require.Contains(t, got.Err, "no such table")

	repairs := 0
	for _, line := range got.Trace {
		if strings.HasPrefix(line, "REPAIR:") {
			repairs++
		}
	}
	require.Equal(t, 2, repairs)
	require.GreaterOrEqual(t, got.Confidence, 0.0)
	require.LessOrEqual(t, got.Confidence, 1.0)
}

func TestRunRepairRecoversOnSecondAttempt(t *testing.T) {
	db := &fakeDB{results: []warehouse.ExecutionResult{
		{Success: false, Error: "no such table: OrdersX"},
		{Success: true, Columns: []string{"n"}, Rows: [][]string{{"12"}}},
	}}
	llm := scriptedLLM{replies: map[string]string{
		providers.OpClassify:   "sql",
		providers.OpGenerateQL: "SELECT COUNT(*) FROM Orders",
		providers.OpSynthesize: "12",
	}}
	a := New(testChunks(), 3, llm, db)

	got := a.Run(context.Background(), "How many total orders in the database?", "int")
	require.Equal(t, 2, db.calls)
	require.Empty(t, got.Err)
	require.Equal(t, 12, got.FinalAnswer)
}

func TestRepairStepFlagsTableFix(t *testing.T) {
	st := newState("How many orders?", "int")
	st.Execution = warehouse.ExecutionResult{Success: false, Error: "no such table: OrdersX"}
	st.Err = st.Execution.Error

	a := &Agent{}
	a.step(context.Background(), stageRepair, st)

	require.Equal(t, "OrdersX", st.Context["table_fix_needed"])
	require.Equal(t, "no such table: OrdersX", st.Context["error_feedback"])
	require.Empty(t, st.Err, "repair clears the current error")
	require.Equal(t, 1, st.RepairCount)
}

func TestRunHybridUsesRetrievalAndQuery(t *testing.T) {
	db := &fakeDB{results: []warehouse.ExecutionResult{{
		Success: true,
		Columns: []string{"CategoryName", "TotalQty"},
		Rows:    [][]string{{"Beverages", "10"}},
	}}}
	llm := scriptedLLM{err: errors.New("model offline")}
	a := New(testChunks(), 3, llm, db)

	got := a.Run(context.Background(), "During Summer Beverages 1997, which category had the highest sales?", "{category, quantity:int}")
	require.Equal(t, 1, db.calls)
	require.NotEmpty(t, got.SQL)
	require.Contains(t, got.SQL, "1997-06-01", "campaign dates feed the template query")
	require.NotEmpty(t, got.Citations)

	obj, ok := got.FinalAnswer.(map[string]any)
	require.True(t, ok, "dict hint yields an object, got %#v", got.FinalAnswer)
	require.Equal(t, "Beverages", obj["category"])
	require.Equal(t, 10, obj["quantity"])
}

func TestRunEmptyCorpus(t *testing.T) {
	db := &fakeDB{results: []warehouse.ExecutionResult{{Success: true, Columns: []string{"n"}, Rows: [][]string{{"0"}}}}}
	llm := scriptedLLM{err: errors.New("model offline")}
	a := New(nil, 3, llm, db)

	got := a.Run(context.Background(), "What is the return policy for Beverages?", "str")
	require.Empty(t, got.Citations)
	require.GreaterOrEqual(t, got.Confidence, 0.0)
	require.LessOrEqual(t, got.Confidence, 1.0)
}

func TestModelSQLErrorKinds(t *testing.T) {
	st := newState("How many orders?", "int")

	a := &Agent{llm: scriptedLLM{err: errors.New("connection refused")}}
	_, err := a.modelSQL(context.Background(), st, "Table: Orders\n")
	require.ErrorIs(t, err, util.ErrProviderUnavailable)

	a = &Agent{llm: scriptedLLM{replies: map[string]string{providers.OpGenerateQL: "I would query the orders table."}}}
	_, err = a.modelSQL(context.Background(), st, "Table: Orders\n")
	require.ErrorIs(t, err, util.ErrUnusableOutput)
}

func TestGenerateSQLAcceptsUppercaseFence(t *testing.T) {
	st := newState("How many orders?", "int")
	a := &Agent{llm: scriptedLLM{replies: map[string]string{
		providers.OpGenerateQL: "```SQL\nSELECT COUNT(*) FROM Orders\n```",
	}}}
	got := a.generateSQL(context.Background(), st, "Table: Orders\n")
	require.Equal(t, "SELECT COUNT(*) FROM Orders;", got)
}

func TestSynthesizeRejectsShapelessReply(t *testing.T) {
	db := &fakeDB{results: []warehouse.ExecutionResult{{
		Success: true,
		Columns: []string{"n"},
		Rows:    [][]string{{"42"}},
	}}}
	llm := scriptedLLM{replies: map[string]string{
		providers.OpClassify:   "sql",
		providers.OpGenerateQL: "SELECT COUNT(*) FROM Orders",
		providers.OpSynthesize: "I cannot determine that.",
	}}
	a := New(testChunks(), 3, llm, db)

	got := a.Run(context.Background(), "How many total orders in the database?", "int")
	require.Equal(t, 42, got.FinalAnswer, "digitless reply under an int hint must yield the extraction fallback")
	require.Equal(t, "Extracted from query results.", got.Explanation)
}

func TestPlausibleAnswer(t *testing.T) {
	cases := []struct {
		text, hint string
		want       bool
	}{
		{"42 units", "int", true},
		{"I cannot determine that.", "int", false},
		{"around 12.5", "float", true},
		{"no idea", "float", false},
		{`{"category": "Beverages"}`, "{category, quantity:int}", true},
		{"Beverages came first.", "{category, quantity:int}", false},
		{`[{"month": "01"}]`, "list[{month, revenue:float}]", true},
		{"nothing structured", "list[{month, revenue:float}]", false},
		{"free text is fine", "str", true},
		{"", "str", false},
	}
	for _, c := range cases {
		require.Equal(t, c.want, plausibleAnswer(c.text, c.hint), "text %q hint %q", c.text, c.hint)
	}
}

func TestQueryTypeNeverReclassified(t *testing.T) {
	db := &fakeDB{results: []warehouse.ExecutionResult{{Success: false, Error: "boom"}}}
	llm := scriptedLLM{replies: map[string]string{
		providers.OpClassify:   "hybrid",
		providers.OpGenerateQL: "SELECT 1 FROM Orders",
		providers.OpSynthesize: "x",
	}}
	a := New(testChunks(), 3, llm, db)

	st := newState("During Summer Beverages 1997, total revenue for Beverages?", "float")
	classified := false
	for stage := stageRouter; stage != stageEnd; stage = next(stage, st) {
		if stage == stageRouter {
			require.False(t, classified)
			classified = true
		}
		a.step(context.Background(), stage, st)
	}
	require.LessOrEqual(t, st.RepairCount, maxRepairs)
}
