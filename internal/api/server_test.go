package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"retailqa/internal/agent"
	"retailqa/internal/config"
	"retailqa/internal/corpus"
	"retailqa/internal/providers"
	"retailqa/internal/warehouse"
)

type offlineLLM struct{}

func (offlineLLM) Generate(ctx context.Context, req providers.GenerateRequest) (providers.GenerateResponse, providers.ProviderInfo, error) {
	return providers.GenerateResponse{}, providers.ProviderInfo{Name: "offline"}, errors.New("connection refused")
}

type countDB struct{}

func (countDB) Execute(ctx context.Context, query string) warehouse.ExecutionResult {
	return warehouse.ExecutionResult{Success: true, Columns: []string{"n"}, Rows: [][]string{{"830"}}}
}
func (countDB) Schema(ctx context.Context) (string, error) { return "Table: Orders\n", nil }
func (countDB) Close() error                               { return nil }

func testServer(t *testing.T) *Server {
	t.Helper()
	chunks := []corpus.Chunk{
		{ID: "product_policy::chunk0", Source: "product_policy.md", Content: "Beverages unopened: 14 days from delivery."},
	}
	a := agent.New(chunks, 3, offlineLLM{}, countDB{})
	return newServerWith(config.Config{TopK: 3}, a, chunks)
}

func TestHealthz(t *testing.T) {
	srv := testServer(t)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse body: %v", err)
	}
	if body["ok"] != true {
		t.Fatalf("expected ok=true, got %v", body["ok"])
	}
}

func TestAskReturnsAnswerWithCitations(t *testing.T) {
	srv := testServer(t)
	req := httptest.NewRequest(http.MethodPost, "/ask",
		strings.NewReader(`{"question": "According to the product policy, what is the return window for unopened Beverages?", "format_hint": "int"}`))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		RequestID   string  `json:"request_id"`
		FinalAnswer any     `json:"final_answer"`
		Confidence  float64 `json:"confidence"`
		Citations   []struct {
			ChunkID string `json:"chunk_id"`
			Source  string `json:"source"`
			Snippet string `json:"snippet"`
		} `json:"citations"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse body: %v", err)
	}
	if body.RequestID == "" {
		t.Fatal("expected a request id")
	}
	if got, ok := body.FinalAnswer.(float64); !ok || got != 14 {
		t.Fatalf("expected 14, got %#v", body.FinalAnswer)
	}
	if body.Confidence < 0 || body.Confidence > 1 {
		t.Fatalf("confidence out of range: %f", body.Confidence)
	}
	if len(body.Citations) == 0 {
		t.Fatal("expected citations")
	}
	if body.Citations[0].ChunkID != "product_policy::chunk0" || body.Citations[0].Snippet == "" {
		t.Fatalf("unexpected citation: %+v", body.Citations[0])
	}
}

func TestAskRejectsEmptyQuestion(t *testing.T) {
	srv := testServer(t)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"question": "  "}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAskRejectsGet(t *testing.T) {
	srv := testServer(t)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ask", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCorpusListsSources(t *testing.T) {
	srv := testServer(t)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/corpus", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Sources []string `json:"sources"`
		Chunks  int      `json:"chunks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse body: %v", err)
	}
	if body.Chunks != 1 || len(body.Sources) != 1 || body.Sources[0] != "product_policy.md" {
		t.Fatalf("unexpected corpus listing: %+v", body)
	}
}
