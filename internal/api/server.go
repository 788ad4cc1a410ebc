package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"strings"
	"time"

	"retailqa/internal/agent"
	"retailqa/internal/config"
	"retailqa/internal/corpus"
	"retailqa/internal/providers"
	"retailqa/internal/util"
	"retailqa/internal/warehouse"

	"github.com/google/uuid"
)

type Server struct {
	cfg       config.Config
	agent     *agent.Agent
	chunkByID map[string]corpus.Chunk
	sources   []string
}

type askCitation struct {
	ChunkID string `json:"chunk_id"`
	Source  string `json:"source"`
	Snippet string `json:"snippet"`
}

func NewServer(cfg config.Config) *Server {
	chunks, err := corpus.Load(cfg.DocsDir, cfg.ChunkSize)
	if err != nil {
		panic(err)
	}
	pm, err := providers.NewManager(cfg)
	if err != nil {
		panic(err)
	}
	db, err := openWarehouse(cfg)
	if err != nil {
		panic(err)
	}
	return newServerWith(cfg, agent.New(chunks, cfg.TopK, pm.FirstLLMProvider(), db), chunks)
}

func newServerWith(cfg config.Config, a *agent.Agent, chunks []corpus.Chunk) *Server {
	byID := make(map[string]corpus.Chunk, len(chunks))
	seen := map[string]bool{}
	sources := make([]string, 0, 4)
	for _, c := range chunks {
		byID[c.ID] = c
		if !seen[c.Source] {
			seen[c.Source] = true
			sources = append(sources, c.Source)
		}
	}
	return &Server{cfg: cfg, agent: a, chunkByID: byID, sources: sources}
}

func openWarehouse(cfg config.Config) (warehouse.Executor, error) {
	if cfg.PostgresURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return warehouse.NewPostgresExecutor(ctx, cfg.PostgresURL)
	}
	return warehouse.NewSQLiteExecutor(cfg.SQLitePath)
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/corpus", s.handleCorpus)
	mux.HandleFunc("/ask", s.handleAsk)
	return withCORS(mux)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "chunks": len(s.chunkByID)})
}

func (s *Server) handleCorpus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sources": s.sources,
		"chunks":  len(s.chunkByID),
	})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	var req struct {
		Question   string `json:"question"`
		FormatHint string `json:"format_hint"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("question is required"))
		return
	}

	requestID := uuid.NewString()
	log.Printf("ask %s: %s", requestID, util.DisplaySnippet(req.Question, 100))

	ans := s.agent.Run(r.Context(), req.Question, req.FormatHint)

	citations := make([]askCitation, 0, len(ans.Citations))
	for _, id := range ans.Citations {
		c, ok := s.chunkByID[id]
		if !ok {
			continue
		}
		citations = append(citations, askCitation{
			ChunkID: id,
			Source:  c.Source,
			Snippet: util.DisplaySnippet(c.Content, 240),
		})
	}

	resp := map[string]any{
		"request_id":   requestID,
		"final_answer": ans.FinalAnswer,
		"sql":          ans.SQL,
		"confidence":   math.Round(ans.Confidence*100) / 100,
		"explanation":  ans.Explanation,
		"citations":    citations,
	}
	if ans.Err != "" {
		resp["error"] = ans.Err
	}
	if s.cfg.Verbose {
		resp["trace"] = ans.Trace
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	apiErr := toAPIError(code, err)
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		},
	})
}

type apiError struct {
	Code    string
	Message string
}

func toAPIError(status int, err error) apiError {
	msg := "Request failed."
	code := "RQ-API-4000"

	switch {
	case status >= 500:
		return apiError{Code: "RQ-API-5000", Message: "Internal server error. Please retry or check service logs."}
	case status == http.StatusBadRequest:
		code = "RQ-API-4001"
		msg = "Invalid request. Check inputs and retry."
	case status == http.StatusMethodNotAllowed:
		code = "RQ-API-4005"
		msg = "This endpoint does not support the requested method."
	}

	if status >= 400 && status < 500 && err != nil {
		low := strings.ToLower(err.Error())
		switch {
		case strings.Contains(low, "question is required"):
			msg = "A question is required."
		case strings.Contains(low, "invalid json"):
			msg = "Malformed JSON request body."
		}
	}

	return apiError{Code: code, Message: msg}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
