package providers

import (
	"context"
	"strings"
)

// MockProvider returns deterministic replies per operation so the whole
// pipeline can run offline in tests.
type MockProvider struct{}

func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (m *MockProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	_ = ctx
	info := ProviderInfo{Name: "mock", Model: "mock-llm-v1", Key: "mock"}
	switch req.Operation {
	case OpClassify:
		return GenerateResponse{Text: mockClassify(req.Prompt)}, info, nil
	case OpGenerateQL:
		return GenerateResponse{Text: "SELECT COUNT(*) FROM Orders;"}, info, nil
	case OpSynthesize:
		return GenerateResponse{Text: "Mock answer."}, info, nil
	default:
		return GenerateResponse{Text: "Mock response."}, info, nil
	}
}

func mockClassify(prompt string) string {
	p := strings.ToLower(prompt)
	switch {
	case strings.Contains(p, "policy"):
		return "rag"
	case strings.Contains(p, "campaign"):
		return "hybrid"
	default:
		return "sql"
	}
}
