package providers

import "context"

// Operation names used across the pipeline; the mock provider keys its
// deterministic replies off them.
const (
	OpClassify   = "classify"
	OpGenerateQL = "generate_sql"
	OpSynthesize = "synthesize"
)

type ProviderInfo struct {
	Name  string `json:"name"`
	Model string `json:"model"`
	Key   string `json:"key"`
}

type GenerateRequest struct {
	Operation string   `json:"operation"`
	Prompt    string   `json:"prompt"`
	Context   []string `json:"context"`
}

type GenerateResponse struct {
	Text string `json:"text"`
}

type LLMProvider interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error)
}
