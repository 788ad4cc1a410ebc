package providers

import (
	"fmt"

	"retailqa/internal/config"
)

type NamedLLMProvider struct {
	Ref      ProviderRef
	Provider LLMProvider
}

// Manager builds the configured provider chain. The first provider is the
// primary collaborator; deterministic fallbacks live with the callers, not
// here.
type Manager struct {
	llmProviders []NamedLLMProvider
}

func NewManager(cfg config.Config) (*Manager, error) {
	m := &Manager{}
	for _, ref := range ParseProviderList(cfg.LLMProviders) {
		p, err := buildProvider(ref, cfg)
		if err != nil {
			return nil, err
		}
		m.llmProviders = append(m.llmProviders, NamedLLMProvider{Ref: ref, Provider: p})
	}
	if len(m.llmProviders) == 0 {
		m.llmProviders = []NamedLLMProvider{{Ref: ProviderRef{Raw: "mock", Name: "mock"}, Provider: NewMockProvider()}}
	}
	return m, nil
}

func buildProvider(ref ProviderRef, cfg config.Config) (LLMProvider, error) {
	switch ref.Name {
	case "ollama":
		return NewOllamaProvider(cfg.OllamaBaseURL, cfg.Model, cfg.Temperature, cfg.MaxTokens), nil
	case "openai":
		return NewOpenAIProvider(ref.KeyAlias), nil
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", ref.Raw)
	}
}

func (m *Manager) FirstLLMProvider() LLMProvider {
	return m.llmProviders[0].Provider
}

func (m *Manager) LLMCount() int {
	return len(m.llmProviders)
}
