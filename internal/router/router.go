package router

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"

	"retailqa/internal/providers"
	"retailqa/internal/util"
)

var tokenRe = regexp.MustCompile(`\b(rag|sql|hybrid)\b`)

// Router classifies a question via the language model, falling back to the
// deterministic classifier. A provider failure and an unusable reply route
// to the same fallback but are logged apart.
type Router struct {
	llm providers.LLMProvider
}

func New(llm providers.LLMProvider) *Router {
	return &Router{llm: llm}
}

func (r *Router) Classify(ctx context.Context, question string) QueryType {
	qt, err := r.classifyModel(ctx, question)
	if err == nil {
		return qt
	}
	if errors.Is(err, util.ErrUnusableOutput) {
		log.Printf("router: %v, using fallback classifier", err)
	} else {
		log.Printf("router: %v (%s), using fallback classifier", err, providers.ClassifyError(err))
	}
	return FallbackClassify(question)
}

// classifyModel asks the model for a query type. The error wraps
// util.ErrProviderUnavailable or util.ErrUnusableOutput so callers can tell
// the two failure kinds apart.
func (r *Router) classifyModel(ctx context.Context, question string) (QueryType, error) {
	resp, _, err := r.llm.Generate(ctx, providers.GenerateRequest{
		Operation: providers.OpClassify,
		Prompt:    classifyPrompt(question),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", util.ErrProviderUnavailable, err)
	}
	qt, ok := ParseClassification(resp.Text)
	if !ok {
		return "", fmt.Errorf("%w: classification %q", util.ErrUnusableOutput, strings.TrimSpace(resp.Text))
	}
	return qt, nil
}

// ParseClassification scans model output for one of the three legal tokens,
// case-insensitive and ignoring surrounding punctuation.
func ParseClassification(text string) (QueryType, bool) {
	m := tokenRe.FindString(strings.ToLower(text))
	if m == "" {
		return "", false
	}
	return QueryType(m), true
}

func classifyPrompt(question string) string {
	return fmt.Sprintf(`Classify this retail analytics question by the resources needed to answer it.
Answer with exactly one word:
- rag: answered from policy, KPI or marketing documents alone
- sql: answered from the orders database alone
- hybrid: needs document context plus a database query

Question: %s
Classification:`, question)
}
