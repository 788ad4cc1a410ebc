package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"

	"retailqa/internal/providers"
	"retailqa/internal/util"
	"retailqa/internal/warehouse"
)

var numberRe = regexp.MustCompile(`\b\d+(?:\.\d+)?\b`)

// synthesize produces the raw answer text plus an explanation, falling back
// to direct extraction from execution results or retrieved text when the
// model is unavailable or replies with nothing usable.
func (a *Agent) synthesize(ctx context.Context, st *State) (string, string) {
	ragContext := chunkText(st)

	text, err := a.modelAnswer(ctx, st)
	if err != nil {
		if errors.Is(err, util.ErrUnusableOutput) {
			log.Printf("synthesizer: %v, using direct extraction", err)
		} else {
			log.Printf("synthesizer: %v (%s), using direct extraction", err, providers.ClassifyError(err))
		}
		return fallbackSynthesis(st, ragContext)
	}
	return text, "Answer synthesized from retrieved context and query results."
}

// modelAnswer wraps its failure in util.ErrProviderUnavailable or
// util.ErrUnusableOutput depending on whether the provider was reached.
func (a *Agent) modelAnswer(ctx context.Context, st *State) (string, error) {
	resp, _, err := a.llm.Generate(ctx, providers.GenerateRequest{
		Operation: providers.OpSynthesize,
		Prompt:    synthPrompt(st.Question, st.FormatHint, executionSummary(st.Execution)),
		Context:   splitChunks(st),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", util.ErrProviderUnavailable, err)
	}
	if !plausibleAnswer(resp.Text, st.FormatHint) {
		return "", fmt.Errorf("%w: %q", util.ErrUnusableOutput, firstLine(resp.Text))
	}
	return resp.Text, nil
}

// plausibleAnswer is a minimal shape check against the format hint: numeric
// hints need a digit, structured hints need their opening bracket somewhere
// in the reply.
func plausibleAnswer(text, formatHint string) bool {
	s := strings.TrimSpace(text)
	if s == "" {
		return false
	}
	switch {
	case formatHint == "int" || formatHint == "float":
		return numberRe.MatchString(s)
	case strings.HasPrefix(formatHint, "{"):
		return strings.Contains(s, "{")
	case strings.HasPrefix(formatHint, "list["):
		return strings.ContainsAny(s, "[{")
	}
	return true
}

func synthPrompt(question, formatHint, execSummary string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Answer the question using the context and query results below.\nRespond in the format: %s\n\n", formatHint)
	if execSummary != "" {
		b.WriteString("Query results:\n")
		b.WriteString(execSummary)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "Question: %s\nAnswer:", question)
	return b.String()
}

// executionSummary renders columns and rows for the synthesis prompt.
func executionSummary(res warehouse.ExecutionResult) string {
	if !res.Success || len(res.Columns) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Columns: " + strings.Join(res.Columns, ", ") + "\nRows:\n")
	for _, row := range res.Rows {
		b.WriteString(strings.Join(row, ", "))
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

// fallbackSynthesis extracts an answer without the model: first row of the
// execution result, else a literal fact or number from the retrieved text.
func fallbackSynthesis(st *State, ragContext string) (string, string) {
	res := st.Execution
	if res.Success && len(res.Rows) > 0 && len(res.Rows[0]) > 0 {
		row := res.Rows[0]
		if strings.HasPrefix(st.FormatHint, "{") && len(row) >= 2 {
			return fmt.Sprintf(`{"category": "%s", "quantity": %s}`, row[0], row[1]),
				"Extracted from query results."
		}
		return row[0], "Extracted from query results."
	}

	if days, ok := st.Context["return_window_days"]; ok {
		return days, "Extracted from document context."
	}
	if st.FormatHint == "int" || st.FormatHint == "float" {
		if m := numberRe.FindString(ragContext); m != "" {
			return m, "Extracted from document context."
		}
	}
	if ragContext != "" {
		return firstLine(ragContext), "Extracted from document context."
	}
	return "", "Insufficient data to answer question."
}

func chunkText(st *State) string {
	return strings.Join(splitChunks(st), "\n\n")
}

func splitChunks(st *State) []string {
	out := make([]string, 0, len(st.Chunks))
	for _, c := range st.Chunks {
		out = append(out, c.Content)
	}
	return out
}
