package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"retailqa/internal/extract"
	"retailqa/internal/providers"
	"retailqa/internal/util"
)

// generateSQL asks the model for a query and falls back to template-based
// generation when the provider is unavailable or its output fails the shape
// check. Either way the result is cleaned up and terminated.
func (a *Agent) generateSQL(ctx context.Context, st *State, schema string) string {
	sql, err := a.modelSQL(ctx, st, schema)
	if err != nil {
		if errors.Is(err, util.ErrUnusableOutput) {
			log.Printf("nl_to_sql: %v, using template generation", err)
		} else {
			log.Printf("nl_to_sql: %v (%s), using template generation", err, providers.ClassifyError(err))
		}
		sql = templateSQL(st.Question, st.Context)
	}
	return tidySQL(sql)
}

// modelSQL wraps its failure in util.ErrProviderUnavailable or
// util.ErrUnusableOutput depending on whether the provider was reached.
func (a *Agent) modelSQL(ctx context.Context, st *State, schema string) (string, error) {
	ctxJSON, _ := json.Marshal(st.Context)
	resp, _, err := a.llm.Generate(ctx, providers.GenerateRequest{
		Operation: providers.OpGenerateQL,
		Prompt:    sqlPrompt(st.Question, schema, string(ctxJSON)),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", util.ErrProviderUnavailable, err)
	}
	if !plausibleSQL(resp.Text) {
		return "", fmt.Errorf("%w: %q", util.ErrUnusableOutput, firstLine(resp.Text))
	}
	return resp.Text, nil
}

func sqlPrompt(question, schema, contextJSON string) string {
	return fmt.Sprintf(`Write a single SQLite query answering the question. Return only SQL.

Schema:
%s
Extracted context (dates, KPI formulas, categories, prior errors): %s

Question: %s
SQL:`, schema, contextJSON, question)
}

// plausibleSQL is a minimal shape check on model output: long enough and
// starting with a query keyword once fences are stripped.
func plausibleSQL(text string) bool {
	s := strings.ToUpper(stripFences(text))
	if len(s) < 10 {
		return false
	}
	return strings.HasPrefix(s, "SELECT") || strings.HasPrefix(s, "WITH")
}

// tidySQL strips code fences and guarantees a trailing semicolon.
func tidySQL(sql string) string {
	sql = stripFences(sql)
	if sql != "" && !strings.HasSuffix(sql, ";") {
		sql += ";"
	}
	return sql
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	if strings.HasPrefix(s, "```") {
		s = strings.TrimSpace(s[3:])
		if len(s) >= 3 && strings.EqualFold(s[:3], "sql") {
			s = s[3:]
		}
	}
	return strings.TrimSpace(s)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 80 {
		s = s[:80]
	}
	return s
}

// templateSQL is the deterministic generation fallback, driven entirely by
// the question wording and the extracted context.
func templateSQL(question string, ctx extract.Context) string {
	q := strings.ToLower(question)
	dateStart, dateEnd := ctx["date_start"], ctx["date_end"]

	switch {
	case strings.Contains(q, "top") && strings.Contains(q, "categor"),
		strings.Contains(q, "highest") && strings.Contains(q, "categor"),
		strings.Contains(q, "which categor"):
		var b strings.Builder
		b.WriteString(`SELECT c.CategoryName, SUM(od.Quantity) AS TotalQty
FROM [Order Details] od
JOIN Products p ON od.ProductID = p.ProductID
JOIN Categories c ON p.CategoryID = c.CategoryID
JOIN Orders o ON od.OrderID = o.OrderID
`)
		if dateStart != "" && dateEnd != "" {
			fmt.Fprintf(&b, "WHERE o.OrderDate BETWEEN '%s' AND '%s'\n", dateStart, dateEnd)
		}
		b.WriteString("GROUP BY c.CategoryName ORDER BY TotalQty DESC LIMIT 1")
		return b.String()

	case strings.Contains(q, "revenue"):
		var b strings.Builder
		b.WriteString(`SELECT SUM(od.UnitPrice * od.Quantity * (1 - od.Discount)) AS Revenue
FROM [Order Details] od
JOIN Orders o ON od.OrderID = o.OrderID
`)
		where := make([]string, 0, 2)
		if dateStart != "" && dateEnd != "" {
			where = append(where, fmt.Sprintf("o.OrderDate BETWEEN '%s' AND '%s'", dateStart, dateEnd))
		}
		if cats := ctx["categories"]; cats != "" {
			first := strings.SplitN(cats, ",", 2)[0]
			b.WriteString("JOIN Products p ON od.ProductID = p.ProductID\nJOIN Categories c ON p.CategoryID = c.CategoryID\n")
			where = append(where, fmt.Sprintf("c.CategoryName = '%s'", first))
		}
		if len(where) > 0 {
			b.WriteString("WHERE " + strings.Join(where, " AND "))
		}
		return b.String()

	default:
		return "SELECT COUNT(*) FROM Orders"
	}
}
