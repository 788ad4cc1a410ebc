package extract

import (
	"regexp"
	"strings"

	"retailqa/internal/corpus"
	"retailqa/internal/models"
)

// Context is the fact mapping produced per question. Well-known keys:
// date_start, date_end, categories (comma-joined), aov_definition,
// gm_definition, return_window_days, error_feedback, table_fix_needed.
type Context map[string]string

var (
	dateRangeRe = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})\s+to\s+(\d{4}-\d{2}-\d{2})`)
	yearRe      = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	aovRe       = regexp.MustCompile(`(?i)AOV\s*=\s*(.+)`)
	gmRe        = regexp.MustCompile(`(?i)GM\s*=\s*(.+)`)
	tableRe     = regexp.MustCompile(`no such table:?\s*([A-Za-z_][A-Za-z0-9_]*)`)
)

// From derives structured facts from the retrieved chunks and the question.
// Pure string logic; deterministic for a fixed input.
func From(question string, chunks []corpus.Chunk) Context {
	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		texts = append(texts, c.Content)
	}
	text := strings.Join(texts, "\n\n")
	qLower := strings.ToLower(question)

	ctx := Context{}
	extractDateRange(ctx, question, qLower, text)
	extractCategories(ctx, qLower)
	extractKPIDefinitions(ctx, qLower, text)
	extractReturnWindow(ctx, qLower, text)
	return ctx
}

// extractDateRange prefers a range that follows the named campaign's heading
// over the first generic match. A bare year in the question synthesizes a
// full-year range when the text offers nothing.
func extractDateRange(ctx Context, question, qLower, text string) {
	if campaign := models.CampaignIn(qLower); campaign != "" {
		if start, end, ok := campaignDateRange(campaign, text); ok {
			ctx["date_start"], ctx["date_end"] = start, end
			return
		}
	}
	if m := dateRangeRe.FindStringSubmatch(text); m != nil {
		ctx["date_start"], ctx["date_end"] = m[1], m[2]
		return
	}
	if year := yearRe.FindString(question); year != "" {
		ctx["date_start"] = year + "-01-01"
		ctx["date_end"] = year + "-12-31"
	}
}

// campaignDateRange finds the campaign name in the text and returns the
// first date range that appears after it.
func campaignDateRange(campaign, text string) (string, string, bool) {
	low := strings.ToLower(text)
	pos := strings.Index(low, campaign)
	if pos < 0 {
		return "", "", false
	}
	if m := dateRangeRe.FindStringSubmatch(text[pos:]); m != nil {
		return m[1], m[2], true
	}
	return "", "", false
}

func extractCategories(ctx Context, qLower string) {
	found := make([]string, 0, 2)
	for _, cat := range models.Categories {
		if strings.Contains(qLower, strings.ToLower(cat)) {
			found = append(found, cat)
		}
	}
	if campaign := models.CampaignIn(qLower); campaign != "" {
		implied := models.Campaigns[campaign]
		if implied != "" && !contains(found, implied) {
			found = append(found, implied)
		}
	}
	if len(found) > 0 {
		ctx["categories"] = strings.Join(found, ",")
	}
}

func extractKPIDefinitions(ctx Context, qLower, text string) {
	if strings.Contains(qLower, "aov") || strings.Contains(qLower, "average order value") {
		if m := aovRe.FindStringSubmatch(text); m != nil {
			ctx["aov_definition"] = strings.TrimSpace(lineOf(m[1]))
		}
	}
	if strings.Contains(qLower, "gross margin") || strings.Contains(qLower, " gm") || strings.HasPrefix(qLower, "gm") || strings.Contains(qLower, "margin") {
		if m := gmRe.FindStringSubmatch(text); m != nil {
			ctx["gm_definition"] = strings.TrimSpace(lineOf(m[1]))
		}
	}
}

// extractReturnWindow answers return-policy questions from the text. The
// product-specific figure wins over a generic digit; matched ranges like
// "3-7 days" take the upper bound.
func extractReturnWindow(ctx Context, qLower, text string) {
	if !strings.Contains(qLower, "return") && !strings.Contains(qLower, "policy") {
		return
	}
	for _, term := range mentionedProducts(qLower) {
		re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(term) + `[^\n.]*?(\d+)(?:\s*(?:-|–|to)\s*(\d+))?\s*days`)
		if m := re.FindStringSubmatch(text); m != nil {
			if m[2] != "" {
				ctx["return_window_days"] = m[2]
			} else {
				ctx["return_window_days"] = m[1]
			}
			return
		}
	}
	// Generic fallback: first "N days" or "N-M days" figure anywhere.
	re := regexp.MustCompile(`(\d+)(?:\s*(?:-|–|to)\s*(\d+))?\s*days`)
	if m := re.FindStringSubmatch(text); m != nil {
		if m[2] != "" {
			ctx["return_window_days"] = m[2]
		} else {
			ctx["return_window_days"] = m[1]
		}
	}
}

// mentionedProducts lists product or category terms from the question, most
// specific first.
func mentionedProducts(qLower string) []string {
	out := make([]string, 0, 3)
	for _, cat := range models.Categories {
		if strings.Contains(qLower, strings.ToLower(cat)) {
			out = append(out, cat)
		}
	}
	for _, term := range []string{"perishable", "unopened", "opened"} {
		if strings.Contains(qLower, term) {
			out = append(out, term)
		}
	}
	return out
}

// RecordExecutionError appends error feedback for the next generation
// attempt and flags a table-name correction when the error names a missing
// table.
func (c Context) RecordExecutionError(errMsg string) {
	if errMsg == "" {
		return
	}
	if prev, ok := c["error_feedback"]; ok && prev != "" {
		c["error_feedback"] = prev + "; " + errMsg
	} else {
		c["error_feedback"] = errMsg
	}
	if m := tableRe.FindStringSubmatch(errMsg); m != nil {
		c["table_fix_needed"] = m[1]
	}
}

func lineOf(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
