package router

import (
	"regexp"
	"strings"

	"retailqa/internal/models"
)

type QueryType string

const (
	TypeRAG    QueryType = "rag"
	TypeSQL    QueryType = "sql"
	TypeHybrid QueryType = "hybrid"
)

// Strong RAG indicators, checked first so that policy questions containing
// incidental numeric words are not misrouted to SQL. Order matters.
var ragPhrases = []string{
	"according to",
	"per the",
	"as defined in",
	"from the document",
	"return window",
	"return policy",
	"policy",
	"policies",
}

var definitionTerms = []string{"definition", "defined", "meaning of"}

var kpiTerms = []string{"aov", "gross margin", " gm ", "kpi", "average order value"}

var calculationTerms = []string{"calculate", "total", "average", "during"}

var timePeriodRe = regexp.MustCompile(`\b(during|between|quarter|month|week|summer|winter|spring|fall|january|february|march|april|may|june|july|august|september|october|november|december)\b`)

var sqlPhrases = []string{"all-time", "all time", "list all", "how many total"}

var sqlKeywords = []string{
	"total", "count", "sum", "average", "top", "list", "how many",
	"revenue", "quantity", "price", "orders", "customers", "products",
}

var (
	yearRe  = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	topByRe = regexp.MustCompile(`\btop\b.*\bby\b`)
)

// FallbackClassify is the deterministic classifier used when the model is
// unavailable or returns no legal token. Pure; classifying the same question
// twice yields the same result.
func FallbackClassify(question string) QueryType {
	q := " " + strings.ToLower(question) + " "

	for _, p := range ragPhrases {
		if strings.Contains(q, p) {
			return TypeRAG
		}
	}

	// A definition lookup that also asks for a computation ("using the AOV
	// definition, calculate ...") still needs the database; only a pure
	// definition question stays rag.
	if containsAny(q, definitionTerms) && containsAny(q, kpiTerms) && !containsAny(q, calculationTerms) {
		return TypeRAG
	}

	if models.CampaignIn(q) != "" || strings.Contains(q, "campaign") {
		return TypeHybrid
	}

	if strings.Contains(q, "using the") && containsAny(q, calculationTerms) {
		return TypeHybrid
	}

	if yearRe.MatchString(q) && timePeriodRe.MatchString(q) {
		return TypeHybrid
	}

	if containsAny(q, sqlPhrases) || topByRe.MatchString(q) {
		return TypeSQL
	}

	distinct := 0
	for _, kw := range sqlKeywords {
		if strings.Contains(q, kw) {
			distinct++
		}
	}
	if distinct >= 2 {
		return TypeSQL
	}

	return TypeHybrid
}

func containsAny(q string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(q, t) {
			return true
		}
	}
	return false
}
