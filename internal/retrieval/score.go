package retrieval

import (
	"regexp"
	"strings"

	"retailqa/internal/models"
)

// Blend weights for the four relevance signals. They sum to 1.0 and each
// signal is clamped to [0,1] before blending.
const (
	weightTFIDF   = 0.35
	weightOverlap = 0.30
	weightDocType = 0.25
	weightEntity  = 0.10
)

var (
	entityRe = regexp.MustCompile(`[A-Z][a-z]+(?: [A-Z][a-z]+)+`)
	yearRe   = regexp.MustCompile(`\b\d{4}\b`)
	digitRe  = regexp.MustCompile(`\d`)
)

var docTypeCues = map[string][]string{
	"policy":    {"return", "policy", "days", "refund", "window"},
	"kpi":       {"aov", "margin", "gm", "kpi", "average order value", "definition"},
	"marketing": {"campaign", "summer", "winter", "holiday", "promotion"},
	"catalog":   {"category", "categories", "catalog", "product"},
}

var docTypeBonus = map[string]float64{
	"policy":    0.4,
	"kpi":       0.4,
	"marketing": 0.3,
	"catalog":   0.3,
}

var numericCues = []string{"how many", "what is", "return", "days"}

// docType classifies a source document by its file name.
func docType(source string) string {
	s := strings.ToLower(source)
	switch {
	case strings.Contains(s, "policy"):
		return "policy"
	case strings.Contains(s, "kpi"):
		return "kpi"
	case strings.Contains(s, "marketing"), strings.Contains(s, "calendar"), strings.Contains(s, "campaign"):
		return "marketing"
	case strings.Contains(s, "catalog"), strings.Contains(s, "product"):
		return "catalog"
	}
	return ""
}

// overlapScore is the Jaccard similarity of the token sets plus verbatim
// bonuses: +0.15 per query token longer than 3 runes found in the chunk and
// +0.20 per query bigram found in the chunk.
func overlapScore(queryTokens []string, chunkLower string, chunkTokens []string) float64 {
	qset := map[string]struct{}{}
	for _, t := range queryTokens {
		qset[t] = struct{}{}
	}
	cset := map[string]struct{}{}
	for _, t := range chunkTokens {
		cset[t] = struct{}{}
	}
	inter := 0
	for t := range qset {
		if _, ok := cset[t]; ok {
			inter++
		}
	}
	union := len(qset) + len(cset) - inter
	score := 0.0
	if union > 0 {
		score = float64(inter) / float64(union)
	}

	for t := range qset {
		if len(t) > 3 && strings.Contains(chunkLower, t) {
			score += 0.15
		}
	}
	for i := 0; i+1 < len(queryTokens); i++ {
		if strings.Contains(chunkLower, queryTokens[i]+" "+queryTokens[i+1]) {
			score += 0.20
		}
	}
	return clamp01(score)
}

// docTypeScore awards fixed topical bonuses when the chunk's source document
// category matches cues in the query, plus a bonus when a named campaign in
// the query appears verbatim in the chunk.
func docTypeScore(queryLower, chunkLower, source string) float64 {
	score := 0.0
	dt := docType(source)
	if dt != "" {
		for _, cue := range docTypeCues[dt] {
			if strings.Contains(queryLower, cue) {
				score += docTypeBonus[dt]
				break
			}
		}
	}
	if name := models.CampaignIn(queryLower); name != "" && strings.Contains(chunkLower, name) {
		score += 0.3
	}
	return clamp01(score)
}

// entityScore boosts chunks sharing capitalized multi-word entities or
// 4-digit years with the query, plus a digit-presence bonus when the query
// implies a numeric answer.
func entityScore(query, queryLower, content, chunkLower string) float64 {
	score := 0.0
	for _, ent := range entityRe.FindAllString(query, -1) {
		if strings.Contains(chunkLower, strings.ToLower(ent)) {
			score += 0.1
		}
	}
	for _, year := range yearRe.FindAllString(query, -1) {
		if strings.Contains(content, year) {
			score += 0.1
		}
	}
	for _, cue := range numericCues {
		if strings.Contains(queryLower, cue) && digitRe.MatchString(content) {
			score += 0.1
			break
		}
	}
	return clamp01(score)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
