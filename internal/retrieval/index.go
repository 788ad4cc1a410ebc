package retrieval

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

const vocabLimit = 5000

var wordRe = regexp.MustCompile(`[a-z0-9][a-z0-9/'-]*`)

// tfidfIndex holds term-frequency/inverse-document-frequency vectors over
// uni- and bi-grams of the corpus, with the vocabulary capped at vocabLimit
// terms (highest document frequency first, ties by term).
type tfidfIndex struct {
	vocab map[string]int
	idf   []float64
	vecs  []map[int]float64
}

func tokenize(text string) []string {
	return wordRe.FindAllString(strings.ToLower(text), -1)
}

func terms(tokens []string) []string {
	out := make([]string, 0, len(tokens)*2)
	out = append(out, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		out = append(out, tokens[i]+" "+tokens[i+1])
	}
	return out
}

func buildIndex(contents []string) *tfidfIndex {
	df := map[string]int{}
	docTerms := make([][]string, len(contents))
	for i, c := range contents {
		ts := terms(tokenize(c))
		docTerms[i] = ts
		seen := map[string]struct{}{}
		for _, t := range ts {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			df[t]++
		}
	}

	type termDF struct {
		term string
		df   int
	}
	all := make([]termDF, 0, len(df))
	for t, n := range df {
		all = append(all, termDF{term: t, df: n})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].df != all[j].df {
			return all[i].df > all[j].df
		}
		return all[i].term < all[j].term
	})
	if len(all) > vocabLimit {
		all = all[:vocabLimit]
	}

	idx := &tfidfIndex{
		vocab: make(map[string]int, len(all)),
		idf:   make([]float64, len(all)),
		vecs:  make([]map[int]float64, len(contents)),
	}
	n := float64(len(contents))
	for i, td := range all {
		idx.vocab[td.term] = i
		idx.idf[i] = math.Log(n/(1.0+float64(td.df))) + 1.0
	}
	for i, ts := range docTerms {
		idx.vecs[i] = idx.vectorize(ts)
	}
	return idx
}

// vectorize builds an L2-normalized sparse tf-idf vector.
func (x *tfidfIndex) vectorize(ts []string) map[int]float64 {
	vec := map[int]float64{}
	for _, t := range ts {
		if i, ok := x.vocab[t]; ok {
			vec[i]++
		}
	}
	var norm float64
	for i, tf := range vec {
		w := tf * x.idf[i]
		vec[i] = w
		norm += w * w
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}

func (x *tfidfIndex) similarity(query []string, doc int) float64 {
	if doc < 0 || doc >= len(x.vecs) {
		return 0
	}
	qv := x.vectorize(query)
	dv := x.vecs[doc]
	if len(qv) > len(dv) {
		qv, dv = dv, qv
	}
	var dot float64
	for i, w := range qv {
		dot += w * dv[i]
	}
	return dot
}
