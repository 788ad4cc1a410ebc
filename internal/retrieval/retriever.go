package retrieval

import (
	"sort"
	"strings"

	"retailqa/internal/corpus"
)

// Retriever ranks corpus chunks against a query with a blended relevance
// score. The index is built once and read-only afterwards.
type Retriever struct {
	chunks      []corpus.Chunk
	chunkLower  []string
	chunkTokens [][]string
	index       *tfidfIndex
	topK        int
}

func New(chunks []corpus.Chunk, topK int) *Retriever {
	if topK <= 0 {
		topK = 3
	}
	r := &Retriever{
		chunks:      chunks,
		chunkLower:  make([]string, len(chunks)),
		chunkTokens: make([][]string, len(chunks)),
		topK:        topK,
	}
	contents := make([]string, len(chunks))
	for i, c := range chunks {
		contents[i] = c.Content
		r.chunkLower[i] = strings.ToLower(c.Content)
		r.chunkTokens[i] = tokenize(c.Content)
	}
	r.index = buildIndex(contents)
	return r
}

// Retrieve returns up to topK chunks ranked by combined score, ties broken
// by original chunk order. Returned chunks carry the combined score.
func (r *Retriever) Retrieve(query string) []corpus.Chunk {
	if len(r.chunks) == 0 {
		return nil
	}
	queryLower := strings.ToLower(query)
	queryTokens := tokenize(query)
	queryTerms := terms(queryTokens)

	scores := make([]float64, len(r.chunks))
	for i := range r.chunks {
		tfidf := r.index.similarity(queryTerms, i)
		overlap := overlapScore(queryTokens, r.chunkLower[i], r.chunkTokens[i])
		docRel := docTypeScore(queryLower, r.chunkLower[i], r.chunks[i].Source)
		entity := entityScore(query, queryLower, r.chunks[i].Content, r.chunkLower[i])
		scores[i] = weightTFIDF*tfidf + weightOverlap*overlap + weightDocType*docRel + weightEntity*entity
	}

	order := make([]int, len(r.chunks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	k := r.topK
	if k > len(order) {
		k = len(order)
	}
	out := make([]corpus.Chunk, 0, k)
	for _, i := range order[:k] {
		c := r.chunks[i]
		c.Score = scores[i]
		out = append(out, c)
	}
	return out
}

// TopK reports the configured result bound.
func (r *Retriever) TopK() int {
	return r.topK
}
