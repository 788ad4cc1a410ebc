package corpus

// Chunk is one retrievable unit of source text. The Score field is scratch
// space overwritten on every retrieval call; it is not part of identity.
type Chunk struct {
	ID      string  `json:"id"`
	Content string  `json:"content"`
	Source  string  `json:"source"`
	Score   float64 `json:"score"`
}
