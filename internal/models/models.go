package models

// Question is one record of the JSONL batch input.
type Question struct {
	ID         string `json:"id"`
	Question   string `json:"question"`
	FormatHint string `json:"format_hint,omitempty"`
}

// Result is one record of the JSONL batch output. FinalAnswer is already
// normalized to the requested format, so it may be a number, object, list or
// string.
type Result struct {
	ID          string   `json:"id"`
	FinalAnswer any      `json:"final_answer"`
	SQL         string   `json:"sql"`
	Confidence  float64  `json:"confidence"`
	Explanation string   `json:"explanation"`
	Citations   []string `json:"citations"`
}
