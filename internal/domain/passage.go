package domain

import "strings"

// PassageCandidate is a single similarity-search match from the vector index.
type PassageCandidate struct {
	ID      string
	Text    string
	Score   float64
	Source  string
	DocType string
}

// IsCurated reports whether the passage belongs to the curated synthetic set.
// Curated passages consolidate answers to broad questions and always rank
// ahead of raw manual excerpts.
func (p PassageCandidate) IsCurated() bool {
	return strings.Contains(p.DocType, "synthetic")
}

// KindPriority maps the document kind to its ranking tier.
func (p PassageCandidate) KindPriority() int {
	if p.IsCurated() {
		return 1
	}
	return 0
}

// IndexItem is a passage prepared for upload to the vector index.
type IndexItem struct {
	ID      string
	Values  []float32
	Text    string
	Source  string
	DocType string
}

// SourceCitation is the caller-facing projection of a retrieved passage.
type SourceCitation struct {
	Source      string  `json:"source"`
	Score       float64 `json:"score"`
	TextPreview string  `json:"text_preview"`
}

// AnswerRecord is the final outcome of one query: the generated answer, the
// citations backing it, and the token cost. It is what gets cached.
type AnswerRecord struct {
	Answer     string           `json:"answer"`
	Sources    []SourceCitation `json:"sources"`
	TokensUsed int              `json:"tokens_used"`
}

// ChatTurn is one prior turn of the conversation, oldest first.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
